package drivefs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teemow/drivepath/internal/drive"
	"github.com/teemow/drivepath/internal/instrumentation"
	"github.com/teemow/drivepath/internal/resolver"
)

// Store is the subset of the Drive client the adapter needs.
// *drive.Client and *drivetest.Store implement it.
type Store interface {
	List(ctx context.Context, req drive.ListRequest) (*drive.ListResult, error)
	Get(ctx context.Context, id string) (*drive.RemoteObject, error)
	Create(ctx context.Context, req drive.CreateRequest) (*drive.RemoteObject, error)
	Update(ctx context.Context, id string, req drive.UpdateRequest) (*drive.RemoteObject, error)
	Download(ctx context.Context, id string) ([]byte, error)
	Export(ctx context.Context, id, mimeType string) ([]byte, error)
}

// Adapter implements path-oriented operations over a Store.
// Each Adapter owns its path cache.
type Adapter struct {
	store    Store
	resolver *resolver.Resolver
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder used by the path cache.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(a *Adapter) {
		a.metrics = m
	}
}

// New returns an Adapter with a cold path cache.
func New(store Store, opts ...Option) *Adapter {
	a := &Adapter{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.resolver = resolver.New(store,
		resolver.WithLogger(a.logger),
		resolver.WithMetrics(a.metrics),
	)
	return a
}

// Resolver returns the adapter's path resolver.
func (a *Adapter) Resolver() *resolver.Resolver {
	return a.resolver
}

// ResolvePath returns the ID of the object at path.
func (a *Adapter) ResolvePath(ctx context.Context, path string) (string, error) {
	return a.resolver.ResolvePathToID(ctx, path)
}

// ResolveID returns the absolute path of the object with the given ID.
func (a *Adapter) ResolveID(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("fileId is required")
	}
	return a.resolver.ResolveIDToPath(ctx, id)
}

// Stat returns the canonical view of the object with the given ID.
func (a *Adapter) Stat(ctx context.Context, id string) (*CanonicalFile, error) {
	if id == "" {
		return nil, fmt.Errorf("fileId is required")
	}
	obj, err := a.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	f := a.canonical(ctx, obj)
	return &f, nil
}

// StatPath resolves path and returns the canonical view of its object.
func (a *Adapter) StatPath(ctx context.Context, path string) (*CanonicalFile, error) {
	id, err := a.resolver.ResolvePathToID(ctx, path)
	if err != nil {
		return nil, err
	}
	return a.Stat(ctx, id)
}

func (a *Adapter) canonical(ctx context.Context, obj *drive.RemoteObject) CanonicalFile {
	return newCanonicalFile(obj, a.resolver.PathFor(ctx, obj))
}

// folderTarget resolves an ID-or-path pair to a folder ID and its path.
// The ID wins when both are given; neither means the root.
func (a *Adapter) folderTarget(ctx context.Context, folderID, folderPath string) (string, string, error) {
	if folderID != "" {
		p, err := a.resolver.ResolveIDToPath(ctx, folderID)
		if err != nil {
			return "", "", err
		}
		return folderID, p, nil
	}

	p := resolver.NormalizePath(folderPath)
	id, err := a.resolver.ResolvePathToID(ctx, p)
	if err != nil {
		return "", "", err
	}
	return id, p, nil
}
