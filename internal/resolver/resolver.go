package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/teemow/drivepath/internal/drive"
	"github.com/teemow/drivepath/internal/instrumentation"
	"github.com/teemow/drivepath/internal/logging"
	"github.com/teemow/drivepath/internal/query"
)

// maxAncestors bounds parent-chain walks so a parent cycle cannot recurse forever.
const maxAncestors = 64

// Store is the subset of the Drive client the resolver needs.
type Store interface {
	List(ctx context.Context, req drive.ListRequest) (*drive.ListResult, error)
	Get(ctx context.Context, id string) (*drive.RemoteObject, error)
}

// Resolver resolves paths to IDs and back, caching both directions.
type Resolver struct {
	store   Store
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	mu       sync.RWMutex
	pathToID map[string]string
	idToPath map[string]string

	rootMu      sync.Mutex
	rootAliases map[string]bool
	rootLearned bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics records cache hits and misses.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// New returns a Resolver with a cold cache seeded with "/" ↔ "root".
func New(store Store, opts ...Option) *Resolver {
	r := &Resolver{
		store:       store,
		logger:      slog.Default(),
		pathToID:    map[string]string{Root: drive.RootID},
		idToPath:    map[string]string{drive.RootID: Root},
		rootAliases: map[string]bool{drive.RootID: true},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CachedID returns the cached ID for path, if any.
func (r *Resolver) CachedID(path string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.pathToID[NormalizePath(path)]
	return id, ok
}

// CachedPath returns the cached path for id, if any.
func (r *Resolver) CachedPath(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.idToPath[id]
	return p, ok
}

// Remember caches path ↔ id. Any previous mapping of either side is
// dropped so the two maps stay inverse to each other.
func (r *Resolver) Remember(path, id string) {
	path = NormalizePath(path)
	if id == "" || IsPlaceholder(path) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rememberLocked(path, id)
}

func (r *Resolver) rememberLocked(path, id string) {
	if oldID, ok := r.pathToID[path]; ok && oldID != id {
		delete(r.idToPath, oldID)
	}
	if oldPath, ok := r.idToPath[id]; ok && oldPath != path {
		delete(r.pathToID, oldPath)
	}
	r.pathToID[path] = id
	r.idToPath[id] = path
}

// Invalidate drops the cached path of id and every cached path below it.
// The root is never invalidated.
func (r *Resolver) Invalidate(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.idToPath[id]
	if !ok {
		return
	}
	r.invalidatePathLocked(p)
}

// InvalidatePath drops the cached entry for path and every cached path below it.
func (r *Resolver) InvalidatePath(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidatePathLocked(NormalizePath(path))
}

func (r *Resolver) invalidatePathLocked(p string) {
	if p == Root {
		return
	}
	for cached, id := range r.pathToID {
		if isWithin(cached, p) {
			delete(r.pathToID, cached)
			delete(r.idToPath, id)
		}
	}
}

// ResolvePathToID returns the ID of the object at path. Only segments whose
// sub-path is not cached cost a remote query.
func (r *Resolver) ResolvePathToID(ctx context.Context, path string) (string, error) {
	path = NormalizePath(path)
	if id, ok := r.CachedID(path); ok {
		r.metrics.RecordPathCacheLookup(ctx, instrumentation.CacheDirectionPathToID, true)
		return id, nil
	}
	r.metrics.RecordPathCacheLookup(ctx, instrumentation.CacheDirectionPathToID, false)

	id := drive.RootID
	current := ""
	for _, seg := range Segments(path) {
		current += "/" + seg
		if cached, ok := r.CachedID(current); ok {
			id = cached
			continue
		}

		q := query.New().InParents(id).NameEquals(seg).Trashed(false).Build()
		res, err := r.store.List(ctx, drive.ListRequest{Query: q, PageSize: 1})
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s: %w", current, err)
		}
		if len(res.Objects) == 0 {
			return "", &NotFoundError{Path: current}
		}

		id = res.Objects[0].ID
		r.Remember(current, id)
		r.logger.Debug("resolved path segment", logging.Path(current), logging.FileID(id))
	}

	return id, nil
}

// ResolveIDToPath returns the absolute path of id, following first parents.
// Ancestors that cannot be fetched become placeholder segments; such paths
// are returned but not cached. An error is returned only when id itself
// cannot be fetched.
func (r *Resolver) ResolveIDToPath(ctx context.Context, id string) (string, error) {
	if p, ok := r.CachedPath(id); ok {
		r.metrics.RecordPathCacheLookup(ctx, instrumentation.CacheDirectionIDToPath, true)
		return p, nil
	}
	r.metrics.RecordPathCacheLookup(ctx, instrumentation.CacheDirectionIDToPath, false)

	if r.IsRoot(ctx, id) {
		return Root, nil
	}

	obj, err := r.store.Get(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to get %s: %w", id, err)
	}
	p, _ := r.pathOf(ctx, obj, 0)
	return p, nil
}

// PathFor returns the path of an object already fetched from the store.
// It never fails: unresolvable ancestors become placeholder segments.
func (r *Resolver) PathFor(ctx context.Context, obj *drive.RemoteObject) string {
	if p, ok := r.CachedPath(obj.ID); ok {
		return p
	}
	if r.IsRoot(ctx, obj.ID) {
		return Root
	}
	p, _ := r.pathOf(ctx, obj, 0)
	return p
}

// pathOf returns obj's path and whether it is anchored at the root. Only
// anchored paths are cached: a parentless object (shared with the user, not
// in My Drive) or a placeholder ancestor yields a path that may collide
// with a real My Drive path.
func (r *Resolver) pathOf(ctx context.Context, obj *drive.RemoteObject, depth int) (string, bool) {
	parentID := obj.FirstParent()
	if parentID == "" {
		return Join(Root, obj.Name), false
	}

	parentPath, anchored := r.ancestorPath(ctx, parentID, depth+1)
	p := Join(parentPath, obj.Name)
	if anchored {
		r.Remember(p, obj.ID)
	}
	return p, anchored
}

func (r *Resolver) ancestorPath(ctx context.Context, id string, depth int) (string, bool) {
	if p, ok := r.CachedPath(id); ok {
		return p, true
	}
	if r.IsRoot(ctx, id) {
		return Root, true
	}
	if depth > maxAncestors {
		return placeholder(id), false
	}

	obj, err := r.store.Get(ctx, id)
	if err != nil {
		r.logger.Debug("ancestor unresolvable, using placeholder",
			logging.FileID(id), logging.Err(err))
		return placeholder(id), false
	}
	return r.pathOf(ctx, obj, depth)
}

// IsRoot reports whether id is the root alias or the store's real root ID.
// The real ID is learned once from GET root.
func (r *Resolver) IsRoot(ctx context.Context, id string) bool {
	r.rootMu.Lock()
	defer r.rootMu.Unlock()

	if r.rootAliases[id] {
		return true
	}
	if r.rootLearned {
		return false
	}
	r.rootLearned = true

	root, err := r.store.Get(ctx, drive.RootID)
	if err != nil {
		r.logger.Debug("failed to learn root folder ID", logging.Err(err))
		return false
	}
	if root.ID != "" && !strings.EqualFold(root.ID, drive.RootID) {
		r.rootAliases[root.ID] = true
		r.mu.Lock()
		r.idToPath[root.ID] = Root
		r.mu.Unlock()
	}
	return r.rootAliases[id]
}
