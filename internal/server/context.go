package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teemow/drivepath/internal/bulk"
	"github.com/teemow/drivepath/internal/drive"
	"github.com/teemow/drivepath/internal/drivefs"
	"github.com/teemow/drivepath/internal/instrumentation"
)

// Config holds the dependencies of a ServerContext.
type Config struct {
	// Store is the Drive backend, usually a *drive.Client
	Store drivefs.Store

	// Tokens is the credential owner of Store; nil for fake stores
	Tokens *drive.TokenManager

	// Yolo enables the write tools
	Yolo bool

	Logger      *slog.Logger
	Metrics     *instrumentation.Metrics
	AuditLogger *instrumentation.AuditLogger
}

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	adapter  *drivefs.Adapter
	executor *bulk.Executor
	tokens   *drive.TokenManager
	yolo     bool

	logger      *slog.Logger
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, cfg Config) (*ServerContext, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("drive store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	adapter := drivefs.New(cfg.Store,
		drivefs.WithLogger(logger),
		drivefs.WithMetrics(cfg.Metrics),
	)
	executor := bulk.New(adapter,
		bulk.WithLogger(logger),
		bulk.WithMetrics(cfg.Metrics),
	)

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:         shutdownCtx,
		cancel:      cancel,
		adapter:     adapter,
		executor:    executor,
		tokens:      cfg.Tokens,
		yolo:        cfg.Yolo,
		logger:      logger,
		metrics:     cfg.Metrics,
		auditLogger: cfg.AuditLogger,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Adapter returns the path-addressed Drive adapter.
func (sc *ServerContext) Adapter() *drivefs.Adapter {
	return sc.adapter
}

// Executor returns the bulk executor.
func (sc *ServerContext) Executor() *bulk.Executor {
	return sc.executor
}

// Tokens returns the token manager, or nil when the store is not a remote client.
func (sc *ServerContext) Tokens() *drive.TokenManager {
	return sc.tokens
}

// Yolo reports whether write tools are enabled.
func (sc *ServerContext) Yolo() bool {
	return sc.yolo
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Metrics returns the metrics recorder; may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the tool audit logger; may be nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
