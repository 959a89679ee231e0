package bulk

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/drivepath/internal/drivefs"
	"github.com/teemow/drivepath/internal/instrumentation"
	"github.com/teemow/drivepath/internal/logging"
)

// Adapter is the subset of *drivefs.Adapter the executor needs.
type Adapter interface {
	MoveFile(ctx context.Context, id, newParentID string) (*drivefs.ChangeResult, error)
	MoveFolder(ctx context.Context, id, newParentID string) (*drivefs.ChangeResult, error)
	RenameFile(ctx context.Context, id, newName string) (*drivefs.ChangeResult, error)
	RenameFolder(ctx context.Context, id, newName string) (*drivefs.ChangeResult, error)
	CreateFolder(ctx context.Context, name, parentID string) (*drivefs.CanonicalFile, error)
	ResolvePath(ctx context.Context, path string) (string, error)
	Children(ctx context.Context, folderID string) ([]drivefs.CanonicalFile, error)
}

// Item statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Summary counts the outcome of a batch. Succeeded + Failed + Skipped == Total.
//
// An operation that finds the object already in place, such as a move into
// its current parent or an existing folder in CreateFolders, completes
// without error but is counted in Skipped, not Succeeded. Succeeded counts
// only items that changed the Drive.
type Summary struct {
	Total           int     `json:"total"`
	Succeeded       int     `json:"succeeded"`
	Failed          int     `json:"failed"`
	Skipped         int     `json:"skipped"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// Failure records one failed item.
type Failure struct {
	Index     int    `json:"index"`
	Operation any    `json:"operation"`
	Error     string `json:"error"`
}

// Item is the outcome of one batch item.
type Item struct {
	Index   int    `json:"index"`
	Target  string `json:"target"`
	Status  string `json:"status"`
	ID      string `json:"id,omitempty"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message,omitempty"`
}

// Result is the outcome of a batch. Failures is non-empty iff Summary.Failed > 0.
type Result struct {
	RunID    string    `json:"runId"`
	Success  bool      `json:"success"`
	Message  string    `json:"message"`
	Summary  Summary   `json:"summary"`
	Items    []Item    `json:"items"`
	Failures []Failure `json:"failures,omitempty"`
}

// Executor applies batches sequentially against an Adapter.
type Executor struct {
	adapter Adapter
	logger  *slog.Logger
	metrics *instrumentation.Metrics
	now     func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records per-item and per-run metrics.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// WithClock overrides time.Now for duration accounting.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

// New returns an Executor.
func New(adapter Adapter, opts ...Option) *Executor {
	e := &Executor{
		adapter: adapter,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run tracks one batch while it executes.
type run struct {
	e      *Executor
	kind   string
	start  time.Time
	logger *slog.Logger
	result *Result
}

func (e *Executor) begin(kind string, total int) *run {
	id := uuid.NewString()
	r := &run{
		e:      e,
		kind:   kind,
		start:  e.now(),
		logger: logging.WithOperation(e.logger, kind).With(logging.RunID(id)),
		result: &Result{
			RunID:   id,
			Summary: Summary{Total: total},
			Items:   make([]Item, 0, total),
		},
	}
	r.logger.Info("bulk run started", logging.Count(total))
	return r
}

func (r *run) succeed(ctx context.Context, item Item, opType string) {
	item.Status = StatusSucceeded
	r.result.Summary.Succeeded++
	r.result.Items = append(r.result.Items, item)
	r.e.metrics.RecordBulkOperation(ctx, opType, instrumentation.StatusSuccess)
}

func (r *run) skip(ctx context.Context, item Item, opType, reason string) {
	item.Status = StatusSkipped
	item.Message = reason
	r.result.Summary.Skipped++
	r.result.Items = append(r.result.Items, item)
	r.e.metrics.RecordBulkOperation(ctx, opType, instrumentation.StatusSkipped)
}

func (r *run) fail(ctx context.Context, item Item, opType string, op any, err error) {
	item.Status = StatusFailed
	item.Message = err.Error()
	r.result.Summary.Failed++
	r.result.Items = append(r.result.Items, item)
	r.result.Failures = append(r.result.Failures, Failure{
		Index:     item.Index,
		Operation: op,
		Error:     err.Error(),
	})
	r.e.metrics.RecordBulkOperation(ctx, opType, instrumentation.StatusError)
	r.logger.Warn("bulk item failed",
		slog.Int("index", item.Index),
		slog.String("target", item.Target),
		logging.Err(err))
}

func (r *run) finish(ctx context.Context) *Result {
	elapsed := r.e.now().Sub(r.start)
	res := r.result
	res.Summary.DurationSeconds = elapsed.Seconds()
	res.Success = res.Summary.Failed == 0
	if res.Success {
		res.Message = fmt.Sprintf("All %d operations completed successfully", res.Summary.Total)
	} else {
		res.Message = fmt.Sprintf("Completed with %d failures out of %d operations", res.Summary.Failed, res.Summary.Total)
	}

	r.e.metrics.RecordBulkRun(ctx, r.kind, elapsed)
	r.logger.Info("bulk run finished",
		slog.Int("succeeded", res.Summary.Succeeded),
		slog.Int("failed", res.Summary.Failed),
		slog.Int("skipped", res.Summary.Skipped),
		slog.Duration(logging.KeyDuration, elapsed))
	return res
}

// Execute applies ops in order. Each operation is validated before any
// remote call; an invalid or failing operation is recorded and the batch
// continues.
func (e *Executor) Execute(ctx context.Context, ops []Operation) (*Result, error) {
	if len(ops) == 0 {
		return nil, &ValidationError{Field: "operations", Reason: "cannot be empty"}
	}

	r := e.begin("operations", len(ops))
	for i, op := range ops {
		item := Item{Index: i, Target: op.target()}
		opType := string(op.Type)

		if err := op.Validate(); err != nil {
			r.fail(ctx, item, opType, op, err)
			continue
		}

		changed, id, err := e.apply(ctx, op)
		item.ID = id
		switch {
		case err != nil:
			r.fail(ctx, item, opType, op, err)
		case !changed:
			r.skip(ctx, item, opType, "already in requested state")
		default:
			r.succeed(ctx, item, opType)
		}
	}
	return r.finish(ctx), nil
}

func (op Operation) target() string {
	if op.SourceID != "" {
		return op.SourceID
	}
	return op.NewName
}

// apply dispatches one validated operation. It reports whether the remote
// state changed and the ID of the affected object.
func (e *Executor) apply(ctx context.Context, op Operation) (bool, string, error) {
	var res *drivefs.ChangeResult
	var err error

	switch op.Type {
	case OpMoveFile:
		res, err = e.adapter.MoveFile(ctx, op.SourceID, op.DestinationParentID)
	case OpMoveFolder:
		res, err = e.adapter.MoveFolder(ctx, op.SourceID, op.DestinationParentID)
	case OpRenameFile:
		res, err = e.adapter.RenameFile(ctx, op.SourceID, op.NewName)
	case OpRenameFolder:
		res, err = e.adapter.RenameFolder(ctx, op.SourceID, op.NewName)
	case OpCreateFolder:
		f, err := e.adapter.CreateFolder(ctx, op.NewName, op.DestinationParentID)
		if err != nil {
			return false, "", err
		}
		return true, f.ID, nil
	default:
		return false, "", fmt.Errorf("unsupported operation type %q", op.Type)
	}
	if err != nil {
		return false, op.SourceID, err
	}
	return res.Changed, res.File.ID, nil
}
