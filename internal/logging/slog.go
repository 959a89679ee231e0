package logging

import (
	"fmt"
	"log/slog"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeyTool      = "tool"
	KeyPath      = "path"
	KeyFileID    = "file_id"
	KeyParentID  = "parent_id"
	KeyRunID     = "run_id"
	KeyCount     = "count"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Path returns a slog attribute for an absolute Drive path.
func Path(path string) slog.Attr {
	return slog.String(KeyPath, path)
}

// FileID returns a slog attribute for a Drive object ID.
func FileID(id string) slog.Attr {
	return slog.String(KeyFileID, id)
}

// ParentID returns a slog attribute for a Drive parent folder ID.
func ParentID(id string) slog.Attr {
	return slog.String(KeyParentID, id)
}

// RunID returns a slog attribute identifying one bulk run.
func RunID(id string) slog.Attr {
	return slog.String(KeyRunID, id)
}

// Count returns a slog attribute for an item count.
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// SanitizeToken returns a masked version of a token for logging.
// It returns a length indicator without exposing any token content.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
