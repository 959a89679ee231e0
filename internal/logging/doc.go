// Package logging provides structured logging utilities for drivepath.
//
// All components log through log/slog. This package builds the process
// logger and centralizes attribute names so that paths, file IDs and bulk
// run IDs are spelled the same everywhere.
//
// # Usage Patterns
//
//	logger := logging.WithOperation(slog.Default(), "drive.move")
//	logger.Info("moved file",
//	    logging.FileID(id),
//	    logging.Path(dest))
//
// # Security Considerations
//
// Tokens are never logged directly; use SanitizeToken.
package logging
