package resolver

import "errors"

// NotFoundError is returned when a path segment has no match in its parent.
type NotFoundError struct {
	// Path is the sub-path that failed to resolve.
	Path string
}

func (e *NotFoundError) Error() string {
	return "path not found: " + e.Path
}

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
