package drive

import (
	"errors"
	"fmt"
)

// ErrUnrefreshable is returned once the credential can no longer be refreshed
// because a refresh token or client credentials are missing.
var ErrUnrefreshable = errors.New("credential cannot be refreshed")

// AuthError reports a failure to obtain a usable credential.
// It is distinct from RemoteError so callers can tell "could not
// authenticate" from "authenticated but the remote rejected the call".
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "authentication failed: " + e.Reason
	}
	return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// RemoteError reports a failed remote call. StatusCode is 0 for
// network-level failures.
type RemoteError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("drive %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("drive %s failed: status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a remote 404.
func IsNotFound(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.StatusCode == 404
}
