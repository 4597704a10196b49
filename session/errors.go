package session

import (
	"errors"
	"fmt"
)

// ErrAuthorizationDenied indicates the remote rejected the client identifier
// or the user declined the authorization request.
var ErrAuthorizationDenied = errors.New("authorization denied by the remote service")

// AuthError describes a failed authentication attempt: wrong credentials, an
// unverifiable email address, or an insufficient subscription tier. It is
// fatal to the attempt but recoverable by retrying interactively.
type AuthError struct {
	Status    int
	SubStatus int
	Message   string
}

func (e *AuthError) Error() string {
	if e.SubStatus != 0 {
		return fmt.Sprintf("authentication failed: %s (HTTP %d, sub-status %d)", e.Message, e.Status, e.SubStatus)
	}
	return fmt.Sprintf("authentication failed: %s (HTTP %d)", e.Message, e.Status)
}

// Store errors.

// ErrCorruptStore indicates the persisted session file carries an unexpected
// schema version or cannot be decoded. This is fatal and requires manual
// deletion of the file; no migration is attempted.
var ErrCorruptStore = errors.New("session store file is corrupt or has an incompatible version")

// DuplicateNameError reports an attempt to add a session under a name that already exists.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("a session named %q already exists", e.Name)
}

// NotFoundError reports a lookup of a session name absent from the store.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no session named %q", e.Name)
}

// InvalidSessionError reports that a session could not be made valid even
// after a refresh attempt. Re-authentication is required.
type InvalidSessionError struct {
	Name string
}

func (e *InvalidSessionError) Error() string {
	return fmt.Sprintf("session %q is invalid and could not be refreshed; please re-authenticate it", e.Name)
}
