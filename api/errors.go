package api

import (
	"errors"
	"fmt"
)

// Distinguished sub-status values in the service's error envelope.
const (
	subStatusRegionLocked = 2001
	subStatusNoPrivilege  = 4005
)

// RequestError is a non-200 structured API response.
type RequestError struct {
	Status    int
	SubStatus int
	Message   string
	Path      string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%d: %s (HTTP %d, %s)", e.SubStatus, e.Message, e.Status, e.Path)
}

// RegionLockedError marks the (404, 2001) envelope pair: the item exists but
// is likely unavailable in the session's region. Callers use it to trigger
// account-selection fallback.
type RegionLockedError struct {
	RequestError
}

func (e *RegionLockedError) Error() string {
	return fmt.Sprintf("likely region-locked: %s", e.RequestError.Error())
}

// InsufficientPrivilegeError marks a playback-negotiation refusal for the
// bound session: the account's tier or device type cannot stream the asset.
// Recoverable by retrying with a different session.
type InsufficientPrivilegeError struct {
	RequestError
}

func (e *InsufficientPrivilegeError) Error() string {
	return fmt.Sprintf("session lacks streaming privilege: %s", e.RequestError.Error())
}

// TransportError wraps an unparsable response or exhausted HTTP retries.
// Fatal to the single request only.
type TransportError struct {
	Path string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure on %s: %v", e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRegionLocked reports whether err marks a region-locked response.
func IsRegionLocked(err error) bool {
	var rl *RegionLockedError
	return errors.As(err, &rl)
}

// IsInsufficientPrivilege reports whether err marks a streaming-privilege refusal.
func IsInsufficientPrivilege(err error) bool {
	var ip *InsufficientPrivilegeError
	return errors.As(err, &ip)
}

// classify converts a structured error envelope into its typed form.
func classify(envelope errorEnvelope, path string) error {
	base := RequestError{
		Status:    envelope.Status,
		SubStatus: envelope.SubStatus,
		Message:   envelope.UserMessage,
		Path:      path,
	}

	switch {
	case envelope.Status == 404 && envelope.SubStatus == subStatusRegionLocked:
		return &RegionLockedError{RequestError: base}
	case envelope.SubStatus == subStatusNoPrivilege:
		return &InsufficientPrivilegeError{RequestError: base}
	default:
		return &base
	}
}
