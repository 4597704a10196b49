package downloader

import (
	"errors"
	"fmt"

	"github.com/tidewave-cli/tidewave/api"
)

// ErrExhausted signals that the account selector ran out of candidate
// sessions for the current item.
var ErrExhausted = errors.New("no candidate session can serve this item")

// ErrHalted aborts the remaining batch when a quality mismatch occurs and the
// configuration forbids skipping.
var ErrHalted = errors.New("halting: preferred quality unavailable")

// ErrNotStreamable marks a track the service refuses to stream at all.
// Reported and skipped, never retried.
var ErrNotStreamable = errors.New("item is not allowed to be streamed")

// QualityMismatchError reports a negotiated quality below the preferred tier.
type QualityMismatchError struct {
	Preferred api.Quality
	Delivered string
}

func (e *QualityMismatchError) Error() string {
	return fmt.Sprintf("wanted %s, service offered %s", e.Preferred, e.Delivered)
}

// FileSystemError wraps a local write failure. It fails the single item and is
// recorded in the failed-downloads registry for manual retry.
type FileSystemError struct {
	Path string
	Err  error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("filesystem failure at %s: %v", e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error {
	return e.Err
}
