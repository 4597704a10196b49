package downloader

import (
	"time"

	"github.com/metafates/gache"

	"github.com/tidewave-cli/tidewave/filesystem"
	"github.com/tidewave-cli/tidewave/log"
	"github.com/tidewave-cli/tidewave/where"
)

// Failure is one recorded download failure, kept for manual retry.
type Failure struct {
	Item   string    `json:"item"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

var failedCacher = gache.New[map[string]Failure](&gache.Options{
	Path:       where.Failed(),
	FileSystem: &filesystem.GacheFs{},
})

// recordFailure appends a failed item to the persistent registry. Best effort:
// a registry write failure is logged, never escalated.
func recordFailure(item Item, reason string) {
	failures, _, err := failedCacher.Get()
	if err != nil || failures == nil {
		failures = make(map[string]Failure)
	}

	failures[item.String()] = Failure{
		Item:   item.String(),
		Reason: reason,
		At:     time.Now(),
	}

	if err := failedCacher.Set(failures); err != nil {
		log.Errorf("record failure for %s: %v", item, err)
	}
}

// Failures returns the recorded failed downloads.
func Failures() map[string]Failure {
	failures, _, err := failedCacher.Get()
	if err != nil || failures == nil {
		return map[string]Failure{}
	}
	return failures
}

// ClearFailures empties the failed-downloads registry.
func ClearFailures() error {
	return failedCacher.Set(map[string]Failure{})
}
