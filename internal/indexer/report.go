package indexer

import (
	"encoding/json"
	"fmt"
	"time"

	"volume-index/internal/cache"
)

// SkippedEntry is a directory the walk could not (fully) read.
type SkippedEntry struct {
	Path string
	Err  error
}

// MarshalJSON renders the error as its message.
func (s SkippedEntry) MarshalJSON() ([]byte, error) {
	msg := ""
	if s.Err != nil {
		msg = s.Err.Error()
	}
	return json.Marshal(struct {
		Path  string `json:"path"`
		Error string `json:"error"`
	}{s.Path, msg})
}

// WalkReport summarises one walk.
type WalkReport struct {
	Root        string         `json:"root"`
	Files       int64          `json:"files"`
	Directories int64          `json:"directories"`
	Skipped     []SkippedEntry `json:"skipped,omitempty"`
	Duration    time.Duration  `json:"duration"`
	Canceled    bool           `json:"canceled,omitempty"`
}

// Entries returns the number of entries recorded.
func (r WalkReport) Entries() int64 {
	return r.Files + r.Directories
}

// Err returns a VolumeWalkPartial error when anything was skipped. The bucket
// is still complete for everything that was readable.
func (r WalkReport) Err() error {
	if len(r.Skipped) == 0 {
		return nil
	}
	return cache.NewError(cache.VolumeWalkPartial, r.Root,
		fmt.Errorf("%d unreadable directories skipped, first: %s: %w", len(r.Skipped), r.Skipped[0].Path, r.Skipped[0].Err))
}
