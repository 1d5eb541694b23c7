package handlers

import (
	"net/http"
	"time"

	"volume-index/internal/cache"
	"volume-index/internal/disks"
	"volume-index/internal/indexer"
)

// StatsResponse describes the index and how it was initialized
type StatsResponse struct {
	State         disks.State          `json:"state"`
	SnapshotPath  string               `json:"snapshot_path"`
	InitializedAt *time.Time           `json:"initialized_at,omitempty"`
	LastError     string               `json:"last_error,omitempty"`
	Volumes       []cache.VolumeStats  `json:"volumes"`
	Reports       []indexer.WalkReport `json:"reports"`
}

// Stats reports per-volume counts and the last build's walk reports.
// It never triggers initialization.
func (h *Handlers) Stats(w http.ResponseWriter, _ *http.Request) {
	response := StatsResponse{
		State:        h.service.State(),
		SnapshotPath: h.service.SnapshotPath(),
		Volumes:      h.service.VolumeStats(),
		Reports:      h.service.LastReports(),
	}

	if at := h.service.InitializedAt(); !at.IsZero() {
		response.InitializedAt = &at
	}
	if err := h.service.LastError(); err != nil {
		response.LastError = err.Error()
	}
	if response.Volumes == nil {
		response.Volumes = []cache.VolumeStats{}
	}
	if response.Reports == nil {
		response.Reports = []indexer.WalkReport{}
	}

	writeJSONOK(w, response)
}
