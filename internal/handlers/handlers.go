package handlers

import (
	"time"

	"volume-index/internal/disks"
)

// Handlers serves the index API over one disks.Service
type Handlers struct {
	service      *disks.Service
	startTime    time.Time
	requireIndex bool
}

// New creates the handler set. When requireIndex is true the readiness
// probe fails until the index has been loaded or built.
func New(service *disks.Service, requireIndex bool) *Handlers {
	return &Handlers{
		service:      service,
		startTime:    time.Now(),
		requireIndex: requireIndex,
	}
}
