package handlers

import (
	"net/http"

	"volume-index/internal/disks"
	"volume-index/internal/explorer"
)

// GetDisks lists the mounted volumes. The first call loads or builds the index.
func (h *Handlers) GetDisks(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Disks(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []disks.Disk{}
	}
	writeJSONOK(w, list)
}

// Directory lists the immediate children of ?path=
func (h *Handlers) Directory(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	writeJSONOK(w, explorer.OpenDirectory(path))
}
