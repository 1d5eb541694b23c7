package handlers

import (
	"net/http"
	"strings"

	"volume-index/internal/cache"
)

// SearchResult is the response for a search scoped to one volume
type SearchResult struct {
	Name    string              `json:"name"`
	Volume  string              `json:"volume"`
	Results []cache.CachedEntry `json:"results"`
}

// SearchAllResult is the response for a search across every volume
type SearchAllResult struct {
	Name    string                         `json:"name"`
	Volumes map[string][]cache.CachedEntry `json:"volumes"`
}

// Search looks up an exact entry name. With ?volume= the lookup is scoped to
// that volume; otherwise every volume with a match is returned.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if strings.TrimSpace(name) == "" {
		writeJSONError(w, "name is required", http.StatusBadRequest)
		return
	}

	if err := h.service.EnsureInitialized(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}

	if volume := r.URL.Query().Get("volume"); volume != "" {
		writeJSONOK(w, SearchResult{
			Name:    name,
			Volume:  volume,
			Results: h.service.Search(volume, name),
		})
		return
	}

	matches := h.service.SearchAll(name)
	if matches == nil {
		matches = map[string][]cache.CachedEntry{}
	}
	writeJSONOK(w, SearchAllResult{Name: name, Volumes: matches})
}
