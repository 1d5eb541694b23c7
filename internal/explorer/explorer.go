// Package explorer lists the immediate children of a directory for
// interactive navigation. Nothing is cached and errors are not surfaced.
package explorer

import (
	"path/filepath"
	"sort"

	"volume-index/internal/cache"
	"volume-index/internal/filesystem"
	"volume-index/internal/logging"
)

// DirectoryChild is one entry of a listing.
type DirectoryChild struct {
	Kind cache.FileType `json:"kind"`
	Name string         `json:"name"`
	Path string         `json:"path"`
}

// OpenDirectory returns the children of path, directories first, then by
// name. It returns an empty slice if path cannot be opened. Children whose
// type cannot be determined (for example, removed mid-listing) are skipped.
// Symlinks are not followed: every link, including one that points at a
// directory, is reported as a file, the same classification the index
// uses. Listings that treat any non-regular entry as a directory would show
// such links as directories instead.
func OpenDirectory(path string) []DirectoryChild {
	entries, err := filesystem.ReadDirWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		logging.Debug("Listing %s: %v", path, err)
	}

	children := make([]DirectoryChild, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			logging.Debug("Skipping %s: %v", entry.Name(), err)
			continue
		}

		kind := cache.File
		if info.IsDir() {
			kind = cache.Directory
		}
		children = append(children, DirectoryChild{
			Kind: kind,
			Name: entry.Name(),
			Path: filepath.Join(path, entry.Name()),
		})
	}

	sort.SliceStable(children, func(i, j int) bool {
		if children[i].Kind != children[j].Kind {
			return children[i].Kind == cache.Directory
		}
		return children[i].Name < children[j].Name
	})
	return children
}
