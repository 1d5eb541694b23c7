package cache

import (
	"fmt"

	"volume-index/internal/metrics"
)

// FileType is the kind of a cached filesystem object.
type FileType int

const (
	// File is anything that is not a directory, including symlinks.
	File FileType = iota
	// Directory is a directory.
	Directory
)

func (t FileType) String() string {
	switch t {
	case File:
		return "file"
	case Directory:
		return "directory"
	default:
		return fmt.Sprintf("FileType(%d)", int(t))
	}
}

// MarshalText encodes the type as "file" or "directory".
func (t FileType) MarshalText() ([]byte, error) {
	switch t {
	case File, Directory:
		return []byte(t.String()), nil
	default:
		return nil, fmt.Errorf("unknown file type %d", int(t))
	}
}

// UnmarshalText decodes "file" or "directory".
func (t *FileType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "file":
		*t = File
	case "directory":
		*t = Directory
	default:
		return fmt.Errorf("unknown file type %q", text)
	}
	return nil
}

// CachedEntry is one filesystem object found by a walk.
type CachedEntry struct {
	FilePath string   `json:"file_path"`
	FileType FileType `json:"file_type"`
}

// NewEntry returns a CachedEntry for path, classified by isDir.
func NewEntry(path string, isDir bool) CachedEntry {
	if isDir {
		return CachedEntry{FilePath: path, FileType: Directory}
	}
	return CachedEntry{FilePath: path, FileType: File}
}

// NameIndex maps a base name to every entry with that name.
type NameIndex map[string][]CachedEntry

// CacheIndex maps a volume ID to its NameIndex.
type CacheIndex map[string]NameIndex

// VolumeStats summarises one volume in the store.
type VolumeStats = metrics.VolumeStats
