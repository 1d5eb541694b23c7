package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"volume-index/internal/logging"
	"volume-index/internal/metrics"
)

// SnapshotVersion is the format version written by Save.
const SnapshotVersion = 1

type snapshotDocument struct {
	Version int        `json:"version"`
	Volumes CacheIndex `json:"volumes"`
}

// Load reads the snapshot at path and replaces the store contents with it.
// On error the store is left untouched.
func (s *Store) Load(path string) error {
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		recordSnapshot("load", "io_error", start)
		return NewError(IoFailure, path, err)
	}

	idx, version, err := DecodeSnapshot(data)
	if err != nil {
		recordSnapshot("load", "corrupt", start)
		return NewError(CorruptSnapshot, path, err)
	}

	s.replace(idx)

	recordSnapshot("load", "success", start)
	metrics.SnapshotSizeBytes.Set(float64(len(data)))
	logging.Info("Loaded snapshot %s (version %d, %d volumes) in %v", path, version, len(idx), time.Since(start))
	return nil
}

// Save writes the whole store to path. The file is replaced atomically.
func (s *Store) Save(path string) error {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := EncodeSnapshot(s.indexLocked())
	if err != nil {
		recordSnapshot("save", "serialization_error", start)
		return NewError(SerializationFailure, path, err)
	}

	if err := writeFileAtomic(path, data); err != nil {
		recordSnapshot("save", "io_error", start)
		return NewError(IoFailure, path, err)
	}

	recordSnapshot("save", "success", start)
	metrics.SnapshotSizeBytes.Set(float64(len(data)))
	logging.Info("Saved snapshot %s (%d volumes, %d bytes) in %v", path, len(s.volumes), len(data), time.Since(start))
	return nil
}

// EncodeSnapshot renders idx in the current snapshot format.
func EncodeSnapshot(idx CacheIndex) ([]byte, error) {
	if idx == nil {
		idx = CacheIndex{}
	}
	return json.Marshal(snapshotDocument{Version: SnapshotVersion, Volumes: idx})
}

// DecodeSnapshot parses a snapshot document of any supported version and
// returns the index along with the version it was written in.
func DecodeSnapshot(data []byte) (CacheIndex, int, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, 0, errors.New("snapshot is empty")
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, 0, err
	}
	if top == nil {
		return nil, 0, errors.New("snapshot is not a JSON object")
	}

	_, hasVersion := top["version"]
	_, hasVolumes := top["volumes"]
	if !hasVersion && !hasVolumes {
		// Bare volume -> name -> entries map from earlier releases.
		var legacy CacheIndex
		if err := json.Unmarshal(data, &legacy); err != nil {
			return nil, 0, err
		}
		return normalize(legacy), 0, nil
	}

	var doc snapshotDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, 0, err
	}
	if doc.Version < 0 || doc.Version > SnapshotVersion {
		return nil, doc.Version, fmt.Errorf("unsupported snapshot version %d", doc.Version)
	}
	return normalize(doc.Volumes), doc.Version, nil
}

func normalize(idx CacheIndex) CacheIndex {
	if idx == nil {
		return CacheIndex{}
	}
	for id, names := range idx {
		if names == nil {
			idx[id] = NameIndex{}
		}
	}
	return idx
}

// SnapshotExists reports whether a snapshot can be found at path.
func SnapshotExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CreateSnapshotFile creates (or truncates) an empty file at path.
func CreateSnapshotFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return NewError(IoFailure, path, err)
	}
	if err := f.Close(); err != nil {
		return NewError(IoFailure, path, err)
	}
	return nil
}

// RemoveSnapshot deletes the snapshot at path. A missing file is not an error.
func RemoveSnapshot(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return NewError(IoFailure, path, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	tmpName = ""
	return nil
}

func recordSnapshot(operation, status string, start time.Time) {
	metrics.SnapshotOperationsTotal.WithLabelValues(operation, status).Inc()
	metrics.SnapshotOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
