package filesystem

import (
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
)

const unknownVolume = "unknown"

// VolumeResolver maps file paths to volume labels for metric labelling.
// It uses longest-prefix matching on absolute paths.
type VolumeResolver struct {
	// sorted by path length descending
	mounts []volumeMount
}

type volumeMount struct {
	path string // absolute path with trailing separator
	name string
}

// NewVolumeResolver creates a resolver from a map of volume label to mount path.
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	mounts := make([]volumeMount, 0, len(volumes))
	for name, path := range volumes {
		absPath, err := filepath.Abs(path)
		if err != nil {
			absPath = path
		}
		if !strings.HasSuffix(absPath, string(filepath.Separator)) {
			absPath += string(filepath.Separator)
		}
		mounts = append(mounts, volumeMount{path: absPath, name: name})
	}

	sort.Slice(mounts, func(i, j int) bool {
		if len(mounts[i].path) != len(mounts[j].path) {
			return len(mounts[i].path) > len(mounts[j].path)
		}
		return mounts[i].path < mounts[j].path
	})

	return &VolumeResolver{mounts: mounts}
}

// Resolve returns the volume label for path, or "unknown".
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return unknownVolume
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return unknownVolume
	}

	candidate := absPath
	if !strings.HasSuffix(candidate, string(filepath.Separator)) {
		candidate += string(filepath.Separator)
	}
	for _, mount := range vr.mounts {
		if strings.HasPrefix(candidate, mount.path) {
			return mount.name
		}
	}

	return unknownVolume
}

// Labels returns every configured volume label, sorted.
func (vr *VolumeResolver) Labels() []string {
	if vr == nil {
		return nil
	}
	labels := make([]string, 0, len(vr.mounts))
	for _, m := range vr.mounts {
		labels = append(labels, m.name)
	}
	sort.Strings(labels)
	return labels
}

var defaultResolver atomic.Pointer[VolumeResolver]

// SetDefaultVolumeResolver sets the package-level volume resolver.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	defaultResolver.Store(vr)
}

// DefaultVolumeResolver returns the package-level resolver, which may be nil.
func DefaultVolumeResolver() *VolumeResolver {
	return defaultResolver.Load()
}
