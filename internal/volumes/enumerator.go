package volumes

import (
	"context"
	"fmt"
	"sort"

	"github.com/shirou/gopsutil/v4/disk"

	"volume-index/internal/logging"
)

// Volume is one mounted partition with capacity statistics in bytes.
type Volume struct {
	Name           string
	MountPoint     string
	FSType         string
	TotalBytes     uint64
	AvailableBytes uint64
	UsedBytes      uint64
}

// Enumerator lists mounted volumes.
type Enumerator interface {
	Volumes(ctx context.Context) ([]Volume, error)
}

type partitionLister func(ctx context.Context, all bool) ([]disk.PartitionStat, error)
type usageReader func(ctx context.Context, path string) (*disk.UsageStat, error)

// SystemEnumerator reads partitions from the operating system.
type SystemEnumerator struct {
	partitions partitionLister
	usage      usageReader
}

// NewSystemEnumerator returns an enumerator backed by gopsutil.
func NewSystemEnumerator() *SystemEnumerator {
	return &SystemEnumerator{
		partitions: disk.PartitionsWithContext,
		usage:      disk.UsageWithContext,
	}
}

// Volumes returns every physical partition, sorted by mount point. A
// partition whose usage cannot be read is kept with zero capacity.
func (e *SystemEnumerator) Volumes(ctx context.Context) ([]Volume, error) {
	parts, err := e.partitions(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}

	seen := make(map[string]bool, len(parts))
	volumes := make([]Volume, 0, len(parts))
	for _, p := range parts {
		if p.Mountpoint == "" || seen[p.Mountpoint] {
			continue
		}
		seen[p.Mountpoint] = true

		v := Volume{
			Name:       p.Device,
			MountPoint: p.Mountpoint,
			FSType:     p.Fstype,
		}

		usage, err := e.usage(ctx, p.Mountpoint)
		if err != nil {
			logging.Warn("Could not read usage for %s: %v", p.Mountpoint, err)
		} else {
			v.TotalBytes = usage.Total
			v.AvailableBytes = usage.Free
			v.UsedBytes = usedBytes(usage.Total, usage.Free)
		}

		volumes = append(volumes, v)
	}

	sort.Slice(volumes, func(i, j int) bool { return volumes[i].MountPoint < volumes[j].MountPoint })
	logging.Debug("Enumerated %d volumes", len(volumes))
	return volumes, nil
}

// usedBytes is total minus available, which also counts space reserved for
// root as used.
func usedBytes(total, available uint64) uint64 {
	if available > total {
		return 0
	}
	return total - available
}

// StaticEnumerator returns a fixed list of volumes.
type StaticEnumerator []Volume

// Volumes returns the list.
func (s StaticEnumerator) Volumes(context.Context) ([]Volume, error) {
	return append([]Volume(nil), s...), nil
}

// RootsEnumerator turns plain directory paths into volumes without capacity
// figures. It backs explicit --root builds.
func RootsEnumerator(roots ...string) StaticEnumerator {
	vols := make(StaticEnumerator, 0, len(roots))
	for _, r := range roots {
		vols = append(vols, Volume{MountPoint: r})
	}
	return vols
}
