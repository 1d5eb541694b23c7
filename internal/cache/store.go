package cache

import (
	"sort"
	"sync"

	"volume-index/internal/metrics"
)

// Bucket is the name index of a single volume.
type Bucket struct {
	mu      sync.Mutex
	names   NameIndex
	entries int
}

// NewBucket returns an empty bucket.
func NewBucket() *Bucket {
	return &Bucket{names: make(NameIndex)}
}

func bucketFrom(idx NameIndex) *Bucket {
	b := NewBucket()
	for name, entries := range idx {
		if len(entries) == 0 {
			continue
		}
		b.names[name] = append([]CachedEntry(nil), entries...)
		b.entries += len(entries)
	}
	return b
}

// Insert appends entry under name.
func (b *Bucket) Insert(name string, entry CachedEntry) {
	b.mu.Lock()
	b.names[name] = append(b.names[name], entry)
	b.entries++
	b.mu.Unlock()
}

// Lookup returns a copy of the entries under name, or nil.
func (b *Bucket) Lookup(name string) []CachedEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.names[name]
	if len(entries) == 0 {
		return nil
	}
	return append([]CachedEntry(nil), entries...)
}

// Len returns the number of entries in the bucket.
func (b *Bucket) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.entries
}

// Names returns the number of distinct base names in the bucket.
func (b *Bucket) Names() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.names)
}

// Index returns a deep copy of the bucket contents.
func (b *Bucket) Index() NameIndex {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(NameIndex, len(b.names))
	for name, entries := range b.names {
		out[name] = append([]CachedEntry(nil), entries...)
	}
	return out
}

// Store is the process-wide cache: volume ID to Bucket.
type Store struct {
	mu      sync.RWMutex
	volumes map[string]*Bucket
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{volumes: make(map[string]*Bucket)}
}

// Bucket returns the bucket for volumeID, creating and registering an empty
// one if the volume is not present.
func (s *Store) Bucket(volumeID string) *Bucket {
	s.mu.RLock()
	b, ok := s.volumes[volumeID]
	s.mu.RUnlock()
	if ok {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.volumes[volumeID]; ok {
		return b
	}
	b = NewBucket()
	s.volumes[volumeID] = b
	return b
}

// Put publishes b as the bucket for volumeID, replacing any previous one.
func (s *Store) Put(volumeID string, b *Bucket) {
	if b == nil {
		b = NewBucket()
	}
	s.mu.Lock()
	s.volumes[volumeID] = b
	s.mu.Unlock()
}

// Has reports whether volumeID has a bucket.
func (s *Store) Has(volumeID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.volumes[volumeID]
	return ok
}

// Lookup returns the entries named name on volumeID. The result is never nil.
func (s *Store) Lookup(volumeID, name string) []CachedEntry {
	s.mu.RLock()
	b, ok := s.volumes[volumeID]
	s.mu.RUnlock()

	var entries []CachedEntry
	if ok {
		entries = b.Lookup(name)
	}
	recordLookup(len(entries) > 0)
	if entries == nil {
		return []CachedEntry{}
	}
	return entries
}

// Search returns the entries named name on every volume that has any.
func (s *Store) Search(name string) map[string][]CachedEntry {
	s.mu.RLock()
	buckets := make(map[string]*Bucket, len(s.volumes))
	for id, b := range s.volumes {
		buckets[id] = b
	}
	s.mu.RUnlock()

	out := make(map[string][]CachedEntry)
	for id, b := range buckets {
		if entries := b.Lookup(name); len(entries) > 0 {
			out[id] = entries
		}
	}
	recordLookup(len(out) > 0)
	return out
}

// Volumes returns the sorted volume IDs in the store.
func (s *Store) Volumes() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.volumes))
	for id := range s.volumes {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// VolumeStats returns name and entry counts per volume, sorted by volume.
func (s *Store) VolumeStats() []VolumeStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make([]VolumeStats, 0, len(s.volumes))
	for id, b := range s.volumes {
		stats = append(stats, VolumeStats{Volume: id, Names: b.Names(), Entries: b.Len()})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Volume < stats[j].Volume })
	return stats
}

// Index returns a deep copy of the whole store.
func (s *Store) Index() CacheIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked()
}

func (s *Store) indexLocked() CacheIndex {
	out := make(CacheIndex, len(s.volumes))
	for id, b := range s.volumes {
		out[id] = b.Index()
	}
	return out
}

func (s *Store) replace(idx CacheIndex) {
	volumes := make(map[string]*Bucket, len(idx))
	for id, names := range idx {
		volumes[id] = bucketFrom(names)
	}

	s.mu.Lock()
	s.volumes = volumes
	s.mu.Unlock()
}

func recordLookup(hit bool) {
	if hit {
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		return
	}
	metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
}
