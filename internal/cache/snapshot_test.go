package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStore() *Store {
	s := NewStore()
	root := NewBucket()
	root.Insert("x.txt", NewEntry("/a/x.txt", false))
	root.Insert("x.txt", NewEntry("/b/x.txt", false))
	root.Insert("a", NewEntry("/a", true))
	root.Insert("b", NewEntry("/b", true))
	root.Insert("y", NewEntry("/a/y", true))
	s.Put("/", root)

	usb := NewBucket()
	usb.Insert("photo.jpg", NewEntry("/mnt/usb/photo.jpg", false))
	s.Put("/mnt/usb", usb)
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk_cache.json")
	original := sampleStore()

	require.NoError(t, original.Save(path))

	loaded := NewStore()
	require.NoError(t, loaded.Load(path))

	if diff := cmp.Diff(original.Index(), loaded.Index(), sortEntries); diff != "" {
		t.Errorf("round trip mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestSaveWritesVersionedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk_cache.json")
	require.NoError(t, sampleStore().Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		Version int                                     `json:"version"`
		Volumes map[string]map[string][]json.RawMessage `json:"volumes"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, SnapshotVersion, doc.Version)
	assert.Contains(t, doc.Volumes, "/")
	assert.Contains(t, doc.Volumes, "/mnt/usb")
	assert.JSONEq(t, `{"file_path":"/a/y","file_type":"directory"}`, string(doc.Volumes["/"]["y"][0]))

	// No temp files are left next to the snapshot.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk_cache.json")
	require.NoError(t, CreateSnapshotFile(path))

	require.NoError(t, sampleStore().Save(path))
	empty := NewStore()
	require.NoError(t, empty.Save(path))

	loaded := sampleStore()
	require.NoError(t, loaded.Load(path))
	assert.Empty(t, loaded.Volumes())
}

func TestSaveEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk_cache.json")
	require.NoError(t, NewStore().Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"volumes":{}}`, string(data))
}

func TestSaveErrors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "disk_cache.json")
		err := sampleStore().Save(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrIoFailure)
	})

	t.Run("unencodable entry", func(t *testing.T) {
		s := NewStore()
		s.Bucket("/").Insert("bad", CachedEntry{FilePath: "/bad", FileType: FileType(7)})
		err := s.Save(filepath.Join(t.TempDir(), "disk_cache.json"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSerializationFailure)
	})
}

func TestLoadErrorsLeaveStoreUntouched(t *testing.T) {
	tests := []struct {
		name     string
		contents *string
		wantErr  error
	}{
		{name: "missing file", contents: nil, wantErr: ErrIoFailure},
		{name: "empty file", contents: strPtr(""), wantErr: ErrCorruptSnapshot},
		{name: "whitespace only", contents: strPtr("  \n"), wantErr: ErrCorruptSnapshot},
		{name: "not json", contents: strPtr("not json {"), wantErr: ErrCorruptSnapshot},
		{name: "array", contents: strPtr(`[1,2,3]`), wantErr: ErrCorruptSnapshot},
		{name: "null", contents: strPtr(`null`), wantErr: ErrCorruptSnapshot},
		{name: "truncated", contents: strPtr(`{"version":1,"volumes":{"/":{"x":[{"file_path":"/x"`), wantErr: ErrCorruptSnapshot},
		{name: "unknown file type", contents: strPtr(`{"version":1,"volumes":{"/":{"x":[{"file_path":"/x","file_type":"pipe"}]}}}`), wantErr: ErrCorruptSnapshot},
		{name: "future version", contents: strPtr(`{"version":2,"volumes":{}}`), wantErr: ErrCorruptSnapshot},
		{name: "legacy with bad shape", contents: strPtr(`{"/":["x"]}`), wantErr: ErrCorruptSnapshot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "disk_cache.json")
			if tt.contents != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.contents), 0o644))
			}

			s := sampleStore()
			before := s.Index()

			err := s.Load(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			if diff := cmp.Diff(before, s.Index(), sortEntries); diff != "" {
				t.Errorf("store changed after failed load (-before +after):\n%s", diff)
			}
		})
	}
}

func TestLoadReplacesWholesale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk_cache.json")
	other := NewStore()
	other.Bucket("/mnt/other").Insert("z", NewEntry("/mnt/other/z", false))
	require.NoError(t, other.Save(path))

	s := sampleStore()
	require.NoError(t, s.Load(path))

	assert.Equal(t, []string{"/mnt/other"}, s.Volumes())
	assert.Empty(t, s.Lookup("/", "x.txt"))
}

func TestDecodeSnapshotVersions(t *testing.T) {
	want := CacheIndex{
		"/": NameIndex{
			"x.txt": {{FilePath: "/a/x.txt", FileType: File}},
			"y":     {{FilePath: "/a/y", FileType: Directory}},
		},
	}

	tests := []struct {
		name        string
		doc         string
		wantVersion int
		want        CacheIndex
	}{
		{
			name: "legacy bare map",
			doc: `{"/":{"x.txt":[{"file_path":"/a/x.txt","file_type":"file"}],
				"y":[{"file_path":"/a/y","file_type":"directory"}]}}`,
			wantVersion: 0,
			want:        want,
		},
		{
			name: "document without version",
			doc: `{"volumes":{"/":{"x.txt":[{"file_path":"/a/x.txt","file_type":"file"}],
				"y":[{"file_path":"/a/y","file_type":"directory"}]}}}`,
			wantVersion: 0,
			want:        want,
		},
		{
			name: "current version",
			doc: `{"version":1,"volumes":{"/":{"x.txt":[{"file_path":"/a/x.txt","file_type":"file"}],
				"y":[{"file_path":"/a/y","file_type":"directory"}]}}}`,
			wantVersion: 1,
			want:        want,
		},
		{name: "legacy empty map", doc: `{}`, wantVersion: 0, want: CacheIndex{}},
		{name: "null volumes", doc: `{"version":1,"volumes":null}`, wantVersion: 1, want: CacheIndex{}},
		{name: "null bucket", doc: `{"version":1,"volumes":{"/":null}}`, wantVersion: 1, want: CacheIndex{"/": NameIndex{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, version, err := DecodeSnapshot([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, version)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeSnapshot mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadLegacySnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk_cache.json")
	legacy := `{"C:\\":{"report.docx":[{"file_path":"C:\\Users\\me\\report.docx","file_type":"file"}]}}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	s := NewStore()
	require.NoError(t, s.Load(path))

	got := s.Lookup(`C:\`, "report.docx")
	assert.Equal(t, []CachedEntry{{FilePath: `C:\Users\me\report.docx`, FileType: File}}, got)
}

func TestSnapshotFileHelpers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk_cache.json")
	assert.False(t, SnapshotExists(path))

	require.NoError(t, CreateSnapshotFile(path))
	assert.True(t, SnapshotExists(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())

	require.NoError(t, RemoveSnapshot(path))
	assert.False(t, SnapshotExists(path))
	require.NoError(t, RemoveSnapshot(path), "removing a missing snapshot is not an error")

	err = CreateSnapshotFile(filepath.Join(path, "missing", "x.json"))
	assert.ErrorIs(t, err, ErrIoFailure)
}

func strPtr(s string) *string { return &s }
