package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volume-index/internal/cache"
)

func init() {
	color.NoColor = true
}

// run executes volumectl with args and returns stdout
func run(t *testing.T, stdin string, tty bool, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd(strings.NewReader(stdin), func() bool { return tty })
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// newVolume creates a/x.txt, b/x.txt and the empty directory a/y
func newVolume(t *testing.T) string {
	t.Helper()

	root := filepath.Join(t.TempDir(), "vol")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "y"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "x.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b", "x.txt"), []byte("x"), 0o644))
	return root
}

func TestBuildWritesSnapshot(t *testing.T) {
	root := newVolume(t)
	snapshot := filepath.Join(t.TempDir(), "disk_cache.json")

	out, err := run(t, "", false, "--snapshot", snapshot, "build", "--root", root, "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, root+": 2 files, 3 directories")
	assert.Contains(t, out, "Wrote "+snapshot+" (1 volumes)")

	store := cache.NewStore()
	require.NoError(t, store.Load(snapshot))
	assert.Equal(t, []cache.VolumeStats{{Volume: root, Names: 4, Entries: 5}}, store.VolumeStats())
}

func TestBuildMissingRootReportsUnreadable(t *testing.T) {
	snapshot := filepath.Join(t.TempDir(), "disk_cache.json")
	missing := filepath.Join(t.TempDir(), "missing")

	out, err := run(t, "", false, "--snapshot", snapshot, "build", "--root", missing)
	require.NoError(t, err)
	assert.Contains(t, out, "(1 unreadable)")
	assert.True(t, cache.SnapshotExists(snapshot))
}

func TestInspect(t *testing.T) {
	root := newVolume(t)
	snapshot := filepath.Join(t.TempDir(), "disk_cache.json")
	_, err := run(t, "", false, "--snapshot", snapshot, "build", "--root", root)
	require.NoError(t, err)

	out, err := run(t, "", false, "--snapshot", snapshot, "inspect")
	require.NoError(t, err)

	assert.Contains(t, out, "Snapshot: "+snapshot)
	assert.Regexp(t, `VOLUME\s+NAMES\s+ENTRIES`, out)
	assert.Regexp(t, regexp.QuoteMeta(root)+`\s+4\s+5`, out)
	assert.Regexp(t, `TOTAL\s+4\s+5`, out)
}

func TestInspectWithoutSnapshot(t *testing.T) {
	snapshot := filepath.Join(t.TempDir(), "disk_cache.json")

	_, err := run(t, "", false, "--snapshot", snapshot, "inspect")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no snapshot")
}

func TestInspectCorruptSnapshot(t *testing.T) {
	snapshot := filepath.Join(t.TempDir(), "disk_cache.json")
	require.NoError(t, os.WriteFile(snapshot, []byte("{not json"), 0o644))

	_, err := run(t, "", false, "--snapshot", snapshot, "inspect")
	require.Error(t, err)
	assert.ErrorIs(t, err, cache.ErrCorruptSnapshot)
}

func TestSearch(t *testing.T) {
	root := newVolume(t)
	snapshot := filepath.Join(t.TempDir(), "disk_cache.json")
	_, err := run(t, "", false, "--snapshot", snapshot, "build", "--root", root)
	require.NoError(t, err)

	out, err := run(t, "", false, "--snapshot", snapshot, "search", "x.txt")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(root, "a", "x.txt"))
	assert.Contains(t, out, filepath.Join(root, "b", "x.txt"))

	out, err = run(t, "", false, "--snapshot", snapshot, "search", "y", "-o", "json")
	require.NoError(t, err)
	var matches map[string][]cache.CachedEntry
	require.NoError(t, json.Unmarshal([]byte(out), &matches))
	assert.Equal(t, map[string][]cache.CachedEntry{
		root: {cache.NewEntry(filepath.Join(root, "a", "y"), true)},
	}, matches)

	out, err = run(t, "", false, "--snapshot", snapshot, "search", "x.txt", "--volume", "/elsewhere")
	require.NoError(t, err)
	assert.Contains(t, out, `No entries named "x.txt"`)

	out, err = run(t, "", false, "--snapshot", snapshot, "search", "y", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "file_path: "+filepath.Join(root, "a", "y"))
	assert.Contains(t, out, "file_type: directory")

	_, err = run(t, "", false, "--snapshot", snapshot, "search", "y", "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")

	_, err = run(t, "", false, "--snapshot", snapshot, "search")
	assert.Error(t, err, "NAME is required")
}

func TestInspectStructuredOutput(t *testing.T) {
	root := newVolume(t)
	snapshot := filepath.Join(t.TempDir(), "disk_cache.json")
	_, err := run(t, "", false, "--snapshot", snapshot, "build", "--root", root)
	require.NoError(t, err)

	out, err := run(t, "", false, "--snapshot", snapshot, "inspect", "-o", "json")
	require.NoError(t, err)
	var stats []cache.VolumeStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, []cache.VolumeStats{{Volume: root, Names: 4, Entries: 5}}, stats)

	out, err = run(t, "", false, "--snapshot", snapshot, "inspect", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "names: 4")
	assert.Contains(t, out, "entries: 5")
}

func TestLs(t *testing.T) {
	root := newVolume(t)

	out, err := run(t, "", false, "ls", filepath.Join(root, "a"))
	require.NoError(t, err)
	assert.Equal(t, "y"+string(filepath.Separator)+"\nx.txt\n", out)

	_, err = run(t, "", false, "ls", filepath.Join(root, "a", "x.txt"))
	assert.ErrorContains(t, err, "not a directory")

	_, err = run(t, "", false, "ls", filepath.Join(root, "missing"))
	assert.Error(t, err)
}

func TestReset(t *testing.T) {
	tests := []struct {
		name        string
		stdin       string
		tty         bool
		args        []string
		wantErr     bool
		wantDeleted bool
		wantOutput  string
	}{
		{name: "yes flag", args: []string{"--yes"}, wantDeleted: true, wantOutput: "Deleted"},
		{name: "not a terminal", tty: false, wantErr: true},
		{name: "confirmed", stdin: "y\n", tty: true, wantDeleted: true, wantOutput: "[y/N]"},
		{name: "declined", stdin: "n\n", tty: true, wantOutput: "Aborted."},
		{name: "empty answer", stdin: "", tty: true, wantOutput: "Aborted."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := filepath.Join(t.TempDir(), "disk_cache.json")
			require.NoError(t, os.WriteFile(snapshot, []byte(`{"version":1,"volumes":{}}`), 0o644))

			args := append([]string{"--snapshot", snapshot, "reset"}, tt.args...)
			out, err := run(t, tt.stdin, tt.tty, args...)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, !tt.wantDeleted, cache.SnapshotExists(snapshot))
			assert.Contains(t, out, tt.wantOutput)
		})
	}
}

func TestResetWithoutSnapshot(t *testing.T) {
	snapshot := filepath.Join(t.TempDir(), "disk_cache.json")

	out, err := run(t, "", false, "--snapshot", snapshot, "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "No snapshot at")
}

func TestEnv(t *testing.T) {
	out, err := run(t, "", false, "env")
	require.NoError(t, err)
	for _, name := range []string{"SNAPSHOT_PATH", "INDEX_WORKERS", "CONFIG_PATH"} {
		assert.Contains(t, out, name)
	}
}

func TestSnapshotDefaultFromEnvironment(t *testing.T) {
	t.Setenv("SNAPSHOT_PATH", "/srv/index.json")
	t.Setenv("CONFIG_PATH", "")

	root := newRootCmd(strings.NewReader(""), func() bool { return false })
	flag := root.PersistentFlags().Lookup("snapshot")
	require.NotNil(t, flag)
	assert.Equal(t, "/srv/index.json", flag.DefValue)
}

func TestTruncateMiddle(t *testing.T) {
	tests := []struct {
		input string
		width int
		want  string
	}{
		{input: "/short", width: 80, want: "/short"},
		{input: "/a/very/long/path/name.txt", width: 0, want: "/a/very/long/path/name.txt"},
		{input: "/a/very/long/path/name.txt", width: 13, want: "/a/ve...e.txt"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, truncateMiddle(tt.input, tt.width), "truncateMiddle(%q, %d)", tt.input, tt.width)
	}
}

func TestConfirm(t *testing.T) {
	for input, want := range map[string]bool{"y\n": true, "YES\n": true, " yes ": true, "n\n": false, "": false, "maybe\n": false} {
		var out bytes.Buffer
		got, err := confirm(&out, strings.NewReader(input), "Proceed?")
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", input)
		assert.Equal(t, "Proceed? [y/N]: ", out.String())
	}
}
