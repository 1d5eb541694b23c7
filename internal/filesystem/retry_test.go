package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"
)

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 50ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("MaxBackoff = %v, want 500ms", config.MaxBackoff)
	}
	if config.VolumeResolver != nil {
		t.Error("VolumeResolver should be nil by default")
	}
}

func TestIsNFSStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "ESTALE error", err: syscall.ESTALE, want: true},
		{name: "wrapped ESTALE", err: &os.PathError{Op: "open", Path: "/x", Err: syscall.ESTALE}, want: true},
		{name: "ENOENT error", err: syscall.ENOENT, want: false},
		{name: "generic error", err: os.ErrNotExist, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNFSStaleError(tt.err); got != tt.want {
				t.Errorf("isNFSStaleError() = %v, want %v", got, tt.want)
			}
		})
	}
}

// =============================================================================
// VolumeResolver Tests
// =============================================================================

func TestVolumeResolver_Resolve_LongestPrefixWins(t *testing.T) {
	vr := NewVolumeResolver(map[string]string{
		"root": "/",
		"data": "/data",
		"nest": "/data/nested",
	})

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "nested file", path: "/data/nested/a.txt", want: "nest"},
		{name: "nested root itself", path: "/data/nested", want: "nest"},
		{name: "data file", path: "/data/other/b.txt", want: "data"},
		{name: "sibling with shared prefix", path: "/database/c.txt", want: "root"},
		{name: "etc falls to root", path: "/etc/hosts", want: "root"},
		{name: "root itself", path: "/", want: "root"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := vr.Resolve(tt.path); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestVolumeResolver_NoMatch(t *testing.T) {
	vr := NewVolumeResolver(map[string]string{"data": "/data"})
	if got := vr.Resolve("/srv/file"); got != "unknown" {
		t.Errorf("Resolve() = %q, want unknown", got)
	}
}

func TestVolumeResolver_Resolve_NilResolver(t *testing.T) {
	var vr *VolumeResolver
	if got := vr.Resolve("/media/test.jpg"); got != "unknown" {
		t.Errorf("nil resolver Resolve() = %q, want %q", got, "unknown")
	}
	if labels := vr.Labels(); labels != nil {
		t.Errorf("nil resolver Labels() = %v, want nil", labels)
	}
}

func TestVolumeResolver_Labels(t *testing.T) {
	vr := NewVolumeResolver(map[string]string{"b": "/b", "a": "/a"})
	labels := vr.Labels()
	if len(labels) != 2 || labels[0] != "a" || labels[1] != "b" {
		t.Errorf("Labels() = %v, want [a b]", labels)
	}
}

func TestSetDefaultVolumeResolver(t *testing.T) {
	original := DefaultVolumeResolver()
	defer SetDefaultVolumeResolver(original)

	SetDefaultVolumeResolver(NewVolumeResolver(map[string]string{"data": "/data"}))

	config := DefaultRetryConfig()
	if got := config.resolveVolume("/data/x"); got != "data" {
		t.Errorf("resolveVolume() = %q, want data", got)
	}

	config.VolumeResolver = NewVolumeResolver(map[string]string{"override": "/data"})
	if got := config.resolveVolume("/data/x"); got != "override" {
		t.Errorf("resolveVolume() with override = %q, want override", got)
	}
}

// =============================================================================
// Retry Tests
// =============================================================================

type recordingObserver struct {
	mu         sync.Mutex
	operations []string
	errors     int
	attempts   int
	successes  int
	failures   int
	stale      int
}

func (r *recordingObserver) ObserveOperation(volume, operation string, _ float64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operations = append(r.operations, volume+":"+operation)
	if err != nil {
		r.errors++
	}
}

func (r *recordingObserver) ObserveRetryAttempt(string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts++
}

func (r *recordingObserver) ObserveRetrySuccess(string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes++
}

func (r *recordingObserver) ObserveRetryFailure(string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
}

func (r *recordingObserver) ObserveStaleError(string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stale++
}

func installObserver(t *testing.T) *recordingObserver {
	t.Helper()
	obs := &recordingObserver{}
	SetObserver(obs)
	t.Cleanup(func() { SetObserver(nil) })
	return obs
}

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func TestWithRetry_RecoversFromStaleHandle(t *testing.T) {
	obs := installObserver(t)

	calls := 0
	got, err := withRetry("stat", "/data/x", fastRetryConfig(), func() (int, error) {
		calls++
		if calls < 2 {
			return 0, syscall.ESTALE
		}
		return 42, nil
	})

	if err != nil {
		t.Fatalf("withRetry() error = %v", err)
	}
	if got != 42 {
		t.Errorf("withRetry() = %d, want 42", got)
	}
	if calls != 2 {
		t.Errorf("fn called %d times, want 2", calls)
	}
	if obs.stale != 1 || obs.attempts != 1 || obs.successes != 1 || obs.failures != 0 {
		t.Errorf("observer = %+v, want stale=1 attempts=1 successes=1 failures=0", obs)
	}
}

func TestWithRetry_GivesUpAfterMaxRetries(t *testing.T) {
	obs := installObserver(t)

	calls := 0
	_, err := withRetry("readdir", "/data/x", fastRetryConfig(), func() (int, error) {
		calls++
		return 0, syscall.ESTALE
	})

	if !errors.Is(err, syscall.ESTALE) {
		t.Fatalf("withRetry() error = %v, want ESTALE", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
	if obs.failures != 1 || obs.stale != 3 || obs.attempts != 2 {
		t.Errorf("observer = %+v, want failures=1 stale=3 attempts=2", obs)
	}
	if obs.errors != 1 {
		t.Errorf("operation errors = %d, want 1", obs.errors)
	}
}

func TestWithRetry_NonStaleErrorIsImmediate(t *testing.T) {
	obs := installObserver(t)

	calls := 0
	partial, err := withRetry("readdir", "/data/x", fastRetryConfig(), func() ([]string, error) {
		calls++
		return []string{"kept"}, fmt.Errorf("read: %w", syscall.EACCES)
	})

	if !errors.Is(err, syscall.EACCES) {
		t.Fatalf("withRetry() error = %v, want EACCES", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
	if len(partial) != 1 || partial[0] != "kept" {
		t.Errorf("partial result = %v, want [kept]", partial)
	}
	if obs.attempts != 0 || obs.stale != 0 {
		t.Errorf("observer = %+v, want no retries", obs)
	}
}

func TestStatAndLstatWithRetry(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	if err := os.WriteFile(target, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	info, err := StatWithRetry(link, DefaultRetryConfig())
	if err != nil {
		t.Fatalf("StatWithRetry() error = %v", err)
	}
	if !info.Mode().IsRegular() {
		t.Errorf("StatWithRetry should follow the link, mode = %v", info.Mode())
	}

	info, err = LstatWithRetry(link, DefaultRetryConfig())
	if err != nil {
		t.Fatalf("LstatWithRetry() error = %v", err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Errorf("LstatWithRetry should not follow the link, mode = %v", info.Mode())
	}
}

func TestStatWithRetry_NotExist(t *testing.T) {
	start := time.Now()
	_, err := StatWithRetry(filepath.Join(t.TempDir(), "missing"), DefaultRetryConfig())
	if !os.IsNotExist(err) {
		t.Fatalf("StatWithRetry() error = %v, want not-exist", err)
	}
	if time.Since(start) > 40*time.Millisecond {
		t.Error("not-exist errors must not be retried")
	}
}

func TestReadDirWithRetry(t *testing.T) {
	obs := installObserver(t)
	dir := t.TempDir()
	for _, name := range []string{"a", "b"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	config := DefaultRetryConfig()
	config.VolumeResolver = NewVolumeResolver(map[string]string{"tmp": dir})

	entries, err := ReadDirWithRetry(dir, config)
	if err != nil {
		t.Fatalf("ReadDirWithRetry() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}
	if len(obs.operations) != 1 || obs.operations[0] != "tmp:readdir" {
		t.Errorf("operations = %v, want [tmp:readdir]", obs.operations)
	}
}
