package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"volume-index/internal/logging"
)

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// VolumeResolver overrides the package-level resolver for this operation.
	VolumeResolver *VolumeResolver
}

// DefaultRetryConfig returns sensible defaults for NFS retry behavior
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// resolveVolume returns the volume label for a path using the config's
// resolver or the package-level default.
func (c *RetryConfig) resolveVolume(path string) string {
	if c.VolumeResolver != nil {
		return c.VolumeResolver.Resolve(path)
	}
	return DefaultVolumeResolver().Resolve(path)
}

// isNFSStaleError checks if an error is an NFS stale file handle error
func isNFSStaleError(err error) bool {
	if err == nil {
		return false
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}
	return false
}

// withRetry runs fn until it succeeds, fails with a non-ESTALE error, or
// runs out of attempts. On failure the last value from fn is returned with
// the error, so partial results (e.g. from os.ReadDir) survive.
func withRetry[T any](op, path string, config RetryConfig, fn func() (T, error)) (T, error) {
	start := time.Now()
	volume := config.resolveVolume(path)
	obs := observe()
	backoff := config.InitialBackoff

	var (
		value T
		err   error
	)
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		value, err = fn()
		if err == nil {
			if attempt > 0 {
				logging.Info("NFS %s succeeded on retry %d for %s", op, attempt, path)
				if obs != nil {
					obs.ObserveRetrySuccess(op, volume)
				}
			}
			break
		}

		if !isNFSStaleError(err) {
			break
		}

		if obs != nil {
			obs.ObserveStaleError(op, volume)
		}

		if attempt == config.MaxRetries {
			logging.Warn("NFS %s failed after %d retries for %s: %v", op, config.MaxRetries, path, err)
			if obs != nil {
				obs.ObserveRetryFailure(op, volume)
			}
			break
		}

		if obs != nil {
			obs.ObserveRetryAttempt(op, volume)
		}
		logging.Debug("NFS %s stale file handle for %s, retrying in %v (attempt %d/%d)",
			op, path, backoff, attempt+1, config.MaxRetries)
		time.Sleep(backoff)

		backoff *= 2
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	if obs != nil {
		obs.ObserveOperation(volume, op, time.Since(start).Seconds(), err)
	}
	return value, err
}

// StatWithRetry performs os.Stat with retry logic for NFS stale file handle errors
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, config, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
}

// LstatWithRetry performs os.Lstat with retry logic for NFS stale file handle errors
func LstatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return withRetry("lstat", path, config, func() (os.FileInfo, error) {
		return os.Lstat(path)
	})
}

// ReadDirWithRetry performs os.ReadDir with retry logic for NFS stale file
// handle errors. Like os.ReadDir, it returns the entries read before an error
// together with that error.
func ReadDirWithRetry(path string, config RetryConfig) ([]os.DirEntry, error) {
	return withRetry("readdir", path, config, func() ([]os.DirEntry, error) {
		return os.ReadDir(path)
	})
}
