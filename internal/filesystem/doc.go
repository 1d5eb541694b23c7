/*
Package filesystem wraps the filesystem calls made while walking volumes
(os.Stat, os.Lstat, os.ReadDir) with retry logic for NFS stale file handle
errors, and labels every call with the volume it touched for metrics.

# Retry Behavior

Only ESTALE (errno 116 on Linux) triggers a retry. Every other error, including
permission denied and not-exist, is returned immediately so the walker can skip
the path. Defaults:
  - MaxRetries: 3 attempts
  - InitialBackoff: 50ms, doubling up to MaxBackoff
  - MaxBackoff: 500ms

# Volume Labels

A VolumeResolver maps a path to the volume that contains it by longest mount
prefix. The disk service installs one built from the enumerated mount points:

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
	    "/":     "/",
	    "/data": "/data",
	}))

# Metrics

This package does not import the metrics package. Install an Observer at
startup with SetObserver(metrics.NewFilesystemObserver()); with no observer the
calls are simply not recorded, which keeps tests free of global state.
*/
package filesystem
