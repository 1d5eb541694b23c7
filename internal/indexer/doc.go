// Package indexer walks a volume's directory tree and records every entry in
// a cache.Bucket keyed by base name.
//
// The walk is parallel: a dispatcher owns the stack of directories still to
// read and hands them to a fixed pool of workers over a channel. Each worker
// lists one directory, inserts its children into the bucket and reports child
// directories back. The walk ends when nothing is pending or in flight.
//
// Walk policy:
//   - The root itself is not recorded, only what is below it.
//   - Symlinks are never followed; they are recorded as files.
//   - Unreadable directories are skipped and listed in the WalkReport.
//     Entries read before a listing failed are kept.
//   - Hidden entries (prefixed with '.') are recorded unless SkipHidden is set.
//
// Directory reads go through filesystem.ReadDirWithRetry, so stale NFS
// handles are retried before a directory counts as skipped.
package indexer
