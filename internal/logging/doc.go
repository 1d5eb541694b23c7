// Package logging provides the levelled logger shared by the volume index
// service and its tools.
//
// Levels, from most to least verbose:
//   - DEBUG: per-worker and per-directory detail
//   - INFO: startup sections, walk summaries, snapshot load/save
//   - WARN: recoverable problems (unreadable paths, bad env values)
//   - ERROR: failed operations that the caller has to handle
//   - FATAL: startup failures that terminate the process
//
// The initial level comes from DEBUG or LOG_LEVEL; SetLevel overrides it once
// configuration has been loaded.
package logging
