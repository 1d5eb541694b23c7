/*
Package workers sizes the goroutine pools used by the directory walker.

Sizing is based on runtime.GOMAXPROCS(0) rather than runtime.NumCPU(), so a
container CPU limit is respected. Directory walking is dominated by readdir and
lstat calls, so the walker asks for an I/O-bound pool:

	n := workers.ForIO(0, 32) // two per CPU, capped at 32

An explicit override (the INDEX_WORKERS setting) always wins but is still
capped by the limit:

	n := workers.ForIO(cfg.IndexWorkers, 32)
*/
package workers
