package workers

import (
	"runtime"
)

// Count returns the worker count for a pool.
//
// override, when positive, is used as-is (subject to limit). Otherwise the
// count is GOMAXPROCS scaled by multiplier:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//
// limit caps the result; 0 means no cap. The result is never below 1.
func Count(multiplier float64, override, limit int) int {
	workers := override
	if workers <= 0 {
		workers = int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	}

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
func ForCPU(override, limit int) int {
	return Count(1.0, override, limit)
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
func ForIO(override, limit int) int {
	return Count(2.0, override, limit)
}
