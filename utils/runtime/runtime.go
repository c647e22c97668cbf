package runtime

import (
	"runtime"
)

// WorkerCount returns the number of workers to use for CPU bound tasks. A
// requested count is capped at GOMAXPROCS; without one, every core but one
// is used.
func WorkerCount(requested int) int {
	cores := runtime.GOMAXPROCS(0)
	if requested > 0 {
		return min(requested, cores)
	}

	if cores == 1 {
		return 1
	}

	return cores - 1
}
