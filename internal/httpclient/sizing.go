package httpclient

import (
	"math"
	"runtime/debug"
)

// MemoryBudget returns the process memory limit in bytes, or zero when no
// limit is configured.
func MemoryBudget() int64 {
	limit := debug.SetMemoryLimit(-1)
	if limit <= 0 || limit == math.MaxInt64 {
		return 0
	}
	return limit
}

// EntriesForBudget maps a memory budget to a page cache capacity tier.
// Unknown budgets get the middle tier.
func EntriesForBudget(budget int64) int {
	switch {
	case budget <= 0:
		return 256
	case budget < 256<<20:
		return 64
	case budget < 1<<30:
		return 256
	default:
		return 1024
	}
}
