package api

import (
	"sync"

	"phonebook/logger"
	"phonebook/models"
)

// Budget tracks the number of concurrent worker threads currently
// executing database operations, process-wide. Each request reserves
// N slots (its per-request worker count, or 1 for point operations)
// before touching the database; if that would exceed cap, the request
// fails with ThreadLimit without ever calling into storage.
//
// Grounded on the teacher's request_throttling_middleware.go
// (RequestThrottlingMiddleware/ClientTracker), narrowed from a
// per-client rate window to a single global in-flight-worker counter,
// since the reject-before-touching-resource shape is what this
// boundary needs, not per-client rate limiting.
type Budget struct {
	mu      sync.Mutex
	inUse   int
	cap     int
}

// NewBudget builds a Budget with the given cap (default 15 per §4.5).
func NewBudget(cap int) *Budget {
	if cap < 1 {
		cap = 1
	}
	return &Budget{cap: cap}
}

// Reserve attempts to reserve n worker slots. On success it returns a
// release function the caller must call exactly once when the request
// completes. On failure it returns a ThreadLimit error and a nil
// release function.
func (b *Budget) Reserve(n int) (release func(), err error) {
	if n < 1 {
		n = 1
	}
	b.mu.Lock()
	if b.inUse+n > b.cap {
		b.mu.Unlock()
		return nil, models.NewError(models.KindThreadLimit,
			"worker budget exhausted: %d in use, %d requested, cap %d", b.inUse, n, b.cap)
	}
	b.inUse += n
	logger.TraceIf("budget", "reserved %d slots (%d/%d in use)", n, b.inUse, b.cap)
	b.mu.Unlock()

	released := false
	return func() {
		if released {
			return
		}
		released = true
		b.mu.Lock()
		b.inUse -= n
		logger.TraceIf("budget", "released %d slots (%d/%d in use)", n, b.inUse, b.cap)
		b.mu.Unlock()
	}, nil
}

// InUse reports the current reservation count, for diagnostics.
func (b *Budget) InUse() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inUse
}
