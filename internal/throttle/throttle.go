// Package throttle rate-limits outbound commands per operation name. Each
// named operation gets its own independent limit — throttling one
// operation never affects another.
package throttle

import (
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"
)

// ErrThrottled is returned by Do when an invocation is dropped because its
// operation fired too recently.
var ErrThrottled = errors.New("throttle: operation dropped, rate exceeded")

// Throttle enforces a maximum fire rate per named operation. An invocation
// fires immediately if the operation has never fired before; otherwise it
// fires only once the configured interval has elapsed since the last fire.
// Anything else is dropped, never queued.
type Throttle struct {
	maxPerSec float64
	logger    *slog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a Throttle allowing up to maxPerSec fires per second for any
// single operation name.
func New(maxPerSec float64, logger *slog.Logger) *Throttle {
	return &Throttle{
		maxPerSec: maxPerSec,
		logger:    logger,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Allow reports whether operation may fire now, consuming its budget if
// so. A dropped invocation logs a warning naming the operation.
func (t *Throttle) Allow(operation string) bool {
	t.mu.Lock()
	lim, ok := t.limiters[operation]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(t.maxPerSec), 1)
		t.limiters[operation] = lim
	}
	t.mu.Unlock()

	if lim.Allow() {
		return true
	}
	t.logger.Warn("throttle: prevented operation from running", "operation", operation)
	return false
}

// Do runs fn if operation is allowed to fire, returning ErrThrottled
// otherwise without calling fn.
func (t *Throttle) Do(operation string, fn func() error) error {
	if !t.Allow(operation) {
		return ErrThrottled
	}
	return fn()
}
