package esi

import (
	"sync"
	"time"
)

const (
	// errorBudgetMax is the error allowance ESI grants per window.
	errorBudgetMax = 100
	// errorBudgetMargin is the safety floor: when the remaining allowance
	// drops below this, outbound calls wait for the window to reset.
	errorBudgetMargin = 20
)

// RateLimiter tracks the error budget that ESI reports on every response via
// the X-ESI-Error-Limit-Remain and X-ESI-Error-Limit-Reset headers. It is the
// single piece of state shared by all concurrent fetches; both paths
// (WaitIfNeeded, UpdateFromResponse) go through its mutex.
type RateLimiter struct {
	mu     sync.Mutex
	remain int
	reset  time.Time

	// now/sleep are swappable so tests can observe waits without blocking.
	now   func() time.Time
	sleep func(time.Duration)
}

// NewRateLimiter creates a limiter with a full error budget.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		remain: errorBudgetMax,
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// WaitIfNeeded blocks until the remaining error budget is above the safety
// margin, sleeping until the reported reset deadline when it is not. The
// sleep duration is computed under the lock but slept outside it, so a
// response arriving on another goroutine can still refresh the budget.
func (r *RateLimiter) WaitIfNeeded() {
	r.mu.Lock()
	var wait time.Duration
	if r.remain < errorBudgetMargin {
		wait = r.reset.Sub(r.now())
	}
	r.mu.Unlock()

	if wait > 0 {
		r.sleep(wait)
	}
}

// UpdateFromResponse atomically refreshes the budget from a response's
// rate-limit headers. resetSeconds is the server-reported time until the
// error window resets.
func (r *RateLimiter) UpdateFromResponse(remain, resetSeconds int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remain = remain
	r.reset = r.now().Add(time.Duration(resetSeconds) * time.Second)
}

// Remaining returns the last reported error allowance.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remain
}
