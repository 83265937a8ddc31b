package httpretry

import (
	"errors"
	"sync"
	"time"
)

// Breaker defaults.
const (
	DefaultFailureThreshold = 5
	DefaultCooldown         = 30 * time.Second
)

// Breaker states.
const (
	breakerClosed   = iota // Normal operation.
	breakerOpen            // Fail fast.
	breakerHalfOpen        // Probe with one request.
)

// ErrCircuitOpen is returned when the circuit breaker is open and calls are
// being rejected without reaching the provider.
var ErrCircuitOpen = errors.New("provider circuit breaker is open")

// Breaker is a circuit breaker guarding a repeatedly-called external
// provider. After threshold consecutive failures it opens and rejects calls
// until the cooldown expires, then admits a single probe.
type Breaker struct {
	threshold int
	cooldown  time.Duration

	mu            sync.Mutex
	state         int
	failures      int
	lastFailureAt time.Time
}

// NewBreaker creates a Breaker. Non-positive arguments fall back to the
// defaults.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}

	return &Breaker{threshold: threshold, cooldown: cooldown, state: breakerClosed}
}

// Allow checks whether the breaker permits a call. In closed state all calls
// pass. In open state calls are rejected until the cooldown expires, at
// which point the breaker transitions to half-open. In half-open state one
// probe is allowed.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerClosed:
		return nil
	case breakerOpen:
		if time.Since(b.lastFailureAt) >= b.cooldown {
			b.state = breakerHalfOpen

			return nil
		}

		return ErrCircuitOpen
	case breakerHalfOpen:
		// Already probing — reject additional calls.
		return ErrCircuitOpen
	}

	return nil
}

// RecordSuccess records a successful call. In half-open state this closes
// the breaker, restoring normal operation.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.state = breakerClosed
}

// RecordFailure records a failed call. After reaching the failure threshold
// the breaker transitions to open state.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailureAt = time.Now()

	if b.failures >= b.threshold || b.state == breakerHalfOpen {
		b.state = breakerOpen
	}
}
