// Package resilience guards calls to upstream services (the completion
// provider, the weather backend) with a circuit breaker.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the breaker is open and calls are
// being rejected without reaching the upstream.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type phase int

const (
	phaseClosed phase = iota
	phaseOpen
	phaseProbing
)

// Breaker trips after a run of consecutive failures and rejects calls
// for a cooldown period. After the cooldown a single probe call is let
// through; its outcome decides whether the breaker closes again.
type Breaker struct {
	mu       sync.Mutex
	phase    phase
	streak   int
	trip     int
	cooldown time.Duration
	tripped  time.Time
	clock    func() time.Time // for testing
}

// NewBreaker creates a breaker that opens after trip consecutive
// failures and stays open for the given cooldown.
func NewBreaker(trip int, cooldown time.Duration) *Breaker {
	return &Breaker{
		trip:     trip,
		cooldown: cooldown,
		clock:    time.Now,
	}
}

// Execute runs fn unless the breaker is open, in which case it returns
// ErrCircuitOpen without calling fn. The error from fn is passed
// through unchanged.
func (b *Breaker) Execute(fn func() error) error {
	if !b.admit() {
		return ErrCircuitOpen
	}

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.recordFailure()
		return err
	}

	b.streak = 0
	b.phase = phaseClosed
	return nil
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.phase {
	case phaseClosed, phaseProbing:
		return true
	case phaseOpen:
		if b.clock().Sub(b.tripped) >= b.cooldown {
			b.phase = phaseProbing
			return true
		}
		return false
	}
	return false
}

// recordFailure must be called with b.mu held. A failed probe reopens
// the breaker immediately.
func (b *Breaker) recordFailure() {
	b.streak++
	if b.phase == phaseProbing || b.streak >= b.trip {
		b.phase = phaseOpen
		b.tripped = b.clock()
	}
}
