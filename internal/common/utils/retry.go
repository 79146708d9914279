package utils

import (
	"context"
	"time"
)

// Backoff produces exponentially growing delays for an unbounded reconnect loop.
//
// The first call to Next returns Initial; every following call multiplies the
// previous delay by Factor, capped at Max. Reset starts the sequence over.
// A Backoff is owned by a single goroutine and is not safe for concurrent use.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64

	next time.Duration
}

// NewBackoff returns a doubling backoff from initial to max.
func NewBackoff(initial, max time.Duration) *Backoff {
	return &Backoff{Initial: initial, Max: max, Factor: 2.0}
}

// Next returns the delay to wait now and advances the sequence.
func (b *Backoff) Next() time.Duration {
	if b.next <= 0 {
		b.next = b.Initial
	}

	current := b.next
	if current > b.Max {
		current = b.Max
	}

	factor := b.Factor
	if factor < 1 {
		factor = 1
	}
	grown := time.Duration(float64(current) * factor)
	if grown > b.Max || grown <= 0 {
		grown = b.Max
	}
	b.next = grown

	return current
}

// Reset makes the next call to Next return Initial again.
func (b *Backoff) Reset() {
	b.next = 0
}

// Sleep waits for d or until ctx is done, whichever comes first.
// It returns ctx.Err() when the wait was cut short.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
