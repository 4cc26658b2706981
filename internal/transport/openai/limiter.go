package openai

import "context"

// DefaultConcurrency bounds simultaneous in-flight provider calls.
const DefaultConcurrency = 5

// Limiter is a counting semaphore shared by all provider clients so that
// embedding and generation traffic together stay under the provider's
// concurrency ceiling. A streaming call holds its slot until the stream
// is closed.
type Limiter struct {
	slots chan struct{}
}

// NewLimiter creates a semaphore with the given capacity.
func NewLimiter(capacity int) *Limiter {
	if capacity <= 0 {
		capacity = DefaultConcurrency
	}
	return &Limiter{slots: make(chan struct{}, capacity)}
}

// acquire blocks until a slot is free or ctx is done.
func (l *Limiter) acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Limiter) release() {
	<-l.slots
}
