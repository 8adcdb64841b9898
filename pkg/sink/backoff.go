package sink

import (
	"context"
	"math/rand"
	"time"
)

// backoff implements exponential backoff with jitter.
type backoff struct {
	max     time.Duration
	current time.Duration
}

func newBackoff(initial, max time.Duration) *backoff {
	return &backoff{
		max:     max,
		current: initial,
	}
}

// wait sleeps for the current duration (±20%) and doubles it, up to max.
// It returns early with ctx.Err() when ctx is done.
func (b *backoff) wait(ctx context.Context) error {
	jitter := float64(b.current) * 0.2 * (rand.Float64()*2 - 1)
	d := time.Duration(float64(b.current) + jitter)

	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
