// Package rate serializes outgoing remote calls to a minimum
// inter-call interval shared across all workers.
package rate

import (
	"context"
	"sync"
	"time"
)

// MinQPS is the floor applied to configured rates. It prevents a zero
// or negative qps from disabling the limiter or dividing by zero.
const MinQPS = 0.1

// Limiter grants call slots no closer together than 1/qps seconds,
// regardless of how many goroutines share it. Construct one Limiter per
// remote endpoint and pass it into every client that talks to it; there
// is no package-level limiter state.
type Limiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	next        time.Time

	// now and sleep are swappable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter creates a limiter for the given queries-per-second rate.
// Rates below MinQPS are clamped up to it.
func NewLimiter(qps float64) *Limiter {
	if qps < MinQPS {
		qps = MinQPS
	}
	return &Limiter{
		minInterval: time.Duration(float64(time.Second) / qps),
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

// Interval returns the enforced minimum spacing between granted slots.
func (l *Limiter) Interval() time.Duration {
	return l.minInterval
}

// Acquire blocks until the caller's scheduled slot arrives or ctx is
// canceled. The slot is claimed under the lock before sleeping, so
// concurrent callers queue onto distinct slots and never race for the
// same one.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	now := l.now()
	scheduled := l.next
	if now.After(scheduled) {
		scheduled = now
	}
	l.next = scheduled.Add(l.minInterval)
	l.mu.Unlock()

	wait := scheduled.Sub(now)
	if wait <= 0 {
		return ctx.Err()
	}
	return l.sleep(ctx, wait)
}

// sleepCtx sleeps in short steps so a canceled context is honored
// promptly even for long waits.
func sleepCtx(ctx context.Context, d time.Duration) error {
	const step = 200 * time.Millisecond
	for d > 0 {
		s := d
		if s > step {
			s = step
		}
		t := time.NewTimer(s)
		select {
		case <-ctx.Done():
			if !t.Stop() {
				<-t.C
			}
			return ctx.Err()
		case <-t.C:
		}
		d -= s
	}
	return nil
}
