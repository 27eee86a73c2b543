// Package rate paces outbound requests to external services.
package rate

import "time"

// Limiter gates outbound calls so we respect provider rate limits.
type Limiter interface {
	Wait()
}

// IntervalLimiter enforces a minimum interval between consecutive calls.
// Each instance has a single owner; processing is sequential, so no lock
// guards the timestamp. A concurrent caller must add one.
type IntervalLimiter struct {
	minInterval time.Duration
	last        time.Time

	// swappable for tests
	now   func() time.Time
	sleep func(time.Duration)
}

// NewIntervalLimiter returns a limiter that spaces calls at least
// minInterval apart. The first call proceeds immediately.
func NewIntervalLimiter(minInterval time.Duration) *IntervalLimiter {
	return &IntervalLimiter{
		minInterval: minInterval,
		now:         time.Now,
		sleep:       time.Sleep,
	}
}

// Wait blocks until at least minInterval has elapsed since the previous
// call, then stamps the clock for the next caller.
func (l *IntervalLimiter) Wait() {
	if !l.last.IsZero() {
		elapsed := l.now().Sub(l.last)
		if elapsed < l.minInterval {
			l.sleep(l.minInterval - elapsed)
		}
	}
	l.last = l.now()
}

var _ Limiter = (*IntervalLimiter)(nil)
