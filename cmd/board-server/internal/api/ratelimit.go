package api

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// sweepInterval is how often Allow looks for idle buckets to drop.
const sweepInterval = time.Minute

// RateLimiter hands out one token bucket per user.
//
// A bucket that has refilled to its burst is indistinguishable from a new
// one, so such buckets are dropped on the next sweep. The map only holds
// users that acted recently.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[int64]*rate.Limiter
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter allows perSecond events per user with the given burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters:  make(map[int64]*rate.Limiter),
		limit:     rate.Limit(perSecond),
		burst:     burst,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Allow reports whether userID may act now and consumes a token if so.
func (l *RateLimiter) Allow(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= sweepInterval {
		l.sweep(now)
	}

	lim, ok := l.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[userID] = lim
	}
	return lim.AllowN(now, 1)
}

// Len returns the number of tracked users.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *RateLimiter) sweep(now time.Time) {
	full := float64(l.burst)
	for id, lim := range l.limiters {
		if lim.TokensAt(now) >= full {
			delete(l.limiters, id)
		}
	}
	l.lastSweep = now
}
