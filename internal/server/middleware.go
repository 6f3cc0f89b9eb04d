package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientLimiters hands out one token-bucket limiter per session token so a
// single chatty client cannot starve the agent for everyone else.
type clientLimiters struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterIdleEviction is how long an unused limiter survives before the
// sweep removes it.
const limiterIdleEviction = time.Hour

func newClientLimiters(limit float64, burst int) *clientLimiters {
	return &clientLimiters{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(limit),
		burst:    burst,
	}
}

// allow reports whether the client identified by token may proceed.
func (c *clientLimiters) allow(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.limiters[token]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.limiters[token] = entry
	}
	entry.lastSeen = time.Now()

	if len(c.limiters)%256 == 0 {
		c.sweepLocked()
	}

	return entry.limiter.Allow()
}

func (c *clientLimiters) sweepLocked() {
	cutoff := time.Now().Add(-limiterIdleEviction)
	for token, entry := range c.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(c.limiters, token)
		}
	}
}
