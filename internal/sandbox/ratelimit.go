package sandbox

import (
	"sync"
	"time"
)

// limiter is a sliding-window counter keyed by caller.
type limiter struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
}

func newLimiter() *limiter {
	return &limiter{buckets: map[string][]time.Time{}}
}

type limitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

func (l *limiter) Allow(key string, limit int, window time.Duration, now time.Time) limitResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 {
		return limitResult{Allowed: true}
	}
	cutoff := now.Add(-window)
	history := l.buckets[key]
	kept := history[:0]
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	res := limitResult{Limit: limit, Allowed: len(kept) < limit}
	if res.Allowed {
		kept = append(kept, now)
		res.Remaining = limit - len(kept)
	}
	l.buckets[key] = kept
	res.ResetAt = kept[0].Add(window)
	return res
}
