// Package ratelimit is a fixed-window in-memory counter keyed by
// action + client identity. It dampens abuse from a single identity; it is
// not a security boundary (the identity comes from spoofable headers) and
// allows the usual fixed-window burst at window edges.
package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	count   int
	resetAt int64 // unix millis
}

// Decision is the outcome of one Check. RetryAfterSec is only set on denial
// and is floored at 1 so it is always a usable Retry-After header value.
type Decision struct {
	Allowed       bool
	RetryAfterSec int
}

type Limiter struct {
	mu      sync.Mutex
	buckets map[string]bucket
}

func New() *Limiter {
	return &Limiter{buckets: make(map[string]bucket)}
}

// Check counts one action against key. A fresh or expired window is replaced
// with {count:1}; within a live window the count grows until limit, after
// which the action is denied until the window resets.
func (l *Limiter) Check(key string, limit int, window time.Duration, now time.Time) Decision {
	nowMS := now.UnixMilli()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || nowMS > b.resetAt {
		if len(l.buckets) > 4096 {
			l.pruneLocked(nowMS)
		}
		l.buckets[key] = bucket{count: 1, resetAt: nowMS + window.Milliseconds()}
		return Decision{Allowed: true}
	}

	if b.count >= limit {
		retry := int((b.resetAt - nowMS + 999) / 1000)
		if retry < 1 {
			retry = 1
		}
		return Decision{Allowed: false, RetryAfterSec: retry}
	}

	b.count++
	l.buckets[key] = b
	return Decision{Allowed: true}
}

func (l *Limiter) pruneLocked(nowMS int64) {
	for k, b := range l.buckets {
		if nowMS > b.resetAt {
			delete(l.buckets, k)
		}
	}
	if len(l.buckets) > 65536 {
		// Hard cap in case of unexpectedly high-cardinality traffic.
		l.buckets = make(map[string]bucket)
	}
}
