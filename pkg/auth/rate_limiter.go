package auth

import (
	"sync"
	"time"
)

// WriteLimiter is a per-actor token bucket guarding the mutating endpoints.
// The per-minute rate is read through a function so it can follow the
// dynamic configuration without restarting.
type WriteLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    func() int

	stopCh   chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// NewWriteLimiter creates a limiter whose per-minute rate is supplied by
// rate. A non-positive rate disables limiting.
func NewWriteLimiter(rate func() int) *WriteLimiter {
	l := &WriteLimiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		stopCh:  make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Stop shuts the cleanup goroutine down.
func (l *WriteLimiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCh)
	})
}

// Allow reports whether the actor may perform another write now.
func (l *WriteLimiter) Allow(key string) bool {
	perMinute := l.rate()
	if perMinute <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(perMinute), lastRefill: now}
		l.buckets[key] = b
	}

	refill := now.Sub(b.lastRefill).Minutes() * float64(perMinute)
	b.tokens += refill
	if b.tokens > float64(perMinute) {
		b.tokens = float64(perMinute)
	}
	b.lastRefill = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// cleanupLoop drops buckets idle for longer than ten minutes.
func (l *WriteLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-10 * time.Minute)
			l.mu.Lock()
			for key, b := range l.buckets {
				if b.lastRefill.Before(cutoff) {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}
