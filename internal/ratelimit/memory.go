package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// MemoryLimiter is the in-process fixed-window store. Suitable for a single
// instance only; replicas must use the Redis or Postgres store instead. A
// background sweeper evicts windows idle for more than twice the window
// duration so the map stays bounded.
type MemoryLimiter struct {
	cfg  Config
	now  func() time.Time
	mu   sync.Mutex
	wins map[string]*window
	stop chan struct{}
	once sync.Once
}

// NewMemoryLimiter creates a new MemoryLimiter instance and starts its
// sweeper. Call Stop when done.
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	l := &MemoryLimiter{
		cfg:  cfg,
		now:  time.Now,
		wins: make(map[string]*window),
		stop: make(chan struct{}),
	}
	go l.sweep()
	return l
}

// Check counts one request for userID within the current window.
func (l *MemoryLimiter) Check(ctx context.Context, userID string) (Result, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.wins[userID]
	if !ok || now.Sub(w.start) >= l.cfg.Window {
		// First hit, or the window elapsed: reset unconditionally. Prior
		// denials carry no penalty into the new window.
		l.wins[userID] = &window{start: now, count: 1}
		return Result{Allowed: true, Remaining: l.cfg.Limit - 1, ResetIn: l.cfg.Window}, nil
	}

	resetIn := l.cfg.Window - now.Sub(w.start)
	if w.count >= l.cfg.Limit {
		// Denied requests are not counted toward the window.
		return Result{Allowed: false, Remaining: 0, ResetIn: resetIn}, nil
	}

	w.count++
	return Result{Allowed: true, Remaining: l.cfg.Limit - w.count, ResetIn: resetIn}, nil
}

// Stop terminates the sweeper goroutine.
func (l *MemoryLimiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

func (l *MemoryLimiter) sweep() {
	ticker := time.NewTicker(l.cfg.Window)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.evictStale()
		}
	}
}

func (l *MemoryLimiter) evictStale() {
	cutoff := l.now().Add(-2 * l.cfg.Window)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.wins {
		if w.start.Before(cutoff) {
			delete(l.wins, key)
		}
	}
}
