package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
)

// RateLimitWindow is the persisted fixed-window counter row.
type RateLimitWindow struct {
	WindowKey       string `gorm:"primaryKey;column:window_key"`
	WindowStartUnix int64  `gorm:"column:window_start_unix"`
	Count           int    `gorm:"column:count"`
}

// TableName implements the gorm table naming convention.
func (RateLimitWindow) TableName() string { return "rate_limit_windows" }

// PostgresLimiter persists fixed-window counters in the database so limits
// survive process restarts. The check-and-increment is a single upsert with
// the reset decision made inside the statement, so concurrent replicas
// never race on a read-then-write. The same SQL runs against sqlite in
// tests.
type PostgresLimiter struct {
	db   *gorm.DB
	cfg  Config
	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

// NewPostgresLimiter migrates the counter table and starts the stale-row
// sweeper. Call Stop when done.
func NewPostgresLimiter(db *gorm.DB, cfg Config) (*PostgresLimiter, error) {
	if err := db.AutoMigrate(&RateLimitWindow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate rate limit table: %w", err)
	}
	l := &PostgresLimiter{
		db:   db,
		cfg:  cfg,
		now:  time.Now,
		stop: make(chan struct{}),
	}
	go l.sweep()
	return l, nil
}

// The counter increments to at most Limit+1. Limit+1 marks the window as
// exhausted; further denials leave it untouched, so excess requests are
// rejected without being counted. An expired window resets to 1 in the same
// statement.
const checkAndIncrementSQL = `
INSERT INTO rate_limit_windows (window_key, window_start_unix, count)
VALUES (?, ?, 1)
ON CONFLICT (window_key) DO UPDATE SET
    count = CASE
        WHEN rate_limit_windows.window_start_unix <= ? THEN 1
        WHEN rate_limit_windows.count > ? THEN rate_limit_windows.count
        ELSE rate_limit_windows.count + 1
    END,
    window_start_unix = CASE
        WHEN rate_limit_windows.window_start_unix <= ? THEN ?
        ELSE rate_limit_windows.window_start_unix
    END
RETURNING count, window_start_unix`

// Check counts one request for userID within the current window.
func (l *PostgresLimiter) Check(ctx context.Context, userID string) (Result, error) {
	now := l.now().Unix()
	windowSec := int64(l.cfg.Window / time.Second)
	expiredBefore := now - windowSec
	key := l.cfg.Action + ":" + userID

	var count int
	var startUnix int64
	row := l.db.WithContext(ctx).
		Raw(checkAndIncrementSQL, key, now, expiredBefore, l.cfg.Limit, expiredBefore, now).
		Row()
	if err := row.Scan(&count, &startUnix); err != nil {
		return Result{}, fmt.Errorf("rate limit check failed: %w", err)
	}

	resetIn := time.Duration(startUnix+windowSec-now) * time.Second
	if resetIn < 0 {
		resetIn = 0
	}

	remaining := l.cfg.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	return Result{Allowed: count <= l.cfg.Limit, Remaining: remaining, ResetIn: resetIn}, nil
}

// Stop terminates the sweeper goroutine.
func (l *PostgresLimiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

func (l *PostgresLimiter) sweep() {
	ticker := time.NewTicker(l.cfg.Window)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			cutoff := l.now().Add(-2 * l.cfg.Window).Unix()
			l.db.Where("window_start_unix < ?", cutoff).Delete(&RateLimitWindow{})
		}
	}
}
