// Package ratelimit provides fixed-window request limiting keyed by user and
// action. Three stores implement the same interface: an in-process map for
// single-instance deployments, and Redis- and Postgres-backed variants whose
// check-and-increment is atomic so limits survive restarts and hold across
// replicas.
package ratelimit

import (
	"context"
	"time"
)

// Config defines one action's fixed-window budget.
type Config struct {
	// Action namespaces the counter keys, e.g. "parse_url".
	Action string
	// Limit is the maximum number of requests allowed in the window.
	Limit int
	// Window is the fixed window duration.
	Window time.Duration
}

// Result is the outcome of one rate-limit check.
type Result struct {
	Allowed   bool
	Remaining int
	// ResetIn is the time until the current window expires. On denial the
	// middleware surfaces it as Retry-After.
	ResetIn time.Duration
}

// Limiter checks and counts one request for a user. Implementations must
// count at most Limit requests per window: an over-limit request is denied,
// not counted twice, and once a window elapses the next request starts a
// fresh window regardless of prior denials.
type Limiter interface {
	Check(ctx context.Context, userID string) (Result, error)
}
