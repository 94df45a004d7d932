package orderhttp

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"
	"golang.org/x/time/rate"

	apierrors "github.com/Apurer/marketplace-api/internal/shared/errors"
)

// AccountHeader carries the caller identity asserted by the upstream identity provider.
const AccountHeader = "X-Account-ID"

const accountKey = "marketplace.account_id"

// Identity rejects requests without a positive account id and stores it on the context.
func Identity(responder *apierrors.Responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(AccountHeader)
		if raw == "" {
			responder.Respond(c, apierrors.NewUnauthenticatedProblem(AccountHeader, "header is required"))
			c.Abort()
			return
		}
		var id int64
		err := runtime.BindStyledParameterWithOptions("simple", AccountHeader, raw, &id, runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationHeader,
			Required:      true,
		})
		if err != nil || id <= 0 {
			responder.Respond(c, apierrors.NewUnauthenticatedProblem(AccountHeader, "must be a positive integer"))
			c.Abort()
			return
		}
		c.Set(accountKey, id)
		c.Next()
	}
}

// AccountID returns the identity stored by Identity.
func AccountID(c *gin.Context) int64 {
	return c.GetInt64(accountKey)
}

// DefaultLimiterIdleTimeout is how long an account may stay silent before its bucket is dropped.
const DefaultLimiterIdleTimeout = 10 * time.Minute

// RateLimiter throttles requests per account with a token bucket. Buckets of accounts
// idle for longer than the idle timeout are swept, so the map tracks active accounts only.
type RateLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idle      time.Duration
	now       func() time.Time
	lastSweep time.Time
	limiters  map[int64]*accountLimiter
}

type accountLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterOption customizes a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithIdleTimeout overrides DefaultLimiterIdleTimeout.
func WithIdleTimeout(d time.Duration) RateLimiterOption {
	return func(l *RateLimiter) {
		if d > 0 {
			l.idle = d
		}
	}
}

// WithLimiterClock injects the time source.
func WithLimiterClock(now func() time.Time) RateLimiterOption {
	return func(l *RateLimiter) {
		if now != nil {
			l.now = now
		}
	}
}

// NewRateLimiter allows rps requests per second per account with the given burst.
// A non-positive rps disables throttling.
func NewRateLimiter(rps float64, burst int, opts ...RateLimiterOption) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	l := &RateLimiter{
		limit:    rate.Limit(rps),
		burst:    burst,
		idle:     DefaultLimiterIdleTimeout,
		now:      time.Now,
		limiters: make(map[int64]*accountLimiter),
	}
	for _, opt := range opts {
		opt(l)
	}
	// Drop a bucket only after it would have refilled completely.
	if rps > 0 {
		if refill := time.Duration(float64(burst) / rps * float64(time.Second)); refill > l.idle {
			l.idle = refill
		}
	}
	return l
}

// Allow reports whether the account may issue another request now.
func (l *RateLimiter) Allow(accountID int64) bool {
	if l == nil || l.limit <= 0 {
		return true
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}
	entry, ok := l.limiters[accountID]
	if !ok {
		entry = &accountLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[accountID] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// retryAfter is the time one token takes to refill.
func (l *RateLimiter) retryAfter() time.Duration {
	if l == nil || l.limit <= 0 {
		return time.Second
	}
	return time.Duration(float64(time.Second) / float64(l.limit))
}

// Tracked reports how many accounts currently hold a bucket.
func (l *RateLimiter) Tracked() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *RateLimiter) sweep(now time.Time) {
	for id, entry := range l.limiters {
		if now.Sub(entry.lastSeen) >= l.idle {
			delete(l.limiters, id)
		}
	}
	l.lastSweep = now
}

// Middleware must run after Identity.
func (l *RateLimiter) Middleware(responder *apierrors.Responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(AccountID(c)) {
			responder.Throttle(c, l.retryAfter())
			c.Abort()
			return
		}
		c.Next()
	}
}
