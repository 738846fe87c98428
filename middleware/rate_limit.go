package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 5 * time.Minute

type rateLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

// RateLimiter is a per-client-IP token bucket registry.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rateLimiter
	limit    rate.Limit
	burst    int
}

// NewRateLimiter allows perMinute requests per IP with a burst of half that.
// perMinute <= 0 returns nil, which disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &RateLimiter{
		limiters: map[string]*rateLimiter{},
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    max(perMinute/2, 1),
	}
}

// Allow consumes one token for key.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for k, l := range rl.limiters {
		if now.After(l.expires) {
			delete(rl.limiters, k)
		}
	}

	l, ok := rl.limiters[key]
	if !ok {
		l = &rateLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = l
	}
	l.expires = now.Add(limiterIdleTTL)
	return l.limiter.Allow()
}

// RateLimit rejects clients that exceed the limiter through onLimit.
// Only unsafe methods are counted; page views are never throttled.
func RateLimit(rl *RateLimiter, onLimit gin.HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if rl == nil || isSafeMethod(ctx.Request.Method) {
			ctx.Next()
			return
		}
		if !rl.Allow(ctx.ClientIP()) {
			onLimit(ctx)
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
