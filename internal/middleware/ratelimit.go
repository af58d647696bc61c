package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/config"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/pkg/apperrors"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type ipLimiters struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	byIP      map[string]*ipLimiter
	lastSweep time.Time
}

func (l *ipLimiters) get(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > time.Minute {
		for k, v := range l.byIP {
			if now.Sub(v.lastSeen) > limiterIdleTTL {
				delete(l.byIP, k)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.byIP[ip]
	if !ok {
		e = &ipLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byIP[ip] = e
	}
	e.lastSeen = now
	return e.limiter
}

// RateLimit applies a token bucket per client IP. Rejected requests get a 429
// through the error handler, so they are logged like any other response.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	limit := rate.Limit(cfg.RPS)
	if cfg.RPS <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	limiters := &ipLimiters{limit: limit, burst: burst, byIP: make(map[string]*ipLimiter)}

	return func(c *gin.Context) {
		if !limiters.get(c.ClientIP(), time.Now()).Allow() {
			c.Header("Retry-After", "1")
			_ = c.Error(apperrors.New(apperrors.ErrRateLimited, "rate limit exceeded", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}
