package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/cppla/postfeed/utils"
)

const limiterIdle = 5 * time.Minute

type rateLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

// limiterRegistry keeps one token bucket per client IP and forgets idle ones.
type limiterRegistry struct {
	mu       sync.Mutex
	limiters map[string]*rateLimiter
	limit    rate.Limit
	burst    int
}

// RateLimit applies a per-IP token bucket allowing perMinute requests per minute.
func RateLimit(perMinute int) gin.HandlerFunc {
	perMinute = max(perMinute, 1)
	reg := &limiterRegistry{
		limiters: map[string]*rateLimiter{},
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    max(perMinute/2, 1),
	}

	return func(ctx *gin.Context) {
		if !reg.allow(ctx.ClientIP(), time.Now()) {
			utils.Abort(ctx, http.StatusTooManyRequests, 42901, "rate limit exceeded")
			return
		}
		ctx.Next()
	}
}

func (r *limiterRegistry) allow(key string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, l := range r.limiters {
		if now.After(l.expires) {
			delete(r.limiters, k)
		}
	}

	l, ok := r.limiters[key]
	if !ok {
		l = &rateLimiter{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.limiters[key] = l
	}
	l.expires = now.Add(limiterIdle)
	return l.limiter.AllowN(now, 1)
}
