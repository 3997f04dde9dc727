package middlewares

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	idle     time.Duration
	visitors map[string]*visitor
	mu       sync.Mutex
}

// NewRateLimiter allows requests per window for each IP.
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &RateLimiter{
		limit:    rate.Every(window / time.Duration(requests)),
		burst:    requests,
		idle:     10 * window,
		visitors: make(map[string]*visitor),
	}
}

// NewStrictRateLimiter is used on login and register.
func NewStrictRateLimiter() *RateLimiter {
	return NewRateLimiter(5, time.Minute)
}

func (rl *RateLimiter) get(ip string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.visitors) > 1024 {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) > rl.idle && k != ip {
				delete(rl.visitors, k)
			}
		}
	}

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.get(c.ClientIP(), time.Now()).Allow() {
			utils.AbortError(c, http.StatusTooManyRequests, errors.New("too many requests, please slow down"))
			return
		}
		c.Next()
	}
}
