package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// visitorIdleWindow is how long an IP's token bucket survives without
// traffic before it is dropped.
const visitorIdleWindow = 10 * time.Minute

type visitor struct {
	bucket *rate.Limiter
	seen   time.Time
}

// RateLimiter throttles requests per caller IP using a token bucket
// for each distinct address.
type RateLimiter struct {
	perSecond rate.Limit
	burst     int

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewRateLimiter builds a limiter from a requests-per-minute budget.
// A zero or negative budget disables limiting and returns nil; the
// nil receiver is safe to use.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		perSecond: rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:     burst,
		visitors:  make(map[string]*visitor),
	}
}

// Handler returns the gin middleware. On a nil limiter it passes
// every request through.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	if rl == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests",
			})
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	v, ok := rl.visitors[ip]
	if !ok {
		for addr, old := range rl.visitors {
			if now.Sub(old.seen) > visitorIdleWindow {
				delete(rl.visitors, addr)
			}
		}
		v = &visitor{bucket: rate.NewLimiter(rl.perSecond, rl.burst)}
		rl.visitors[ip] = v
	}
	v.seen = now
	rl.mu.Unlock()

	return v.bucket.Allow()
}
