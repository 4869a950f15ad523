package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type ipLimiter struct {
	limiter  *rate.Limiter
	mu       sync.Mutex
	lastSeen time.Time
}

func (il *ipLimiter) touch(now time.Time) {
	il.mu.Lock()
	il.lastSeen = now
	il.mu.Unlock()
}

func (il *ipLimiter) idleSince(cutoff time.Time) bool {
	il.mu.Lock()
	defer il.mu.Unlock()
	return il.lastSeen.Before(cutoff)
}

// RateLimit provides per-IP token-bucket rate limiting.
// r = requests per second, b = burst size. Stale limiters are swept until
// ctx is cancelled.
func RateLimit(ctx context.Context, r rate.Limit, b int) gin.HandlerFunc {
	limiters := &sync.Map{}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-10 * time.Minute)
				limiters.Range(func(k, v any) bool {
					if v.(*ipLimiter).idleSince(cutoff) {
						limiters.Delete(k)
					}
					return true
				})
			}
		}
	}()

	getLimiter := func(ip string) *rate.Limiter {
		v, _ := limiters.LoadOrStore(ip, &ipLimiter{limiter: rate.NewLimiter(r, b)})
		il := v.(*ipLimiter)
		il.touch(time.Now())
		return il.limiter
	}

	retryAfter := "1"
	if r > 0 && r < 1 {
		retryAfter = strconv.Itoa(int(math.Ceil(1 / float64(r))))
	}

	return func(c *gin.Context) {
		if !getLimiter(c.ClientIP()).Allow() {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
