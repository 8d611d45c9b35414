package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterSweepInterval = 5 * time.Minute
	limiterIdleCutoff    = 10 * time.Minute
)

// clientLimiter is one IP's token bucket plus the last time it was
// used, so idle entries can be swept.
type clientLimiter struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// RateLimit applies a per-IP token bucket: r requests per second with
// burst b. Proof submissions arrive in bursts from field clients, so
// the burst should be sized well above r.
func RateLimit(r rate.Limit, b int) gin.HandlerFunc {
	var clients sync.Map

	go func() {
		ticker := time.NewTicker(limiterSweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-limiterIdleCutoff)
			clients.Range(func(key, value any) bool {
				if value.(*clientLimiter).lastSeen.Before(cutoff) {
					clients.Delete(key)
				}
				return true
			})
		}
	}()

	return func(c *gin.Context) {
		v, _ := clients.LoadOrStore(c.ClientIP(), &clientLimiter{bucket: rate.NewLimiter(r, b)})
		cl := v.(*clientLimiter)
		cl.lastSeen = time.Now()
		if !cl.bucket.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
