package httpserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/PratikDhanave/commerce-event-relay/internal/auth"
	"github.com/PratikDhanave/commerce-event-relay/internal/log"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDCtxKey = "request_id"
)

// RequestID propagates the caller's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDCtxKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs one line per request once the handler chain has finished.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.GetLogger().Info("request",
			log.String("request_id", c.GetString(requestIDCtxKey)),
			log.String("method", c.Request.Method),
			log.String("path", c.FullPath()),
			log.Int("status", c.Writer.Status()),
			log.Duration("latency", time.Since(start)),
			log.String("site", auth.SiteID(c)))
	}
}

// SiteRateLimiter keeps one token bucket per authenticated site.
type SiteRateLimiter struct {
	mu    sync.Mutex
	sites map[string]*rate.Limiter
	rps   rate.Limit
	burst int
}

func NewSiteRateLimiter(rps float64, burst int) *SiteRateLimiter {
	return &SiteRateLimiter{
		sites: make(map[string]*rate.Limiter),
		rps:   rate.Limit(rps),
		burst: burst,
	}
}

func (rl *SiteRateLimiter) limiter(site string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.sites[site]
	if !ok {
		l = rate.NewLimiter(rl.rps, rl.burst)
		rl.sites[site] = l
	}
	return l
}

// Middleware must run after auth so the site is known.
func (rl *SiteRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiter(auth.SiteID(c)).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
