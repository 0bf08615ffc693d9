package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/commerce-event-relay/internal/auth"
	"github.com/PratikDhanave/commerce-event-relay/internal/config"
	"github.com/PratikDhanave/commerce-event-relay/internal/handlers"
	"github.com/PratikDhanave/commerce-event-relay/internal/identity"
	"github.com/PratikDhanave/commerce-event-relay/internal/models"
	"github.com/PratikDhanave/commerce-event-relay/internal/session"
	"github.com/PratikDhanave/commerce-event-relay/internal/tracking"
)

// Deps are the components the router hands to its handlers.
type Deps struct {
	Store     session.Store
	Tracker   *tracking.Tracker
	Sender    handlers.ServerSideSender
	CookieKey string
	Company   identity.CompanyResolver
	Pixel     models.PixelConfig
}

// NewRouter wires public endpoints and authenticated APIs.
// Public: /health, /ready
// Authenticated: /hooks/*, /events, /stats, /pixel
func NewRouter(cfg config.Config, d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger())

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: confirms the session store is reachable.
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := d.Store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Auth group enforces site context via X-API-Key, then rate limits per site.
	authGroup := r.Group("/")
	authGroup.Use(
		auth.APIKeyMiddleware(cfg.APIKeys),
		NewSiteRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst).Middleware(),
	)

	hooks := &handlers.Hooks{
		Tracker:   d.Tracker,
		CookieKey: d.CookieKey,
		Company:   d.Company,
	}
	if cfg.Tracking.Commerce {
		handlers.RegisterCommerceRoutes(authGroup, hooks)
	}
	handlers.RegisterSiteRoutes(authGroup, hooks)
	handlers.RegisterEventRoutes(authGroup, d.Sender, d.Tracker.Stats())
	handlers.RegisterStatsRoutes(authGroup, d.Tracker.Stats())
	handlers.RegisterPixelRoutes(authGroup, d.Pixel)

	return r
}
