package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/commerce-event-relay/internal/auth"
	"github.com/PratikDhanave/commerce-event-relay/internal/tracking"
)

// RegisterStatsRoutes registers the delivery counters endpoint.
//
// GET /stats?event_type=...
// - Requires X-API-Key (site context)
// - Returns counters of the caller's site only, optionally for one event type
func RegisterStatsRoutes(r gin.IRoutes, stats *tracking.Stats) {
	r.GET("/stats", func(c *gin.Context) {
		siteID := auth.SiteID(c)
		if siteID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		snapshot := stats.Snapshot(siteID)

		if eventType := c.Query("event_type"); eventType != "" {
			c.JSON(http.StatusOK, gin.H{
				"event_type": eventType,
				"counts":     snapshot[eventType],
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"site":   siteID,
			"events": snapshot,
		})
	})
}
