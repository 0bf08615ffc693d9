package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/commerce-event-relay/internal/auth"
	"github.com/PratikDhanave/commerce-event-relay/internal/models"
)

// RegisterPixelRoutes exposes the browser pixel configuration so the host can
// render the lib.js snippet on its pages.
//
// GET /pixel
// - Requires X-API-Key (site context)
func RegisterPixelRoutes(r gin.IRoutes, pixel models.PixelConfig) {
	r.GET("/pixel", func(c *gin.Context) {
		if auth.SiteID(c) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.JSON(http.StatusOK, pixel)
	})
}
