package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/PratikDhanave/commerce-event-relay/internal/auth"
	"github.com/PratikDhanave/commerce-event-relay/internal/collector"
	"github.com/PratikDhanave/commerce-event-relay/internal/log"
	"github.com/PratikDhanave/commerce-event-relay/internal/models"
	"github.com/PratikDhanave/commerce-event-relay/internal/tracking"
)

// ServerSideSender posts user_id keyed events.
type ServerSideSender interface {
	SendServerSide(ctx context.Context, userID, eventType string, company *models.Company, attrs map[string]any) error
}

// RegisterEventRoutes registers the generic server-side event endpoint.
//
// POST /events
// - Requires X-API-Key (site context)
// - 400 when event_type is missing or the company lacks id, name or created_at
// - 200 with outcome "sent" or "failed" otherwise; delivery errors are logged
func RegisterEventRoutes(r gin.IRoutes, sender ServerSideSender, stats *tracking.Stats) {
	r.POST("/events", func(c *gin.Context) {
		siteID := auth.SiteID(c)
		if siteID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req models.ServerSideEventRequest
		if !bind(c, &req) {
			return
		}

		req.EventType = strings.TrimSpace(req.EventType)
		if req.EventType == "" {
			badRequest(c, "event_type required")
			return
		}

		err := sender.SendServerSide(c.Request.Context(), req.UserID, req.EventType, req.Company, req.EventAttributes)

		var cerr *collector.Error
		if errors.As(err, &cerr) && cerr.Kind == collector.KindValidation {
			badRequest(c, cerr.Err.Error())
			return
		}

		outcome := tracking.Sent
		if err != nil {
			outcome = tracking.Failed
			log.GetLogger().Error("server-side event delivery failed",
				log.String("site", siteID),
				log.String("event_type", req.EventType),
				log.Error(err))
		}
		stats.Record(siteID, req.EventType, outcome)
		respond(c, req.EventType, outcome)
	})
}
