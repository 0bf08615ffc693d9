package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/commerce-event-relay/internal/models"
	"github.com/PratikDhanave/commerce-event-relay/internal/tracking"
)

// RegisterSiteRoutes registers user and page hooks. They stay enabled when
// commerce tracking is off.
func RegisterSiteRoutes(r gin.IRoutes, h *Hooks) {
	r.POST("/hooks/users/login", func(c *gin.Context) {
		var req models.LoginRequest
		if !bind(c, &req) {
			return
		}
		if !req.Customer.LoggedIn() {
			badRequest(c, "customer.id required")
			return
		}
		out := h.Tracker.UserLogin(c.Request.Context(), h.visit(c, req.HookEnvelope), req.Method)
		respond(c, tracking.EventUserLogin, out)
	})

	r.POST("/hooks/users/logout", func(c *gin.Context) {
		var req models.HookEnvelope
		if !bind(c, &req) {
			return
		}
		out := h.Tracker.UserLogout(c.Request.Context(), h.visit(c, req))
		respond(c, tracking.EventUserLogout, out)
	})

	r.POST("/hooks/users/register", func(c *gin.Context) {
		var req models.RegisterRequest
		if !bind(c, &req) {
			return
		}
		if !req.Customer.LoggedIn() {
			badRequest(c, "customer.id required")
			return
		}
		out := h.Tracker.UserRegistered(c.Request.Context(), h.visit(c, req.HookEnvelope), req.Source)
		respond(c, tracking.EventUserRegistered, out)
	})

	r.POST("/hooks/pages/view", func(c *gin.Context) {
		var req models.PageViewRequest
		if !bind(c, &req) {
			return
		}
		if req.PageType == "" {
			badRequest(c, "page_type required")
			return
		}
		out := h.Tracker.PageView(c.Request.Context(), h.visit(c, req.HookEnvelope), req.PageType, req.ObjectID)
		respond(c, tracking.EventPageView, out)
	})
}
