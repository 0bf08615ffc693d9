package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/commerce-event-relay/internal/models"
	"github.com/PratikDhanave/commerce-event-relay/internal/tracking"
)

// RegisterCommerceRoutes registers the cart, checkout and order hooks.
//
// POST /hooks/cart/add | add-ajax | remove | update | coupon | abandonment
// POST /hooks/checkout
// POST /hooks/orders/completed | status
// POST /hooks/products/view
func RegisterCommerceRoutes(r gin.IRoutes, h *Hooks) {
	r.POST("/hooks/cart/add", func(c *gin.Context) {
		var req models.AddToCartRequest
		if !bind(c, &req) {
			return
		}
		if req.Product.ID <= 0 {
			badRequest(c, "product.id required")
			return
		}
		if req.Quantity <= 0 {
			badRequest(c, "quantity must be > 0")
			return
		}
		out := h.Tracker.AddToCart(c.Request.Context(), h.visit(c, req.HookEnvelope), req.Product, req.Quantity, req.VariationID)
		respond(c, tracking.EventAddToCart, out)
	})

	r.POST("/hooks/cart/add-ajax", func(c *gin.Context) {
		var req models.ProductRequest
		if !bind(c, &req) {
			return
		}
		if req.Product.ID <= 0 {
			badRequest(c, "product.id required")
			return
		}
		out := h.Tracker.AjaxAddToCart(c.Request.Context(), h.visit(c, req.HookEnvelope), req.Product)
		respond(c, tracking.EventAddToCart, out)
	})

	r.POST("/hooks/cart/remove", func(c *gin.Context) {
		var req models.ProductRequest
		if !bind(c, &req) {
			return
		}
		if req.Product.ID <= 0 {
			badRequest(c, "product.id required")
			return
		}
		out := h.Tracker.RemoveFromCart(c.Request.Context(), h.visit(c, req.HookEnvelope), req.Product)
		respond(c, tracking.EventRemoveFromCart, out)
	})

	r.POST("/hooks/cart/update", func(c *gin.Context) {
		var req models.UpdateCartRequest
		if !bind(c, &req) {
			return
		}
		if req.Product.ID <= 0 {
			badRequest(c, "product.id required")
			return
		}
		if req.Quantity < 0 || req.OldQuantity < 0 {
			badRequest(c, "quantities must be >= 0")
			return
		}
		out := h.Tracker.UpdateCart(c.Request.Context(), h.visit(c, req.HookEnvelope), req.Product, req.Quantity, req.OldQuantity)
		respond(c, tracking.EventUpdateCart, out)
	})

	r.POST("/hooks/cart/coupon", func(c *gin.Context) {
		var req models.CouponRequest
		if !bind(c, &req) {
			return
		}
		if req.Code == "" {
			badRequest(c, "code required")
			return
		}
		out := h.Tracker.ApplyCoupon(c.Request.Context(), h.visit(c, req.HookEnvelope), req.Code, req.Cart)
		respond(c, tracking.EventApplyCoupon, out)
	})

	r.POST("/hooks/cart/abandonment", func(c *gin.Context) {
		var req models.CartRequest
		if !bind(c, &req) {
			return
		}
		out := h.Tracker.CheckAbandonment(c.Request.Context(), h.visit(c, req.HookEnvelope), req.Cart)
		respond(c, tracking.EventCartAbandoned, out)
	})

	r.POST("/hooks/checkout", func(c *gin.Context) {
		var req models.CartRequest
		if !bind(c, &req) {
			return
		}
		out := h.Tracker.InitiateCheckout(c.Request.Context(), h.visit(c, req.HookEnvelope), req.Cart)
		respond(c, tracking.EventInitiateCheckout, out)
	})

	r.POST("/hooks/orders/completed", func(c *gin.Context) {
		var req models.OrderRequest
		if !bind(c, &req) {
			return
		}
		if req.Order.ID <= 0 {
			badRequest(c, "order.id required")
			return
		}
		out := h.Tracker.OrderCompleted(c.Request.Context(), h.visit(c, req.HookEnvelope), req.Order)
		respond(c, tracking.EventOrderCompleted, out)
	})

	r.POST("/hooks/orders/status", func(c *gin.Context) {
		var req models.OrderStatusRequest
		if !bind(c, &req) {
			return
		}
		if req.Order.ID <= 0 || req.NewStatus == "" {
			badRequest(c, "order.id and new_status required")
			return
		}
		out := h.Tracker.OrderStatusChanged(c.Request.Context(), h.visit(c, req.HookEnvelope), req.Order, req.OldStatus, req.NewStatus)
		respond(c, tracking.StatusEventType(req.NewStatus), out)
	})

	r.POST("/hooks/products/view", func(c *gin.Context) {
		var req models.ProductRequest
		if !bind(c, &req) {
			return
		}
		if req.Product.ID <= 0 {
			badRequest(c, "product.id required")
			return
		}
		out := h.Tracker.ViewProduct(c.Request.Context(), h.visit(c, req.HookEnvelope), req.Product)
		respond(c, tracking.EventViewProduct, out)
	})
}
