package models

// HookEnvelope is shared by every inbound hook body.
// Cookies and Context are optional; the relay falls back to the inbound request.
type HookEnvelope struct {
	SessionID string            `json:"session_id"`
	Cookies   map[string]string `json:"cookies,omitempty"`
	Customer  *Customer         `json:"customer,omitempty"`
	Context   *RequestContext   `json:"context,omitempty"`
}

type AddToCartRequest struct {
	HookEnvelope
	Product     Product `json:"product"`
	Quantity    int     `json:"quantity"`
	VariationID int64   `json:"variation_id"`
}

// ProductRequest serves AJAX add-to-cart, remove-from-cart and product views.
type ProductRequest struct {
	HookEnvelope
	Product Product `json:"product"`
}

type UpdateCartRequest struct {
	HookEnvelope
	Product     Product `json:"product"`
	Quantity    int     `json:"quantity"`
	OldQuantity int     `json:"old_quantity"`
}

type CartRequest struct {
	HookEnvelope
	Cart Cart `json:"cart"`
}

type CouponRequest struct {
	HookEnvelope
	Code string `json:"code"`
	Cart Cart   `json:"cart"`
}

type OrderRequest struct {
	HookEnvelope
	Order Order `json:"order"`
}

type OrderStatusRequest struct {
	HookEnvelope
	Order     Order  `json:"order"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

type LoginRequest struct {
	HookEnvelope
	Method string `json:"method"`
}

type RegisterRequest struct {
	HookEnvelope
	Source string `json:"source"`
}

type PageViewRequest struct {
	HookEnvelope
	PageType string `json:"page_type"`
	ObjectID int64  `json:"object_id"`
}

// ServerSideEventRequest is the POST /events payload.
type ServerSideEventRequest struct {
	UserID          string         `json:"user_id"`
	EventType       string         `json:"event_type"`
	Company         *Company       `json:"company,omitempty"`
	EventAttributes map[string]any `json:"event_attributes,omitempty"`
}

// HookResponse is returned by every hook endpoint, including when delivery failed.
type HookResponse struct {
	Outcome   string `json:"outcome"`
	EventType string `json:"event_type,omitempty"`
}
