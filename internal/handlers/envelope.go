package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/commerce-event-relay/internal/auth"
	"github.com/PratikDhanave/commerce-event-relay/internal/identity"
	"github.com/PratikDhanave/commerce-event-relay/internal/models"
	"github.com/PratikDhanave/commerce-event-relay/internal/tracking"
)

// Hooks holds what every hook handler needs to turn a request into a Visit.
type Hooks struct {
	Tracker *tracking.Tracker
	// CookieKey is the collector api key; it names the visitor id cookies.
	CookieKey string
	Company   identity.CompanyResolver
}

func (h *Hooks) visit(c *gin.Context, env models.HookEnvelope) tracking.Visit {
	cookies := env.Cookies
	if cookies == nil {
		cookies = requestCookies(c.Request)
	}

	rc := requestContext(c)
	if env.Context != nil {
		rc = *env.Context
	}

	company := identity.NoCompany
	if h.Company != nil {
		company = h.Company
	}

	return tracking.Visit{
		Site:      auth.SiteID(c),
		SessionID: env.SessionID,
		User:      identity.Resolve(h.CookieKey, cookies, env.Customer),
		Company:   company(env.Customer),
		Context:   rc,
	}
}

func requestCookies(r *http.Request) map[string]string {
	out := map[string]string{}
	for _, ck := range r.Cookies() {
		out[ck.Name] = ck.Value
	}
	return out
}

// requestContext derives the page context from the inbound request when the host
// did not forward one. Proxy headers name the original page.
func requestContext(c *gin.Context) models.RequestContext {
	r := c.Request
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return models.RequestContext{
		URL:          r.Referer(),
		DocPath:      r.Header.Get("X-Original-URI"),
		DocHost:      host,
		UserAgent:    r.UserAgent(),
		SourceIP:     c.ClientIP(),
		UserLanguage: r.Header.Get("Accept-Language"),
	}
}

// bind decodes the JSON body and writes a 400 on failure.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return false
	}
	return true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// respond always answers 200: a failed delivery must never break the host page.
func respond(c *gin.Context, eventType string, outcome tracking.Outcome) {
	c.JSON(http.StatusOK, models.HookResponse{
		Outcome:   string(outcome),
		EventType: eventType,
	})
}
