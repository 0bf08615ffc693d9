package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// siteCtxKey is the Gin context key used to store the authenticated site ID.
const siteCtxKey = "site_id"

// APIKeyMiddleware maps X-API-Key to the site that owns it.
// Session flags and delivery counters are partitioned by that site.
func APIKeyMiddleware(keys map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := strings.TrimSpace(c.GetHeader("X-API-Key"))
		siteID, ok := lookup(keys, apiKey)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(siteCtxKey, siteID)
		c.Next()
	}
}

// lookup compares against every key so response time does not depend on which key matched.
func lookup(keys map[string]string, apiKey string) (string, bool) {
	if apiKey == "" {
		return "", false
	}
	site, found := "", false
	for k, s := range keys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(apiKey)) == 1 {
			site, found = s, true
		}
	}
	return site, found
}

// SiteID returns the authenticated site ID from the request context.
func SiteID(c *gin.Context) string {
	v, _ := c.Get(siteCtxKey)
	s, _ := v.(string)
	return s
}
