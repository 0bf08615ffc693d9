package collector

import "github.com/PratikDhanave/commerce-event-relay/internal/models"

const (
	// hostedTrackingHost is served by the CDN copy of lib.js; custom hosts serve their own.
	hostedTrackingHost = "https://events.usermaven.com"
	hostedScriptURL    = "https://t.usermaven.com/lib.js"

	privacyPolicyStrict = "strict"
)

// Pixel describes the browser snippet for this client's project. Cookie-less
// tracking switches the pixel to the strict privacy policy.
func (c *Client) Pixel(autocapture, cookieLess bool) models.PixelConfig {
	pc := models.PixelConfig{
		ScriptURL:    hostedScriptURL,
		APIKey:       c.apiKey,
		TrackingHost: c.trackingHost,
		Autocapture:  autocapture,
	}
	if c.trackingHost != hostedTrackingHost {
		pc.ScriptURL = c.trackingHost + "/lib.js"
	}
	if cookieLess {
		pc.PrivacyPolicy = privacyPolicyStrict
	}
	return pc
}
