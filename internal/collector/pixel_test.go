package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPixel_HostedTrackingHostUsesCDNScript(t *testing.T) {
	c := New("https://events.usermaven.com/", "pk", "st")

	pc := c.Pixel(false, false)

	assert.Equal(t, "https://t.usermaven.com/lib.js", pc.ScriptURL)
	assert.Equal(t, "pk", pc.APIKey)
	assert.Equal(t, "https://events.usermaven.com", pc.TrackingHost)
	assert.False(t, pc.Autocapture)
	assert.Empty(t, pc.PrivacyPolicy)
}

func TestPixel_CustomHostServesOwnScript(t *testing.T) {
	c := New("https://track.shop.example/", "pk", "st")

	pc := c.Pixel(true, true)

	assert.Equal(t, "https://track.shop.example/lib.js", pc.ScriptURL)
	assert.Equal(t, "https://track.shop.example", pc.TrackingHost)
	assert.True(t, pc.Autocapture)
	assert.Equal(t, "strict", pc.PrivacyPolicy)
}
