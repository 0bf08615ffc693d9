// Package collector delivers analytics events to the remote collector's
// server-to-server endpoint. Delivery is a single synchronous POST: no retry,
// no queue.
package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/PratikDhanave/commerce-event-relay/internal/log"
	"github.com/PratikDhanave/commerce-event-relay/internal/models"
)

const (
	eventPath = "/api/v1/s2s/event"

	// SrcEcommerce tags events produced from shop hooks.
	SrcEcommerce = "ecommerce"
	// SrcServerSide tags events sent through SendServerSide.
	SrcServerSide = "usermaven-python"

	docEncoding     = "UTF-8"
	maxResponseBody = 1 << 20
)

// Client posts events to {trackingHost}/api/v1/s2s/event?token={apiKey}.{serverToken}.
// Server-side events go to serverSideHost, which defaults to the tracking host.
type Client struct {
	trackingHost   string
	serverSideHost string
	apiKey       string
	serverToken  string
	httpClient   *http.Client
	now          func() time.Time
	newID        func() string
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the default client, whose timeout is 10s.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the timeout of the current HTTP client. Apply it after WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithClock overrides the source of event timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithIDGenerator overrides how event ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(c *Client) { c.newID = newID }
}

// WithServerSideHost sends SendServerSide events to host instead of the tracking host.
// An empty host keeps the tracking host.
func WithServerSideHost(host string) Option {
	return func(c *Client) {
		if h := strings.TrimRight(strings.TrimSpace(host), "/"); h != "" {
			c.serverSideHost = h
		}
	}
}

// New creates a Client. Credentials are validated lazily on each send so a
// misconfigured relay still boots and reports failures per event.
func New(trackingHost, apiKey, serverToken string, opts ...Option) *Client {
	host := strings.TrimRight(strings.TrimSpace(trackingHost), "/")
	c := &Client{
		trackingHost:   host,
		serverSideHost: host,
		apiKey:         strings.TrimSpace(apiKey),
		serverToken:    strings.TrimSpace(serverToken),
		httpClient:     &http.Client{Timeout: 10 * time.Second},
		now:            time.Now,
		newID:          uuid.NewString,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// APIKey is the collector project key; it also names the visitor cookies.
func (c *Client) APIKey() string {
	return c.apiKey
}

// EndpointURL returns the fully qualified event URL including the token.
func (c *Client) EndpointURL() (string, error) {
	return c.endpoint(c.trackingHost)
}

// ServerSideEndpointURL is EndpointURL for SendServerSide.
func (c *Client) ServerSideEndpointURL() (string, error) {
	return c.endpoint(c.serverSideHost)
}

func (c *Client) endpoint(host string) (string, error) {
	if !validCredential(c.apiKey) {
		return "", newError(KindConfig, 0, errors.New("api key missing or malformed"))
	}
	if !validCredential(c.serverToken) {
		return "", newError(KindConfig, 0, errors.New("server token missing or malformed"))
	}

	u, err := url.Parse(host)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", newError(KindConfig, 0, errors.Errorf("invalid collector host %q", host))
	}

	q := url.Values{}
	q.Set("token", c.apiKey+"."+c.serverToken)
	return host + eventPath + "?" + q.Encode(), nil
}

// SendEvent builds an event from its parts and sends it. It reports whether
// the collector acknowledged the event.
func (c *Client) SendEvent(ctx context.Context, eventType string, user models.User, attrs map[string]any, company models.Company) bool {
	return c.Send(ctx, models.Event{
		EventType:       eventType,
		EventAttributes: attrs,
		User:            user,
		Company:         company,
	})
}

// Send delivers ev and swallows any failure after logging it.
func (c *Client) Send(ctx context.Context, ev models.Event) bool {
	if err := c.Deliver(ctx, ev); err != nil {
		fields := []log.Field{log.String("event_type", ev.EventType), log.Error(err)}
		var cerr *Error
		if errors.As(err, &cerr) {
			fields = append(fields, log.Any("kind", cerr.Kind), log.Int("http_status", cerr.StatusCode))
		}
		log.GetLogger().Error("collector delivery failed", fields...)
		return false
	}
	return true
}

// Deliver stamps ev with the api key, an event id, the timestamp and defaults,
// then posts it. The returned error is always a *Error.
func (c *Client) Deliver(ctx context.Context, ev models.Event) error {
	if strings.TrimSpace(ev.EventType) == "" {
		return newError(KindValidation, 0, errors.New("event type required"))
	}

	endpoint, err := c.EndpointURL()
	if err != nil {
		return err
	}

	c.stamp(&ev)
	return c.post(ctx, endpoint, ev)
}

// SendServerSide posts the legacy user_id keyed event. The company is required
// and must carry id, name and created_at.
func (c *Client) SendServerSide(ctx context.Context, userID, eventType string, company *models.Company, attrs map[string]any) error {
	if strings.TrimSpace(eventType) == "" {
		return newError(KindValidation, 0, errors.New("event type required"))
	}
	if company == nil || company.ID == "" || company.Name == "" || company.CreatedAt == "" {
		return newError(KindValidation, 0,
			errors.New("invalid company parameter: id, name and created_at are required"))
	}

	endpoint, err := c.ServerSideEndpointURL()
	if err != nil {
		return err
	}

	if attrs == nil {
		attrs = map[string]any{}
	}
	body := models.ServerSideEvent{
		APIKey:           c.apiKey,
		EventType:        eventType,
		EventID:          c.newID(),
		IDs:              map[string]string{},
		UserID:           userID,
		ScreenResolution: "0",
		Src:              SrcServerSide,
		EventAttributes:  attrs,
		Company:          company,
	}
	return c.post(ctx, endpoint, body)
}

func (c *Client) stamp(ev *models.Event) {
	ev.APIKey = c.apiKey
	if ev.EventID == "" {
		ev.EventID = c.newID()
	}
	if ev.Timestamp == "" {
		ev.Timestamp = strconv.FormatInt(c.now().UnixMilli(), 10)
	}
	if ev.Src == "" {
		ev.Src = SrcEcommerce
	}
	if ev.DocEncoding == "" {
		ev.DocEncoding = docEncoding
	}
	if ev.EventAttributes == nil {
		ev.EventAttributes = map[string]any{}
	}
}

func (c *Client) post(ctx context.Context, endpoint string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return newError(KindValidation, 0, errors.Wrap(err, "encode event"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return newError(KindConfig, 0, errors.Wrap(err, "build request"))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return newError(KindTransport, 0, errors.Wrap(err, "post event"))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return newError(KindTransport, resp.StatusCode, errors.Wrap(err, "read response"))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(KindStatus, resp.StatusCode, errors.Errorf("unexpected response: %s", snippet(raw)))
	}

	var out models.CollectorResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return newError(KindDecode, resp.StatusCode, errors.Wrap(err, "decode response"))
	}
	if out.Status != "ok" {
		return newError(KindRejected, resp.StatusCode, errors.Errorf("status %q", out.Status))
	}
	return nil
}

// validCredential rejects values that would corrupt the token query parameter.
func validCredential(s string) bool {
	if s == "" {
		return false
	}
	return !strings.ContainsAny(s, " \t\r\n.?&#/=")
}

func snippet(b []byte) string {
	const max = 200
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
