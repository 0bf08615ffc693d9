package collector

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PratikDhanave/commerce-event-relay/internal/log"
	"github.com/PratikDhanave/commerce-event-relay/internal/models"
)

var fixedNow = time.UnixMilli(1700000000123)

type captured struct {
	path  string
	query string
	ctype string
	body  map[string]any
}

func newCollector(t *testing.T, status int, response string) (*httptest.Server, *captured, *int32) {
	t.Helper()
	got := &captured{}
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		got.path = r.URL.Path
		got.query = r.URL.RawQuery
		got.ctype = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got.body)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv, got, &hits
}

func newTestClient(host, key, token string) *Client {
	return New(host, key, token,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { return "evt-1" }))
}

func TestSendEvent_PostsPayloadAndReportsOK(t *testing.T) {
	srv, got, _ := newCollector(t, http.StatusOK, `{"status":"ok"}`)
	c := newTestClient(srv.URL+"/", "key123", "tok456")

	user := models.User{AnonymousID: "anon-1"}
	ok := c.SendEvent(context.Background(), "add_to_cart", user, map[string]any{"product_id": 7}, models.Company{})

	require.True(t, ok)
	assert.Equal(t, "/api/v1/s2s/event", got.path)
	assert.Equal(t, "token=key123.tok456", got.query)
	assert.Equal(t, "application/json", got.ctype)

	assert.Equal(t, "key123", got.body["api_key"])
	assert.Equal(t, "evt-1", got.body["event_id"])
	assert.Equal(t, "add_to_cart", got.body["event_type"])
	assert.Equal(t, "1700000000123", got.body["_timestamp"])
	assert.Equal(t, "ecommerce", got.body["src"])
	assert.Equal(t, "UTF-8", got.body["doc_encoding"])
	assert.Equal(t, map[string]any{"product_id": float64(7)}, got.body["event_attributes"])
	assert.Equal(t, map[string]any{"anonymous_id": "anon-1", "id": ""}, got.body["user"])
	assert.Equal(t, map[string]any{"id": "", "name": ""}, got.body["company"])
	assert.NotContains(t, got.body, "source_ip")
}

func TestSend_EmptyAttributesEncodeAsObject(t *testing.T) {
	srv, got, _ := newCollector(t, http.StatusOK, `{"status":"ok"}`)
	c := newTestClient(srv.URL, "key123", "tok456")

	require.True(t, c.Send(context.Background(), models.Event{EventType: "user_logout"}))
	assert.Equal(t, map[string]any{}, got.body["event_attributes"])
}

func TestSend_FalseOnMissingOrMalformedCredentials(t *testing.T) {
	srv, _, hits := newCollector(t, http.StatusOK, `{"status":"ok"}`)

	cases := map[string][2]string{
		"missing key":     {"", "tok"},
		"missing token":   {"key", ""},
		"dotted key":      {"a.b", "tok"},
		"key with space":  {"a b", "tok"},
		"query injection": {"key&x=1", "tok"},
		"whitespace only": {"   ", "tok"},
	}
	for name, cred := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(srv.URL, cred[0], cred[1])
			assert.NotPanics(t, func() {
				assert.False(t, c.SendEvent(context.Background(), "page_view", models.User{}, nil, models.Company{}))
			})
		})
	}
	assert.Zero(t, atomic.LoadInt32(hits), "no request may reach the collector")
}

func TestDeliver_ClassifiesFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		kind   Kind
	}{
		{"server error", http.StatusInternalServerError, `{"status":"ok"}`, KindStatus},
		{"malformed body", http.StatusOK, `<html>`, KindDecode},
		{"not ok", http.StatusOK, `{"status":"error"}`, KindRejected},
		{"empty body", http.StatusOK, ``, KindDecode},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _, _ := newCollector(t, tc.status, tc.body)
			c := newTestClient(srv.URL, "key", "tok")

			err := c.Deliver(context.Background(), models.Event{EventType: "page_view"})
			var cerr *Error
			require.True(t, stderrors.As(err, &cerr))
			assert.Equal(t, tc.kind, cerr.Kind)
			assert.False(t, c.Send(context.Background(), models.Event{EventType: "page_view"}))
		})
	}
}

func TestSend_LogsFailureKind(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, log.InitWithWriter("INFO", &buf))
	t.Cleanup(func() { _ = log.Init("INFO") })

	srv, _, _ := newCollector(t, http.StatusBadGateway, `bad gateway`)
	c := newTestClient(srv.URL, "key", "tok")

	assert.False(t, c.Send(context.Background(), models.Event{EventType: "page_view"}))
	assert.Contains(t, buf.String(), "kind=status")
	assert.Contains(t, buf.String(), "http_status=502")
	assert.Contains(t, buf.String(), "event_type=page_view")
}

func TestDeliver_TransportError(t *testing.T) {
	srv, _, _ := newCollector(t, http.StatusOK, `{"status":"ok"}`)
	host := srv.URL
	srv.Close()

	c := newTestClient(host, "key", "tok")
	err := c.Deliver(context.Background(), models.Event{EventType: "page_view"})

	var cerr *Error
	require.True(t, stderrors.As(err, &cerr))
	assert.Equal(t, KindTransport, cerr.Kind)
}

func TestDeliver_RejectsEmptyEventType(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1", "key", "tok")
	err := c.Deliver(context.Background(), models.Event{})

	var cerr *Error
	require.True(t, stderrors.As(err, &cerr))
	assert.Equal(t, KindValidation, cerr.Kind)
}

func TestEndpointURL_RejectsBadHost(t *testing.T) {
	for _, host := range []string{"", "events.example.com", "ftp://x"} {
		_, err := newTestClient(host, "key", "tok").EndpointURL()
		assert.Error(t, err, host)
	}
}

func TestSendServerSide_ValidatesCompany(t *testing.T) {
	srv, _, hits := newCollector(t, http.StatusOK, `{"status":"ok"}`)
	c := newTestClient(srv.URL, "key", "tok")

	cases := map[string]*models.Company{
		"nil company":        nil,
		"missing created_at": {ID: "c1", Name: "Acme"},
		"missing id":         {Name: "Acme", CreatedAt: "2024-01-01"},
		"missing name":       {ID: "c1", CreatedAt: "2024-01-01"},
	}
	for name, company := range cases {
		t.Run(name, func(t *testing.T) {
			err := c.SendServerSide(context.Background(), "42", "signed_up", company, nil)

			var cerr *Error
			require.True(t, stderrors.As(err, &cerr))
			assert.Equal(t, KindValidation, cerr.Kind)
		})
	}
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestSendServerSide_UsesServerSideHost(t *testing.T) {
	tracking, _, trackingHits := newCollector(t, http.StatusOK, `{"status":"ok"}`)
	s2s, got, s2sHits := newCollector(t, http.StatusOK, `{"status":"ok"}`)
	c := New(tracking.URL, "key", "tok", WithServerSideHost(s2s.URL+"/"))

	company := &models.Company{ID: "c1", Name: "Acme", CreatedAt: "2024-01-01"}
	require.NoError(t, c.SendServerSide(context.Background(), "42", "signed_up", company, nil))

	assert.Equal(t, int32(1), atomic.LoadInt32(s2sHits))
	assert.Zero(t, atomic.LoadInt32(trackingHits))
	assert.Equal(t, "/api/v1/s2s/event", got.path)

	endpoint, err := c.ServerSideEndpointURL()
	require.NoError(t, err)
	assert.Equal(t, s2s.URL+"/api/v1/s2s/event?token=key.tok", endpoint)

	same := New(tracking.URL, "key", "tok", WithServerSideHost("  "))
	a, _ := same.EndpointURL()
	b, _ := same.ServerSideEndpointURL()
	assert.Equal(t, a, b, "blank server-side host keeps the tracking host")
}

func TestSendServerSide_PostsLegacyShape(t *testing.T) {
	srv, got, _ := newCollector(t, http.StatusOK, `{"status":"ok"}`)
	c := newTestClient(srv.URL, "key", "tok")

	company := &models.Company{ID: "c1", Name: "Acme", CreatedAt: "2024-01-01"}
	require.NoError(t, c.SendServerSide(context.Background(), "42", "signed_up", company, map[string]any{"plan": "pro"}))

	assert.Equal(t, "42", got.body["user_id"])
	assert.Equal(t, "usermaven-python", got.body["src"])
	assert.Equal(t, "0", got.body["screen_resolution"])
	assert.Equal(t, map[string]any{}, got.body["ids"])
	assert.Equal(t, "Acme", got.body["company"].(map[string]any)["name"])
}
