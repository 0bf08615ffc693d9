// Package tracking maps shop and site activity into collector events and keeps
// the session flags that stop checkout and abandonment events from repeating.
package tracking

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/PratikDhanave/commerce-event-relay/internal/log"
	"github.com/PratikDhanave/commerce-event-relay/internal/models"
	"github.com/PratikDhanave/commerce-event-relay/internal/session"
)

// Event types sent to the collector.
const (
	EventAddToCart          = "add_to_cart"
	EventRemoveFromCart     = "remove_from_cart"
	EventUpdateCart         = "update_cart"
	EventApplyCoupon        = "apply_coupon"
	EventInitiateCheckout   = "initiate_checkout"
	EventCartAbandoned      = "cart_abandoned"
	EventOrderCompleted     = "order_completed"
	EventOrderRefunded      = "order_refunded"
	EventOrderCancelled     = "order_cancelled"
	EventOrderStatusChanged = "order_status_changed"
	EventViewProduct        = "view_product"
	EventUserLogin          = "user_login"
	EventUserLogout         = "user_logout"
	EventUserRegistered     = "user_registered"
	EventPageView           = "page_view"
)

// Session flag names.
const (
	FlagCheckoutTracked = "checkout_tracked"
	FlagLastActivity    = "last_activity"
	FlagAbandonTracked  = "abandon_tracked"
)

// Outcome reports what a tracker call did.
type Outcome string

const (
	Sent       Outcome = "sent"
	Failed     Outcome = "failed"
	Suppressed Outcome = "suppressed"
	Skipped    Outcome = "skipped"
)

// Sender delivers one event and reports whether the collector accepted it.
type Sender interface {
	Send(ctx context.Context, ev models.Event) bool
}

// Visit is who triggered a hook and where.
type Visit struct {
	Site      string
	SessionID string
	User      models.User
	Company   models.Company
	Context   models.RequestContext
}

// sessionKey falls back to the visitor's ids when the host sent no session id.
func (v Visit) sessionKey() string {
	id := v.SessionID
	if id == "" && v.User.ID != "" {
		id = "user-" + v.User.ID
	}
	if id == "" && v.User.AnonymousID != "" {
		id = "anon-" + v.User.AnonymousID
	}
	return session.Key(v.Site, id)
}

type Options struct {
	// CheckoutWindow is how long an initiate_checkout for the same cart stays suppressed.
	CheckoutWindow time.Duration
	// AbandonAfter is the idle time after which a non-empty cart counts as abandoned.
	AbandonAfter time.Duration
	// FlagTTL bounds how long any session flag lives in the store.
	FlagTTL time.Duration
	Now     func() time.Time
}

const (
	DefaultCheckoutWindow = 5 * time.Minute
	DefaultAbandonAfter   = time.Hour
	DefaultFlagTTL        = 48 * time.Hour
)

type Tracker struct {
	sender Sender
	store  session.Store
	opts   Options
	stats  *Stats
}

func New(sender Sender, store session.Store, opts Options) *Tracker {
	if opts.CheckoutWindow <= 0 {
		opts.CheckoutWindow = DefaultCheckoutWindow
	}
	if opts.AbandonAfter <= 0 {
		opts.AbandonAfter = DefaultAbandonAfter
	}
	if opts.FlagTTL <= 0 {
		opts.FlagTTL = DefaultFlagTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Tracker{
		sender: sender,
		store:  store,
		opts:   opts,
		stats:  NewStats(),
	}
}

func (t *Tracker) Stats() *Stats {
	return t.stats
}

func (t *Tracker) send(ctx context.Context, v Visit, eventType string, attrs map[string]any) Outcome {
	ev := models.Event{
		EventType:       eventType,
		EventAttributes: attrs,
		User:            v.User,
		Company:         v.Company,
		RequestContext:  v.Context,
	}

	outcome := Failed
	if t.sender.Send(ctx, ev) {
		outcome = Sent
	}
	t.stats.Record(v.Site, eventType, outcome)

	log.GetLogger().Debug("event tracked",
		log.String("site", v.Site),
		log.String("event_type", eventType),
		log.String("outcome", string(outcome)))
	return outcome
}

func (t *Tracker) skip(v Visit, eventType string, outcome Outcome) Outcome {
	t.stats.Record(v.Site, eventType, outcome)
	return outcome
}

// touchCart records cart activity and re-arms checkout and abandonment tracking.
func (t *Tracker) touchCart(ctx context.Context, key string) {
	if key == "" {
		return
	}
	now := strconv.FormatInt(t.opts.Now().UnixMilli(), 10)
	if err := t.store.Set(ctx, key, FlagLastActivity, now, t.opts.FlagTTL); err != nil {
		t.storeFailed("set", FlagLastActivity, err)
	}
	if err := t.store.Delete(ctx, key, FlagCheckoutTracked, FlagAbandonTracked); err != nil {
		t.storeFailed("delete", FlagCheckoutTracked, err)
	}
}

func (t *Tracker) storeFailed(op, flag string, err error) {
	log.GetLogger().Warn("session store "+op+" failed",
		log.String("flag", flag),
		log.Error(err))
}

// checkoutFlag encodes "<fingerprint>|<unix ms>".
func checkoutFlag(fingerprint string, at time.Time) string {
	return fingerprint + "|" + strconv.FormatInt(at.UnixMilli(), 10)
}

func parseCheckoutFlag(v string) (string, time.Time, bool) {
	fp, ms, ok := strings.Cut(v, "|")
	if !ok {
		return "", time.Time{}, false
	}
	n, err := strconv.ParseInt(ms, 10, 64)
	if err != nil {
		return "", time.Time{}, false
	}
	return fp, time.UnixMilli(n), true
}

func parseMillis(v string) (time.Time, bool) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(n), true
}
