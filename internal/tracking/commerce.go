package tracking

import (
	"context"
	"strings"
	"time"

	"github.com/PratikDhanave/commerce-event-relay/internal/log"
	"github.com/PratikDhanave/commerce-event-relay/internal/models"
)

func (t *Tracker) AddToCart(ctx context.Context, v Visit, p models.Product, quantity int, variationID int64) Outcome {
	t.touchCart(ctx, v.sessionKey())
	return t.send(ctx, v, EventAddToCart, addToCartAttributes(p, quantity, variationID))
}

// AjaxAddToCart is the add-to-cart fired from AJAX buttons, where quantity is not known.
func (t *Tracker) AjaxAddToCart(ctx context.Context, v Visit, p models.Product) Outcome {
	t.touchCart(ctx, v.sessionKey())
	return t.send(ctx, v, EventAddToCart, ajaxAddToCartAttributes(p))
}

func (t *Tracker) RemoveFromCart(ctx context.Context, v Visit, p models.Product) Outcome {
	t.touchCart(ctx, v.sessionKey())
	return t.send(ctx, v, EventRemoveFromCart, productAttributes(p))
}

func (t *Tracker) UpdateCart(ctx context.Context, v Visit, p models.Product, quantity, oldQuantity int) Outcome {
	t.touchCart(ctx, v.sessionKey())
	return t.send(ctx, v, EventUpdateCart, updateCartAttributes(p, quantity, oldQuantity))
}

func (t *Tracker) ApplyCoupon(ctx context.Context, v Visit, code string, cart models.Cart) Outcome {
	t.touchCart(ctx, v.sessionKey())
	return t.send(ctx, v, EventApplyCoupon, couponAttributes(code, cart))
}

// InitiateCheckout sends initiate_checkout at most once per cart fingerprint
// within the checkout window. The flag is reserved before sending and released
// when the send fails. Store errors fail open.
func (t *Tracker) InitiateCheckout(ctx context.Context, v Visit, cart models.Cart) Outcome {
	if cart.IsEmpty() {
		return t.skip(v, EventInitiateCheckout, Skipped)
	}

	fp := CartFingerprint(cart)
	key := v.sessionKey()
	now := t.opts.Now()

	reserved := false
	if key != "" {
		ok, err := t.reserveCheckout(ctx, key, fp, now)
		switch {
		case err != nil:
			t.storeFailed("reserve", FlagCheckoutTracked, err)
		case !ok:
			log.GetLogger().Debug("checkout already tracked",
				log.String("site", v.Site),
				log.String("cart_hash", fp))
			return t.skip(v, EventInitiateCheckout, Suppressed)
		default:
			reserved = true
		}
	}

	outcome := t.send(ctx, v, EventInitiateCheckout, checkoutAttributes(cart, fp))
	if reserved && outcome != Sent {
		if err := t.store.Delete(ctx, key, FlagCheckoutTracked); err != nil {
			t.storeFailed("release", FlagCheckoutTracked, err)
		}
	}
	return outcome
}

// reserveCheckout claims the checkout flag for fp. It returns false when a live
// reservation for the same cart already exists or another caller won the claim.
func (t *Tracker) reserveCheckout(ctx context.Context, key, fp string, now time.Time) (bool, error) {
	const attempts = 3
	for i := 0; i < attempts; i++ {
		prev, found, err := t.store.Get(ctx, key, FlagCheckoutTracked)
		if err != nil {
			return false, err
		}
		if found {
			pfp, at, ok := parseCheckoutFlag(prev)
			if ok && pfp == fp && now.Sub(at) < t.opts.CheckoutWindow {
				return false, nil
			}
		} else {
			prev = ""
		}

		swapped, err := t.store.CompareAndSet(ctx, key, FlagCheckoutTracked, prev, checkoutFlag(fp, now), t.opts.FlagTTL)
		if err != nil {
			return false, err
		}
		if swapped {
			return true, nil
		}
	}
	return false, nil
}

// CheckAbandonment sends cart_abandoned once for a non-empty cart that has
// been idle for longer than the abandonment window.
func (t *Tracker) CheckAbandonment(ctx context.Context, v Visit, cart models.Cart) Outcome {
	key := v.sessionKey()
	if cart.IsEmpty() || key == "" {
		return t.skip(v, EventCartAbandoned, Skipped)
	}

	raw, found, err := t.store.Get(ctx, key, FlagLastActivity)
	if err != nil {
		t.storeFailed("get", FlagLastActivity, err)
		return t.skip(v, EventCartAbandoned, Skipped)
	}
	last, ok := parseMillis(raw)
	if !found || !ok {
		return t.skip(v, EventCartAbandoned, Skipped)
	}

	idle := t.opts.Now().Sub(last)
	if idle < t.opts.AbandonAfter {
		return t.skip(v, EventCartAbandoned, Skipped)
	}

	if _, tracked, err := t.store.Get(ctx, key, FlagAbandonTracked); err != nil {
		t.storeFailed("get", FlagAbandonTracked, err)
		return t.skip(v, EventCartAbandoned, Skipped)
	} else if tracked {
		return t.skip(v, EventCartAbandoned, Suppressed)
	}

	fp := CartFingerprint(cart)
	outcome := t.send(ctx, v, EventCartAbandoned, abandonedAttributes(cart, fp, int64(idle.Seconds())))
	if outcome == Sent {
		if err := t.store.Set(ctx, key, FlagAbandonTracked, "1", t.opts.FlagTTL); err != nil {
			t.storeFailed("set", FlagAbandonTracked, err)
		}
	}
	return outcome
}

// OrderCompleted reports a paid order and clears every flag of the session.
func (t *Tracker) OrderCompleted(ctx context.Context, v Visit, o models.Order) Outcome {
	outcome := t.send(ctx, v, EventOrderCompleted, orderCompletedAttributes(o))
	if key := v.sessionKey(); key != "" {
		if err := t.store.Delete(ctx, key); err != nil {
			t.storeFailed("clear", "*", err)
		}
	}
	return outcome
}

// OrderStatusChanged maps refunds and cancellations to their own event types.
// Transitions to the same status are skipped.
func (t *Tracker) OrderStatusChanged(ctx context.Context, v Visit, o models.Order, oldStatus, newStatus string) Outcome {
	oldStatus = normalizeStatus(oldStatus)
	newStatus = normalizeStatus(newStatus)

	eventType := StatusEventType(newStatus)
	if newStatus == "" || oldStatus == newStatus {
		return t.skip(v, eventType, Skipped)
	}
	return t.send(ctx, v, eventType, orderStatusAttributes(o, oldStatus, newStatus))
}

// StatusEventType names the event reported for an order entering status.
func StatusEventType(status string) string {
	switch normalizeStatus(status) {
	case "refunded":
		return EventOrderRefunded
	case "cancelled":
		return EventOrderCancelled
	default:
		return EventOrderStatusChanged
	}
}

// normalizeStatus strips the "wc-" post status prefix.
func normalizeStatus(s string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "wc-")
}
