package tracking

import (
	"context"

	"github.com/PratikDhanave/commerce-event-relay/internal/models"
)

func (t *Tracker) ViewProduct(ctx context.Context, v Visit, p models.Product) Outcome {
	return t.send(ctx, v, EventViewProduct, viewProductAttributes(p))
}

func (t *Tracker) UserLogin(ctx context.Context, v Visit, method string) Outcome {
	if method == "" {
		method = "password"
	}
	return t.send(ctx, v, EventUserLogin, map[string]any{"login_method": method})
}

func (t *Tracker) UserLogout(ctx context.Context, v Visit) Outcome {
	return t.send(ctx, v, EventUserLogout, map[string]any{})
}

func (t *Tracker) UserRegistered(ctx context.Context, v Visit, source string) Outcome {
	if source == "" {
		source = "site"
	}
	return t.send(ctx, v, EventUserRegistered, map[string]any{"registration_source": source})
}

func (t *Tracker) PageView(ctx context.Context, v Visit, pageType string, objectID int64) Outcome {
	return t.send(ctx, v, EventPageView, map[string]any{
		"page_type": pageType,
		"object_id": objectID,
	})
}
