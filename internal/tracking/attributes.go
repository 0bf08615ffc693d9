package tracking

import (
	"github.com/PratikDhanave/commerce-event-relay/internal/models"
)

func addToCartAttributes(p models.Product, quantity int, variationID int64) map[string]any {
	return map[string]any{
		"product_id":   p.ID,
		"product_name": p.Name,
		"quantity":     quantity,
		"price":        p.Price,
		"variation_id": variationID,
	}
}

func ajaxAddToCartAttributes(p models.Product) map[string]any {
	return map[string]any{
		"product_id":   p.ID,
		"product_name": p.Name,
		"price":        p.Price,
		"is_ajax":      true,
	}
}

func productAttributes(p models.Product) map[string]any {
	return map[string]any{
		"product_id":   p.ID,
		"product_name": p.Name,
		"price":        p.Price,
	}
}

func updateCartAttributes(p models.Product, quantity, oldQuantity int) map[string]any {
	return map[string]any{
		"product_id":   p.ID,
		"product_name": p.Name,
		"new_quantity": quantity,
		"old_quantity": oldQuantity,
		"price":        p.Price,
	}
}

func viewProductAttributes(p models.Product) map[string]any {
	attrs := productAttributes(p)
	attrs["sku"] = p.SKU
	attrs["categories"] = stringsOrEmpty(p.Categories)
	return attrs
}

func couponAttributes(code string, cart models.Cart) map[string]any {
	return map[string]any{
		"coupon_code": code,
		"total":       cart.Total,
		"currency":    cart.Currency,
	}
}

func checkoutAttributes(cart models.Cart, fingerprint string) map[string]any {
	return map[string]any{
		"total":       cart.Total,
		"currency":    cart.Currency,
		"items_count": cart.ItemsCount(),
		"cart_hash":   fingerprint,
		"products":    lineItems(cart.Items),
		"coupons":     stringsOrEmpty(cart.Coupons),
	}
}

func abandonedAttributes(cart models.Cart, fingerprint string, idleSeconds int64) map[string]any {
	return map[string]any{
		"total":        cart.Total,
		"currency":     cart.Currency,
		"items_count":  cart.ItemsCount(),
		"cart_hash":    fingerprint,
		"idle_seconds": idleSeconds,
	}
}

func orderCompletedAttributes(o models.Order) map[string]any {
	return map[string]any{
		"order_id":       o.ID,
		"total":          o.Total,
		"currency":       o.Currency,
		"payment_method": o.PaymentMethod,
		"items_count":    o.ItemCount(),
		"subtotal":       o.Subtotal,
		"tax":            o.Tax,
		"shipping":       o.Shipping,
		"discount":       o.Discount,
		"coupons":        stringsOrEmpty(o.Coupons),
		"products":       lineItems(o.Items),
	}
}

func orderStatusAttributes(o models.Order, oldStatus, newStatus string) map[string]any {
	return map[string]any{
		"order_id":   o.ID,
		"total":      o.Total,
		"currency":   o.Currency,
		"old_status": oldStatus,
		"new_status": newStatus,
	}
}

// lineItems keeps the input order so the payload is stable for a given cart.
func lineItems(items []models.CartItem) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		out = append(out, map[string]any{
			"product_id":   it.Product.ID,
			"product_name": it.Product.Name,
			"quantity":     it.Quantity,
			"price":        it.Product.Price,
			"variation_id": it.VariationID,
		})
	}
	return out
}

func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
