package tracking

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/PratikDhanave/commerce-event-relay/internal/models"
)

// CartFingerprint identifies a cart by its lines, total and currency.
// Line order does not matter; lines of the same product and variation are merged.
func CartFingerprint(cart models.Cart) string {
	type line struct {
		product, variation int64
	}
	qty := make(map[line]int, len(cart.Items))
	for _, it := range cart.Items {
		if it.Quantity <= 0 {
			continue
		}
		qty[line{it.Product.ID, it.VariationID}] += it.Quantity
	}

	parts := make([]string, 0, len(qty))
	for l, q := range qty {
		parts = append(parts, fmt.Sprintf("%d:%d:%d", l.product, l.variation, q))
	}
	sort.Strings(parts)

	h := sha256.New()
	h.Write([]byte(strings.Join(parts, ",")))
	fmt.Fprintf(h, "|%.2f|%s", cart.Total, strings.ToUpper(cart.Currency))
	return hex.EncodeToString(h.Sum(nil)[:16])
}
