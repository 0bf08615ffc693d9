package models

// Product is the subset of a catalog product the relay reports on.
type Product struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Price      float64  `json:"price"`
	SKU        string   `json:"sku,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

type CartItem struct {
	Product     Product `json:"product"`
	Quantity    int     `json:"quantity"`
	VariationID int64   `json:"variation_id,omitempty"`
}

type Cart struct {
	Items    []CartItem `json:"items"`
	Total    float64    `json:"total"`
	Currency string     `json:"currency"`
	Coupons  []string   `json:"coupons,omitempty"`
}

// ItemsCount is the summed quantity of every line, not the number of lines.
func (c Cart) ItemsCount() int {
	return countItems(c.Items)
}

func (c Cart) IsEmpty() bool {
	return c.ItemsCount() == 0
}

type Order struct {
	ID            int64      `json:"id"`
	Status        string     `json:"status,omitempty"`
	Total         float64    `json:"total"`
	Subtotal      float64    `json:"subtotal,omitempty"`
	Tax           float64    `json:"tax,omitempty"`
	Shipping      float64    `json:"shipping,omitempty"`
	Discount      float64    `json:"discount,omitempty"`
	Currency      string     `json:"currency"`
	PaymentMethod string     `json:"payment_method"`
	Items         []CartItem `json:"items,omitempty"`
	Coupons       []string   `json:"coupons,omitempty"`
}

func (o Order) ItemCount() int {
	return countItems(o.Items)
}

// Customer is a registered site user. ID 0 means the visitor is not logged in.
type Customer struct {
	ID         int64    `json:"id"`
	Email      string   `json:"email"`
	Registered string   `json:"registered"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	Roles      []string `json:"roles,omitempty"`
}

func (c *Customer) LoggedIn() bool {
	return c != nil && c.ID != 0
}

func countItems(items []CartItem) int {
	n := 0
	for _, it := range items {
		if it.Quantity > 0 {
			n += it.Quantity
		}
	}
	return n
}
