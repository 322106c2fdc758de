package models

import "time"

// CartLine is one selected product inside a cart. The unit price is a
// snapshot taken when the line was added, in currency minor units.
type CartLine struct {
	ProductID      string `json:"product_id"`
	Title          string `json:"title"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
	Quantity       int    `json:"quantity"`
}

// Cart is a user's in-progress selection before checkout. Lines keep
// insertion order, which is also the display order.
//
// Invariant: every stored line has Quantity >= 1. Lines that would drop
// to zero are removed instead of being retained.
type Cart struct {
	UserID    string     `json:"user_id"`
	Lines     []CartLine `json:"lines"`
	PromoCode string     `json:"promo_code,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// AddLine inserts a new line or increments the quantity of an existing
// line for the same product. qty must already be validated as positive.
func (c *Cart) AddLine(line CartLine, qty int) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == line.ProductID {
			c.Lines[i].Quantity += qty
			return
		}
	}
	line.Quantity = qty
	c.Lines = append(c.Lines, line)
}

// RemoveLine deletes the line for productID. Removing an absent line is
// a no-op, not an error.
func (c *Cart) RemoveLine(productID string) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

// SetLineQuantity sets the quantity of an existing line directly.
// A qty of zero or less removes the line, keeping the invariant.
func (c *Cart) SetLineQuantity(productID string, qty int) {
	if qty <= 0 {
		c.RemoveLine(productID)
		return
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity = qty
			return
		}
	}
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.Lines) == 0
}

// SubtotalMinor is the sum of line totals in minor units.
func (c *Cart) SubtotalMinor() int64 {
	var sum int64
	for _, line := range c.Lines {
		sum += line.UnitPriceMinor * int64(line.Quantity)
	}
	return sum
}

// SnapshotLines returns a copy of the lines, detached from the cart, for
// use as an order's item list.
func (c *Cart) SnapshotLines() []CartLine {
	snapshot := make([]CartLine, len(c.Lines))
	copy(snapshot, c.Lines)
	return snapshot
}

// CartTotals is the price breakdown for a cart, all in minor units.
// It is derived from the line set and pricing rules, never stored.
type CartTotals struct {
	SubtotalMinor    int64 `json:"subtotal_minor"`
	TaxMinor         int64 `json:"tax_minor"`
	DiscountMinor    int64 `json:"discount_minor"`
	DeliveryFeeMinor int64 `json:"delivery_fee_minor"`
	GrandTotalMinor  int64 `json:"grand_total_minor"`
}
