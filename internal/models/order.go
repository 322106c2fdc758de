package models

import "time"

// OrderStatus is the delivery lifecycle stage of an order.
type OrderStatus string

const (
	StatusPlaced         OrderStatus = "placed"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusPicked         OrderStatus = "picked"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// statusSuccessor maps each stage to the single stage that may follow it.
// The lifecycle is strictly ordered: no skipping, no going back.
var statusSuccessor = map[OrderStatus]OrderStatus{
	StatusPlaced:         StatusConfirmed,
	StatusConfirmed:      StatusPreparing,
	StatusPreparing:      StatusPicked,
	StatusPicked:         StatusOutForDelivery,
	StatusOutForDelivery: StatusDelivered,
}

// Valid reports whether s is a known status value.
func (s OrderStatus) Valid() bool {
	if s == StatusDelivered || s == StatusCancelled {
		return true
	}
	_, ok := statusSuccessor[s]
	return ok
}

// Successor returns the only stage that may follow s. ok is false for
// terminal stages.
func (s OrderStatus) Successor() (next OrderStatus, ok bool) {
	next, ok = statusSuccessor[s]
	return next, ok
}

// CanAdvanceTo reports whether moving from s to target is a legal
// forward step.
func (s OrderStatus) CanAdvanceTo(target OrderStatus) bool {
	next, ok := statusSuccessor[s]
	return ok && next == target
}

// Terminal reports whether no further transitions are possible from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Cancellable reports whether an order in this stage may still be
// cancelled by the customer (window permitting).
func (s OrderStatus) Cancellable() bool {
	return s == StatusPlaced || s == StatusConfirmed
}

// OrderItem is a line captured from the cart at checkout time. The unit
// price is the price paid, not a reference into the catalog.
type OrderItem struct {
	ProductID      string `json:"product_id"`
	Title          string `json:"title"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
	Quantity       int    `json:"quantity"`
}

// Order is created only after the payment gateway approves a checkout.
// Everything except Status is immutable once created.
type Order struct {
	ID               string      `json:"id"`
	UserID           string      `json:"user_id"`
	Items            []OrderItem `json:"items"`
	Totals           CartTotals  `json:"totals"`
	Status           OrderStatus `json:"status"`
	DeliveryAddress  Address     `json:"delivery_address"`
	DeliveryOption   string      `json:"delivery_option"`
	PaymentReference string      `json:"payment_reference"`
	PlacedAt         time.Time   `json:"placed_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// CancellationWindow is the countdown during which a fresh order may be
// cancelled. It holds no clock of its own; an external driver calls
// Tick once per second while the window is open.
type CancellationWindow struct {
	OrderID          string `json:"order_id"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

// Tick decrements the countdown by one second, stopping at zero.
func (w *CancellationWindow) Tick() {
	if w.RemainingSeconds > 0 {
		w.RemainingSeconds--
	}
}

// Expired reports whether the countdown has run out.
func (w *CancellationWindow) Expired() bool {
	return w.RemainingSeconds <= 0
}
