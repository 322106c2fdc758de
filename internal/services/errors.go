package services

import "errors"

// Sentinel errors for the cart, checkout and order flows. All of them
// are recoverable by the caller; handlers translate them to 4xx
// responses and the user retries or picks another action.
var (
	// ErrInvalidQuantity rejects add-to-cart requests with a quantity
	// that is not a positive integer.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")

	// ErrEmptyCart rejects checkout on a cart with no lines.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrMissingAddress rejects checkout without a delivery address and
	// no saved default to fall back on.
	ErrMissingAddress = errors.New("delivery address is missing")

	// ErrInvalidDeliveryOption rejects an unknown delivery option.
	ErrInvalidDeliveryOption = errors.New("invalid delivery option")

	// ErrUnknownPromo rejects a promo code with no configured discount.
	ErrUnknownPromo = errors.New("unknown promo code")

	// ErrSessionNotFound means the checkout session token is unknown.
	ErrSessionNotFound = errors.New("checkout session not found")

	// ErrSessionClosed means the session already produced an order.
	ErrSessionClosed = errors.New("checkout session already completed")

	// ErrCheckoutInProgress means a payment is already in flight for
	// this session; the caller must wait for its outcome.
	ErrCheckoutInProgress = errors.New("checkout already in progress")

	// ErrInvalidTransition rejects an order status change that is not
	// the single allowed successor of the current status.
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrNotCancellable means the order has progressed past the stages
	// from which a customer may cancel.
	ErrNotCancellable = errors.New("order can no longer be cancelled")

	// ErrWindowExpired means the cancellation countdown ran out.
	ErrWindowExpired = errors.New("cancellation window has expired")
)
