package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"pasar/internal/models"
	"pasar/internal/payment"
	"pasar/internal/repositories"

	"github.com/google/uuid"
)

// Delivery options a checkout may pick. The option is carried on the
// order for the delivery side; it does not change the fee breakdown.
const (
	DeliveryStandard = "standard"
	DeliveryExpress  = "express"
)

// CheckoutSession is one attempt to turn a cart into an order. It
// snapshots the cart lines and totals at begin time, so later cart
// edits do not leak into an in-flight payment.
type CheckoutSession struct {
	Token           string            `json:"token"`
	UserID          string            `json:"user_id"`
	Lines           []models.CartLine `json:"lines"`
	Totals          models.CartTotals `json:"totals"`
	DeliveryAddress models.Address    `json:"delivery_address"`
	DeliveryOption  string            `json:"delivery_option"`
	CreatedAt       time.Time         `json:"created_at"`

	inFlight bool // a payment is outstanding
	closed   bool // an order was produced; token is spent
}

// CheckoutService orchestrates the cart -> payment -> order handoff.
// The gateway call is the only external boundary in the flow; all other
// state changes are synchronous and local.
type CheckoutService struct {
	cartService  *CartService
	orderService *OrderService
	addressRepo  repositories.AddressRepository
	gateway      payment.Gateway
	currency     string

	mu       sync.Mutex
	sessions map[string]*CheckoutSession
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(cartService *CartService, orderService *OrderService, addressRepo repositories.AddressRepository, gateway payment.Gateway, currency string) *CheckoutService {
	return &CheckoutService{
		cartService:  cartService,
		orderService: orderService,
		addressRepo:  addressRepo,
		gateway:      gateway,
		currency:     currency,
		sessions:     make(map[string]*CheckoutSession),
	}
}

// BeginCheckout validates the cart and address and opens a session.
// An empty address falls back to the user's saved default; with neither
// the checkout fails with ErrMissingAddress.
func (s *CheckoutService) BeginCheckout(userID string, address models.Address, deliveryOption string) (*CheckoutSession, error) {
	cart, err := s.cartService.GetCart(userID)
	if err != nil {
		return nil, err
	}
	if cart.Empty() {
		return nil, fmt.Errorf("checkout for user %s: %w", userID, ErrEmptyCart)
	}

	if address.Empty() {
		saved, err := s.addressRepo.GetDefaultForUser(userID)
		if err != nil {
			return nil, fmt.Errorf("checkout for user %s: %w", userID, ErrMissingAddress)
		}
		address = *saved
	}

	switch deliveryOption {
	case "":
		deliveryOption = DeliveryStandard
	case DeliveryStandard, DeliveryExpress:
	default:
		return nil, fmt.Errorf("delivery option %q: %w", deliveryOption, ErrInvalidDeliveryOption)
	}

	session := &CheckoutSession{
		Token:           uuid.New().String(),
		UserID:          userID,
		Lines:           cart.SnapshotLines(),
		Totals:          s.cartService.TotalsFor(cart),
		DeliveryAddress: address,
		DeliveryOption:  deliveryOption,
		CreatedAt:       time.Now(),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	return session, nil
}

// SubmitPayment hands the session's total to the payment gateway and
// acts on the outcome:
//
//   - Approved: an order is created in status placed, the cart is
//     cleared and the session token is spent.
//   - Declined or Cancelled: the cart is preserved unchanged and the
//     session stays open so the user can retry.
//
// Only one payment may be in flight per session; a concurrent second
// call fails with ErrCheckoutInProgress instead of racing.
func (s *CheckoutService) SubmitPayment(token, method string) (*models.Order, payment.Outcome, error) {
	s.mu.Lock()
	session, ok := s.sessions[token]
	if !ok {
		s.mu.Unlock()
		return nil, payment.Outcome{}, fmt.Errorf("session %s: %w", token, ErrSessionNotFound)
	}
	if session.closed {
		s.mu.Unlock()
		return nil, payment.Outcome{}, fmt.Errorf("session %s: %w", token, ErrSessionClosed)
	}
	if session.inFlight {
		s.mu.Unlock()
		return nil, payment.Outcome{}, fmt.Errorf("session %s: %w", token, ErrCheckoutInProgress)
	}
	session.inFlight = true
	s.mu.Unlock()

	// The in-flight flag must clear on every exit path, or the session
	// would be stuck rejecting retries forever.
	defer func() {
		s.mu.Lock()
		session.inFlight = false
		s.mu.Unlock()
	}()

	outcome, err := s.gateway.Open(payment.Options{
		SessionToken: session.Token,
		CustomerID:   session.UserID,
		AmountMinor:  session.Totals.GrandTotalMinor,
		Currency:     s.currency,
		Method:       method,
	})
	if err != nil {
		// Transport/SDK failure, not a decline. Cart and session are
		// untouched so the user can retry.
		return nil, payment.Outcome{}, fmt.Errorf("payment gateway call failed: %w", err)
	}

	switch outcome.Status {
	case payment.OutcomeApproved:
		order := s.buildOrder(session, outcome.Reference)
		if err := s.orderService.PlaceOrder(order); err != nil {
			return nil, outcome, err
		}
		if err := s.cartService.Clear(session.UserID); err != nil {
			return nil, outcome, fmt.Errorf("failed to clear cart after checkout: %w", err)
		}
		s.mu.Lock()
		session.closed = true
		s.mu.Unlock()
		return order, outcome, nil

	case payment.OutcomeDeclined, payment.OutcomeCancelled:
		return nil, outcome, nil

	default:
		return nil, outcome, fmt.Errorf("payment gateway returned unknown status %q", outcome.Status)
	}
}

// Session returns an open session by token.
func (s *CheckoutService) Session(token string) (*CheckoutSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", token, ErrSessionNotFound)
	}
	return session, nil
}

// buildOrder turns the session snapshot into an immutable order record.
func (s *CheckoutService) buildOrder(session *CheckoutSession, paymentRef string) *models.Order {
	items := make([]models.OrderItem, len(session.Lines))
	for i, line := range session.Lines {
		items[i] = models.OrderItem{
			ProductID:      line.ProductID,
			Title:          line.Title,
			UnitPriceMinor: line.UnitPriceMinor,
			Quantity:       line.Quantity,
		}
	}
	return &models.Order{
		ID:               uuid.New().String(),
		UserID:           session.UserID,
		Items:            items,
		Totals:           session.Totals,
		Status:           models.StatusPlaced,
		DeliveryAddress:  session.DeliveryAddress,
		DeliveryOption:   session.DeliveryOption,
		PaymentReference: paymentRef,
		PlacedAt:         time.Now(),
	}
}

// IsCheckoutError reports whether err belongs to the checkout error
// taxonomy (as opposed to an infrastructure failure).
func IsCheckoutError(err error) bool {
	return errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrMissingAddress) ||
		errors.Is(err, ErrInvalidDeliveryOption) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSessionClosed) ||
		errors.Is(err, ErrCheckoutInProgress)
}
