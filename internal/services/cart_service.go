package services

import (
	"fmt"

	"pasar/internal/models"
	"pasar/internal/repositories"

	"github.com/shopspring/decimal"
)

// PricingConfig holds the store-wide pricing rules applied on top of
// the cart lines. All amounts are in currency minor units; the tax rate
// is in basis points (1/100th of a percent).
type PricingConfig struct {
	TaxRateBps                 int64
	DeliveryFeeMinor           int64
	FreeDeliveryThresholdMinor int64
	PromoDiscounts             map[string]int64 // promo code -> flat discount
}

// CartService handles business logic for the shopping cart.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
	pricing     PricingConfig
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository, pricing PricingConfig) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		pricing:     pricing,
	}
}

// GetCart returns the user's current cart.
func (s *CartService) GetCart(userID string) (*models.Cart, error) {
	return s.cartRepo.Get(userID)
}

// AddItem inserts a new line for the product or increments an existing
// one by qty. The unit price is snapshotted from the catalog at the
// moment the line is first added.
func (s *CartService) AddItem(userID, productID string, qty int) (*models.Cart, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("add item with qty %d: %w", qty, ErrInvalidQuantity)
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, fmt.Errorf("failed to add item to cart: %w", err)
	}

	cart, err := s.cartRepo.Get(userID)
	if err != nil {
		return nil, err
	}
	cart.AddLine(models.CartLine{
		ProductID:      product.ID,
		Title:          product.Name,
		UnitPriceMinor: product.PriceMinor,
	}, qty)

	if err := s.cartRepo.Save(cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return cart, nil
}

// RemoveItem deletes the line for productID. Removing a product that is
// not in the cart is a no-op.
func (s *CartService) RemoveItem(userID, productID string) (*models.Cart, error) {
	cart, err := s.cartRepo.Get(userID)
	if err != nil {
		return nil, err
	}
	cart.RemoveLine(productID)

	if err := s.cartRepo.Save(cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return cart, nil
}

// SetQuantity sets the line quantity directly. A qty of zero or less is
// equivalent to RemoveItem.
func (s *CartService) SetQuantity(userID, productID string, qty int) (*models.Cart, error) {
	cart, err := s.cartRepo.Get(userID)
	if err != nil {
		return nil, err
	}
	cart.SetLineQuantity(productID, qty)

	if err := s.cartRepo.Save(cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return cart, nil
}

// ApplyPromo attaches a promo code to the cart. The discount itself is
// applied when totals are computed.
func (s *CartService) ApplyPromo(userID, code string) (*models.Cart, error) {
	if _, ok := s.pricing.PromoDiscounts[code]; !ok {
		return nil, fmt.Errorf("promo code %q: %w", code, ErrUnknownPromo)
	}

	cart, err := s.cartRepo.Get(userID)
	if err != nil {
		return nil, err
	}
	cart.PromoCode = code

	if err := s.cartRepo.Save(cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return cart, nil
}

// Totals computes the price breakdown for the user's current cart.
func (s *CartService) Totals(userID string) (models.CartTotals, error) {
	cart, err := s.cartRepo.Get(userID)
	if err != nil {
		return models.CartTotals{}, err
	}
	return s.TotalsFor(cart), nil
}

// TotalsFor computes the breakdown for a cart. It is a pure function of
// the line set, the promo code and the pricing rules: calling it twice
// without mutating the cart yields identical results.
//
// Tax is computed with decimal arithmetic and rounded half away from
// zero, so repeated display of the same cart never drifts.
func (s *CartService) TotalsFor(cart *models.Cart) models.CartTotals {
	subtotal := cart.SubtotalMinor()

	tax := decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(s.pricing.TaxRateBps)).
		Div(decimal.NewFromInt(10000)).
		Round(0).
		IntPart()

	var discount int64
	if cart.PromoCode != "" {
		discount = s.pricing.PromoDiscounts[cart.PromoCode]
		if discount > subtotal {
			discount = subtotal
		}
	}

	var deliveryFee int64
	if subtotal > 0 {
		deliveryFee = s.pricing.DeliveryFeeMinor
		if s.pricing.FreeDeliveryThresholdMinor > 0 && subtotal >= s.pricing.FreeDeliveryThresholdMinor {
			deliveryFee = 0
		}
	}

	return models.CartTotals{
		SubtotalMinor:    subtotal,
		TaxMinor:         tax,
		DiscountMinor:    discount,
		DeliveryFeeMinor: deliveryFee,
		GrandTotalMinor:  subtotal + tax + deliveryFee - discount,
	}
}

// Clear empties the user's cart. Called after a successful checkout.
func (s *CartService) Clear(userID string) error {
	return s.cartRepo.Clear(userID)
}
