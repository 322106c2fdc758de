package repositories

import (
	"sync"
	"time"

	"pasar/internal/models"
)

// CartRepository holds the per-user carts. Carts live only for the
// session; they are not persisted (a cleared cart after checkout or a
// process restart both start the user from empty).
type CartRepository interface {
	Get(userID string) (*models.Cart, error)
	Save(cart *models.Cart) error
	Clear(userID string) error
}

// MemoryCartRepository is the in-memory implementation of CartRepository.
type MemoryCartRepository struct {
	carts map[string]models.Cart
	mu    sync.RWMutex
}

// NewMemoryCartRepository creates a new instance of MemoryCartRepository.
func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{
		carts: make(map[string]models.Cart),
	}
}

// Get returns the user's cart, creating an empty one on first use.
func (r *MemoryCartRepository) Get(userID string) (*models.Cart, error) {
	r.mu.RLock()
	cart, ok := r.carts[userID]
	r.mu.RUnlock()
	if !ok {
		cart = models.Cart{UserID: userID}
	}
	// Return a copy so callers mutate via Save, not in place.
	cart.Lines = append([]models.CartLine(nil), cart.Lines...)
	return &cart, nil
}

// Save stores the cart, replacing any previous state for the user.
func (r *MemoryCartRepository) Save(cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart.UpdatedAt = time.Now()
	stored := *cart
	stored.Lines = append([]models.CartLine(nil), cart.Lines...)
	r.carts[cart.UserID] = stored
	return nil
}

// Clear removes the user's cart entirely.
func (r *MemoryCartRepository) Clear(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, userID)
	return nil
}
