package repositories

import "sync"

// FavouriteRepository holds each user's favourited product IDs.
type FavouriteRepository interface {
	List(userID string) ([]string, error)
	Toggle(userID, productID string) (favourited bool, err error)
}

// MemoryFavouriteRepository is the in-memory implementation of
// FavouriteRepository. Favourites preserve the order in which products
// were first favourited.
type MemoryFavouriteRepository struct {
	favourites map[string][]string
	mu         sync.RWMutex
}

// NewMemoryFavouriteRepository creates a new instance of MemoryFavouriteRepository.
func NewMemoryFavouriteRepository() *MemoryFavouriteRepository {
	return &MemoryFavouriteRepository{
		favourites: make(map[string][]string),
	}
}

// List returns the user's favourited product IDs.
func (r *MemoryFavouriteRepository) List(userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.favourites[userID]...), nil
}

// Toggle flips the favourite state of a product for the user and
// reports the resulting state.
func (r *MemoryFavouriteRepository) Toggle(userID, productID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.favourites[userID]
	for i, id := range ids {
		if id == productID {
			r.favourites[userID] = append(ids[:i], ids[i+1:]...)
			return false, nil
		}
	}
	r.favourites[userID] = append(ids, productID)
	return true, nil
}
