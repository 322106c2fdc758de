package repositories

import (
	"fmt"
	"sync"

	"pasar/internal/models"

	"github.com/google/uuid"
)

// MockAddressRepository is an in-memory implementation of AddressRepository.
type MockAddressRepository struct {
	addresses map[string]models.Address
	mu        sync.RWMutex
}

// NewMockAddressRepository creates a new instance of MockAddressRepository.
func NewMockAddressRepository() *MockAddressRepository {
	return &MockAddressRepository{
		addresses: make(map[string]models.Address),
	}
}

// GetAllForUser returns all addresses saved by a user.
func (r *MockAddressRepository) GetAllForUser(userID string) ([]models.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	addressList := make([]models.Address, 0)
	for _, a := range r.addresses {
		if a.UserID == userID {
			addressList = append(addressList, a)
		}
	}
	return addressList, nil
}

// GetByID returns an address by its ID.
func (r *MockAddressRepository) GetByID(id string) (*models.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	address, ok := r.addresses[id]
	if !ok {
		return nil, fmt.Errorf("address with ID %s: %w", id, ErrAddressNotFound)
	}
	return &address, nil
}

// GetDefaultForUser returns the user's default address.
func (r *MockAddressRepository) GetDefaultForUser(userID string) (*models.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.addresses {
		if a.UserID == userID && a.IsDefault {
			address := a
			return &address, nil
		}
	}
	return nil, fmt.Errorf("default address for user %s: %w", userID, ErrAddressNotFound)
}

// Create adds a new address. A new default unsets the previous one.
func (r *MockAddressRepository) Create(address *models.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if address.ID == "" {
		address.ID = uuid.New().String()
	}
	if address.IsDefault {
		r.unsetDefaultLocked(address.UserID, address.ID)
	}
	r.addresses[address.ID] = *address
	return nil
}

// Update modifies an existing address.
func (r *MockAddressRepository) Update(address *models.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.addresses[address.ID]
	if !ok {
		return fmt.Errorf("address with ID %s: %w", address.ID, ErrAddressNotFound)
	}
	if address.IsDefault {
		r.unsetDefaultLocked(address.UserID, address.ID)
	}
	r.addresses[address.ID] = *address
	return nil
}

// Delete removes an address by its ID.
func (r *MockAddressRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.addresses[id]
	if !ok {
		return fmt.Errorf("address with ID %s: %w", id, ErrAddressNotFound)
	}
	delete(r.addresses, id)
	return nil
}

// unsetDefaultLocked clears the default flag on all of the user's other
// addresses. Caller must hold the write lock.
func (r *MockAddressRepository) unsetDefaultLocked(userID, exceptID string) {
	for id, a := range r.addresses {
		if a.UserID == userID && a.IsDefault && id != exceptID {
			a.IsDefault = false
			r.addresses[id] = a
		}
	}
}
