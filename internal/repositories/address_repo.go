package repositories

import "pasar/internal/models"

// AddressRepository defines the interface for address book data access.
type AddressRepository interface {
	GetAllForUser(userID string) ([]models.Address, error)
	GetByID(id string) (*models.Address, error)
	GetDefaultForUser(userID string) (*models.Address, error)
	Create(address *models.Address) error
	Update(address *models.Address) error
	Delete(id string) error
}
