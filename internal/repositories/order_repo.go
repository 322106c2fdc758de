package repositories

import (
	"pasar/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetAllForUser(userID string) ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	Create(order *models.Order) error
	UpdateStatus(id string, status models.OrderStatus) error
	// Orders are never deleted; a cancelled order stays on record.
}
