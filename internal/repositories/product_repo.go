package repositories

import (
	"pasar/internal/models"
)

// ProductFilter narrows a catalog search. Zero values mean "no
// constraint"; PriceMaxMinor of 0 is treated as unbounded.
type ProductFilter struct {
	Query         string
	Category      string
	PriceMinMinor int64
	PriceMaxMinor int64
}

// ProductRepository defines the interface for catalog data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Search(filter ProductFilter) ([]models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
}
