package services

import (
	"fmt"

	"pasar/internal/models"
	"pasar/internal/repositories"
)

// FavouriteService handles the user's favourited products.
type FavouriteService struct {
	favouriteRepo repositories.FavouriteRepository
	productRepo   repositories.ProductRepository
}

// NewFavouriteService creates a new FavouriteService.
func NewFavouriteService(favouriteRepo repositories.FavouriteRepository, productRepo repositories.ProductRepository) *FavouriteService {
	return &FavouriteService{
		favouriteRepo: favouriteRepo,
		productRepo:   productRepo,
	}
}

// Toggle flips the favourite state of a product and reports the new
// state. The product must exist in the catalog.
func (s *FavouriteService) Toggle(userID, productID string) (bool, error) {
	if _, err := s.productRepo.GetByID(productID); err != nil {
		return false, fmt.Errorf("failed to toggle favourite: %w", err)
	}
	return s.favouriteRepo.Toggle(userID, productID)
}

// List returns the user's favourited products. Products that have since
// left the catalog are skipped.
func (s *FavouriteService) List(userID string) ([]models.Product, error) {
	ids, err := s.favouriteRepo.List(userID)
	if err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		product, err := s.productRepo.GetByID(id)
		if err != nil {
			continue
		}
		products = append(products, *product)
	}
	return products, nil
}
