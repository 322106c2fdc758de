package models

import "gorm.io/gorm"

// Product represents an item sold by the store.
// Prices are stored in currency minor units (e.g. cents) so that
// totals can be computed with exact arithmetic.
type Product struct {
	ID          string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string `json:"name" validate:"required,min=3,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
	Category    string `json:"category" validate:"omitempty,max=100"`
	PriceMinor  int64  `json:"price_minor" validate:"required,gt=0"`
	Stock       int    `json:"stock" validate:"gte=0"`
	gorm.Model         // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
