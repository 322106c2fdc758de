package models

import "gorm.io/gorm"

// Address is a saved delivery address in a user's address book.
// Checkout falls back to the user's default address when the request
// does not carry one explicitly.
type Address struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	UserID     string `json:"user_id" gorm:"index;type:varchar(36)"`
	Label      string `json:"label" validate:"omitempty,max=50"`
	Street     string `json:"street" validate:"required,max=200"`
	City       string `json:"city" validate:"required,max=100"`
	PostalCode string `json:"postal_code" validate:"omitempty,max=20"`
	Phone      string `json:"phone" validate:"omitempty,e164"`
	IsDefault  bool   `json:"is_default"`
	gorm.Model        // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// Empty reports whether the address carries no usable destination.
func (a Address) Empty() bool {
	return a.Street == "" && a.City == ""
}
