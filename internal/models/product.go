package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category groups products for browsing.
type Category struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name       string `json:"name" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=2,max=100"`
	gorm.Model        // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// Product represents a product in the store.
//
// RegularPrice is the everyday price. SpotPrice is the promotional price that
// applies while a Spot Mode window is active; it is nullable, and pricing
// falls back to RegularPrice when it is unset. Soft deletion (gorm.Model's
// DeletedAt) hides a product from carts and new orders without breaking
// references from historical order items.
type Product struct {
	ID           string              `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name         string              `json:"name" validate:"required,min=3,max=100"`
	Description  string              `json:"description" validate:"omitempty,max=500"`
	RegularPrice decimal.Decimal     `json:"regular_price" gorm:"type:decimal(10,2)"`
	SpotPrice    decimal.NullDecimal `json:"spot_price" gorm:"type:decimal(10,2)"`
	Stock        int                 `json:"stock" validate:"gte=0"`
	CategoryID   string              `json:"category_id" gorm:"type:varchar(36);index"`
	gorm.Model                       // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
