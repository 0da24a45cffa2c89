package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart statuses. A cart in pending or awaiting_price_confirmation is "open";
// a user may hold at most one open cart at a time. confirmed and canceled
// are terminal.
const (
	CartStatusPending   = "pending"
	CartStatusAwaiting  = "awaiting_price_confirmation"
	CartStatusConfirmed = "confirmed"
	CartStatusCanceled  = "canceled"
)

// OpenCartStatuses are the statuses that occupy the single open-cart slot.
var OpenCartStatuses = []string{CartStatusPending, CartStatusAwaiting}

// Cart is the mutable pre-order basket. It exclusively owns its items; they
// are deleted together with the cart.
type Cart struct {
	ID         string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	UserID     string          `json:"user_id" gorm:"type:varchar(36);index" validate:"required"`
	Status     string          `json:"status" gorm:"type:varchar(32);default:pending"`
	TotalPrice decimal.Decimal `json:"total_price" gorm:"type:decimal(10,2)"`
	Items      []CartItem      `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	gorm.Model                 // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// CartItem is a single line in a cart. UnitPrice is the price snapshot taken
// when the line was created or last repriced; it is null while the price
// awaits confirmation.
type CartItem struct {
	ID         string              `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	CartID     string              `json:"cart_id" gorm:"type:varchar(36);index"`
	ProductID  string              `json:"product_id" gorm:"type:varchar(36);index" validate:"required"`
	Quantity   int                 `json:"quantity" validate:"gte=1"`
	UnitPrice  decimal.NullDecimal `json:"unit_price" gorm:"type:decimal(10,2)"`
	gorm.Model                     // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// LineTotal returns quantity x unit price, treating a null price as zero.
func (i *CartItem) LineTotal() decimal.Decimal {
	if !i.UnitPrice.Valid {
		return decimal.Zero
	}
	return i.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// RecalculateTotal recomputes TotalPrice from the loaded items. It must be
// called after every item mutation; calling it twice yields the same value.
func (c *Cart) RecalculateTotal() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].LineTotal())
	}
	c.TotalPrice = total
	return total
}

// IsOpen reports whether the cart occupies the user's open-cart slot.
func (c *Cart) IsOpen() bool {
	return c.Status == CartStatusPending || c.Status == CartStatusAwaiting
}
