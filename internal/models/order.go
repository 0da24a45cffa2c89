package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order statuses.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusAwaiting   = "awaiting_price_confirmation"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCanceled   = "canceled"
)

// orderTransitions defines the allowed status state machine.
var orderTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCanceled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCanceled},
	OrderStatusAwaiting:   {OrderStatusProcessing, OrderStatusCanceled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusProcessing},
	OrderStatusDelivered:  {},
	OrderStatusCanceled:   {},
}

// CanTransition reports whether an order may move from one status to another.
// shipped -> processing is the release path: a driver cancelling acceptance
// returns the order to the available pool.
func CanTransition(from, to string) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CancelableOrderStatuses are the statuses from which a customer may cancel,
// restoring the stock that was reserved at order creation.
var CancelableOrderStatuses = []string{OrderStatusPending, OrderStatusProcessing, OrderStatusAwaiting}

// Order is the system of record created from a confirmed cart. Once the cart
// is converted the two are decoupled; the order owns its items exclusively.
type Order struct {
	ID         string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	UserID     string          `json:"user_id" gorm:"type:varchar(36);index" validate:"required"`
	Status     string          `json:"status" gorm:"type:varchar(32);index"`
	Date       time.Time       `json:"date" gorm:"type:date"` // business date, rolls over at 06:00
	Notes      string          `json:"notes" validate:"omitempty,max=500"`
	TotalPrice decimal.Decimal `json:"total_price" gorm:"type:decimal(10,2)"`
	Items      []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	gorm.Model                 // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// OrderItem is a single line in an order. UnitPrice may be zero while the
// order awaits price confirmation; items are immutable once the order ships.
type OrderItem struct {
	ID         string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	OrderID    string          `json:"order_id" gorm:"type:varchar(36);index"`
	ProductID  string          `json:"product_id" gorm:"type:varchar(36);index" validate:"required"`
	Quantity   int             `json:"quantity" validate:"gte=1"`
	UnitPrice  decimal.Decimal `json:"unit_price" gorm:"type:decimal(10,2)"`
	LineTotal  decimal.Decimal `json:"line_total" gorm:"type:decimal(10,2)"`
	gorm.Model                 // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// BusinessDate returns the trading-day date for an order placed at the given
// time: before 06:00 local time the order still belongs to yesterday's
// trading day.
func BusinessDate(now time.Time) time.Time {
	if now.Hour() < 6 {
		now = now.AddDate(0, 0, -1)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
