package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Delivery statuses.
const (
	DeliveryStatusNew       = "new"      // created, no driver yet
	DeliveryStatusAssigned  = "assigned" // driver accepted
	DeliveryStatusDelivered = "delivered"
)

// DeliveryETA is how long after order creation a shipped order is expected
// to arrive.
const DeliveryETA = 40 * time.Minute

// Delivery binds an order to a driver. There is at most one delivery per
// order. DriverID is null until a driver accepts; an unaccepted delivery may
// be deleted to release the order back to the pool. Address and coordinates
// are a snapshot of the customer's shipping address at confirmation time.
type Delivery struct {
	ID           string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	OrderID      string          `json:"order_id" gorm:"uniqueIndex;type:varchar(36)" validate:"required"`
	DriverID     *string         `json:"driver_id" gorm:"type:varchar(36);index"`
	Status       string          `json:"status" gorm:"type:varchar(20);default:new"`
	Address      string          `json:"address"`
	Lat          *float64        `json:"lat"`
	Lng          *float64        `json:"lng"`
	DeliveryTime *time.Time      `json:"delivery_time"` // actual timestamp once delivered
	DeliveryFee  decimal.Decimal `json:"delivery_fee" gorm:"type:decimal(10,2)"`
	gorm.Model                   // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
