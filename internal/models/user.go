package models

import "gorm.io/gorm"

// Roles recognized by the auth middleware.
const (
	RoleCustomer = "customer"
	RoleDriver   = "driver"
	RoleAdmin    = "admin"
)

// User represents a user of the store: a customer, a delivery driver, or an
// administrator.
type User struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username   string `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email      string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password   string `gorm:"type:varchar(255)" validate:"required,min=6"` // No json tag for security
	Role       string `json:"role" gorm:"type:varchar(20);default:customer" validate:"omitempty,oneof=customer driver admin"`
	gorm.Model        // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// UserAddress is an entry in a user's address book. Lat/Lng are optional;
// when present they let drivers rank available orders by distance.
type UserAddress struct {
	ID         string   `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	UserID     string   `json:"user_id" gorm:"type:varchar(36);index" validate:"required"`
	Type       string   `json:"type" gorm:"type:varchar(20);default:shipping" validate:"omitempty,oneof=shipping billing"`
	Address    string   `json:"address" validate:"required,max=500"`
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
	gorm.Model          // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
