package models

import (
	"time"

	"gorm.io/gorm"
)

// SpotMode statuses. At most one record is active at any instant, enforced
// by a guarded check inside the activation transaction.
const (
	SpotModeStatusScheduled = "scheduled"
	SpotModeStatusActive    = "active"
	SpotModeStatusInactive  = "inactive"
)

// SpotMode is a scheduled, time-boxed promotional pricing window. While a
// window is active, products sell at their spot price instead of the regular
// price.
type SpotMode struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Status     string    `json:"status" gorm:"type:varchar(20);index"`
	ActivateAt time.Time `json:"activate_at" validate:"required"`
	CloseAt    time.Time `json:"close_at" validate:"required,gtfield=ActivateAt"`
	CreatedBy  string    `json:"created_by" gorm:"type:varchar(36)"` // admin user id
	gorm.Model           // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// ActiveAt reports whether the window is active at the given instant:
// status is active and activateAt <= now <= closeAt.
func (s *SpotMode) ActiveAt(now time.Time) bool {
	return s.Status == SpotModeStatusActive &&
		!now.Before(s.ActivateAt) && !now.After(s.CloseAt)
}
