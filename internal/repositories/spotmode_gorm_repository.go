package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"souq/internal/models"
)

// GORMSpotModeRepository is a GORM implementation of SpotModeRepository.
type GORMSpotModeRepository struct {
	db *gorm.DB
}

// NewGORMSpotModeRepository creates a new instance of GORMSpotModeRepository.
func NewGORMSpotModeRepository(db *gorm.DB) *GORMSpotModeRepository {
	return &GORMSpotModeRepository{
		db: db,
	}
}

// GetActive retrieves the single active window, or ErrNotFound.
func (r *GORMSpotModeRepository) GetActive() (*models.SpotMode, error) {
	var spotMode models.SpotMode
	err := r.db.Where("status = ?", models.SpotModeStatusActive).First(&spotMode).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("active spot mode: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get active spot mode: %w", err)
	}
	return &spotMode, nil
}

// GetScheduledDue retrieves scheduled windows whose activation time has
// passed.
func (r *GORMSpotModeRepository) GetScheduledDue(now time.Time) ([]models.SpotMode, error) {
	var spotModes []models.SpotMode
	err := r.db.
		Where("status = ? AND activate_at <= ?", models.SpotModeStatusScheduled, now).
		Find(&spotModes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get due scheduled spot modes: %w", err)
	}
	return spotModes, nil
}

// GetActiveExpired retrieves active windows whose closing time has passed.
func (r *GORMSpotModeRepository) GetActiveExpired(now time.Time) ([]models.SpotMode, error) {
	var spotModes []models.SpotMode
	err := r.db.
		Where("status = ? AND close_at < ?", models.SpotModeStatusActive, now).
		Find(&spotModes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get expired spot modes: %w", err)
	}
	return spotModes, nil
}

// Create creates a new spot-mode window.
func (r *GORMSpotModeRepository) Create(spotMode *models.SpotMode) error {
	if spotMode.ID == "" {
		spotMode.ID = uuid.New().String()
	}
	if err := r.db.Create(spotMode).Error; err != nil {
		return fmt.Errorf("failed to create spot mode: %w", err)
	}
	return nil
}

// Save persists changes to a spot-mode window.
func (r *GORMSpotModeRepository) Save(spotMode *models.SpotMode) error {
	if err := r.db.Save(spotMode).Error; err != nil {
		return fmt.Errorf("failed to save spot mode %s: %w", spotMode.ID, err)
	}
	return nil
}
