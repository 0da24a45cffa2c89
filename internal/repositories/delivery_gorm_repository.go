package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"souq/internal/models"
)

// GORMDeliveryRepository is a GORM implementation of DeliveryRepository.
type GORMDeliveryRepository struct {
	db *gorm.DB
}

// NewGORMDeliveryRepository creates a new instance of GORMDeliveryRepository.
func NewGORMDeliveryRepository(db *gorm.DB) *GORMDeliveryRepository {
	return &GORMDeliveryRepository{
		db: db,
	}
}

// GetByOrderID retrieves the delivery of an order, or ErrNotFound.
func (r *GORMDeliveryRepository) GetByOrderID(orderID string) (*models.Delivery, error) {
	var delivery models.Delivery
	if err := r.db.First(&delivery, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("delivery for order %s: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get delivery for order %s: %w", orderID, err)
	}
	return &delivery, nil
}

// GetByDriverID retrieves all deliveries assigned to a driver.
func (r *GORMDeliveryRepository) GetByDriverID(driverID string) ([]models.Delivery, error) {
	var deliveries []models.Delivery
	err := r.db.Where("driver_id = ?", driverID).Find(&deliveries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get deliveries for driver %s: %w", driverID, err)
	}
	return deliveries, nil
}

// Create creates a new delivery.
func (r *GORMDeliveryRepository) Create(delivery *models.Delivery) error {
	if delivery.ID == "" {
		delivery.ID = uuid.New().String()
	}
	if err := r.db.Create(delivery).Error; err != nil {
		return fmt.Errorf("failed to create delivery: %w", err)
	}
	return nil
}

// Save persists changes to a delivery.
func (r *GORMDeliveryRepository) Save(delivery *models.Delivery) error {
	if err := r.db.Save(delivery).Error; err != nil {
		return fmt.Errorf("failed to save delivery %s: %w", delivery.ID, err)
	}
	return nil
}

// Delete removes a delivery, releasing the order back to the pool.
func (r *GORMDeliveryRepository) Delete(id string) error {
	res := r.db.Unscoped().Delete(&models.Delivery{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete delivery %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delivery %s: %w", id, ErrNotFound)
	}
	return nil
}
