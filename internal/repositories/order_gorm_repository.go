package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"souq/internal/models"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// GetByID retrieves an order with its items.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// GetByUserID retrieves all orders of a user, newest first.
func (r *GORMOrderRepository) GetByUserID(userID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// GetByUserAndStatuses retrieves a user's orders in the given statuses.
func (r *GORMOrderRepository) GetByUserAndStatuses(userID string, statuses []string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Where("user_id = ? AND status IN ?", userID, statuses).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for user %s by status: %w", userID, err)
	}
	return orders, nil
}

// GetByStatuses retrieves every order in the given statuses.
func (r *GORMOrderRepository) GetByStatuses(statuses []string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Where("status IN ?", statuses).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orders by status: %w", err)
	}
	return orders, nil
}

// GetProcessingWithoutDelivery retrieves orders ready for driver assignment.
func (r *GORMOrderRepository) GetProcessingWithoutDelivery() ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Where("status = ?", models.OrderStatusProcessing).
		Where("id NOT IN (?)", r.db.Model(&models.Delivery{}).Select("order_id")).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get available orders: %w", err)
	}
	return orders, nil
}

// Create creates an order together with its items.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// Save persists the order and its items.
func (r *GORMOrderRepository) Save(order *models.Order) error {
	if err := r.db.Save(order).Error; err != nil {
		return fmt.Errorf("failed to save order %s: %w", order.ID, err)
	}
	for i := range order.Items {
		if err := r.db.Save(&order.Items[i]).Error; err != nil {
			return fmt.Errorf("failed to save order item %s: %w", order.Items[i].ID, err)
		}
	}
	return nil
}

// UpdateStatus updates the status of an order.
func (r *GORMOrderRepository) UpdateStatus(id string, status string) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update status of order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return nil
}
