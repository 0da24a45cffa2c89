package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"souq/internal/models"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// GetByID retrieves a cart with its items.
func (r *GORMCartRepository) GetByID(id string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.Preload("Items").First(&cart, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cart by ID %s: %w", id, err)
	}
	return &cart, nil
}

// GetOpenByUserID retrieves the user's single open cart with its items.
func (r *GORMCartRepository) GetOpenByUserID(userID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Preload("Items").
		Where("user_id = ? AND status IN ?", userID, models.OpenCartStatuses).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("open cart for user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get open cart for user %s: %w", userID, err)
	}
	return &cart, nil
}

// GetOpen retrieves every open cart with items, for repricing sweeps.
func (r *GORMCartRepository) GetOpen() ([]models.Cart, error) {
	var carts []models.Cart
	err := r.db.Preload("Items").
		Where("status IN ?", models.OpenCartStatuses).
		Find(&carts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get open carts: %w", err)
	}
	return carts, nil
}

// Create creates a new cart.
func (r *GORMCartRepository) Create(cart *models.Cart) error {
	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	if err := r.db.Create(cart).Error; err != nil {
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

// Save persists the cart's own columns. Items are saved individually through
// SaveItem so a sweep can touch lines without rewriting the whole aggregate.
func (r *GORMCartRepository) Save(cart *models.Cart) error {
	err := r.db.Omit("Items").Save(cart).Error
	if err != nil {
		return fmt.Errorf("failed to save cart %s: %w", cart.ID, err)
	}
	return nil
}

// SaveItem creates or updates a single cart line.
func (r *GORMCartRepository) SaveItem(item *models.CartItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if err := r.db.Save(item).Error; err != nil {
		return fmt.Errorf("failed to save cart item %s: %w", item.ID, err)
	}
	return nil
}

// DeleteItem removes a single cart line.
func (r *GORMCartRepository) DeleteItem(itemID string) error {
	res := r.db.Unscoped().Delete(&models.CartItem{}, "id = ?", itemID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete cart item %s: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart item %s: %w", itemID, ErrNotFound)
	}
	return nil
}

// DeleteItems removes every line of the given cart. Deleting zero rows is
// fine: the deactivation sweep clears carts that may already be empty.
func (r *GORMCartRepository) DeleteItems(cartID string) error {
	err := r.db.Unscoped().Delete(&models.CartItem{}, "cart_id = ?", cartID).Error
	if err != nil {
		return fmt.Errorf("failed to delete items of cart %s: %w", cartID, err)
	}
	return nil
}
