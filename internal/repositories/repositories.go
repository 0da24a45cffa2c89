package repositories

import (
	"errors"
	"time"

	"souq/internal/models"
)

// ErrNotFound is returned when a requested record does not exist. Callers
// check it with errors.Is and translate it to their own error kinds.
var ErrNotFound = errors.New("record not found")

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	// GetByIDForUpdate locks the product row for the rest of the enclosing
	// transaction. Stock checks and decrements must run under this lock.
	GetByIDForUpdate(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	// AdjustStock atomically adds delta (which may be negative) to the
	// product's stock.
	AdjustStock(id string, delta int) error
	Delete(id string) error  // soft delete
	Restore(id string) error // undo soft delete
}

// CartRepository defines the interface for cart data access. Carts own their
// items; loading a cart always loads its items.
type CartRepository interface {
	GetByID(id string) (*models.Cart, error)
	// GetOpenByUserID returns the user's single open cart (status pending or
	// awaiting_price_confirmation), or ErrNotFound.
	GetOpenByUserID(userID string) (*models.Cart, error)
	// GetOpen returns every open cart in the system, for repricing sweeps.
	GetOpen() ([]models.Cart, error)
	Create(cart *models.Cart) error
	Save(cart *models.Cart) error
	SaveItem(item *models.CartItem) error
	DeleteItem(itemID string) error
	// DeleteItems removes every item of the given cart.
	DeleteItems(cartID string) error
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetByID(id string) (*models.Order, error)
	GetByUserID(userID string) ([]models.Order, error)
	GetByUserAndStatuses(userID string, statuses []string) ([]models.Order, error)
	GetByStatuses(statuses []string) ([]models.Order, error)
	// GetProcessingWithoutDelivery returns orders ready for driver
	// assignment: status processing and no delivery row.
	GetProcessingWithoutDelivery() ([]models.Order, error)
	Create(order *models.Order) error
	Save(order *models.Order) error
	UpdateStatus(id string, status string) error
}

// DeliveryRepository defines the interface for delivery data access.
type DeliveryRepository interface {
	GetByOrderID(orderID string) (*models.Delivery, error)
	GetByDriverID(driverID string) ([]models.Delivery, error)
	Create(delivery *models.Delivery) error
	Save(delivery *models.Delivery) error
	Delete(id string) error
}

// SpotModeRepository defines the interface for spot-mode window data access.
type SpotModeRepository interface {
	// GetActive returns the single active window, or ErrNotFound.
	GetActive() (*models.SpotMode, error)
	// GetScheduledDue returns scheduled windows whose activation time has
	// passed.
	GetScheduledDue(now time.Time) ([]models.SpotMode, error)
	// GetActiveExpired returns active windows whose closing time has passed.
	GetActiveExpired(now time.Time) ([]models.SpotMode, error)
	Create(spotMode *models.SpotMode) error
	Save(spotMode *models.SpotMode) error
}

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	// GetShippingAddress returns the user's shipping address, or ErrNotFound.
	GetShippingAddress(userID string) (*models.UserAddress, error)
	CreateAddress(address *models.UserAddress) error
}
