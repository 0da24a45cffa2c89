package services_test

import (
	"fmt"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"souq/internal/models"
	"souq/internal/repositories"
)

// TestMain suppresses logging during tests for cleaner output.
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// MockDispatcher is a mock implementation of notify.Dispatcher.
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Notify(userID, event string, payload map[string]interface{}) error {
	args := m.Called(userID, event, payload)
	return args.Error(0)
}

// newTestStore creates a Store backed by a fresh in-memory SQLite database.
// The DSN is unique per call so tests never share state.
func newTestStore(t *testing.T) *repositories.GormStore {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.UserAddress{},
		&models.Category{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Delivery{},
		&models.SpotMode{},
	)
	require.NoError(t, err)

	return repositories.NewGormStore(db)
}

// clockAt returns a clock pinned to the given instant.
func clockAt(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

// seedProduct creates a product. An empty spot price leaves it unset.
func seedProduct(t *testing.T, store repositories.Store, name, regular, spot string, stock int) *models.Product {
	t.Helper()

	product := &models.Product{
		Name:         name,
		RegularPrice: decimal.RequireFromString(regular),
		Stock:        stock,
	}
	if spot != "" {
		product.SpotPrice = decimal.NewNullDecimal(decimal.RequireFromString(spot))
	}
	require.NoError(t, store.Products().Create(product))
	return product
}

// seedCustomer creates a customer with a shipping address near Jakarta.
func seedCustomer(t *testing.T, store repositories.Store, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
		Role:     models.RoleCustomer,
	}
	require.NoError(t, store.Users().Create(user))

	lat, lng := -6.2, 106.8
	require.NoError(t, store.Users().CreateAddress(&models.UserAddress{
		UserID:  user.ID,
		Type:    "shipping",
		Address: "Jl. Sudirman 1, Jakarta",
		Lat:     &lat,
		Lng:     &lng,
	}))
	return user
}

// seedActiveWindow creates a spot-mode window that is active around now.
func seedActiveWindow(t *testing.T, store repositories.Store, now time.Time) *models.SpotMode {
	t.Helper()

	window := &models.SpotMode{
		Status:     models.SpotModeStatusActive,
		ActivateAt: now.Add(-time.Hour),
		CloseAt:    now.Add(time.Hour),
	}
	require.NoError(t, store.SpotModes().Create(window))
	return window
}
