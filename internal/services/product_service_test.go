package services_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"souq/internal/apperr"
	"souq/internal/models"
	"souq/internal/services"
)

func TestProductService_GetAll_EffectivePrices(t *testing.T) {
	store := newTestStore(t)
	service := services.NewProductService(store, clockAt(testNow))
	seedProduct(t, store, "Tomatoes", "10.00", "8.00", 10)
	seedProduct(t, store, "Onions", "4.00", "", 10)

	// Spot Mode off: everything sells at the regular price.
	views, err := service.GetAll()
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, view := range views {
		assert.True(t, view.EffectivePrice.Equal(view.RegularPrice))
		assert.False(t, view.OnSpot)
	}

	seedActiveWindow(t, store, testNow)

	views, err = service.GetAll()
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, view := range views {
		switch view.Name {
		case "Tomatoes":
			assert.True(t, view.EffectivePrice.Equal(decimal.RequireFromString("8.00")))
			assert.True(t, view.OnSpot)
		case "Onions":
			// No spot price set: the regular price stays in effect.
			assert.True(t, view.EffectivePrice.Equal(decimal.RequireFromString("4.00")))
			assert.False(t, view.OnSpot)
		}
	}
}

func TestProductService_CreateValidation(t *testing.T) {
	store := newTestStore(t)
	service := services.NewProductService(store, clockAt(testNow))

	err := service.Create(&models.Product{Name: "Free", RegularPrice: decimal.Zero, Stock: 1})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	err = service.Create(&models.Product{
		Name:         "Negative",
		RegularPrice: decimal.RequireFromString("5.00"),
		Stock:        -1,
	})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	err = service.Create(&models.Product{
		Name:         "Bad spot",
		RegularPrice: decimal.RequireFromString("5.00"),
		SpotPrice:    decimal.NewNullDecimal(decimal.Zero),
		Stock:        1,
	})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestProductService_DeleteAndRestore(t *testing.T) {
	store := newTestStore(t)
	service := services.NewProductService(store, clockAt(testNow))
	product := seedProduct(t, store, "Tomatoes", "10.00", "", 10)

	require.NoError(t, service.Delete(product.ID))

	// A deleted product is hidden from browsing.
	_, err := service.GetByID(product.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	views, err := service.GetAll()
	require.NoError(t, err)
	assert.Empty(t, views)

	require.NoError(t, service.Restore(product.ID))
	restored, err := service.GetByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, restored.ID)

	err = service.Delete("no-such-product")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
