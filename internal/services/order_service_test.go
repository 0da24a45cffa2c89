package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"souq/internal/apperr"
	"souq/internal/models"
	"souq/internal/repositories"
	"souq/internal/services"
	"souq/pkg/notify"
)

// placeOrder runs a full checkout and returns the resulting processing order.
func placeOrder(t *testing.T, store repositories.Store, customer *models.User, product *models.Product, quantity int) *models.Order {
	t.Helper()

	cartService := services.NewCartService(store, nil, clockAt(testNow))
	_, err := cartService.AddItem(customer.ID, product.ID, quantity)
	require.NoError(t, err)
	order, err := cartService.Confirm(customer.ID, "", false)
	require.NoError(t, err)
	return order
}

func TestOrderService_Cancel_RestoresStock(t *testing.T) {
	store := newTestStore(t)
	notifier := new(MockDispatcher)
	service := services.NewOrderService(store, notifier)
	customer := seedCustomer(t, store, "alice")
	product := seedProduct(t, store, "Tomatoes", "10.00", "", 10)
	seedActiveWindow(t, store, testNow)

	order := placeOrder(t, store, customer, product, 3)
	stocked, err := store.Products().GetByID(product.ID)
	require.NoError(t, err)
	require.Equal(t, 7, stocked.Stock)

	notifier.On("Notify", customer.ID, notify.EventOrderCanceled, mock.Anything).Return(nil).Once()

	require.NoError(t, service.Cancel(customer.ID, order.ID))

	canceled, err := store.Orders().GetByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCanceled, canceled.Status)

	stocked, err = store.Products().GetByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stocked.Stock)

	notifier.AssertExpectations(t)

	// Cancelling twice must not restore stock twice.
	err = service.Cancel(customer.ID, order.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	stocked, err = store.Products().GetByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stocked.Stock)
}

func TestOrderService_Cancel_ShippedOrder(t *testing.T) {
	store := newTestStore(t)
	service := services.NewOrderService(store, nil)
	customer := seedCustomer(t, store, "alice")
	product := seedProduct(t, store, "Tomatoes", "10.00", "", 10)
	seedActiveWindow(t, store, testNow)

	order := placeOrder(t, store, customer, product, 2)
	require.NoError(t, store.Orders().UpdateStatus(order.ID, models.OrderStatusShipped))

	err := service.Cancel(customer.ID, order.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestOrderService_Cancel_NotOwner(t *testing.T) {
	store := newTestStore(t)
	service := services.NewOrderService(store, nil)
	alice := seedCustomer(t, store, "alice")
	bob := seedCustomer(t, store, "bob")
	product := seedProduct(t, store, "Tomatoes", "10.00", "", 10)
	seedActiveWindow(t, store, testNow)

	order := placeOrder(t, store, alice, product, 1)

	// Someone else's order is simply not found.
	err := service.Cancel(bob.ID, order.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestOrderService_Get_Ownership(t *testing.T) {
	store := newTestStore(t)
	service := services.NewOrderService(store, nil)
	alice := seedCustomer(t, store, "alice")
	bob := seedCustomer(t, store, "bob")
	product := seedProduct(t, store, "Tomatoes", "10.00", "", 10)
	seedActiveWindow(t, store, testNow)

	order := placeOrder(t, store, alice, product, 1)

	got, err := service.Get(alice.ID, models.RoleCustomer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = service.Get(bob.ID, models.RoleCustomer, order.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	// Admins see everything.
	got, err = service.Get(bob.ID, models.RoleAdmin, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

func TestOrderService_ListBucket(t *testing.T) {
	store := newTestStore(t)
	service := services.NewOrderService(store, nil)
	customer := seedCustomer(t, store, "alice")
	product := seedProduct(t, store, "Tomatoes", "10.00", "", 100)
	seedActiveWindow(t, store, testNow)

	processing := placeOrder(t, store, customer, product, 1)
	delivered := placeOrder(t, store, customer, product, 1)
	canceled := placeOrder(t, store, customer, product, 1)
	require.NoError(t, store.Orders().UpdateStatus(delivered.ID, models.OrderStatusDelivered))
	require.NoError(t, store.Orders().UpdateStatus(canceled.ID, models.OrderStatusCanceled))

	toReceive, err := service.ListBucket(customer.ID, "to-receive")
	require.NoError(t, err)
	require.Len(t, toReceive, 1)
	assert.Equal(t, processing.ID, toReceive[0].ID)

	completed, err := service.ListBucket(customer.ID, "completed")
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, delivered.ID, completed[0].ID)

	cancelled, err := service.ListBucket(customer.ID, "cancelled")
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, canceled.ID, cancelled[0].ID)

	_, err = service.ListBucket(customer.ID, "archived")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}
