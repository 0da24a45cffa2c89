package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"souq/internal/handlers"
	"souq/internal/middleware"
	"souq/internal/models"
	"souq/internal/repositories"
	"souq/internal/services"
)

// setupApp wires the full application over an in-memory SQLite database, the
// same way main does, minus the message broker.
func setupApp(t *testing.T) *fiber.App {
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

	store := repositories.NewGormStore(db)

	authService := services.NewAuthService(store, "test_jwt_secret")
	spotModeService := services.NewSpotModeService(store, time.Now)
	productService := services.NewProductService(store, time.Now)
	cartService := services.NewCartService(store, nil, time.Now)
	orderService := services.NewOrderService(store, nil)
	deliveryService := services.NewDeliveryService(store, nil, time.Now)

	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)
	deliveryHandler := handlers.NewDeliveryHandler(deliveryService)
	spotModeHandler := handlers.NewSpotModeHandler(spotModeService)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")

	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1)
	spotModeHandler.RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService))
	authHandler.RegisterProtectedRoutes(protected)
	cartHandler.RegisterRoutes(protected)
	orderHandler.RegisterRoutes(protected)

	driverRoutes := protected.Group("", middleware.RequireRole(models.RoleDriver))
	deliveryHandler.RegisterRoutes(driverRoutes)

	adminRoutes := protected.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	productHandler.RegisterAdminRoutes(adminRoutes)
	spotModeHandler.RegisterAdminRoutes(adminRoutes)

	return app
}

// TestMain suppresses logging during tests for cleaner output.
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// doJSON performs a JSON request against the test app and decodes the
// response body into a generic map.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

// registerAndLogin creates a user with the given role and returns a token.
func registerAndLogin(t *testing.T, app *fiber.App, username, role string) string {
	t.Helper()

	status, _ := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, status)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestOrderLifecycle(t *testing.T) {
	app := setupApp(t)

	adminToken := registerAndLogin(t, app, "admin", models.RoleAdmin)
	customerToken := registerAndLogin(t, app, "alice", models.RoleCustomer)
	driverToken := registerAndLogin(t, app, "dave", models.RoleDriver)

	// Admin lists a product with a promotional price.
	status, body := doJSON(t, app, http.MethodPost, "/api/v1/admin/products", adminToken, map[string]interface{}{
		"name":          "Tomatoes",
		"description":   "Fresh tomatoes",
		"regular_price": "10.00",
		"spot_price":    "8.00",
		"stock":         10,
	})
	require.Equal(t, http.StatusCreated, status)
	productID, _ := body["id"].(string)
	require.NotEmpty(t, productID)

	// Spot mode is off initially.
	status, body = doJSON(t, app, http.MethodGet, "/api/v1/spot-mode/status", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["is_active"])

	// Admin opens a window that is already due.
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/admin/spot-mode/activate", adminToken, map[string]string{
		"activate_at": time.Now().Add(-time.Minute).Format(time.RFC3339),
		"close_at":    time.Now().Add(2 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, status)

	status, body = doJSON(t, app, http.MethodGet, "/api/v1/spot-mode/status", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["is_active"])

	// Customer saves an address, fills the cart, and confirms.
	status, _ = doJSON(t, app, http.MethodPut, "/api/v1/auth/address", customerToken, map[string]interface{}{
		"address": "Jl. Sudirman 1, Jakarta",
		"lat":     -6.2,
		"lng":     106.8,
	})
	require.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/cart/items", customerToken, map[string]interface{}{
		"product_id": productID,
		"quantity":   3,
	})
	require.Equal(t, http.StatusCreated, status)

	status, body = doJSON(t, app, http.MethodPost, "/api/v1/cart/confirm", customerToken, map[string]interface{}{
		"notes": "leave at the door",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, models.OrderStatusProcessing, body["status"])
	orderID, _ := body["order_id"].(string)
	require.NotEmpty(t, orderID)

	// Driver accepts and completes the delivery.
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/deliveries/"+orderID+"/accept", driverToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = doJSON(t, app, http.MethodGet, "/api/v1/orders/"+orderID, customerToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.OrderStatusShipped, body["status"])

	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/deliveries/"+orderID+"/delivered", driverToken, nil)
	require.Equal(t, http.StatusOK, status)

	// The order lands in the customer's completed bucket.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/bucket/completed", nil)
	req.Header.Set("Authorization", "Bearer "+customerToken)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var completed []models.Order
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&completed))
	require.Len(t, completed, 1)
	assert.Equal(t, orderID, completed[0].ID)
}

func TestConfirmRequiresSpotModeOrBuyAnyway(t *testing.T) {
	app := setupApp(t)

	adminToken := registerAndLogin(t, app, "admin", models.RoleAdmin)
	customerToken := registerAndLogin(t, app, "alice", models.RoleCustomer)

	status, body := doJSON(t, app, http.MethodPost, "/api/v1/admin/products", adminToken, map[string]interface{}{
		"name":          "Tomatoes",
		"regular_price": "10.00",
		"stock":         10,
	})
	require.Equal(t, http.StatusCreated, status)
	productID, _ := body["id"].(string)

	status, _ = doJSON(t, app, http.MethodPut, "/api/v1/auth/address", customerToken, map[string]interface{}{
		"address": "Jl. Sudirman 1, Jakarta",
	})
	require.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/cart/items", customerToken, map[string]interface{}{
		"product_id": productID,
		"quantity":   1,
	})
	require.Equal(t, http.StatusCreated, status)

	// No window open and no buy_anyway: rejected.
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/cart/confirm", customerToken, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, status)

	// buy_anyway places the order at unconfirmed prices.
	status, body = doJSON(t, app, http.MethodPost, "/api/v1/cart/confirm", customerToken, map[string]interface{}{
		"buy_anyway": true,
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, models.OrderStatusAwaiting, body["status"])
}

func TestRoleGuards(t *testing.T) {
	app := setupApp(t)

	customerToken := registerAndLogin(t, app, "alice", models.RoleCustomer)

	// No token at all.
	status, _ := doJSON(t, app, http.MethodGet, "/api/v1/cart/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// A customer is neither an admin nor a driver.
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/admin/products", customerToken, map[string]interface{}{
		"name":          "Sneaky",
		"regular_price": "1.00",
		"stock":         1,
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doJSON(t, app, http.MethodGet, "/api/v1/deliveries/available", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/admin/spot-mode/activate", customerToken, map[string]string{
		"activate_at": time.Now().Format(time.RFC3339),
		"close_at":    time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusForbidden, status)
}
