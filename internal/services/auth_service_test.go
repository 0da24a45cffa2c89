package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"souq/internal/apperr"
	"souq/internal/models"
	"souq/internal/services"
)

func TestAuthService_Register(t *testing.T) {
	store := newTestStore(t)
	service := services.NewAuthService(store, "test_jwt_secret")

	user := &models.User{Username: "alice", Email: "alice@example.com", Password: "password123"}
	require.NoError(t, service.Register(user))

	// The role defaults to customer and the password is hashed.
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.NotEqual(t, "password123", user.Password)

	// Duplicate username and email are conflicts.
	err := service.Register(&models.User{Username: "alice", Email: "other@example.com", Password: "password123"})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	err = service.Register(&models.User{Username: "alice2", Email: "alice@example.com", Password: "password123"})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	// Unknown roles are rejected.
	err = service.Register(&models.User{Username: "bob", Email: "bob@example.com", Password: "password123", Role: "superuser"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestAuthService_LoginAndValidateToken(t *testing.T) {
	store := newTestStore(t)
	service := services.NewAuthService(store, "test_jwt_secret")

	user := &models.User{Username: "dave", Email: "dave@example.com", Password: "password123", Role: models.RoleDriver}
	require.NoError(t, service.Register(user))

	token, err := service.Login("dave", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims["user_id"])
	assert.Equal(t, "dave", claims["username"])
	assert.Equal(t, models.RoleDriver, claims["role"])

	_, err = service.Login("dave", "wrong-password")
	assert.Error(t, err)
	_, err = service.Login("nobody", "password123")
	assert.Error(t, err)

	_, err = service.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestAuthService_SaveShippingAddress(t *testing.T) {
	store := newTestStore(t)
	service := services.NewAuthService(store, "test_jwt_secret")

	user := &models.User{Username: "alice", Email: "alice@example.com", Password: "password123"}
	require.NoError(t, service.Register(user))

	_, err := service.SaveShippingAddress(user.ID, "", nil, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	lat, lng := -6.2, 106.8
	saved, err := service.SaveShippingAddress(user.ID, "Jl. Sudirman 1", &lat, &lng)
	require.NoError(t, err)
	assert.Equal(t, "shipping", saved.Type)

	// Saving again replaces the previous entry instead of adding one.
	updated, err := service.SaveShippingAddress(user.ID, "Jl. Thamrin 9", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, updated.ID)

	current, err := store.Users().GetShippingAddress(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jl. Thamrin 9", current.Address)
	assert.Nil(t, current.Lat)
}
