package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"souq/internal/apperr"
	"souq/internal/models"
	"souq/internal/repositories"
)

// AuthService handles authentication and the identity supplied to every core
// operation. The core trusts the user id and role carried in the token.
type AuthService struct {
	store         repositories.Store
	jwtSecret     []byte
	tokenDuration time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(store repositories.Store, jwtSecret string) *AuthService {
	return &AuthService{
		store:         store,
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: 24 * time.Hour, // Token valid for 24 hours
	}
}

// Register registers a new user, hashes their password, and saves them.
// An empty role defaults to customer.
func (s *AuthService) Register(user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleCustomer
	}
	switch user.Role {
	case models.RoleCustomer, models.RoleDriver, models.RoleAdmin:
	default:
		return apperr.Validation("unknown role %q", user.Role)
	}

	if existing, err := s.store.Users().GetByUsername(user.Username); err == nil && existing != nil {
		return apperr.Conflict("username %q already taken", user.Username)
	}
	if existing, err := s.store.Users().GetByEmail(user.Email); err == nil && existing != nil {
		return apperr.Conflict("email %q already registered", user.Email)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword) // Store the hashed password

	if err := s.store.Users().Create(user); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

// Login authenticates a user and returns a JWT token if successful.
func (s *AuthService) Login(username, password string) (string, error) {
	user, err := s.store.Users().GetByUsername(username)
	if err != nil {
		// Don't reveal whether the username exists.
		return "", apperr.Validation("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", apperr.Validation("invalid credentials")
	}

	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
		"exp":      time.Now().Add(s.tokenDuration).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a JWT token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// SaveShippingAddress records the user's shipping address, replacing any
// previous one. Order confirmation requires it.
func (s *AuthService) SaveShippingAddress(userID, address string, lat, lng *float64) (*models.UserAddress, error) {
	if address == "" {
		return nil, apperr.Validation("address is required")
	}

	entry := &models.UserAddress{
		UserID:  userID,
		Type:    "shipping",
		Address: address,
		Lat:     lat,
		Lng:     lng,
	}
	err := s.store.InTransaction(func(st repositories.Store) error {
		existing, err := st.Users().GetShippingAddress(userID)
		if err == nil {
			existing.Address = address
			existing.Lat = lat
			existing.Lng = lng
			entry = existing
			return st.Users().CreateAddress(existing)
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		return st.Users().CreateAddress(entry)
	})
	if err != nil {
		return nil, asTransaction("failed to save shipping address", err)
	}
	return entry, nil
}
