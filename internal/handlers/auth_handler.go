package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"souq/internal/middleware"
	"souq/internal/models"
	"souq/internal/services"
)

var validate = validator.New()

// AuthHandler handles registration, login, and the address book.
type AuthHandler struct {
	service *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service *services.AuthService) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

// RegisterRoutes registers the public auth routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
}

// RegisterProtectedRoutes registers routes that need an authenticated user.
func (h *AuthHandler) RegisterProtectedRoutes(router fiber.Router) {
	router.Put("/auth/address", h.HandleSaveAddress)
}

// HandleRegister creates a new user account.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var user models.User
	if err := c.BodyParser(&user); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := validate.Struct(&user); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	if err := h.service.Register(&user); err != nil {
		log.Printf("Error registering user %s: %v", user.Username, err)
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user_id": user.ID,
	})
}

// HandleLogin authenticates a user and returns a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Username and password are required",
		})
	}

	token, err := h.service.Login(req.Username, req.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Invalid credentials",
		})
	}

	return c.JSON(fiber.Map{
		"token": token,
	})
}

// HandleSaveAddress stores the caller's shipping address.
func (h *AuthHandler) HandleSaveAddress(c *fiber.Ctx) error {
	var req struct {
		Address string   `json:"address" validate:"required,max=500"`
		Lat     *float64 `json:"lat"`
		Lng     *float64 `json:"lng"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Address is required",
		})
	}

	address, err := h.service.SaveShippingAddress(middleware.UserID(c), req.Address, req.Lat, req.Lng)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Address saved successfully",
		"address": address,
	})
}
