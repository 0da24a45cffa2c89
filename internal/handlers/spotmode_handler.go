package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"souq/internal/middleware"
	"souq/internal/services"
)

// SpotModeHandler handles the Spot Mode window endpoints.
type SpotModeHandler struct {
	service *services.SpotModeService
}

// NewSpotModeHandler creates a new SpotModeHandler.
func NewSpotModeHandler(service *services.SpotModeService) *SpotModeHandler {
	return &SpotModeHandler{
		service: service,
	}
}

// RegisterRoutes registers the public status route.
func (h *SpotModeHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/spot-mode/status", h.HandleStatus)
}

// RegisterAdminRoutes registers the admin-only activation routes.
func (h *SpotModeHandler) RegisterAdminRoutes(router fiber.Router) {
	spotRoutes := router.Group("/spot-mode")
	spotRoutes.Post("/activate", h.HandleActivate)
	spotRoutes.Post("/deactivate", h.HandleDeactivate)
}

// HandleStatus reports whether a Spot Mode window is currently active.
func (h *SpotModeHandler) HandleStatus(c *fiber.Ctx) error {
	status, err := h.service.Status()
	if err != nil {
		log.Printf("Error reading spot mode status: %v", err)
		return errorResponse(c, err)
	}
	return c.JSON(status)
}

// HandleActivate schedules or immediately opens a Spot Mode window.
func (h *SpotModeHandler) HandleActivate(c *fiber.Ctx) error {
	var req struct {
		ActivateAt time.Time `json:"activate_at" validate:"required"`
		CloseAt    time.Time `json:"close_at" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "activate_at and close_at are required RFC 3339 timestamps",
		})
	}

	spotMode, err := h.service.Activate(middleware.UserID(c), req.ActivateAt, req.CloseAt)
	if err != nil {
		log.Printf("Error activating spot mode: %v", err)
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Spot mode window created",
		"spot_mode": spotMode,
	})
}

// HandleDeactivate closes the active window.
func (h *SpotModeHandler) HandleDeactivate(c *fiber.Ctx) error {
	if err := h.service.Deactivate(); err != nil {
		log.Printf("Error deactivating spot mode: %v", err)
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Spot mode deactivated",
	})
}
