package handlers

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"souq/internal/middleware"
	"souq/internal/services"
)

// DeliveryHandler handles HTTP requests from delivery drivers.
type DeliveryHandler struct {
	service *services.DeliveryService
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(service *services.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{
		service: service,
	}
}

// RegisterRoutes registers the driver-only delivery routes.
func (h *DeliveryHandler) RegisterRoutes(router fiber.Router) {
	deliveryRoutes := router.Group("/deliveries")
	deliveryRoutes.Get("/available", h.HandleListAvailable)
	deliveryRoutes.Get("/mine", h.HandleListMine)
	deliveryRoutes.Get("/:orderId", h.HandleGetDetails)
	deliveryRoutes.Post("/:orderId/accept", h.HandleAccept)
	deliveryRoutes.Delete("/:orderId/accept", h.HandleCancelAcceptance)
	deliveryRoutes.Post("/:orderId/delivered", h.HandleMarkDelivered)
}

// coordinates reads the driver's optional lat/lng query parameters. Missing
// or malformed values mean "position unknown", never an error.
func coordinates(c *fiber.Ctx) (*float64, *float64) {
	var lat, lng *float64
	if v, err := strconv.ParseFloat(c.Query("lat"), 64); err == nil {
		lat = &v
	}
	if v, err := strconv.ParseFloat(c.Query("lng"), 64); err == nil {
		lng = &v
	}
	return lat, lng
}

// HandleListAvailable lists orders ready for pickup, nearest first when the
// driver supplies a position.
func (h *DeliveryHandler) HandleListAvailable(c *fiber.Ctx) error {
	lat, lng := coordinates(c)
	orders, err := h.service.ListAvailable(lat, lng)
	if err != nil {
		log.Printf("Error listing available orders: %v", err)
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"orders": orders,
	})
}

// HandleListMine lists the caller's in-flight deliveries.
func (h *DeliveryHandler) HandleListMine(c *fiber.Ctx) error {
	lat, lng := coordinates(c)
	deliveries, err := h.service.ListMine(middleware.UserID(c), lat, lng)
	if err != nil {
		log.Printf("Error listing driver deliveries: %v", err)
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"deliveries": deliveries,
	})
}

// HandleGetDetails returns one order with delivery, distance, and ETA.
func (h *DeliveryHandler) HandleGetDetails(c *fiber.Ctx) error {
	lat, lng := coordinates(c)
	details, err := h.service.Details(c.Params("orderId"), lat, lng)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(details)
}

// HandleAccept assigns the order to the calling driver.
func (h *DeliveryHandler) HandleAccept(c *fiber.Ctx) error {
	orderID := c.Params("orderId")
	delivery, err := h.service.Accept(orderID, middleware.UserID(c))
	if err != nil {
		log.Printf("Error accepting order %s: %v", orderID, err)
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"message":  "Order accepted successfully",
		"delivery": delivery,
	})
}

// HandleCancelAcceptance releases an accepted order back to the pool.
func (h *DeliveryHandler) HandleCancelAcceptance(c *fiber.Ctx) error {
	if err := h.service.CancelAcceptance(c.Params("orderId"), middleware.UserID(c)); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Order acceptance has been cancelled",
	})
}

// HandleMarkDelivered completes a shipped order.
func (h *DeliveryHandler) HandleMarkDelivered(c *fiber.Ctx) error {
	if err := h.service.MarkDelivered(c.Params("orderId"), middleware.UserID(c)); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Order marked as delivered",
	})
}
