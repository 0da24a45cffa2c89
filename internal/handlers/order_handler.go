package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"souq/internal/middleware"
	"souq/internal/services"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleListMine)
	orderRoutes.Get("/bucket/:bucket", h.HandleListBucket)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/:id/cancel", h.HandleCancelOrder)
}

// HandleListMine retrieves the caller's orders.
func (h *OrderHandler) HandleListMine(c *fiber.Ctx) error {
	orders, err := h.service.ListMine(middleware.UserID(c))
	if err != nil {
		log.Printf("Error listing orders: %v", err)
		return errorResponse(c, err)
	}
	return c.JSON(orders)
}

// HandleListBucket retrieves the caller's orders in one status bucket:
// to-receive, completed, or cancelled.
func (h *OrderHandler) HandleListBucket(c *fiber.Ctx) error {
	orders, err := h.service.ListBucket(middleware.UserID(c), c.Params("bucket"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order owned by the caller.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.Get(middleware.UserID(c), middleware.Role(c), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(order)
}

// HandleCancelOrder cancels an order that has not shipped, restoring stock.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")
	if err := h.service.Cancel(middleware.UserID(c), orderID); err != nil {
		log.Printf("Error canceling order %s: %v", orderID, err)
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Order canceled successfully",
	})
}
