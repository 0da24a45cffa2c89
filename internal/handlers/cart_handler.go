package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"souq/internal/middleware"
	"souq/internal/services"
)

// CartHandler handles HTTP requests for the customer's cart.
type CartHandler struct {
	service *services.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service: service,
	}
}

// RegisterRoutes registers the cart routes. All routes act on the caller's
// single open cart, so no cart id appears in the paths.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Post("/", h.HandleOpenCart)
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Patch("/items/:itemId", h.HandleUpdateItem)
	cartRoutes.Delete("/items/:itemId", h.HandleRemoveItem)
	cartRoutes.Post("/cancel", h.HandleCancelCart)
	cartRoutes.Post("/defer", h.HandleDeferCart)
	cartRoutes.Post("/confirm", h.HandleConfirmCart)
}

// HandleOpenCart creates a new pending cart for the caller.
func (h *CartHandler) HandleOpenCart(c *fiber.Ctx) error {
	cart, err := h.service.Open(middleware.UserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Cart created successfully",
		"cart":    cart,
	})
}

// HandleGetCart returns the caller's open cart.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	cart, err := h.service.Current(middleware.UserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"cart": cart,
	})
}

// HandleAddItem adds a product to the caller's cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req struct {
		ProductID string `json:"product_id" validate:"required"`
		Quantity  int    `json:"quantity" validate:"required,gte=1"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "product_id and a quantity of at least 1 are required",
		})
	}

	cart, err := h.service.AddItem(middleware.UserID(c), req.ProductID, req.Quantity)
	if err != nil {
		log.Printf("Error adding product %s to cart: %v", req.ProductID, err)
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Product added to cart successfully",
		"cart":    cart,
	})
}

// HandleUpdateItem changes a cart line's quantity.
func (h *CartHandler) HandleUpdateItem(c *fiber.Ctx) error {
	var req struct {
		Quantity int `json:"quantity" validate:"required,gte=1"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "A quantity of at least 1 is required",
		})
	}

	cart, err := h.service.UpdateItem(middleware.UserID(c), c.Params("itemId"), req.Quantity)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Cart item updated successfully",
		"cart":    cart,
	})
}

// HandleRemoveItem deletes a cart line.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	cart, err := h.service.RemoveItem(middleware.UserID(c), c.Params("itemId"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Product removed from cart successfully",
		"cart":    cart,
	})
}

// HandleCancelCart cancels the caller's open cart.
func (h *CartHandler) HandleCancelCart(c *fiber.Ctx) error {
	if err := h.service.Cancel(middleware.UserID(c)); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Cart canceled successfully",
	})
}

// HandleDeferCart parks the cart until the next Spot Mode window.
func (h *CartHandler) HandleDeferCart(c *fiber.Ctx) error {
	cart, err := h.service.Defer(middleware.UserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Cart is awaiting price confirmation",
		"cart":    cart,
	})
}

// HandleConfirmCart converts the cart into an order.
func (h *CartHandler) HandleConfirmCart(c *fiber.Ctx) error {
	var req struct {
		Notes     string `json:"notes" validate:"omitempty,max=500"`
		BuyAnyway bool   `json:"buy_anyway"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Notes must be at most 500 characters",
		})
	}

	order, err := h.service.Confirm(middleware.UserID(c), req.Notes, req.BuyAnyway)
	if err != nil {
		log.Printf("Error confirming cart for user %s: %v", middleware.UserID(c), err)
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Cart confirmed successfully and converted to an order",
		"order_id": order.ID,
		"status":   order.Status,
	})
}
