package services

import (
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"souq/internal/apperr"
	"souq/internal/models"
	"souq/internal/pricing"
	"souq/internal/repositories"
	"souq/pkg/notify"
)

// CartService handles the pre-order basket and its conversion into an order.
type CartService struct {
	store    repositories.Store
	notifier notify.Dispatcher // may be nil
	clock    func() time.Time
}

// NewCartService creates a new CartService.
func NewCartService(store repositories.Store, notifier notify.Dispatcher, clock func() time.Time) *CartService {
	if clock == nil {
		clock = time.Now
	}
	return &CartService{
		store:    store,
		notifier: notifier,
		clock:    clock,
	}
}

// Open creates a new pending cart for the user. A user holds at most one
// open cart at a time.
func (s *CartService) Open(userID string) (*models.Cart, error) {
	var cart *models.Cart
	err := s.store.InTransaction(func(st repositories.Store) error {
		existing, err := st.Carts().GetOpenByUserID(userID)
		if err == nil {
			return apperr.Conflict("you already have an active cart with status %q, complete or cancel it first", existing.Status)
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}

		cart = &models.Cart{
			UserID:     userID,
			Status:     models.CartStatusPending,
			TotalPrice: decimal.Zero,
		}
		return st.Carts().Create(cart)
	})
	if err != nil {
		return nil, asTransaction("failed to open cart", err)
	}
	return cart, nil
}

// Current returns the user's open cart.
func (s *CartService) Current(userID string) (*models.Cart, error) {
	cart, err := s.store.Carts().GetOpenByUserID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.NotFound("no open cart found for this user")
		}
		return nil, err
	}
	return cart, nil
}

// AddItem puts a product in the user's open cart, creating the cart if
// needed. An existing line for the same product is merged; the stock check
// runs against the merged quantity. The unit price is resolved against the
// current Spot Mode state.
func (s *CartService) AddItem(userID, productID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, apperr.Validation("quantity must be at least 1")
	}

	var cart *models.Cart
	err := s.store.InTransaction(func(st repositories.Store) error {
		var err error
		cart, err = st.Carts().GetOpenByUserID(userID)
		if errors.Is(err, repositories.ErrNotFound) {
			cart = &models.Cart{
				UserID:     userID,
				Status:     models.CartStatusPending,
				TotalPrice: decimal.Zero,
			}
			if err := st.Carts().Create(cart); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		if cart.Status != models.CartStatusPending {
			return apperr.Conflict("cart is awaiting price confirmation and cannot be modified")
		}

		product, err := st.Products().GetByID(productID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperr.NotFound("product %s not found", productID)
			}
			return err
		}

		var line *models.CartItem
		newQuantity := quantity
		for i := range cart.Items {
			if cart.Items[i].ProductID == productID {
				line = &cart.Items[i]
				newQuantity += line.Quantity
				break
			}
		}
		if newQuantity > product.Stock {
			return apperr.InsufficientStock(product.Name, newQuantity, product.Stock)
		}

		spotActive, err := spotModeActive(st, s.clock())
		if err != nil {
			return err
		}
		price := decimal.NewNullDecimal(pricing.Resolve(product, spotActive))

		if line != nil {
			line.Quantity = newQuantity
			line.UnitPrice = price
			if err := st.Carts().SaveItem(line); err != nil {
				return err
			}
		} else {
			item := models.CartItem{
				CartID:    cart.ID,
				ProductID: productID,
				Quantity:  quantity,
				UnitPrice: price,
			}
			if err := st.Carts().SaveItem(&item); err != nil {
				return err
			}
			cart.Items = append(cart.Items, item)
		}

		cart.RecalculateTotal()
		return st.Carts().Save(cart)
	})
	if err != nil {
		return nil, asTransaction("failed to add item to cart", err)
	}
	return cart, nil
}

// UpdateItem changes a line's quantity. Only a pending cart may be edited;
// the stock check runs against the new quantity and the price is re-resolved.
func (s *CartService) UpdateItem(userID, itemID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, apperr.Validation("quantity must be at least 1")
	}

	var cart *models.Cart
	err := s.store.InTransaction(func(st repositories.Store) error {
		var err error
		cart, err = st.Carts().GetOpenByUserID(userID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperr.NotFound("no open cart found for this user")
			}
			return err
		}
		if cart.Status != models.CartStatusPending {
			return apperr.Conflict("cart items can only be updated while the cart is pending")
		}

		var line *models.CartItem
		for i := range cart.Items {
			if cart.Items[i].ID == itemID {
				line = &cart.Items[i]
				break
			}
		}
		if line == nil {
			return apperr.NotFound("cart item %s not found", itemID)
		}

		product, err := st.Products().GetByID(line.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperr.NotFound("product %s is no longer available", line.ProductID)
			}
			return err
		}
		if quantity > product.Stock {
			return apperr.InsufficientStock(product.Name, quantity, product.Stock)
		}

		spotActive, err := spotModeActive(st, s.clock())
		if err != nil {
			return err
		}

		line.Quantity = quantity
		line.UnitPrice = decimal.NewNullDecimal(pricing.Resolve(product, spotActive))
		if err := st.Carts().SaveItem(line); err != nil {
			return err
		}

		cart.RecalculateTotal()
		return st.Carts().Save(cart)
	})
	if err != nil {
		return nil, asTransaction("failed to update cart item", err)
	}
	return cart, nil
}

// RemoveItem deletes a line from a pending cart and recomputes the total.
func (s *CartService) RemoveItem(userID, itemID string) (*models.Cart, error) {
	var cart *models.Cart
	err := s.store.InTransaction(func(st repositories.Store) error {
		var err error
		cart, err = st.Carts().GetOpenByUserID(userID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperr.NotFound("no open cart found for this user")
			}
			return err
		}
		if cart.Status != models.CartStatusPending {
			return apperr.Conflict("cart items can only be removed while the cart is pending")
		}

		found := false
		kept := cart.Items[:0]
		for i := range cart.Items {
			if cart.Items[i].ID == itemID {
				found = true
				continue
			}
			kept = append(kept, cart.Items[i])
		}
		if !found {
			return apperr.NotFound("cart item %s not found", itemID)
		}
		if err := st.Carts().DeleteItem(itemID); err != nil {
			return err
		}

		cart.Items = kept
		cart.RecalculateTotal()
		return st.Carts().Save(cart)
	})
	if err != nil {
		return nil, asTransaction("failed to remove cart item", err)
	}
	return cart, nil
}

// Cancel moves the open cart to canceled. Nothing was reserved yet, so no
// stock is touched.
func (s *CartService) Cancel(userID string) error {
	err := s.store.InTransaction(func(st repositories.Store) error {
		cart, err := st.Carts().GetOpenByUserID(userID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperr.NotFound("no open cart found for this user")
			}
			return err
		}
		cart.Status = models.CartStatusCanceled
		return st.Carts().Save(cart)
	})
	return asTransaction("failed to cancel cart", err)
}

// Defer parks a pending cart in awaiting_price_confirmation: the customer
// waits for the next Spot Mode window instead of buying at today's prices.
// The next activation sweep reprices it.
func (s *CartService) Defer(userID string) (*models.Cart, error) {
	var cart *models.Cart
	err := s.store.InTransaction(func(st repositories.Store) error {
		var err error
		cart, err = st.Carts().GetOpenByUserID(userID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperr.NotFound("no open cart found for this user")
			}
			return err
		}
		if cart.Status != models.CartStatusPending {
			return apperr.Conflict("only a pending cart can be deferred")
		}
		if len(cart.Items) == 0 {
			return apperr.Validation("cannot defer an empty cart")
		}
		cart.Status = models.CartStatusAwaiting
		return st.Carts().Save(cart)
	})
	if err != nil {
		return nil, asTransaction("failed to defer cart", err)
	}
	return cart, nil
}

// Confirm converts the open cart into an order — the critical transaction.
//
// With Spot Mode active the order starts processing: every line is repriced
// at spot prices under a product row lock, stock is decremented, and an
// unassigned delivery is created. With Spot Mode off the customer must pass
// buyAnyway; the order is then created awaiting price confirmation with
// zero prices, and the next activation sweep finishes it. Stock is reserved
// at creation in both flows. Any failure rolls the whole transaction back.
func (s *CartService) Confirm(userID, notes string, buyAnyway bool) (*models.Order, error) {
	var order *models.Order
	err := s.store.InTransaction(func(st repositories.Store) error {
		cart, err := st.Carts().GetOpenByUserID(userID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperr.NotFound("no open cart found for this user")
			}
			return err
		}
		if len(cart.Items) == 0 {
			return apperr.Validation("cannot confirm an empty cart")
		}

		address, err := st.Users().GetShippingAddress(userID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperr.Validation("no shipping address found for the user")
			}
			return err
		}

		now := s.clock()
		spotActive, err := spotModeActive(st, now)
		if err != nil {
			return err
		}
		if !spotActive && !buyAnyway {
			return apperr.Validation("spot mode is inactive: defer the cart or confirm with buy_anyway to order at unconfirmed prices")
		}

		status := models.OrderStatusAwaiting
		if spotActive {
			status = models.OrderStatusProcessing
		}

		order = &models.Order{
			UserID: userID,
			Status: status,
			Date:   models.BusinessDate(now),
			Notes:  notes,
		}

		total := decimal.Zero
		for i := range cart.Items {
			cartItem := &cart.Items[i]

			// Authoritative stock check: re-read under a row lock right
			// before the decrement, never trusting the cart-time check.
			product, err := st.Products().GetByIDForUpdate(cartItem.ProductID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return apperr.NotFound("product %s is no longer available", cartItem.ProductID)
				}
				return err
			}
			if product.Stock <= 0 || cartItem.Quantity > product.Stock {
				return apperr.InsufficientStock(product.Name, cartItem.Quantity, product.Stock)
			}

			price := decimal.Zero
			if spotActive {
				price = pricing.Resolve(product, true)
			}
			lineTotal := price.Mul(decimal.NewFromInt(int64(cartItem.Quantity)))

			order.Items = append(order.Items, models.OrderItem{
				ProductID: cartItem.ProductID,
				Quantity:  cartItem.Quantity,
				UnitPrice: price,
				LineTotal: lineTotal,
			})

			if err := st.Products().AdjustStock(product.ID, -cartItem.Quantity); err != nil {
				return err
			}
			total = total.Add(lineTotal)
		}

		order.TotalPrice = total
		if err := st.Orders().Create(order); err != nil {
			return err
		}

		cart.Status = models.CartStatusConfirmed
		if err := st.Carts().Save(cart); err != nil {
			return err
		}

		if status == models.OrderStatusProcessing {
			delivery := &models.Delivery{
				OrderID: order.ID,
				Status:  models.DeliveryStatusNew,
				Address: address.Address,
				Lat:     address.Lat,
				Lng:     address.Lng,
			}
			if err := st.Deliveries().Create(delivery); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, asTransaction("failed to confirm cart", err)
	}

	// Notification goes out after commit; a failure here never affects the
	// order.
	if s.notifier != nil {
		notifyErr := s.notifier.Notify(userID, notify.EventOrderConfirmed, map[string]interface{}{
			"order_id": order.ID,
			"status":   order.Status,
			"total":    order.TotalPrice,
		})
		if notifyErr != nil {
			log.Printf("Warning: failed to publish order confirmed event for order %s: %v", order.ID, notifyErr)
		}
	}

	return order, nil
}
