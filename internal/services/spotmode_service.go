package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"souq/internal/apperr"
	"souq/internal/models"
	"souq/internal/pricing"
	"souq/internal/repositories"
)

// SpotModeService owns the promotional pricing window: activation,
// deactivation, the repricing sweeps they trigger, and the periodic sweep
// that closes expired windows. All sweeps run inside the same transaction as
// the status change; a failure anywhere rolls the whole operation back, so
// no cart is ever left holding a price from a window that is not active.
type SpotModeService struct {
	store repositories.Store
	clock func() time.Time
}

// NewSpotModeService creates a new SpotModeService. The clock is injected so
// tests can pin the current time.
func NewSpotModeService(store repositories.Store, clock func() time.Time) *SpotModeService {
	if clock == nil {
		clock = time.Now
	}
	return &SpotModeService{
		store: store,
		clock: clock,
	}
}

// SpotModeStatus is the public view of the current window.
type SpotModeStatus struct {
	IsActive   bool       `json:"is_active"`
	ActivateAt *time.Time `json:"activate_at,omitempty"`
	CloseAt    *time.Time `json:"close_at,omitempty"`
}

// IsActive reports whether a Spot Mode window is active right now. It is
// called on every pricing decision, so it stays a single indexed read.
func (s *SpotModeService) IsActive() (bool, error) {
	return spotModeActive(s.store, s.clock())
}

// Status returns the current window state for public consumption.
func (s *SpotModeService) Status() (*SpotModeStatus, error) {
	active, err := s.store.SpotModes().GetActive()
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return &SpotModeStatus{IsActive: false}, nil
		}
		return nil, fmt.Errorf("failed to read spot mode status: %w", err)
	}
	return &SpotModeStatus{
		IsActive:   active.ActiveAt(s.clock()),
		ActivateAt: &active.ActivateAt,
		CloseAt:    &active.CloseAt,
	}, nil
}

// Activate creates a new window. If the activation time is already past the
// window goes active immediately and the repricing sweep runs: every open
// cart is repriced at spot prices (orphaned lines deleted), and every order
// awaiting price confirmation is converted to a priced processing order with
// a delivery row. The whole operation is one transaction.
func (s *SpotModeService) Activate(adminID string, activateAt, closeAt time.Time) (*models.SpotMode, error) {
	if !closeAt.After(activateAt) {
		return nil, apperr.Validation("closing time must be after activation time")
	}

	var created *models.SpotMode
	err := s.store.InTransaction(func(st repositories.Store) error {
		if _, err := st.SpotModes().GetActive(); err == nil {
			return apperr.Conflict("spot mode is already active")
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}

		now := s.clock()
		status := models.SpotModeStatusScheduled
		if !now.Before(activateAt) {
			status = models.SpotModeStatusActive
		}

		spotMode := &models.SpotMode{
			Status:     status,
			ActivateAt: activateAt,
			CloseAt:    closeAt,
			CreatedBy:  adminID,
		}
		if err := st.SpotModes().Create(spotMode); err != nil {
			return err
		}

		if status == models.SpotModeStatusActive {
			if err := repriceOpenCarts(st, true); err != nil {
				return err
			}
			if err := convertAwaitingOrders(st); err != nil {
				return err
			}
		}

		created = spotMode
		return nil
	})
	if err != nil {
		return nil, asTransaction("failed to activate spot mode", err)
	}
	return created, nil
}

// Deactivate closes the active window and clears every open cart: items are
// deleted and the carts reset to pending, so no stale promotional price
// survives the window. One transaction; full rollback on failure.
func (s *SpotModeService) Deactivate() error {
	err := s.store.InTransaction(func(st repositories.Store) error {
		active, err := st.SpotModes().GetActive()
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperr.NotFound("no active spot mode found")
			}
			return err
		}
		return closeWindow(st, active)
	})
	return asTransaction("failed to deactivate spot mode", err)
}

// RunSweep is invoked every minute by the scheduler. It closes active
// windows whose closing time has passed (with the same semantics as an
// explicit deactivation) and promotes scheduled windows whose activation
// time has arrived. It is idempotent and safe to re-trigger: a failed run
// leaves windows untouched for the next tick.
func (s *SpotModeService) RunSweep() error {
	now := s.clock()

	expired, err := s.store.SpotModes().GetActiveExpired(now)
	if err != nil {
		return fmt.Errorf("spot mode sweep: %w", err)
	}
	for i := range expired {
		window := expired[i]
		err := s.store.InTransaction(func(st repositories.Store) error {
			return closeWindow(st, &window)
		})
		if err != nil {
			log.Printf("Failed to close expired spot mode %s: %v", window.ID, err)
			continue
		}
		log.Printf("Spot mode %s closed, open carts cleared", window.ID)
	}

	due, err := s.store.SpotModes().GetScheduledDue(now)
	if err != nil {
		return fmt.Errorf("spot mode sweep: %w", err)
	}
	for i := range due {
		window := due[i]
		if window.CloseAt.Before(now) {
			// The whole window was missed; close it without ever activating.
			window.Status = models.SpotModeStatusInactive
			if err := s.store.SpotModes().Save(&window); err != nil {
				log.Printf("Failed to expire missed spot mode %s: %v", window.ID, err)
			}
			continue
		}
		err := s.store.InTransaction(func(st repositories.Store) error {
			if _, err := st.SpotModes().GetActive(); err == nil {
				return apperr.Conflict("spot mode is already active")
			} else if !errors.Is(err, repositories.ErrNotFound) {
				return err
			}
			window.Status = models.SpotModeStatusActive
			if err := st.SpotModes().Save(&window); err != nil {
				return err
			}
			if err := repriceOpenCarts(st, true); err != nil {
				return err
			}
			return convertAwaitingOrders(st)
		})
		if err != nil {
			log.Printf("Failed to promote scheduled spot mode %s: %v", window.ID, err)
			continue
		}
		log.Printf("Spot mode %s promoted to active, open carts repriced", window.ID)
	}

	return nil
}

// closeWindow marks a window inactive and clears every open cart.
func closeWindow(st repositories.Store, window *models.SpotMode) error {
	window.Status = models.SpotModeStatusInactive
	if err := st.SpotModes().Save(window); err != nil {
		return err
	}

	carts, err := st.Carts().GetOpen()
	if err != nil {
		return err
	}
	for i := range carts {
		cart := &carts[i]
		if err := st.Carts().DeleteItems(cart.ID); err != nil {
			return err
		}
		cart.Items = nil
		cart.Status = models.CartStatusPending
		cart.TotalPrice = decimal.Zero
		if err := st.Carts().Save(cart); err != nil {
			return err
		}
	}
	return nil
}

// repriceOpenCarts re-resolves the unit price of every line in every open
// cart. Lines whose product has vanished or been soft-deleted are removed
// with a warning, then each cart total is recomputed.
func repriceOpenCarts(st repositories.Store, spotActive bool) error {
	carts, err := st.Carts().GetOpen()
	if err != nil {
		return err
	}

	for i := range carts {
		cart := &carts[i]
		kept := cart.Items[:0]
		for j := range cart.Items {
			item := cart.Items[j]
			product, err := st.Products().GetByID(item.ProductID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					log.Printf("Cart item %s references missing or deleted product %s, removing", item.ID, item.ProductID)
					if err := st.Carts().DeleteItem(item.ID); err != nil {
						return err
					}
					continue
				}
				return err
			}

			item.UnitPrice = decimal.NewNullDecimal(pricing.Resolve(product, spotActive))
			if err := st.Carts().SaveItem(&item); err != nil {
				return err
			}
			kept = append(kept, item)
		}
		cart.Items = kept
		cart.RecalculateTotal()
		if err := st.Carts().Save(cart); err != nil {
			return err
		}
	}
	return nil
}

// convertAwaitingOrders finishes orders that were confirmed with "buy
// anyway" while Spot Mode was off: their lines get real spot prices, the
// order moves to processing, and an unassigned delivery is created. Stock
// was already reserved when the order was created.
func convertAwaitingOrders(st repositories.Store) error {
	orders, err := st.Orders().GetByStatuses([]string{models.OrderStatusAwaiting})
	if err != nil {
		return err
	}

	for i := range orders {
		order := &orders[i]
		total := decimal.Zero
		for j := range order.Items {
			item := &order.Items[j]
			product, err := st.Products().GetByID(item.ProductID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					log.Printf("Order item %s references missing or deleted product %s, leaving price at zero", item.ID, item.ProductID)
					continue
				}
				return err
			}
			item.UnitPrice = pricing.Resolve(product, true)
			item.LineTotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
			total = total.Add(item.LineTotal)
		}
		order.TotalPrice = total
		order.Status = models.OrderStatusProcessing
		if err := st.Orders().Save(order); err != nil {
			return err
		}

		// The delivery may already exist if a previous sweep got this far.
		if _, err := st.Deliveries().GetByOrderID(order.ID); err == nil {
			continue
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}

		delivery := &models.Delivery{
			OrderID: order.ID,
			Status:  models.DeliveryStatusNew,
		}
		if address, err := st.Users().GetShippingAddress(order.UserID); err == nil {
			delivery.Address = address.Address
			delivery.Lat = address.Lat
			delivery.Lng = address.Lng
		} else if errors.Is(err, repositories.ErrNotFound) {
			log.Printf("No shipping address for user %s, creating delivery for order %s without one", order.UserID, order.ID)
		} else {
			return err
		}
		if err := st.Deliveries().Create(delivery); err != nil {
			return err
		}
	}
	return nil
}
