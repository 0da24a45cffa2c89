package services

import (
	"errors"
	"log"

	"souq/internal/apperr"
	"souq/internal/models"
	"souq/internal/repositories"
	"souq/pkg/notify"
)

// Status buckets exposed to the mobile client.
var orderBuckets = map[string][]string{
	"to-receive": {models.OrderStatusPending, models.OrderStatusProcessing, models.OrderStatusAwaiting, models.OrderStatusShipped},
	"completed":  {models.OrderStatusDelivered},
	"cancelled":  {models.OrderStatusCanceled},
}

// OrderService handles business logic related to orders after checkout.
type OrderService struct {
	store    repositories.Store
	notifier notify.Dispatcher // may be nil
}

// NewOrderService creates a new OrderService.
func NewOrderService(store repositories.Store, notifier notify.Dispatcher) *OrderService {
	return &OrderService{
		store:    store,
		notifier: notifier,
	}
}

// ListMine retrieves all orders of a user, newest first.
func (s *OrderService) ListMine(userID string) ([]models.Order, error) {
	return s.store.Orders().GetByUserID(userID)
}

// ListBucket retrieves a user's orders in one of the client-facing buckets:
// to-receive, completed, or cancelled.
func (s *OrderService) ListBucket(userID, bucket string) ([]models.Order, error) {
	statuses, ok := orderBuckets[bucket]
	if !ok {
		return nil, apperr.Validation("unknown order bucket %q", bucket)
	}
	return s.store.Orders().GetByUserAndStatuses(userID, statuses)
}

// Get retrieves a single order. Non-admin callers only see their own orders;
// anyone else's order reports not found rather than forbidden.
func (s *OrderService) Get(userID, role, orderID string) (*models.Order, error) {
	order, err := s.store.Orders().GetByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.NotFound("order %s not found", orderID)
		}
		return nil, err
	}
	if role != models.RoleAdmin && order.UserID != userID {
		return nil, apperr.NotFound("order %s not found", orderID)
	}
	return order, nil
}

// Cancel cancels an order that has not shipped yet, restoring the stock
// reserved at creation: every item's quantity goes back exactly once, inside
// the same transaction as the status change.
func (s *OrderService) Cancel(userID, orderID string) error {
	err := s.store.InTransaction(func(st repositories.Store) error {
		order, err := st.Orders().GetByID(orderID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperr.NotFound("order %s not found", orderID)
			}
			return err
		}
		if order.UserID != userID {
			return apperr.NotFound("order %s not found", orderID)
		}
		if !models.CanTransition(order.Status, models.OrderStatusCanceled) {
			return apperr.Conflict("order in status %q cannot be canceled", order.Status)
		}

		for i := range order.Items {
			item := &order.Items[i]
			if err := st.Products().AdjustStock(item.ProductID, item.Quantity); err != nil {
				// The product may have been hard-removed since the order was
				// placed; there is no stock row to restore then.
				if errors.Is(err, repositories.ErrNotFound) {
					log.Printf("Order %s cancel: product %s no longer exists, skipping stock restore", orderID, item.ProductID)
					continue
				}
				return err
			}
		}

		return st.Orders().UpdateStatus(orderID, models.OrderStatusCanceled)
	})
	if err != nil {
		return asTransaction("failed to cancel order", err)
	}

	if s.notifier != nil {
		notifyErr := s.notifier.Notify(userID, notify.EventOrderCanceled, map[string]interface{}{
			"order_id": orderID,
		})
		if notifyErr != nil {
			log.Printf("Warning: failed to publish order canceled event for order %s: %v", orderID, notifyErr)
		}
	}
	return nil
}
