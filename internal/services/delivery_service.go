package services

import (
	"errors"
	"log"
	"sort"
	"time"

	"souq/internal/apperr"
	"souq/internal/models"
	"souq/internal/repositories"
	"souq/pkg/geo"
	"souq/pkg/notify"
)

// DeliveryService handles driver assignment and delivery progress.
type DeliveryService struct {
	store    repositories.Store
	notifier notify.Dispatcher // may be nil
	clock    func() time.Time
}

// NewDeliveryService creates a new DeliveryService.
func NewDeliveryService(store repositories.Store, notifier notify.Dispatcher, clock func() time.Time) *DeliveryService {
	if clock == nil {
		clock = time.Now
	}
	return &DeliveryService{
		store:    store,
		notifier: notifier,
		clock:    clock,
	}
}

// AvailableOrder is an order ready for pickup, with the distance from the
// driver's position when both coordinates are known.
type AvailableOrder struct {
	Order      models.Order `json:"order"`
	DistanceKm *float64     `json:"distance_km"`
}

// DeliveryDetails is the driver's view of one delivery.
type DeliveryDetails struct {
	Order             models.Order     `json:"order"`
	Delivery          *models.Delivery `json:"delivery,omitempty"`
	DistanceKm        *float64         `json:"distance_km"`
	EstimatedDelivery *time.Time       `json:"estimated_delivery,omitempty"`
}

// ListAvailable returns orders in processing with no delivery yet. When the
// driver supplies coordinates the result is ranked nearest-first; orders
// with unknown customer coordinates sort last, never erroring.
func (s *DeliveryService) ListAvailable(driverLat, driverLng *float64) ([]AvailableOrder, error) {
	orders, err := s.store.Orders().GetProcessingWithoutDelivery()
	if err != nil {
		return nil, err
	}

	available := make([]AvailableOrder, 0, len(orders))
	for i := range orders {
		entry := AvailableOrder{Order: orders[i]}
		if driverLat != nil && driverLng != nil {
			if address, err := s.store.Users().GetShippingAddress(orders[i].UserID); err == nil {
				entry.DistanceKm = geo.DistanceKm(*driverLat, *driverLng, address.Lat, address.Lng)
			}
		}
		available = append(available, entry)
	}

	sort.SliceStable(available, func(i, j int) bool {
		di, dj := available[i].DistanceKm, available[j].DistanceKm
		if di == nil {
			return false
		}
		if dj == nil {
			return true
		}
		return *di < *dj
	})
	return available, nil
}

// ListMine returns the driver's deliveries that are still in flight.
func (s *DeliveryService) ListMine(driverID string, driverLat, driverLng *float64) ([]DeliveryDetails, error) {
	deliveries, err := s.store.Deliveries().GetByDriverID(driverID)
	if err != nil {
		return nil, err
	}

	details := make([]DeliveryDetails, 0, len(deliveries))
	for i := range deliveries {
		delivery := deliveries[i]
		order, err := s.store.Orders().GetByID(delivery.OrderID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if order.Status != models.OrderStatusProcessing && order.Status != models.OrderStatusShipped {
			continue
		}
		details = append(details, s.describe(order, &delivery, driverLat, driverLng))
	}
	return details, nil
}

// Details returns one order with its delivery, distance, and ETA.
func (s *DeliveryService) Details(orderID string, driverLat, driverLng *float64) (*DeliveryDetails, error) {
	order, err := s.store.Orders().GetByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.NotFound("order %s not found", orderID)
		}
		return nil, err
	}

	var delivery *models.Delivery
	if d, err := s.store.Deliveries().GetByOrderID(orderID); err == nil {
		delivery = d
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	result := s.describe(order, delivery, driverLat, driverLng)
	return &result, nil
}

func (s *DeliveryService) describe(order *models.Order, delivery *models.Delivery, driverLat, driverLng *float64) DeliveryDetails {
	details := DeliveryDetails{Order: *order, Delivery: delivery}

	if driverLat != nil && driverLng != nil {
		if delivery != nil && delivery.Lat != nil && delivery.Lng != nil {
			details.DistanceKm = geo.DistanceKm(*driverLat, *driverLng, delivery.Lat, delivery.Lng)
		} else if address, err := s.store.Users().GetShippingAddress(order.UserID); err == nil {
			details.DistanceKm = geo.DistanceKm(*driverLat, *driverLng, address.Lat, address.Lng)
		}
	}

	if order.Status == models.OrderStatusShipped && (delivery == nil || delivery.DeliveryTime == nil) {
		eta := order.CreatedAt.Add(models.DeliveryETA)
		details.EstimatedDelivery = &eta
	}
	return details
}

// Accept assigns the order to the driver and ships it. The unassigned
// delivery created at checkout is claimed; a delivery already held by any
// driver is a conflict.
func (s *DeliveryService) Accept(orderID, driverID string) (*models.Delivery, error) {
	var (
		delivery   *models.Delivery
		customerID string
	)
	err := s.store.InTransaction(func(st repositories.Store) error {
		order, err := st.Orders().GetByID(orderID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperr.NotFound("order %s not found", orderID)
			}
			return err
		}
		if order.Status != models.OrderStatusProcessing {
			return apperr.Conflict("order in status %q is not available for delivery", order.Status)
		}
		customerID = order.UserID

		existing, err := st.Deliveries().GetByOrderID(orderID)
		if err == nil {
			if existing.DriverID != nil {
				return apperr.Conflict("order is already assigned to a delivery driver")
			}
			existing.DriverID = &driverID
			existing.Status = models.DeliveryStatusAssigned
			if err := st.Deliveries().Save(existing); err != nil {
				return err
			}
			delivery = existing
		} else if errors.Is(err, repositories.ErrNotFound) {
			delivery = &models.Delivery{
				OrderID:  orderID,
				DriverID: &driverID,
				Status:   models.DeliveryStatusAssigned,
			}
			if address, err := st.Users().GetShippingAddress(order.UserID); err == nil {
				delivery.Address = address.Address
				delivery.Lat = address.Lat
				delivery.Lng = address.Lng
			} else if !errors.Is(err, repositories.ErrNotFound) {
				return err
			}
			if err := st.Deliveries().Create(delivery); err != nil {
				return err
			}
		} else {
			return err
		}

		return st.Orders().UpdateStatus(orderID, models.OrderStatusShipped)
	})
	if err != nil {
		return nil, asTransaction("failed to accept order", err)
	}

	if s.notifier != nil {
		notifyErr := s.notifier.Notify(customerID, notify.EventOrderShipped, map[string]interface{}{
			"order_id": orderID,
		})
		if notifyErr != nil {
			log.Printf("Warning: failed to publish order shipped event for order %s: %v", orderID, notifyErr)
		}
	}
	return delivery, nil
}

// CancelAcceptance releases an accepted order back to the pool: the delivery
// row is deleted and the order returns to processing. Only the driver who
// accepted may release.
func (s *DeliveryService) CancelAcceptance(orderID, driverID string) error {
	err := s.store.InTransaction(func(st repositories.Store) error {
		delivery, err := st.Deliveries().GetByOrderID(orderID)
		if err != nil || delivery.DriverID == nil || *delivery.DriverID != driverID {
			if err != nil && !errors.Is(err, repositories.ErrNotFound) {
				return err
			}
			return apperr.NotFound("delivery not found or not assigned to you")
		}

		if err := st.Deliveries().Delete(delivery.ID); err != nil {
			return err
		}
		return st.Orders().UpdateStatus(orderID, models.OrderStatusProcessing)
	})
	return asTransaction("failed to cancel acceptance", err)
}

// MarkDelivered completes a shipped order: the delivery records the actual
// timestamp and the order reaches its terminal delivered status.
func (s *DeliveryService) MarkDelivered(orderID, driverID string) error {
	var customerID string
	err := s.store.InTransaction(func(st repositories.Store) error {
		delivery, err := st.Deliveries().GetByOrderID(orderID)
		if err != nil || delivery.DriverID == nil || *delivery.DriverID != driverID {
			if err != nil && !errors.Is(err, repositories.ErrNotFound) {
				return err
			}
			return apperr.NotFound("delivery not found or not assigned to you")
		}

		order, err := st.Orders().GetByID(orderID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusShipped {
			return apperr.Conflict("order in status %q cannot be marked delivered", order.Status)
		}
		customerID = order.UserID

		now := s.clock()
		delivery.Status = models.DeliveryStatusDelivered
		delivery.DeliveryTime = &now
		if err := st.Deliveries().Save(delivery); err != nil {
			return err
		}
		return st.Orders().UpdateStatus(orderID, models.OrderStatusDelivered)
	})
	if err != nil {
		return asTransaction("failed to mark order delivered", err)
	}

	if s.notifier != nil {
		notifyErr := s.notifier.Notify(customerID, notify.EventOrderDelivered, map[string]interface{}{
			"order_id": orderID,
		})
		if notifyErr != nil {
			log.Printf("Warning: failed to publish order delivered event for order %s: %v", orderID, notifyErr)
		}
	}
	return nil
}
