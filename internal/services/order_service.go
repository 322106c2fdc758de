package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/pkg/rabbitmq"
)

// OrderService owns the order lifecycle: placement, the strictly
// ordered status flow, and the cancellation window. Status transitions
// are injected from outside (store or delivery-partner systems in a
// real deployment); the service only validates and applies them.
type OrderService struct {
	orderRepo repositories.OrderRepository
	mqClient  *rabbitmq.Client // may be nil; events are then skipped

	windowSeconds int
	tickInterval  time.Duration // 0 disables the wall-clock driver

	// mu serializes status mutations besides guarding the window
	// state, so a validated transition cannot commit after a
	// concurrent one changed the order underneath it.
	mu      sync.Mutex
	windows map[string]*models.CancellationWindow
	stops   map[string]chan struct{}
}

// NewOrderService creates a new OrderService. windowSeconds is the
// cancellation-window length for fresh orders; tickInterval is how
// often the background driver decrements open windows. Tests pass a
// tickInterval of 0 and drive Tick themselves.
func NewOrderService(orderRepo repositories.OrderRepository, mqClient *rabbitmq.Client, windowSeconds int, tickInterval time.Duration) *OrderService {
	return &OrderService{
		orderRepo:     orderRepo,
		mqClient:      mqClient,
		windowSeconds: windowSeconds,
		tickInterval:  tickInterval,
		windows:       make(map[string]*models.CancellationWindow),
		stops:         make(map[string]chan struct{}),
	}
}

// GetOrdersForUser retrieves the user's orders.
func (s *OrderService) GetOrdersForUser(userID string) ([]models.Order, error) {
	return s.orderRepo.GetAllForUser(userID)
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// PlaceOrder records a freshly paid order, opens its cancellation
// window and publishes order.placed. Called by the checkout flow only
// after the gateway approved the payment.
func (s *OrderService) PlaceOrder(order *models.Order) error {
	if order.Status == "" {
		order.Status = models.StatusPlaced
	}
	if err := s.orderRepo.Create(order); err != nil {
		return fmt.Errorf("failed to create order in repository: %w", err)
	}

	if s.windowSeconds > 0 {
		s.mu.Lock()
		s.windows[order.ID] = &models.CancellationWindow{
			OrderID:          order.ID,
			RemainingSeconds: s.windowSeconds,
		}
		if s.tickInterval > 0 {
			stop := make(chan struct{})
			s.stops[order.ID] = stop
			go s.runCountdown(order.ID, stop)
		}
		s.mu.Unlock()
	}

	s.publish("order.placed", map[string]interface{}{
		"orderID": order.ID,
		"userID":  order.UserID,
		"status":  order.Status,
		"total":   order.Totals.GrandTotalMinor,
	})
	return nil
}

// AdvanceStatus applies an externally driven status transition. Only
// the single defined successor of the current status is accepted;
// cancellation goes through RequestCancellation instead.
func (s *OrderService) AdvanceStatus(id string, target models.OrderStatus) error {
	if !target.Valid() || target == models.StatusCancelled {
		return fmt.Errorf("status %q: %w", target, ErrInvalidTransition)
	}

	s.mu.Lock()
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if !order.Status.CanAdvanceTo(target) {
		s.mu.Unlock()
		return fmt.Errorf("%s -> %s: %w", order.Status, target, ErrInvalidTransition)
	}
	if err := s.orderRepo.UpdateStatus(id, target); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to update order status for order %s: %w", id, err)
	}
	s.mu.Unlock()

	s.publish("order.status_changed", map[string]interface{}{
		"orderID": id,
		"from":    order.Status,
		"to":      target,
	})
	return nil
}

// RequestCancellation cancels the order if it is still in a
// cancellable stage and the window has not run out. On success the
// order moves to its terminal cancelled status and the window is
// discarded.
func (s *OrderService) RequestCancellation(id string) (*models.Order, error) {
	s.mu.Lock()
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if !order.Status.Cancellable() {
		s.mu.Unlock()
		return nil, fmt.Errorf("order %s in status %s: %w", id, order.Status, ErrNotCancellable)
	}
	window, ok := s.windows[id]
	if !ok || window.Expired() {
		s.mu.Unlock()
		return nil, fmt.Errorf("order %s: %w", id, ErrWindowExpired)
	}
	if err := s.orderRepo.UpdateStatus(id, models.StatusCancelled); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to cancel order %s: %w", id, err)
	}
	s.discardWindowLocked(id)
	cancelled, err := s.orderRepo.GetByID(id)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.publish("order.cancelled", map[string]interface{}{
		"orderID": id,
		"userID":  cancelled.UserID,
	})
	return cancelled, nil
}

// Tick decrements the order's cancellation window by one second. When
// the countdown reaches zero the window is discarded and its driver
// stopped, making cancellation unavailable rather than erroring later
// ticks.
func (s *OrderService) Tick(orderID string) (remaining int, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	window, ok := s.windows[orderID]
	if !ok {
		return 0, false
	}
	window.Tick()
	if window.Expired() {
		s.discardWindowLocked(orderID)
		return 0, false
	}
	return window.RemainingSeconds, true
}

// CancellationWindow reports the remaining seconds of the order's
// window. open is false once the window expired or was discarded.
func (s *OrderService) CancellationWindow(orderID string) (remaining int, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	window, ok := s.windows[orderID]
	if !ok || window.Expired() {
		return 0, false
	}
	return window.RemainingSeconds, true
}

// Close stops every countdown driver. Used on shutdown.
func (s *OrderService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.windows {
		s.discardWindowLocked(id)
	}
}

// discardWindowLocked removes the window and stops its driver. Caller
// must hold s.mu. Safe to call twice for the same order.
func (s *OrderService) discardWindowLocked(orderID string) {
	delete(s.windows, orderID)
	if stop, ok := s.stops[orderID]; ok {
		close(stop)
		delete(s.stops, orderID)
	}
}

// runCountdown is the wall-clock driver for one window. The state
// machine itself never reads the clock; this goroutine feeds it Tick
// calls and exits the moment the window closes, by expiry or by
// cancellation.
func (s *OrderService) runCountdown(orderID string, stop chan struct{}) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, open := s.Tick(orderID); !open {
				return
			}
		}
	}
}

// publish sends an order event, logging rather than failing when the
// broker is unavailable. Order state is already committed by the time
// events go out.
func (s *OrderService) publish(routingKey string, event map[string]interface{}) {
	if s.mqClient == nil {
		log.Println("RabbitMQ client is not initialized. Skipping message publication.")
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := s.mqClient.Publish(routingKey, body); err != nil {
		log.Printf("Warning: Failed to publish %s event: %v", routingKey, err)
	}
}

// IsNotFound reports whether err is an order lookup miss. Handlers use
// it to pick a 404 over a 500.
func IsNotFound(err error) bool {
	return errors.Is(err, repositories.ErrOrderNotFound) ||
		errors.Is(err, repositories.ErrProductNotFound) ||
		errors.Is(err, repositories.ErrUserNotFound) ||
		errors.Is(err, repositories.ErrAddressNotFound)
}
