package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kendall-kelly/freelance-market-api/models"
	"github.com/kendall-kelly/freelance-market-api/repositories"
	"github.com/shopspring/decimal"
)

// OrderInput is the data needed to place an order. Any status the caller
// supplies is ignored; orders always start pending.
type OrderInput struct {
	ServiceID    string
	ClientID     string
	FreelancerID string
	Requirements string
	DeliveryDate *time.Time
	Amount       decimal.Decimal
	Status       string
}

// OrderQuery selects the orders a user sees from one side of the table
type OrderQuery struct {
	UserID string
	Role   string
	Status string
}

// OrderAnalytics summarizes a user's orders
type OrderAnalytics struct {
	Role            string          `json:"role"`
	Total           int             `json:"total"`
	ByStatus        map[string]int  `json:"byStatus"`
	CompletedAmount decimal.Decimal `json:"completedAmount"`
}

// OrderService drives the order lifecycle
type OrderService struct {
	orders   OrderStore
	services ServiceStore
	now      func() time.Time
}

// NewOrderService creates an order service
func NewOrderService(orders OrderStore, services ServiceStore) *OrderService {
	return &OrderService{orders: orders, services: services, now: time.Now}
}

// CreateOrder inserts a new pending order
func (s *OrderService) CreateOrder(ctx context.Context, input OrderInput) (*models.Order, error) {
	switch {
	case input.ServiceID == "":
		return nil, fmt.Errorf("%w: serviceId is required", ErrValidation)
	case input.ClientID == "" || input.FreelancerID == "":
		return nil, fmt.Errorf("%w: clientId and freelancerId are required", ErrValidation)
	case input.ClientID == input.FreelancerID:
		return nil, ErrSelfOrder
	case !input.Amount.IsPositive():
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	}

	now := s.stamp(time.Time{})
	order := &models.Order{
		ServiceID:    input.ServiceID,
		ClientID:     input.ClientID,
		FreelancerID: input.FreelancerID,
		Status:       models.OrderStatusPending,
		Requirements: input.Requirements,
		DeliveryDate: input.DeliveryDate,
		Amount:       input.Amount,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

// Checkout places an order for a service on behalf of a client. The
// freelancer, amount and delivery date come from the service, or from the
// named plan when one is given.
func (s *OrderService) Checkout(ctx context.Context, clientID, serviceID, requirements, planName string) (*models.Order, error) {
	service, err := s.services.FindByID(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get service %s: %w", serviceID, err)
	}
	if !service.IsActive {
		return nil, fmt.Errorf("%w: service is not available", ErrValidation)
	}

	amount, days := service.Price, service.DeliveryTime
	if planName = strings.TrimSpace(planName); planName != "" {
		plan, ok := service.FindPlan(planName)
		if !ok {
			return nil, fmt.Errorf("%w: unknown plan %q", ErrValidation, planName)
		}
		amount = plan.Price
		if plan.Delivery > 0 {
			days = plan.Delivery
		}
	}

	delivery := s.now().UTC().AddDate(0, 0, days)
	return s.CreateOrder(ctx, OrderInput{
		ServiceID:    service.ID,
		ClientID:     clientID,
		FreelancerID: service.FreelancerID,
		Requirements: requirements,
		DeliveryDate: &delivery,
		Amount:       amount,
	})
}

// UpdateOrderStatus writes status without checking the transition table.
// When expectedVersion is set the write only lands if nobody else has
// written the order since the caller read it.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id, status string, expectedVersion *int) (*models.Order, error) {
	if !models.IsValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	current, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}

	order, err := s.orders.UpdateStatus(ctx, id, status, s.stamp(current.UpdatedAt), expectedVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to update order %s: %w", id, err)
	}
	return order, nil
}

// TransitionOrder moves an order along the state machine on behalf of
// actorID, who must be the party the transition belongs to
func (s *OrderService) TransitionOrder(ctx context.Context, id, actorID, status string, expectedVersion *int) (*models.Order, error) {
	if !models.IsValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	current, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}

	transition, ok := models.FindTransition(current.Status, status)
	if !ok {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current.Status, status)
	}

	switch transition.Actor {
	case models.RoleFreelancer:
		if current.FreelancerID != actorID {
			return nil, fmt.Errorf("%w: only the assigned freelancer can %s this order", ErrForbidden, transition.Action)
		}
	case models.RoleClient:
		if current.ClientID != actorID {
			return nil, fmt.Errorf("%w: only the client can %s this order", ErrForbidden, transition.Action)
		}
	}

	// Pin the write to the state we validated against
	version := current.Version
	if expectedVersion != nil {
		version = *expectedVersion
	}

	order, err := s.orders.UpdateStatus(ctx, id, status, s.stamp(current.UpdatedAt), &version)
	if err != nil {
		return nil, fmt.Errorf("failed to update order %s: %w", id, err)
	}
	return order, nil
}

// GetOrder returns an order with its service, client and freelancer
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orders.FindDetailed(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	return order, nil
}

// ListOrders returns the caller's orders, newest first. Clients see the
// orders they placed, freelancers the orders they received, admins all.
func (s *OrderService) ListOrders(ctx context.Context, query OrderQuery) ([]models.Order, error) {
	if query.Status != "" && !models.IsValidOrderStatus(query.Status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, query.Status)
	}

	filter := repositories.OrderFilter{Status: query.Status}
	switch query.Role {
	case models.RoleClient:
		filter.ClientID = query.UserID
	case models.RoleFreelancer:
		filter.FreelancerID = query.UserID
	case models.RoleAdmin:
	default:
		filter.PartyID = query.UserID
	}

	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// GetOrderAnalytics counts the user's orders per status, on either side
func (s *OrderService) GetOrderAnalytics(ctx context.Context, userID, role string) (*OrderAnalytics, error) {
	orders, err := s.orders.List(ctx, repositories.OrderFilter{PartyID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	analytics := &OrderAnalytics{
		Role:            role,
		Total:           len(orders),
		ByStatus:        make(map[string]int, len(models.OrderStatuses)),
		CompletedAmount: decimal.Zero,
	}
	for _, status := range models.OrderStatuses {
		analytics.ByStatus[status] = 0
	}
	for _, o := range orders {
		analytics.ByStatus[o.Status]++
		if o.Status == models.OrderStatusCompleted {
			analytics.CompletedAmount = analytics.CompletedAmount.Add(o.Amount)
		}
	}
	return analytics, nil
}

// stamp returns the write timestamp for a row last written at prev. It is
// always after prev, even when the clock has not moved.
func (s *OrderService) stamp(prev time.Time) time.Time {
	now := s.now().UTC().Truncate(time.Microsecond)
	if !prev.IsZero() && !now.After(prev) {
		now = prev.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
	}
	return now
}
