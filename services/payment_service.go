package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/kendall-kelly/freelance-market-api/models"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82/webhook"
	"gorm.io/datatypes"
)

var minorUnitsPerMajor = decimal.NewFromInt(100)

// zeroDecimalCurrencies are charged in whole units
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true,
	"kmf": true, "krw": true, "mga": true, "pyg": true, "rwf": true,
	"ugx": true, "vnd": true, "vuv": true, "xaf": true, "xof": true,
	"xpf": true,
}

// toMinorUnits converts amount into the smallest unit of currency
func toMinorUnits(amount decimal.Decimal, currency string) int64 {
	if zeroDecimalCurrencies[strings.ToLower(currency)] {
		return amount.Round(0).IntPart()
	}
	return amount.Mul(minorUnitsPerMajor).Round(0).IntPart()
}

// PaymentRequest is the checkout request from the frontend
type PaymentRequest struct {
	Amount        decimal.Decimal
	PaymentMethod string
	OrderID       string
	PayerID       string
	ReceiverID    string
}

// PaymentInitiation is the result of a successful checkout. ClientSecret
// goes back to the browser and is never stored.
type PaymentInitiation struct {
	ClientSecret string
	Payment      *models.Payment
}

// PaymentService starts payments and reconciles processor webhooks into
// payment and order status
type PaymentService struct {
	payments      PaymentStore
	orders        *OrderService
	processor     PaymentProcessor
	currency      string
	webhookSecret string
}

// NewPaymentService creates a payment service
func NewPaymentService(payments PaymentStore, orders *OrderService, processor PaymentProcessor, currency, webhookSecret string) *PaymentService {
	return &PaymentService{
		payments:      payments,
		orders:        orders,
		processor:     processor,
		currency:      strings.ToLower(currency),
		webhookSecret: webhookSecret,
	}
}

// InitiatePayment creates a processor payment intent for an order and
// records a pending payment for it. An order holds one payment; a failed
// one is re-armed with the new intent.
func (s *PaymentService) InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentInitiation, error) {
	if req.OrderID == "" || req.PayerID == "" || req.ReceiverID == "" {
		return nil, fmt.Errorf("%w: orderId, payerId and receiverId are required", ErrValidation)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "card"
	}

	order, err := s.orders.orders.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", req.OrderID, err)
	}
	if order.ClientID != req.PayerID || order.FreelancerID != req.ReceiverID {
		return nil, fmt.Errorf("%w: payer and receiver must be the order's client and freelancer", ErrValidation)
	}
	if !req.Amount.Equal(order.Amount) {
		return nil, fmt.Errorf("%w: amount %s does not match the order total %s", ErrValidation, req.Amount, order.Amount)
	}

	existing, err := s.payments.FindByOrderID(ctx, req.OrderID)
	switch {
	case errors.Is(err, ErrNotFound):
		existing = nil
	case err != nil:
		return nil, fmt.Errorf("failed to check existing payment: %w", err)
	case existing.Status != models.PaymentStatusFailed:
		return nil, fmt.Errorf("%w (status %s)", ErrPaymentExists, existing.Status)
	}

	attempt := 1
	if existing != nil {
		attempt = existing.Version + 1
	}

	minor := toMinorUnits(order.Amount, s.currency)
	intent, err := s.processor.CreatePaymentIntent(ctx, PaymentIntentRequest{
		Amount:             minor,
		Currency:           s.currency,
		PaymentMethodTypes: []string{req.PaymentMethod},
		Metadata: map[string]string{
			"orderId":    req.OrderID,
			"payerId":    req.PayerID,
			"receiverId": req.ReceiverID,
		},
		IdempotencyKey: fmt.Sprintf("order-%s-attempt-%d", req.OrderID, attempt),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessor, err)
	}

	details := jsonDetails(map[string]any{
		"currency":    s.currency,
		"amountMinor": minor,
		"attempt":     attempt,
	})

	var payment *models.Payment
	if existing == nil {
		payment = &models.Payment{
			OrderID:         req.OrderID,
			PayerID:         req.PayerID,
			ReceiverID:      req.ReceiverID,
			Amount:          req.Amount,
			PaymentMethod:   req.PaymentMethod,
			Status:          models.PaymentStatusPending,
			PaymentIntentID: intent.ID,
			PaymentDetails:  details,
			Version:         1,
		}
		err = s.payments.Create(ctx, payment)
	} else {
		payment, err = s.payments.UpdateByOrderID(ctx, req.OrderID, map[string]any{
			"payer_id":          req.PayerID,
			"receiver_id":       req.ReceiverID,
			"amount":            req.Amount,
			"payment_method":    req.PaymentMethod,
			"status":            models.PaymentStatusPending,
			"payment_intent_id": intent.ID,
			"transaction_id":    nil,
			"payment_details":   details,
		})
	}
	if err != nil {
		log.Printf("Payment intent %s for order %s has no local payment row: %v", intent.ID, req.OrderID, err)
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	return &PaymentInitiation{ClientSecret: intent.ClientSecret, Payment: payment}, nil
}

// HandleWebhook verifies a processor callback and applies it. Nothing is
// written unless the signature checks out.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) (WebhookEvent, error) {
	if signature == "" {
		return nil, fmt.Errorf("%w: missing signature header", ErrInvalidSignature)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	ev, err := ParseWebhookEvent(event)
	if err != nil {
		return nil, err
	}

	switch e := ev.(type) {
	case PaymentSucceeded:
		err = s.applySucceeded(ctx, e)
	case PaymentFailed:
		err = s.applyFailed(ctx, e)
	case ChargeRefunded:
		err = s.applyRefunded(ctx, e)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedEvent, ev.EventType())
	}
	return ev, err
}

func (s *PaymentService) applySucceeded(ctx context.Context, e PaymentSucceeded) error {
	orderID, err := s.resolveOrderID(ctx, e.OrderID, e.PaymentIntentID)
	if err != nil {
		return err
	}
	if _, live, err := s.livePayment(ctx, orderID, e.PaymentIntentID, e.EventType()); err != nil || !live {
		return err
	}

	transactionID := e.ChargeID
	if transactionID == "" {
		transactionID = e.PaymentIntentID
	}

	if _, err := s.payments.UpdateByOrderID(ctx, orderID, map[string]any{
		"status":            models.PaymentStatusCompleted,
		"transaction_id":    transactionID,
		"payment_intent_id": e.PaymentIntentID,
		"payment_details":   eventDetails(e),
	}); err != nil {
		return fmt.Errorf("failed to complete payment for order %s: %w", orderID, err)
	}

	// Redelivered events must not pull an order back once work moved on
	return s.moveOrder(ctx, orderID, models.OrderStatusPending, models.OrderStatusInProgress)
}

func (s *PaymentService) applyFailed(ctx context.Context, e PaymentFailed) error {
	orderID, err := s.resolveOrderID(ctx, e.OrderID, e.PaymentIntentID)
	if err != nil {
		return err
	}

	payment, live, err := s.livePayment(ctx, orderID, e.PaymentIntentID, e.EventType())
	if err != nil || !live {
		return err
	}
	if payment.Status == models.PaymentStatusCompleted || payment.Status == models.PaymentStatusRefunded {
		log.Printf("Ignoring %s for order %s: payment already %s", e.EventType(), orderID, payment.Status)
		return nil
	}

	if _, err := s.payments.UpdateByOrderID(ctx, orderID, map[string]any{
		"status":          models.PaymentStatusFailed,
		"payment_details": eventDetails(e),
	}); err != nil {
		return fmt.Errorf("failed to mark payment failed for order %s: %w", orderID, err)
	}
	return nil
}

func (s *PaymentService) applyRefunded(ctx context.Context, e ChargeRefunded) error {
	// The charge does not carry our metadata; the intent does
	intent, err := s.processor.GetPaymentIntent(ctx, e.PaymentIntentID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProcessor, err)
	}

	orderID, err := s.resolveOrderID(ctx, intent.Metadata["orderId"], e.PaymentIntentID)
	if err != nil {
		return err
	}
	if _, live, err := s.livePayment(ctx, orderID, e.PaymentIntentID, e.EventType()); err != nil || !live {
		return err
	}

	if _, err := s.payments.UpdateByOrderID(ctx, orderID, map[string]any{
		"status":          models.PaymentStatusRefunded,
		"payment_details": eventDetails(e),
	}); err != nil {
		return fmt.Errorf("failed to mark payment refunded for order %s: %w", orderID, err)
	}

	return s.moveOrder(ctx, orderID, "", models.OrderStatusCancelled)
}

// livePayment loads the order's payment and reports whether intentID is the
// intent it currently tracks. Events for an intent that a retry replaced
// are logged and dropped.
func (s *PaymentService) livePayment(ctx context.Context, orderID, intentID, eventType string) (*models.Payment, bool, error) {
	payment, err := s.payments.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get payment for order %s: %w", orderID, err)
	}
	if payment.PaymentIntentID != "" && payment.PaymentIntentID != intentID {
		log.Printf("Ignoring %s for order %s: intent %s was replaced by %s", eventType, orderID, intentID, payment.PaymentIntentID)
		return payment, false, nil
	}
	return payment, true, nil
}

// moveOrder sets the order to status, only from fromStatus when that is
// non-empty. The write is pinned to the version that was read.
func (s *PaymentService) moveOrder(ctx context.Context, orderID, fromStatus, status string) error {
	order, err := s.orders.orders.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to get order %s: %w", orderID, err)
	}
	if order.Status == status {
		return nil
	}
	if fromStatus != "" && order.Status != fromStatus {
		log.Printf("Order %s is %s, not moving it to %s", orderID, order.Status, status)
		return nil
	}

	if _, err := s.orders.UpdateOrderStatus(ctx, orderID, status, &order.Version); err != nil {
		log.Printf("Payment for order %s updated but order status write failed: %v", orderID, err)
		return err
	}
	return nil
}

// resolveOrderID prefers the order from event metadata and falls back to
// the payment recorded for the intent
func (s *PaymentService) resolveOrderID(ctx context.Context, orderID, intentID string) (string, error) {
	if orderID != "" {
		return orderID, nil
	}
	payment, err := s.payments.FindByIntentID(ctx, intentID)
	if err != nil {
		return "", fmt.Errorf("failed to find payment for intent %s: %w", intentID, err)
	}
	return payment.OrderID, nil
}

func eventDetails(ev WebhookEvent) datatypes.JSON {
	return jsonDetails(map[string]any{
		"type":  ev.EventType(),
		"event": ev,
	})
}

func jsonDetails(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(b)
}
