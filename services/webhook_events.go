package services

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v82"
)

// Processor event types the reconciliation path handles
const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventPaymentIntentFailed    = "payment_intent.payment_failed"
	EventChargeRefunded         = "charge.refunded"
)

// WebhookEvent is one of PaymentSucceeded, PaymentFailed or ChargeRefunded
type WebhookEvent interface {
	EventType() string
}

// PaymentSucceeded reports a captured payment intent
type PaymentSucceeded struct {
	EventID         string `json:"eventId"`
	PaymentIntentID string `json:"paymentIntentId"`
	OrderID         string `json:"orderId"`
	ChargeID        string `json:"chargeId"`
}

// PaymentFailed reports a payment attempt the processor declined
type PaymentFailed struct {
	EventID         string `json:"eventId"`
	PaymentIntentID string `json:"paymentIntentId"`
	OrderID         string `json:"orderId"`
	FailureMessage  string `json:"failureMessage,omitempty"`
}

// ChargeRefunded reports a refunded charge. The order is not on the
// charge; it is recovered from the intent's metadata.
type ChargeRefunded struct {
	EventID         string `json:"eventId"`
	ChargeID        string `json:"chargeId"`
	PaymentIntentID string `json:"paymentIntentId"`
	AmountRefunded  int64  `json:"amountRefunded"`
}

func (PaymentSucceeded) EventType() string { return EventPaymentIntentSucceeded }
func (PaymentFailed) EventType() string    { return EventPaymentIntentFailed }
func (ChargeRefunded) EventType() string   { return EventChargeRefunded }

// ParseWebhookEvent decodes a verified processor event into the union.
// Types outside the union are rejected with ErrUnsupportedEvent.
func ParseWebhookEvent(event stripe.Event) (WebhookEvent, error) {
	if event.Data == nil {
		return nil, fmt.Errorf("%w: event %s has no data", ErrValidation, event.ID)
	}

	switch string(event.Type) {
	case EventPaymentIntentSucceeded:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("%w: malformed payment intent: %v", ErrValidation, err)
		}
		ev := PaymentSucceeded{
			EventID:         event.ID,
			PaymentIntentID: intent.ID,
			OrderID:         intent.Metadata["orderId"],
		}
		if intent.LatestCharge != nil {
			ev.ChargeID = intent.LatestCharge.ID
		}
		return ev, nil

	case EventPaymentIntentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("%w: malformed payment intent: %v", ErrValidation, err)
		}
		ev := PaymentFailed{
			EventID:         event.ID,
			PaymentIntentID: intent.ID,
			OrderID:         intent.Metadata["orderId"],
		}
		var failure struct {
			LastPaymentError *struct {
				Message string `json:"message"`
			} `json:"last_payment_error"`
		}
		if err := json.Unmarshal(event.Data.Raw, &failure); err == nil && failure.LastPaymentError != nil {
			ev.FailureMessage = failure.LastPaymentError.Message
		}
		return ev, nil

	case EventChargeRefunded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return nil, fmt.Errorf("%w: malformed charge: %v", ErrValidation, err)
		}
		if charge.PaymentIntent == nil || charge.PaymentIntent.ID == "" {
			return nil, fmt.Errorf("%w: charge %s has no payment intent", ErrValidation, charge.ID)
		}
		return ChargeRefunded{
			EventID:         event.ID,
			ChargeID:        charge.ID,
			PaymentIntentID: charge.PaymentIntent.ID,
			AmountRefunded:  charge.AmountRefunded,
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedEvent, event.Type)
}
