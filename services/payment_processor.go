package services

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

// PaymentIntentRequest asks the processor to start a charge
type PaymentIntentRequest struct {
	Amount             int64 // minor currency units
	Currency           string
	PaymentMethodTypes []string // empty means automatic payment methods
	Metadata           map[string]string
	IdempotencyKey     string
}

// PaymentIntent is the processor's view of a charge attempt
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
	Metadata     map[string]string
}

// PaymentProcessor is the outbound half of the processor integration
type PaymentProcessor interface {
	CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error)
}

var paymentProcessorInstance PaymentProcessor

// GetPaymentProcessor returns the initialized processor
func GetPaymentProcessor() PaymentProcessor {
	return paymentProcessorInstance
}

// SetPaymentProcessor sets the processor (primarily for testing)
func SetPaymentProcessor(p PaymentProcessor) {
	paymentProcessorInstance = p
}

// StripeProcessor talks to the Stripe API
type StripeProcessor struct {
	intents *paymentintent.Client
}

// InitStripeProcessor installs a Stripe-backed processor using secretKey
func InitStripeProcessor(secretKey string) PaymentProcessor {
	paymentProcessorInstance = &StripeProcessor{
		intents: &paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
	}
	return paymentProcessorInstance
}

// CreatePaymentIntent creates an intent restricted to the requested payment
// method types, or with automatic payment methods when none are given
func (p *StripeProcessor) CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
	}
	if len(req.PaymentMethodTypes) > 0 {
		params.PaymentMethodTypes = stripe.StringSlice(req.PaymentMethodTypes)
	} else {
		params.AutomaticPaymentMethods = &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		}
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := p.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: %w", err)
	}
	return fromStripeIntent(pi), nil
}

// GetPaymentIntent retrieves an intent by ID
func (p *StripeProcessor) GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.intents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: %w", err)
	}
	return fromStripeIntent(pi), nil
}

func fromStripeIntent(pi *stripe.PaymentIntent) *PaymentIntent {
	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Metadata:     pi.Metadata,
	}
}
