package services

import (
	"context"
	"fmt"
	"sync"
)

// MockPaymentProcessor is an in-memory PaymentProcessor for tests
type MockPaymentProcessor struct {
	intents    map[string]*PaymentIntent
	requests   []PaymentIntentRequest
	createErr  error
	nextNumber int
	mu         sync.Mutex
}

// NewMockPaymentProcessor creates a new mock processor
func NewMockPaymentProcessor() *MockPaymentProcessor {
	return &MockPaymentProcessor{intents: make(map[string]*PaymentIntent)}
}

// SetAsMockForTesting sets this mock as the global processor
func (m *MockPaymentProcessor) SetAsMockForTesting() {
	SetPaymentProcessor(m)
}

// FailCreates makes every following CreatePaymentIntent return err
func (m *MockPaymentProcessor) FailCreates(err error) {
	m.mu.Lock()
	m.createErr = err
	m.mu.Unlock()
}

// CreatePaymentIntent records the request and returns a fake intent
func (m *MockPaymentProcessor) CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return nil, m.createErr
	}

	m.requests = append(m.requests, req)
	m.nextNumber++
	id := fmt.Sprintf("pi_mock_%d", m.nextNumber)

	metadata := make(map[string]string, len(req.Metadata))
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	intent := &PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret_mock",
		Status:       "requires_payment_method",
		Metadata:     metadata,
	}
	m.intents[id] = intent

	copied := *intent
	return &copied, nil
}

// GetPaymentIntent returns a previously created or registered intent
func (m *MockPaymentProcessor) GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	intent, ok := m.intents[id]
	if !ok {
		return nil, fmt.Errorf("no such payment_intent: %s", id)
	}
	copied := *intent
	return &copied, nil
}

// AddIntent registers an intent as if it had been created out of band
func (m *MockPaymentProcessor) AddIntent(intent PaymentIntent) {
	m.mu.Lock()
	m.intents[intent.ID] = &intent
	m.mu.Unlock()
}

// Requests returns the create requests seen so far
func (m *MockPaymentProcessor) Requests() []PaymentIntentRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PaymentIntentRequest(nil), m.requests...)
}
