package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/kendall-kelly/freelance-market-api/config"
	"github.com/kendall-kelly/freelance-market-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testWebhookSecret = "whsec_test_secret"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to connect to test database")

	// Every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.Migrate(db), "Failed to migrate test database")
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, role, email string) *models.User {
	t.Helper()

	user := &models.User{
		AuthID:    "auth|" + email,
		Email:     email,
		FirstName: "Test",
		LastName:  role,
		Role:      role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestService(t *testing.T, db *gorm.DB, freelancerID string, price int64) *models.Service {
	t.Helper()

	service := &models.Service{
		FreelancerID: freelancerID,
		Title:        "Logo design",
		Description:  "A memorable logo",
		Category:     "design",
		Price:        decimal.NewFromInt(price),
		DeliveryTime: 3,
		Images:       []string{},
		Tags:         []string{},
		Plans:        []models.Plan{},
		FAQs:         []models.FAQ{},
		IsActive:     true,
	}
	require.NoError(t, db.Create(service).Error)
	return service
}

// fixedClock returns a clock frozen at a single instant
func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// marketplace is a fully wired set of services on one test database
type marketplace struct {
	db         *gorm.DB
	svc        *Services
	processor  *MockPaymentProcessor
	hub        *Hub
	client     *models.User
	freelancer *models.User
	service    *models.Service
}

func setupMarketplace(t *testing.T) *marketplace {
	t.Helper()

	db := setupTestDB(t)
	processor := NewMockPaymentProcessor()
	hub := NewHub()
	svc := New(db, Options{
		Processor:     processor,
		Images:        NewMockImageService(),
		Hub:           hub,
		Currency:      "USD",
		WebhookSecret: testWebhookSecret,
	})

	client := createTestUser(t, db, models.RoleClient, "client@example.com")
	freelancer := createTestUser(t, db, models.RoleFreelancer, "freelancer@example.com")
	return &marketplace{
		db:         db,
		svc:        svc,
		processor:  processor,
		hub:        hub,
		client:     client,
		freelancer: freelancer,
		service:    createTestService(t, db, freelancer.ID, 2500),
	}
}

func (m *marketplace) placeOrder(t *testing.T) *models.Order {
	t.Helper()

	order, err := m.svc.Orders.Checkout(context.Background(), m.client.ID, m.service.ID, "Blue and white", "")
	require.NoError(t, err)
	return order
}

func (m *marketplace) reloadOrder(t *testing.T, id string) *models.Order {
	t.Helper()

	var order models.Order
	require.NoError(t, m.db.First(&order, "id = ?", id).Error)
	return &order
}

func (m *marketplace) reloadPayment(t *testing.T, orderID string) *models.Payment {
	t.Helper()

	var payment models.Payment
	require.NoError(t, m.db.First(&payment, "order_id = ?", orderID).Error)
	return &payment
}

// webhookPayload builds a processor event envelope around object
func webhookPayload(t *testing.T, eventType string, object map[string]any) []byte {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"id":      fmt.Sprintf("evt_%d", time.Now().UnixNano()),
		"object":  "event",
		"type":    eventType,
		"created": time.Now().Unix(),
		"data":    map[string]any{"object": object},
	})
	require.NoError(t, err)
	return payload
}

// signWebhook produces a Stripe-Signature header for payload
func signWebhook(secret string, payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}
