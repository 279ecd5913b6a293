package controllers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/freelance-market-api/config"
	"github.com/kendall-kelly/freelance-market-api/middleware"
	"github.com/kendall-kelly/freelance-market-api/models"
	"github.com/kendall-kelly/freelance-market-api/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testWebhookSecret = "whsec_controller_test"

// testEnv is the global state a controller test runs against
type testEnv struct {
	db        *gorm.DB
	processor *services.MockPaymentProcessor
	images    *services.MockImageService
	hub       *services.Hub
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to connect to test database")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, config.Migrate(db), "Failed to migrate test database")

	env := &testEnv{
		db:        db,
		processor: services.NewMockPaymentProcessor(),
		images:    services.NewMockImageService(),
		hub:       services.NewHub(),
	}

	config.SetDB(db)
	config.SetConfig(&config.Config{
		GoEnv:               "test",
		PaymentCurrency:     "usd",
		StripeWebhookSecret: testWebhookSecret,
		AllowedOrigins:      []string{"*"},
		UploadDir:           t.TempDir(),
	})
	env.processor.SetAsMockForTesting()
	env.images.SetAsMockForTesting()
	services.SetHub(env.hub)

	t.Cleanup(func() {
		config.SetConfig(nil)
		services.SetPaymentProcessor(nil)
		services.SetImageService(nil)
		services.SetHub(services.NewHub())
	})
	return env
}

func (e *testEnv) createUser(t *testing.T, role, email string) *models.User {
	t.Helper()

	user := &models.User{
		AuthID:    "auth0|" + email,
		Email:     email,
		FirstName: "Test",
		LastName:  role,
		Role:      role,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createService(t *testing.T, freelancer *models.User, price int64) *models.Service {
	t.Helper()

	service := &models.Service{
		FreelancerID: freelancer.ID,
		Title:        "Landing page",
		Description:  "A responsive landing page",
		Category:     "web",
		Price:        decimal.NewFromInt(price),
		DeliveryTime: 5,
		Images:       []string{},
		Tags:         []string{"html"},
		Plans: []models.Plan{
			{Name: "premium", Price: decimal.NewFromInt(price * 2), Delivery: 10},
		},
		FAQs:     []models.FAQ{},
		IsActive: true,
	}
	require.NoError(t, e.db.Create(service).Error)
	return service
}

func (e *testEnv) createOrder(t *testing.T, service *models.Service, client *models.User, status string) *models.Order {
	t.Helper()

	now := time.Now().UTC()
	order := &models.Order{
		ServiceID:    service.ID,
		ClientID:     client.ID,
		FreelancerID: service.FreelancerID,
		Status:       status,
		Amount:       service.Price,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, e.db.Create(order).Error)
	return order
}

// setupTestRouter creates a gin engine in test mode
func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// mockAuthMiddleware stands in for EnsureValidToken
func mockAuthMiddleware(authID string, claims middleware.CustomClaims) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", authID)
		c.Set("validated_claims", &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: authID},
			CustomClaims:     &claims,
		})
		c.Next()
	}
}

func asUser(user *models.User) gin.HandlerFunc {
	return mockAuthMiddleware(user.AuthID, middleware.CustomClaims{Role: user.Role, Email: user.Email})
}

// doJSON serves a request with an optional JSON body and decodes the reply
func doJSON(t *testing.T, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	}
	return w, response
}

func errorCode(response map[string]interface{}) string {
	errorObj, ok := response["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := errorObj["code"].(string)
	return code
}

// signedWebhook builds a processor event and its Stripe-Signature header
func signedWebhook(t *testing.T, eventType string, object map[string]any) ([]byte, string) {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"id":      fmt.Sprintf("evt_%d", time.Now().UnixNano()),
		"object":  "event",
		"type":    eventType,
		"created": time.Now().Unix(),
		"data":    map[string]any{"object": object},
	})
	require.NoError(t, err)

	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	return payload, fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}
