package controllers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/freelance-market-api/services"
	"github.com/shopspring/decimal"
)

// maxWebhookBodyBytes caps the webhook payload read into memory
const maxWebhookBodyBytes = int64(65536)

// CreatePaymentIntentRequest is the checkout payload from the frontend
type CreatePaymentIntentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	OrderID       string          `json:"orderId" binding:"required"`
	PayerID       string          `json:"payerId" binding:"required"`
	ReceiverID    string          `json:"receiverId" binding:"required"`
}

// CreatePaymentIntent handles POST /api/create-payment-intent
func CreatePaymentIntent(c *gin.Context) {
	var req CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request: " + err.Error()}})
		return
	}

	if services.GetPaymentProcessor() == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Payment processing is not configured"}})
		return
	}

	result, err := appServices().Payments.InitiatePayment(c.Request.Context(), services.PaymentRequest{
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		OrderID:       req.OrderID,
		PayerID:       req.PayerID,
		ReceiverID:    req.ReceiverID,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrPaymentExists):
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": err.Error()}})
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "Order not found"}})
		default:
			log.Printf("Failed to create payment intent for order %s: %v", req.OrderID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Failed to create payment intent"}})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"clientSecret": result.ClientSecret})
}

// StripeWebhook handles POST /api/webhooks/stripe. The body is read raw
// because the signature covers the exact bytes sent.
func StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Failed to read request body"}})
		return
	}

	event, err := appServices().Payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidSignature):
			log.Printf("Rejected webhook: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Webhook signature verification failed"}})
		case errors.Is(err, services.ErrUnsupportedEvent), errors.Is(err, services.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": err.Error()}})
		default:
			// A 5xx makes the processor redeliver
			log.Printf("Failed to process webhook: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Webhook processing failed"}})
		}
		return
	}

	log.Printf("Processed webhook %s", event.EventType())
	c.JSON(http.StatusOK, gin.H{"received": true})
}
