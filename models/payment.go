package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Payment statuses
const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusCompleted  = "completed"
	PaymentStatusFailed     = "failed"
	PaymentStatusRefunded   = "refunded"
)

// Payment records funds movement for an order. Status is driven by
// payment processor webhooks, never by users directly.
type Payment struct {
	ID              string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderID         string          `gorm:"not null;uniqueIndex;type:varchar(36)" json:"orderId"` // one payment per order
	PayerID         string          `gorm:"not null;index;type:varchar(36)" json:"payerId"`
	ReceiverID      string          `gorm:"not null;index;type:varchar(36)" json:"receiverId"`
	Amount          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	PaymentMethod   string          `gorm:"not null" json:"paymentMethod"`
	Status          string          `gorm:"not null;default:'pending';index" json:"status"`
	PaymentIntentID string          `gorm:"index" json:"paymentIntentId"`
	TransactionID   *string         `json:"transactionId,omitempty"`
	PaymentDetails  datatypes.JSON  `json:"paymentDetails"`
	Version         int             `gorm:"not null;default:1" json:"version"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// TableName specifies the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}

// BeforeCreate assigns a UUID when the caller did not supply one
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
