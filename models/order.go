package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusInProgress = "in_progress"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
	OrderStatusDisputed   = "disputed"
)

// OrderStatuses lists every status an order can hold
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusInProgress,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusDisputed,
}

// Transition describes a legal status change and the party allowed to make it
type Transition struct {
	From   string
	To     string
	Actor  string // RoleClient or RoleFreelancer
	Action string
}

// OrderTransitions is the order state machine. Anything not listed here is
// an illegal transition for a role-gated action.
var OrderTransitions = []Transition{
	{From: OrderStatusPending, To: OrderStatusInProgress, Actor: RoleFreelancer, Action: "accept"},
	{From: OrderStatusPending, To: OrderStatusCancelled, Actor: RoleFreelancer, Action: "decline"},
	{From: OrderStatusInProgress, To: OrderStatusCompleted, Actor: RoleFreelancer, Action: "complete"},
	{From: OrderStatusCompleted, To: OrderStatusDisputed, Actor: RoleClient, Action: "dispute"},
}

// IsValidOrderStatus reports whether status belongs to the order taxonomy
func IsValidOrderStatus(status string) bool {
	for _, s := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// FindTransition looks up the legal transition from one status to another
func FindTransition(from, to string) (Transition, bool) {
	for _, t := range OrderTransitions {
		if t.From == from && t.To == to {
			return t, true
		}
	}
	return Transition{}, false
}

// Order is a transaction between a client and a freelancer over one service
type Order struct {
	ID           string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ServiceID    string          `gorm:"not null;index;type:varchar(36)" json:"serviceId"`
	Service      *Service        `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	ClientID     string          `gorm:"not null;index;type:varchar(36)" json:"clientId"`
	Client       *User           `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	FreelancerID string          `gorm:"not null;index;type:varchar(36)" json:"freelancerId"`
	Freelancer   *User           `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
	Status       string          `gorm:"not null;default:'pending';index" json:"status"`
	Requirements string          `gorm:"type:text" json:"requirements"`
	DeliveryDate *time.Time      `json:"deliveryDate,omitempty"`
	Amount       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Version      int             `gorm:"not null;default:1" json:"version"` // bumped on every status write
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// BeforeCreate assigns a UUID when the caller did not supply one
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// IsParty reports whether userID is the client or the freelancer of the order
func (o *Order) IsParty(userID string) bool {
	return o.ClientID == userID || o.FreelancerID == userID
}
