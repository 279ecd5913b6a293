package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Plan is a tiered sub-offer of a service
type Plan struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Features    []string        `json:"features"`
	Delivery    int             `json:"delivery"` // days
}

// FAQ is a question/answer pair shown on a service listing
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Service is a freelancer's offering in the catalog
type Service struct {
	ID             string                      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	FreelancerID   string                      `gorm:"not null;index;type:varchar(36)" json:"freelancerId"`
	Freelancer     *User                       `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
	Title          string                      `gorm:"not null" json:"title"`
	Description    string                      `gorm:"type:text" json:"description"`
	Category       string                      `gorm:"index" json:"category"`
	Price          decimal.Decimal             `gorm:"type:numeric(12,2);not null" json:"price"`
	DeliveryTime   int                         `gorm:"not null;check:delivery_time > 0" json:"deliveryTime"` // days
	ImageURL       *string                     `json:"imageUrl,omitempty"`
	Images         datatypes.JSONSlice[string] `json:"images"`
	ImagesUploaded bool                        `gorm:"not null;default:false" json:"imagesUploaded"` // set once media was uploaded by the owner
	Tags           datatypes.JSONSlice[string] `json:"tags"`
	IsActive       bool                        `gorm:"not null;default:true;index" json:"isActive"`
	Plans          datatypes.JSONSlice[Plan]   `json:"plans"`
	FAQs           datatypes.JSONSlice[FAQ]    `gorm:"column:faqs" json:"faqs"`
	CreatedAt      time.Time                   `json:"createdAt"`
	UpdatedAt      time.Time                   `gorm:"index" json:"updatedAt"`
}

// TableName specifies the table name for the Service model
func (Service) TableName() string {
	return "services"
}

// BeforeCreate assigns a UUID when the caller did not supply one
func (s *Service) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// FindPlan returns the plan with the given name, if any
func (s *Service) FindPlan(name string) (*Plan, bool) {
	for i := range s.Plans {
		if s.Plans[i].Name == name {
			return &s.Plans[i], true
		}
	}
	return nil, false
}
