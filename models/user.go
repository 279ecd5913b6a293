package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles
const (
	RoleClient     = "client"
	RoleFreelancer = "freelancer"
	RoleAdmin      = "admin"
)

// User mirrors an identity owned by the external auth provider so that
// services and orders can be joined against it
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	AuthID    string    `gorm:"uniqueIndex;not null" json:"authId"` // auth provider subject ('sub' claim)
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	FirstName string    `gorm:"not null;default:''" json:"firstName"`
	LastName  string    `gorm:"not null;default:''" json:"lastName"`
	Role      string    `gorm:"not null;default:'client'" json:"role"` // client, freelancer or admin
	Avatar    *string   `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a UUID when the caller did not supply one
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsValidRole reports whether role is one of the known user roles
func IsValidRole(role string) bool {
	switch role {
	case RoleClient, RoleFreelancer, RoleAdmin:
		return true
	}
	return false
}
