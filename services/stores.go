package services

import (
	"context"
	"time"

	"github.com/kendall-kelly/freelance-market-api/models"
	"github.com/kendall-kelly/freelance-market-api/repositories"
)

// The store interfaces are the persistence gateway as seen by the
// services. The gorm repositories satisfy them; tests back them with
// sqlite in memory.

type ServiceStore interface {
	Create(ctx context.Context, service *models.Service) error
	FindByID(ctx context.Context, id string) (*models.Service, error)
	List(ctx context.Context, filter repositories.ServiceFilter) ([]models.Service, error)
	Update(ctx context.Context, id string, columns map[string]any) (*models.Service, error)
	Delete(ctx context.Context, id string) error
}

type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	FindDetailed(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, filter repositories.OrderFilter) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time, expectedVersion *int) (*models.Order, error)
}

type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	FindByIntentID(ctx context.Context, intentID string) (*models.Payment, error)
	UpdateByOrderID(ctx context.Context, orderID string, columns map[string]any) (*models.Payment, error)
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByAuthID(ctx context.Context, authID string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id string, columns map[string]any) (*models.User, error)
}

type MessageStore interface {
	Create(ctx context.Context, message *models.Message) error
	FindByID(ctx context.Context, id string) (*models.Message, error)
	Conversation(ctx context.Context, userA, userB string, limit int) ([]models.Message, error)
	Group(ctx context.Context, groupID string, limit int) ([]models.Message, error)
	MarkRead(ctx context.Context, id string) (*models.Message, error)
}
