package repositories

import (
	"context"
	"time"

	"github.com/kendall-kelly/freelance-market-api/models"
	"gorm.io/gorm"
)

// OrderFilter narrows an order listing. PartyID matches either side of the
// order.
type OrderFilter struct {
	ClientID     string
	FreelancerID string
	PartyID      string
	Status       string
}

// OrderRepository handles database operations for orders
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository instance
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts a new order
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID retrieves an order without its associations
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// FindDetailed retrieves an order together with its service and both parties
func (r *OrderRepository) FindDetailed(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Service").
		Preload("Client").
		Preload("Freelancer").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// List returns orders matching filter, newest first
func (r *OrderRepository) List(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{}).Preload("Service")
	if filter.ClientID != "" {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	if filter.FreelancerID != "" {
		q = q.Where("freelancer_id = ?", filter.FreelancerID)
	}
	if filter.PartyID != "" {
		q = q.Where("client_id = ? OR freelancer_id = ?", filter.PartyID, filter.PartyID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var orders []models.Order
	err := q.Order("created_at DESC").Find(&orders).Error
	return orders, err
}

// UpdateStatus writes a new status and timestamp and bumps the version.
// When expectedVersion is non-nil the write only lands if the stored
// version still matches; otherwise ErrStaleVersion is returned.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time, expectedVersion *int) (*models.Order, error) {
	db := r.db.WithContext(ctx)

	q := db.Model(&models.Order{}).Where("id = ?", id)
	if expectedVersion != nil {
		q = q.Where("version = ?", *expectedVersion)
	}
	res := q.Updates(map[string]any{
		"status":     status,
		"updated_at": updatedAt,
		"version":    gorm.Expr("version + 1"),
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrStaleVersion
	}
	return r.FindByID(ctx, id)
}
