package repositories

import (
	"context"

	"github.com/kendall-kelly/freelance-market-api/models"
	"gorm.io/gorm"
)

// PaymentRepository handles database operations for payments
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a new payment
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// FindByOrderID retrieves the payment attached to an order
func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "order_id = ?", orderID).Error; err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

// FindByIntentID retrieves a payment by its processor intent ID
func (r *PaymentRepository) FindByIntentID(ctx context.Context, intentID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "payment_intent_id = ?", intentID).Error; err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

// UpdateByOrderID writes columns onto the payment of an order and bumps its
// version
func (r *PaymentRepository) UpdateByOrderID(ctx context.Context, orderID string, columns map[string]any) (*models.Payment, error) {
	values := make(map[string]any, len(columns)+1)
	for k, v := range columns {
		values[k] = v
	}
	values["version"] = gorm.Expr("version + 1")

	res := r.db.WithContext(ctx).Model(&models.Payment{}).Where("order_id = ?", orderID).Updates(values)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByOrderID(ctx, orderID)
}
