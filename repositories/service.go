package repositories

import (
	"context"
	"strings"

	"github.com/kendall-kelly/freelance-market-api/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ServiceFilter narrows a catalog listing. Zero values mean "no filter".
type ServiceFilter struct {
	Category        string
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	FreelancerID    string
	Search          string
	IncludeInactive bool
	Limit           int
	Offset          int
}

// ServiceRepository handles database operations for service listings
type ServiceRepository struct {
	db *gorm.DB
}

// NewServiceRepository creates a new service repository instance
func NewServiceRepository(db *gorm.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

// Create inserts a new service
func (r *ServiceRepository) Create(ctx context.Context, service *models.Service) error {
	return r.db.WithContext(ctx).Create(service).Error
}

// FindByID retrieves a service by its ID
func (r *ServiceRepository) FindByID(ctx context.Context, id string) (*models.Service, error) {
	var service models.Service
	if err := r.db.WithContext(ctx).First(&service, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &service, nil
}

// List returns services matching filter, most recently updated first
func (r *ServiceRepository) List(ctx context.Context, filter ServiceFilter) ([]models.Service, error) {
	col := func(field string) string {
		c, _ := models.ServiceFields.Column(field)
		return c
	}

	q := r.db.WithContext(ctx).Model(&models.Service{})
	if !filter.IncludeInactive {
		q = q.Where(col("isActive")+" = ?", true)
	}
	if filter.Category != "" {
		q = q.Where(col("category")+" = ?", filter.Category)
	}
	if filter.FreelancerID != "" {
		q = q.Where(col("freelancerId")+" = ?", filter.FreelancerID)
	}
	if filter.MinPrice != nil {
		q = q.Where(col("price")+" >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where(col("price")+" <= ?", *filter.MaxPrice)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER("+col("title")+") LIKE ? OR LOWER("+col("description")+") LIKE ?", pattern, pattern)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var services []models.Service
	err := q.Order(col("updatedAt") + " DESC").Find(&services).Error
	return services, err
}

// Update writes the given columns and returns the refreshed row
func (r *ServiceRepository) Update(ctx context.Context, id string, columns map[string]any) (*models.Service, error) {
	db := r.db.WithContext(ctx)
	if len(columns) > 0 {
		res := db.Model(&models.Service{}).Where("id = ?", id).Updates(columns)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return r.FindByID(ctx, id)
}

// Delete permanently removes a service
func (r *ServiceRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Service{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
