package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/kendall-kelly/freelance-market-api/models"
	"github.com/kendall-kelly/freelance-market-api/repositories"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ServiceInput is the data needed to publish a new service listing
type ServiceInput struct {
	FreelancerID string
	Title        string
	Description  string
	Category     string
	Price        decimal.Decimal
	DeliveryTime int
	ImageURL     *string
	Images       []string
	Tags         []string
	Plans        []models.Plan
	FAQs         []models.FAQ
}

// Fields a partial update may never touch
var readOnlyServiceFields = map[string]bool{
	"id":             true,
	"freelancerId":   true,
	"imagesUploaded": true,
	"createdAt":      true,
	"updatedAt":      true,
}

// CatalogService manages service listings
type CatalogService struct {
	services ServiceStore
	images   ImageService
}

// NewCatalogService creates a catalog service. images may be nil when no
// upload backend is configured.
func NewCatalogService(store ServiceStore, images ImageService) *CatalogService {
	return &CatalogService{services: store, images: images}
}

// CreateService publishes a new, active listing
func (s *CatalogService) CreateService(ctx context.Context, input ServiceInput) (*models.Service, error) {
	if strings.TrimSpace(input.FreelancerID) == "" {
		return nil, fmt.Errorf("%w: freelancerId is required", ErrValidation)
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if input.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if input.DeliveryTime <= 0 {
		return nil, fmt.Errorf("%w: deliveryTime must be at least one day", ErrValidation)
	}

	service := &models.Service{
		FreelancerID: input.FreelancerID,
		Title:        input.Title,
		Description:  input.Description,
		Category:     input.Category,
		Price:        input.Price,
		DeliveryTime: input.DeliveryTime,
		ImageURL:     input.ImageURL,
		Images:       orEmpty(input.Images),
		Tags:         orEmpty(input.Tags),
		Plans:        orEmpty(input.Plans),
		FAQs:         orEmpty(input.FAQs),
		IsActive:     true,
	}

	if err := s.services.Create(ctx, service); err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	return service, nil
}

// GetService returns a single listing
func (s *CatalogService) GetService(ctx context.Context, id string) (*models.Service, error) {
	service, err := s.services.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get service %s: %w", id, err)
	}
	return service, nil
}

// ListServices returns listings matching filter, most recently updated first
func (s *CatalogService) ListServices(ctx context.Context, filter repositories.ServiceFilter) ([]models.Service, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, fmt.Errorf("%w: minPrice is greater than maxPrice", ErrValidation)
	}
	services, err := s.services.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

// UpdateService applies a partial update keyed by API field names. Once the
// owner has uploaded media, images and imageUrl in the update are dropped
// so uploads are never overwritten.
func (s *CatalogService) UpdateService(ctx context.Context, id string, partial map[string]any) (*models.Service, error) {
	existing, err := s.services.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get service %s: %w", id, err)
	}

	values := make(map[string]any, len(partial))
	for field, raw := range partial {
		if readOnlyServiceFields[field] {
			return nil, fmt.Errorf("%w: %s cannot be updated", ErrValidation, field)
		}
		if existing.ImagesUploaded && (field == "images" || field == "imageUrl") {
			continue
		}
		v, err := coerceServiceField(field, raw)
		if err != nil {
			return nil, err
		}
		values[field] = v
	}

	columns, err := models.ServiceFields.ToColumns(values)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	service, err := s.services.Update(ctx, id, columns)
	if err != nil {
		return nil, fmt.Errorf("failed to update service %s: %w", id, err)
	}
	return service, nil
}

// DeleteService permanently removes a listing
func (s *CatalogService) DeleteService(ctx context.Context, id string) error {
	if err := s.services.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete service %s: %w", id, err)
	}
	return nil
}

// AttachImage uploads an image for a listing owned by actorID and records
// it as owner-uploaded media
func (s *CatalogService) AttachImage(ctx context.Context, id, actorID string, fileHeader *multipart.FileHeader) (*models.Service, error) {
	if s.images == nil {
		return nil, errors.New("image storage is not configured")
	}

	existing, err := s.services.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get service %s: %w", id, err)
	}
	if existing.FreelancerID != actorID {
		return nil, ErrForbidden
	}

	key, err := s.images.UploadImage(ctx, fileHeader)
	if err != nil {
		return nil, err
	}

	images := append([]string{}, existing.Images...)
	images = append(images, key)
	columns := map[string]any{
		"images":          datatypes.JSONSlice[string](images),
		"images_uploaded": true,
	}
	if existing.ImageURL == nil || *existing.ImageURL == "" {
		columns["image_url"] = key
	}

	service, err := s.services.Update(ctx, id, columns)
	if err != nil {
		if delErr := s.images.DeleteImage(ctx, key); delErr != nil {
			return nil, fmt.Errorf("failed to record image (cleanup failed: %v): %w", delErr, err)
		}
		return nil, fmt.Errorf("failed to record image: %w", err)
	}
	return service, nil
}

// coerceServiceField converts a decoded JSON value into the Go type stored
// for field and checks the per-field constraints
func coerceServiceField(field string, raw any) (any, error) {
	invalid := func(err error) error {
		return fmt.Errorf("%w: invalid %s: %v", ErrValidation, field, err)
	}

	switch field {
	case "title":
		v, err := decodeAs[string](raw)
		if err != nil {
			return nil, invalid(err)
		}
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("%w: title is required", ErrValidation)
		}
		return v, nil
	case "description", "category":
		v, err := decodeAs[string](raw)
		if err != nil {
			return nil, invalid(err)
		}
		return v, nil
	case "price":
		v, err := decodeAs[decimal.Decimal](raw)
		if err != nil {
			return nil, invalid(err)
		}
		if v.IsNegative() {
			return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
		}
		return v, nil
	case "deliveryTime":
		v, err := decodeAs[int](raw)
		if err != nil {
			return nil, invalid(err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("%w: deliveryTime must be at least one day", ErrValidation)
		}
		return v, nil
	case "imageUrl":
		v, err := decodeAs[*string](raw)
		if err != nil {
			return nil, invalid(err)
		}
		return v, nil
	case "isActive":
		v, err := decodeAs[bool](raw)
		if err != nil {
			return nil, invalid(err)
		}
		return v, nil
	case "images", "tags":
		v, err := decodeAs[datatypes.JSONSlice[string]](raw)
		if err != nil {
			return nil, invalid(err)
		}
		return orEmpty(v), nil
	case "plans":
		v, err := decodeAs[datatypes.JSONSlice[models.Plan]](raw)
		if err != nil {
			return nil, invalid(err)
		}
		return orEmpty(v), nil
	case "faqs":
		v, err := decodeAs[datatypes.JSONSlice[models.FAQ]](raw)
		if err != nil {
			return nil, invalid(err)
		}
		return orEmpty(v), nil
	}
	// Unknown names fall through to the field map, which rejects them
	return raw, nil
}

func decodeAs[T any](raw any) (T, error) {
	var out T
	b, err := json.Marshal(raw)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(b, &out)
	return out, err
}

func orEmpty[S ~[]E, E any](s S) S {
	if s == nil {
		return S{}
	}
	return s
}
