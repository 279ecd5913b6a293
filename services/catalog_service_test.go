package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"testing"
	"time"

	"github.com/kendall-kelly/freelance-market-api/models"
	"github.com/kendall-kelly/freelance-market-api/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T) (*CatalogService, *MockImageService, *models.User) {
	t.Helper()
	db := setupTestDB(t)
	images := NewMockImageService()
	freelancer := createTestUser(t, db, models.RoleFreelancer, "designer@example.com")
	return NewCatalogService(repositories.NewServiceRepository(db), images), images, freelancer
}

func testFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["image"][0]
}

func TestCreateService_RoundTrip(t *testing.T) {
	catalog, _, freelancer := newCatalog(t)
	ctx := context.Background()
	imageURL := "https://cdn.example.com/cover.png"

	input := ServiceInput{
		FreelancerID: freelancer.ID,
		Title:        "Landing page",
		Description:  "Responsive landing page",
		Category:     "web",
		Price:        decimal.RequireFromString("149.50"),
		DeliveryTime: 5,
		ImageURL:     &imageURL,
		Images:       []string{"https://cdn.example.com/a.png"},
		Tags:         []string{"html", "css"},
		Plans: []models.Plan{
			{Name: "basic", Price: decimal.NewFromInt(100), Description: "One page", Features: []string{"1 page"}, Delivery: 3},
		},
		FAQs: []models.FAQ{{Question: "Revisions?", Answer: "Two"}},
	}

	created, err := catalog.CreateService(ctx, input)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)
	assert.False(t, created.ImagesUploaded)

	got, err := catalog.GetService(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, input.FreelancerID, got.FreelancerID)
	assert.Equal(t, input.Title, got.Title)
	assert.Equal(t, input.Description, got.Description)
	assert.Equal(t, input.Category, got.Category)
	assert.True(t, input.Price.Equal(got.Price), "price %s != %s", input.Price, got.Price)
	assert.Equal(t, input.DeliveryTime, got.DeliveryTime)
	require.NotNil(t, got.ImageURL)
	assert.Equal(t, imageURL, *got.ImageURL)
	assert.Equal(t, input.Images, []string(got.Images))
	assert.Equal(t, input.Tags, []string(got.Tags))
	require.Len(t, got.Plans, 1)
	assert.Equal(t, "basic", got.Plans[0].Name)
	assert.True(t, decimal.NewFromInt(100).Equal(got.Plans[0].Price))
	assert.Equal(t, []string{"1 page"}, got.Plans[0].Features)
	assert.Equal(t, input.FAQs, []models.FAQ(got.FAQs))
	assert.True(t, got.IsActive)
}

func TestCreateService_Validation(t *testing.T) {
	catalog, _, freelancer := newCatalog(t)

	tests := []struct {
		name  string
		input ServiceInput
	}{
		{"missing title", ServiceInput{FreelancerID: freelancer.ID, Price: decimal.NewFromInt(10), DeliveryTime: 1}},
		{"negative price", ServiceInput{FreelancerID: freelancer.ID, Title: "x", Price: decimal.NewFromInt(-1), DeliveryTime: 1}},
		{"zero delivery", ServiceInput{FreelancerID: freelancer.ID, Title: "x", Price: decimal.NewFromInt(10)}},
		{"missing freelancer", ServiceInput{Title: "x", Price: decimal.NewFromInt(10), DeliveryTime: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.CreateService(context.Background(), tt.input)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestGetService_NotFound(t *testing.T) {
	catalog, _, _ := newCatalog(t)

	_, err := catalog.GetService(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListServices_Filters(t *testing.T) {
	catalog, _, freelancer := newCatalog(t)
	ctx := context.Background()

	mk := func(title, category string, price int64) *models.Service {
		s, err := catalog.CreateService(ctx, ServiceInput{
			FreelancerID: freelancer.ID,
			Title:        title,
			Description:  title + " description",
			Category:     category,
			Price:        decimal.NewFromInt(price),
			DeliveryTime: 2,
		})
		require.NoError(t, err)
		return s
	}

	logo := mk("Logo Design", "design", 50)
	mk("Poster", "design", 150)
	mk("API Backend", "development", 900)
	hidden := mk("Retired Banner", "design", 20)
	_, err := catalog.UpdateService(ctx, hidden.ID, map[string]any{"isActive": false})
	require.NoError(t, err)

	t.Run("category only returns active matches", func(t *testing.T) {
		services, err := catalog.ListServices(ctx, repositories.ServiceFilter{Category: "design"})
		require.NoError(t, err)
		assert.Len(t, services, 2)
		for _, s := range services {
			assert.Equal(t, "design", s.Category)
			assert.True(t, s.IsActive)
		}
	})

	t.Run("include inactive", func(t *testing.T) {
		services, err := catalog.ListServices(ctx, repositories.ServiceFilter{Category: "design", IncludeInactive: true})
		require.NoError(t, err)
		assert.Len(t, services, 3)
	})

	t.Run("price range", func(t *testing.T) {
		min, max := decimal.NewFromInt(40), decimal.NewFromInt(200)
		services, err := catalog.ListServices(ctx, repositories.ServiceFilter{MinPrice: &min, MaxPrice: &max})
		require.NoError(t, err)
		assert.Len(t, services, 2)
	})

	t.Run("inverted price range", func(t *testing.T) {
		min, max := decimal.NewFromInt(200), decimal.NewFromInt(40)
		_, err := catalog.ListServices(ctx, repositories.ServiceFilter{MinPrice: &min, MaxPrice: &max})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("search is case-insensitive over title and description", func(t *testing.T) {
		services, err := catalog.ListServices(ctx, repositories.ServiceFilter{Search: "logo"})
		require.NoError(t, err)
		require.Len(t, services, 1)
		assert.Equal(t, logo.ID, services[0].ID)

		services, err = catalog.ListServices(ctx, repositories.ServiceFilter{Search: "BACKEND DESC"})
		require.NoError(t, err)
		assert.Len(t, services, 1)
	})

	t.Run("freelancer filter", func(t *testing.T) {
		services, err := catalog.ListServices(ctx, repositories.ServiceFilter{FreelancerID: "someone-else"})
		require.NoError(t, err)
		assert.Empty(t, services)
	})
}

func TestListServices_MostRecentlyUpdatedFirst(t *testing.T) {
	catalog, _, freelancer := newCatalog(t)
	ctx := context.Background()

	var ids []string
	for _, title := range []string{"first", "second", "third"} {
		s, err := catalog.CreateService(ctx, ServiceInput{FreelancerID: freelancer.ID, Title: title, Price: decimal.NewFromInt(1), DeliveryTime: 1})
		require.NoError(t, err)
		ids = append(ids, s.ID)
		time.Sleep(2 * time.Millisecond)
	}

	_, err := catalog.UpdateService(ctx, ids[0], map[string]any{"title": "first, edited"})
	require.NoError(t, err)

	services, err := catalog.ListServices(ctx, repositories.ServiceFilter{})
	require.NoError(t, err)
	require.Len(t, services, 3)
	assert.Equal(t, []string{ids[0], ids[2], ids[1]}, []string{services[0].ID, services[1].ID, services[2].ID})
}

func TestUpdateService(t *testing.T) {
	catalog, _, freelancer := newCatalog(t)
	ctx := context.Background()

	created, err := catalog.CreateService(ctx, ServiceInput{FreelancerID: freelancer.ID, Title: "Logo", Price: decimal.NewFromInt(10), DeliveryTime: 1})
	require.NoError(t, err)

	t.Run("partial update maps field names to columns", func(t *testing.T) {
		updated, err := catalog.UpdateService(ctx, created.ID, map[string]any{
			"deliveryTime": float64(7),
			"price":        "12.50",
			"tags":         []any{"vector", "brand"},
			"images":       []any{"https://cdn.example.com/1.png"},
		})
		require.NoError(t, err)
		assert.Equal(t, 7, updated.DeliveryTime)
		assert.True(t, decimal.RequireFromString("12.5").Equal(updated.Price))
		assert.Equal(t, []string{"vector", "brand"}, []string(updated.Tags))
		assert.Equal(t, []string{"https://cdn.example.com/1.png"}, []string(updated.Images))
		assert.Equal(t, "Logo", updated.Title)
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		_, err := catalog.UpdateService(ctx, created.ID, map[string]any{"colour": "red"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("read-only field is rejected", func(t *testing.T) {
		_, err := catalog.UpdateService(ctx, created.ID, map[string]any{"freelancerId": "other"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("constraint violations are rejected", func(t *testing.T) {
		_, err := catalog.UpdateService(ctx, created.ID, map[string]any{"deliveryTime": 0})
		assert.ErrorIs(t, err, ErrValidation)
		_, err = catalog.UpdateService(ctx, created.ID, map[string]any{"price": -5})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("missing service", func(t *testing.T) {
		_, err := catalog.UpdateService(ctx, "missing", map[string]any{"title": "x"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpdateService_UploadedImagesAreNotOverwritten(t *testing.T) {
	catalog, images, freelancer := newCatalog(t)
	ctx := context.Background()

	created, err := catalog.CreateService(ctx, ServiceInput{FreelancerID: freelancer.ID, Title: "Logo", Price: decimal.NewFromInt(10), DeliveryTime: 1})
	require.NoError(t, err)

	withImage, err := catalog.AttachImage(ctx, created.ID, freelancer.ID, testFileHeader(t, "cover.png", []byte("png")))
	require.NoError(t, err)
	require.True(t, withImage.ImagesUploaded)
	key := withImage.Images[0]
	assert.True(t, images.ImageExists(key))

	updated, err := catalog.UpdateService(ctx, created.ID, map[string]any{
		"images":   []any{"https://elsewhere.example.com/x.png"},
		"imageUrl": "https://elsewhere.example.com/x.png",
		"title":    "Logo v2",
	})
	require.NoError(t, err)
	assert.Equal(t, "Logo v2", updated.Title)
	assert.Equal(t, []string{key}, []string(updated.Images))
	require.NotNil(t, updated.ImageURL)
	assert.Equal(t, key, *updated.ImageURL)
}

func TestAttachImage(t *testing.T) {
	catalog, images, freelancer := newCatalog(t)
	ctx := context.Background()

	created, err := catalog.CreateService(ctx, ServiceInput{FreelancerID: freelancer.ID, Title: "Logo", Price: decimal.NewFromInt(10), DeliveryTime: 1})
	require.NoError(t, err)

	t.Run("only the owner can upload", func(t *testing.T) {
		_, err := catalog.AttachImage(ctx, created.ID, "someone-else", testFileHeader(t, "a.png", []byte("png")))
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("invalid format is rejected before storage", func(t *testing.T) {
		_, err := catalog.AttachImage(ctx, created.ID, freelancer.ID, testFileHeader(t, "a.gif", []byte("gif")))
		assert.Error(t, err)
		assert.Empty(t, images.uploadedImages)
	})

	t.Run("appends and keeps the first image as cover", func(t *testing.T) {
		first, err := catalog.AttachImage(ctx, created.ID, freelancer.ID, testFileHeader(t, "one.png", []byte("1")))
		require.NoError(t, err)
		second, err := catalog.AttachImage(ctx, created.ID, freelancer.ID, testFileHeader(t, "two.jpg", []byte("2")))
		require.NoError(t, err)

		assert.Len(t, second.Images, 2)
		require.NotNil(t, second.ImageURL)
		assert.Equal(t, first.Images[0], *second.ImageURL)
	})
}

func TestDeleteService(t *testing.T) {
	catalog, _, freelancer := newCatalog(t)
	ctx := context.Background()

	created, err := catalog.CreateService(ctx, ServiceInput{FreelancerID: freelancer.ID, Title: "Logo", Price: decimal.NewFromInt(10), DeliveryTime: 1})
	require.NoError(t, err)

	require.NoError(t, catalog.DeleteService(ctx, created.ID))
	_, err = catalog.GetService(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, catalog.DeleteService(ctx, created.ID), ErrNotFound)
}
