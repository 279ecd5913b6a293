package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/freelance-market-api/models"
	"github.com/kendall-kelly/freelance-market-api/repositories"
	"github.com/kendall-kelly/freelance-market-api/services"
	"github.com/shopspring/decimal"
)

// CreateServiceRequest represents the request body for publishing a service
type CreateServiceRequest struct {
	Title        string          `json:"title" binding:"required"`
	Description  string          `json:"description"`
	Category     string          `json:"category" binding:"required"`
	Price        decimal.Decimal `json:"price"`
	DeliveryTime int             `json:"deliveryTime" binding:"required,gt=0"`
	ImageURL     *string         `json:"imageUrl"`
	Images       []string        `json:"images"`
	Tags         []string        `json:"tags"`
	Plans        []models.Plan   `json:"plans"`
	FAQs         []models.FAQ    `json:"faqs"`
}

// ListServices handles GET /api/v1/services - browse the catalog
func ListServices(c *gin.Context) {
	filter := repositories.ServiceFilter{
		Category:     c.Query("category"),
		FreelancerID: c.Query("freelancerId"),
		Search:       c.Query("search"),
	}

	for name, dst := range map[string]**decimal.Decimal{"minPrice": &filter.MinPrice, "maxPrice": &filter.MaxPrice} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_QUERY_PARAMETER",
					"message": name + " must be a number",
				},
			})
			return
		}
		*dst = &v
	}

	limit, ok := queryInt(c, "limit", 50)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}
	filter.Limit, filter.Offset = min(limit, 100), offset

	list, err := appServices().Catalog.ListServices(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    presentServices(c.Request.Context(), list),
		"pagination": gin.H{
			"limit":  filter.Limit,
			"offset": filter.Offset,
			"count":  len(list),
		},
	})
}

// GetService handles GET /api/v1/services/:id
func GetService(c *gin.Context) {
	service, err := appServices().Catalog.GetService(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    presentService(c.Request.Context(), service),
	})
}

// CreateService handles POST /api/v1/services - freelancers publish a listing
func CreateService(c *gin.Context) {
	svc := appServices()
	user, ok := currentUser(c, svc)
	if !ok {
		return
	}
	if !requireRole(c, user, "Only freelancers can publish services", models.RoleFreelancer) {
		return
	}

	var req CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	service, err := svc.Catalog.CreateService(c.Request.Context(), services.ServiceInput{
		FreelancerID: user.ID,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Price:        req.Price,
		DeliveryTime: req.DeliveryTime,
		ImageURL:     req.ImageURL,
		Images:       req.Images,
		Tags:         req.Tags,
		Plans:        req.Plans,
		FAQs:         req.FAQs,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    presentService(c.Request.Context(), service),
	})
}

// UpdateService handles PATCH /api/v1/services/:id - partial update by the
// owner
func UpdateService(c *gin.Context) {
	svc := appServices()
	if _, ok := requireServiceOwner(c, svc); !ok {
		return
	}

	var partial map[string]any
	if err := c.ShouldBindJSON(&partial); err != nil {
		validationError(c, err)
		return
	}

	service, err := svc.Catalog.UpdateService(c.Request.Context(), c.Param("id"), partial)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    presentService(c.Request.Context(), service),
	})
}

// DeleteService handles DELETE /api/v1/services/:id
func DeleteService(c *gin.Context) {
	svc := appServices()
	if _, ok := requireServiceOwner(c, svc); !ok {
		return
	}

	if err := svc.Catalog.DeleteService(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Service deleted",
	})
}

// UploadServiceImage handles POST /api/v1/services/:id/images - multipart
// upload of one image in the "image" field
func UploadServiceImage(c *gin.Context) {
	svc := appServices()
	user, ok := currentUser(c, svc)
	if !ok {
		return
	}

	if services.GetImageService() == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOADS_DISABLED",
				"message": "Image storage is not configured",
			},
		})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "An image file is required in the 'image' field",
			},
		})
		return
	}

	service, err := svc.Catalog.AttachImage(c.Request.Context(), c.Param("id"), user.ID, fileHeader)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    presentService(c.Request.Context(), service),
	})
}

// requireServiceOwner loads the service in the path and checks the caller
// owns it (or is an admin)
func requireServiceOwner(c *gin.Context, svc *services.Services) (*models.Service, bool) {
	user, ok := currentUser(c, svc)
	if !ok {
		return nil, false
	}

	service, err := svc.Catalog.GetService(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	if service.FreelancerID != user.ID && user.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You can only modify your own services",
			},
		})
		return nil, false
	}
	return service, true
}
