package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/freelance-market-api/config"
	"github.com/kendall-kelly/freelance-market-api/middleware"
	"github.com/kendall-kelly/freelance-market-api/models"
	"github.com/kendall-kelly/freelance-market-api/services"
	"github.com/kendall-kelly/freelance-market-api/utils"
)

// appServices wires the domain services onto the current database and the
// installed processor, image store and hub
func appServices() *services.Services {
	currency, webhookSecret := "usd", ""
	if cfg := config.GetConfig(); cfg != nil {
		currency, webhookSecret = cfg.PaymentCurrency, cfg.StripeWebhookSecret
	}

	return services.New(config.GetDB(), services.Options{
		Processor:     services.GetPaymentProcessor(),
		Images:        services.GetImageService(),
		Hub:           services.GetHub(),
		Currency:      currency,
		WebhookSecret: webhookSecret,
	})
}

// currentUser resolves the token subject to the mirrored user. It writes the
// error response itself and returns false when there is none.
func currentUser(c *gin.Context, svc *services.Services) (*models.User, bool) {
	authID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return nil, false
	}

	user, err := svc.Users.GetByAuthID(c.Request.Context(), authID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "USER_NOT_FOUND",
					"message": "User profile not found. Please create a profile first.",
				},
			})
			return nil, false
		}
		respondError(c, err)
		return nil, false
	}

	return user, true
}

// respondError writes the error envelope for a domain error
func respondError(c *gin.Context, err error) {
	status, code := errorStatus(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		message = "An unexpected error occurred"
	}

	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func errorStatus(err error) (int, string) {
	var uploadErr *utils.FileUploadError
	switch {
	case errors.As(err, &uploadErr):
		return http.StatusBadRequest, uploadErr.Code
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, services.ErrStaleVersion):
		return http.StatusConflict, "STALE_VERSION"
	case errors.Is(err, services.ErrUserExists):
		return http.StatusConflict, "USER_EXISTS"
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, services.ErrInvalidStatus):
		return http.StatusBadRequest, "INVALID_STATUS"
	case errors.Is(err, services.ErrIllegalTransition):
		return http.StatusBadRequest, "ILLEGAL_TRANSITION"
	case errors.Is(err, services.ErrPaymentExists):
		return http.StatusBadRequest, "PAYMENT_EXISTS"
	case errors.Is(err, services.ErrSelfOrder), errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, services.ErrProcessor):
		return http.StatusBadGateway, "PAYMENT_PROCESSOR_ERROR"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// validationError writes a 400 for a request that failed binding
func validationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// queryInt reads a non-negative integer query parameter, def when absent
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_QUERY_PARAMETER",
				"message": name + " must be a non-negative integer",
			},
		})
		return 0, false
	}
	return v, true
}

// presentService resolves stored image keys to URLs a browser can load
func presentService(ctx context.Context, service *models.Service) *models.Service {
	images := services.GetImageService()
	if images == nil || service == nil {
		return service
	}

	out := *service
	resolved := make([]string, 0, len(service.Images))
	for _, key := range service.Images {
		url, err := images.GetImageURL(ctx, key)
		if err != nil {
			log.Printf("Failed to resolve image %s for service %s: %v", key, service.ID, err)
			continue
		}
		resolved = append(resolved, url)
	}
	out.Images = resolved

	if service.ImageURL != nil && *service.ImageURL != "" {
		if url, err := images.GetImageURL(ctx, *service.ImageURL); err == nil {
			out.ImageURL = &url
		} else {
			log.Printf("Failed to resolve cover image for service %s: %v", service.ID, err)
		}
	}
	return &out
}

func presentServices(ctx context.Context, list []models.Service) []*models.Service {
	out := make([]*models.Service, 0, len(list))
	for i := range list {
		out = append(out, presentService(ctx, &list[i]))
	}
	return out
}

func presentOrder(ctx context.Context, order *models.Order) *models.Order {
	if order == nil || order.Service == nil {
		return order
	}
	out := *order
	out.Service = presentService(ctx, order.Service)
	return &out
}
