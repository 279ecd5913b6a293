package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/freelance-market-api/config"
	"github.com/kendall-kelly/freelance-market-api/middleware"
	"github.com/kendall-kelly/freelance-market-api/models"
	"github.com/kendall-kelly/freelance-market-api/services"
)

// CreateUserRequest carries the profile fields the token may not hold
type CreateUserRequest struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Role      string  `json:"role" binding:"omitempty,oneof=client freelancer"`
	Avatar    *string `json:"avatar"`
}

// identityProvider returns the client for the auth provider's /userinfo
// endpoint, or nil when tokens come from the shared-secret gateway
var identityProvider = func(cfg *config.Config) services.IdentityProvider {
	if cfg == nil || !cfg.UsesJWKS() {
		return nil
	}
	return services.NewIdentityService(cfg)
}

// CreateUser handles POST /api/v1/users - mirrors the authenticated identity
// into the users table. With Auth0 the profile comes from /userinfo;
// otherwise from the token's email claim and the request body.
func CreateUser(c *gin.Context) {
	authID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user ID from token",
			},
		})
		return
	}

	var req CreateUserRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			validationError(c, err)
			return
		}
	}

	claims := middleware.GetCustomClaims(c)
	input := services.RegisterInput{
		AuthID:    authID,
		Email:     claims.Email,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Role:      req.Role,
		Avatar:    req.Avatar,
	}
	// The token's role wins over the requested one
	if claims.Role != "" {
		input.Role = claims.Role
	}

	if provider := identityProvider(config.GetConfig()); provider != nil {
		accessToken, err := middleware.GetAccessToken(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "MISSING_TOKEN",
					"message": "Access token not found",
				},
			})
			return
		}

		profile, err := provider.FetchProfile(c.Request.Context(), accessToken)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "IDENTITY_PROVIDER_ERROR",
					"message": "Failed to fetch user information from the identity provider",
				},
			})
			return
		}

		input.Email = profile.Email
		if input.FirstName == "" && input.LastName == "" {
			input.FirstName, input.LastName = profile.FirstAndLastName()
		}
		if input.Avatar == nil && profile.Picture != "" {
			input.Avatar = &profile.Picture
		}
	}

	if input.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_EMAIL",
				"message": "Email not provided by the identity provider",
			},
		})
		return
	}

	user, err := appServices().Users.RegisterUser(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    user,
	})
}

// GetMyProfile handles GET /api/v1/users/me - gets current user's profile
func GetMyProfile(c *gin.Context) {
	user, ok := currentUser(c, appServices())
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

// UpdateMyProfile handles PATCH /api/v1/users/me - partial profile edit
func UpdateMyProfile(c *gin.Context) {
	svc := appServices()
	user, ok := currentUser(c, svc)
	if !ok {
		return
	}

	var partial map[string]any
	if err := c.ShouldBindJSON(&partial); err != nil {
		validationError(c, err)
		return
	}
	if len(partial) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_FIELDS_TO_UPDATE",
				"message": "At least one field must be provided for update",
			},
		})
		return
	}

	updated, err := svc.Users.UpdateProfile(c.Request.Context(), user.ID, partial)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    updated,
	})
}

// requireRole writes a 403 unless user has one of roles
func requireRole(c *gin.Context, user *models.User, message string, roles ...string) bool {
	for _, r := range roles {
		if user.Role == r {
			return true
		}
	}
	c.JSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "FORBIDDEN",
			"message": message,
		},
	})
	return false
}
