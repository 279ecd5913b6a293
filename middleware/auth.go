package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/freelance-market-api/config"
	"github.com/kendall-kelly/freelance-market-api/models"
)

// CustomClaims contains custom data we want from the token.
type CustomClaims struct {
	Scope string `json:"scope"`
	Role  string `json:"role"`
	Email string `json:"email"`
}

// Validate rejects tokens that carry a role we do not know about
func (c CustomClaims) Validate(ctx context.Context) error {
	if c.Role != "" && !models.IsValidRole(c.Role) {
		return errors.New("token carries an unknown role")
	}
	return nil
}

// HasScope checks whether our claims have a specific scope.
func (c CustomClaims) HasScope(expectedScope string) bool {
	result := strings.Split(c.Scope, " ")
	for i := range result {
		if result[i] == expectedScope {
			return true
		}
	}

	return false
}

// NewValidator builds the JWT validator for the configured auth mode: RS256
// against the Auth0 JWKS when AUTH0_DOMAIN is set, otherwise HS256 with the
// shared gateway secret.
func NewValidator(cfg *config.Config) (*validator.Validator, error) {
	customClaims := validator.WithCustomClaims(
		func() validator.CustomClaims {
			return &CustomClaims{}
		},
	)
	clockSkew := validator.WithAllowedClockSkew(time.Minute)

	if cfg.UsesJWKS() {
		issuerURL, err := url.Parse("https://" + cfg.Auth0Domain + "/")
		if err != nil {
			return nil, err
		}
		provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)
		return validator.New(
			provider.KeyFunc,
			validator.RS256,
			issuerURL.String(),
			[]string{cfg.Auth0Audience},
			customClaims,
			clockSkew,
		)
	}

	secret := []byte(cfg.AuthJWTSecret)
	return validator.New(
		func(ctx context.Context) (interface{}, error) {
			return secret, nil
		},
		validator.HS256,
		cfg.AuthIssuer,
		[]string{cfg.AuthAudience},
		customClaims,
		clockSkew,
	)
}

// EnsureValidToken is a middleware that will check the validity of our JWT.
// opts are passed on to the jwt middleware, e.g. a token extractor for
// websocket upgrades that carry the token as a query parameter.
func EnsureValidToken(cfg *config.Config, opts ...jwtmiddleware.Option) gin.HandlerFunc {
	jwtValidator, err := NewValidator(cfg)
	if err != nil {
		log.Fatalf("Failed to set up the jwt validator: %v", err)
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		log.Printf("Encountered error while validating JWT: %v", err)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		if _, writeErr := w.Write([]byte(`{"success":false,"error":{"code":"INVALID_TOKEN","message":"Failed to validate JWT."}}`)); writeErr != nil {
			log.Printf("Failed to write error response: %v", writeErr)
		}
	}

	opts = append([]jwtmiddleware.Option{jwtmiddleware.WithErrorHandler(errorHandler)}, opts...)
	middleware := jwtmiddleware.New(jwtValidator.ValidateToken, opts...)

	return func(c *gin.Context) {
		passed := false
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			passed = true
			token := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)

			// The sub claim is the identity subject the users table mirrors
			c.Set("user_id", token.RegisteredClaims.Subject)
			c.Set("validated_claims", token)
			c.Request = r

			c.Next()
		}

		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}

// WithQueryToken reads the bearer token from the Authorization header,
// falling back to the access_token query parameter
func WithQueryToken() jwtmiddleware.Option {
	return jwtmiddleware.WithTokenExtractor(jwtmiddleware.MultiTokenExtractor(
		jwtmiddleware.AuthHeaderTokenExtractor,
		jwtmiddleware.ParameterTokenExtractor("access_token"),
	))
}

// GetUserID extracts the identity subject from the Gin context
func GetUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", &AuthError{Code: "MISSING_USER_ID", Message: "User ID not found in context"}
	}

	userIDStr, ok := userID.(string)
	if !ok {
		return "", &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not a string"}
	}

	return userIDStr, nil
}

// GetClaims extracts the validated JWT claims from the Gin context
func GetClaims(c *gin.Context) (*validator.ValidatedClaims, error) {
	claims, exists := c.Get("validated_claims")
	if !exists {
		return nil, &AuthError{Code: "MISSING_CLAIMS", Message: "Claims not found in context"}
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Claims are not in the expected format"}
	}

	return validatedClaims, nil
}

// GetCustomClaims returns the application claims of the validated token, or
// an empty set when the token carried none
func GetCustomClaims(c *gin.Context) CustomClaims {
	claims, err := GetClaims(c)
	if err != nil {
		return CustomClaims{}
	}
	if custom, ok := claims.CustomClaims.(*CustomClaims); ok && custom != nil {
		return *custom
	}
	return CustomClaims{}
}

// GetAccessToken returns the raw bearer token of the request
func GetAccessToken(c *gin.Context) (string, error) {
	token, err := jwtmiddleware.AuthHeaderTokenExtractor(c.Request)
	if err != nil {
		return "", &AuthError{Code: "INVALID_AUTHORIZATION_HEADER", Message: err.Error()}
	}
	if token == "" {
		return "", &AuthError{Code: "MISSING_TOKEN", Message: "Access token not found"}
	}
	return token, nil
}

// RequireScope is a middleware that checks if the token has a specific scope
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := GetClaims(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "MISSING_CLAIMS",
					"message": "Could not retrieve token claims",
				},
			})
			c.Abort()
			return
		}

		customClaims, ok := claims.CustomClaims.(*CustomClaims)
		if !ok || !customClaims.HasScope(scope) {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INSUFFICIENT_SCOPE",
					"message": "Insufficient permissions to access this resource",
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
