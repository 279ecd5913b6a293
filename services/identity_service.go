package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/kendall-kelly/freelance-market-api/config"
)

// IdentityProfile is the subset of the auth provider's /userinfo response
// mirrored into the users table
type IdentityProfile struct {
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

// FirstAndLastName prefers the structured name claims and falls back to
// splitting the display name on its first space
func (p *IdentityProfile) FirstAndLastName() (string, string) {
	if p.GivenName != "" || p.FamilyName != "" {
		return p.GivenName, p.FamilyName
	}
	first, last, _ := strings.Cut(strings.TrimSpace(p.Name), " ")
	return first, strings.TrimSpace(last)
}

// IdentityProvider looks up the profile behind an access token
type IdentityProvider interface {
	FetchProfile(ctx context.Context, accessToken string) (*IdentityProfile, error)
}

// IdentityService calls the Auth0 /userinfo endpoint
type IdentityService struct {
	domain     string
	httpClient *http.Client
}

// NewIdentityService creates an identity service for the configured Auth0
// tenant
func NewIdentityService(cfg *config.Config) *IdentityService {
	return &IdentityService{
		domain: cfg.Auth0Domain,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// FetchProfile fetches the profile of the token's subject
func (s *IdentityService) FetchProfile(ctx context.Context, accessToken string) (*IdentityProfile, error) {
	// A domain with a scheme is used as-is (test servers)
	url := s.domain + "/userinfo"
	if !strings.HasPrefix(s.domain, "http://") && !strings.HasPrefix(s.domain, "https://") {
		url = "https://" + url
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Add("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call userinfo endpoint: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Printf("warning: failed to close userinfo response: %v", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("userinfo endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var profile IdentityProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}
	return &profile, nil
}
