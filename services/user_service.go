package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/kendall-kelly/freelance-market-api/models"
)

// Profile fields a user may edit on themselves
var editableUserFields = map[string]bool{
	"firstName": true,
	"lastName":  true,
	"email":     true,
	"avatar":    true,
}

// RegisterInput mirrors an authenticated identity into the users table
type RegisterInput struct {
	AuthID    string
	Email     string
	FirstName string
	LastName  string
	Role      string
	Avatar    *string
}

// UserService manages the mirrored user records
type UserService struct {
	users UserStore
}

// NewUserService creates a user service
func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// RegisterUser creates the local record for an identity
func (s *UserService) RegisterUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.AuthID == "" {
		return nil, fmt.Errorf("%w: identity subject is required", ErrValidation)
	}
	email, err := parseEmail(in.Email)
	if err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = models.RoleClient
	}
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	if _, err := s.users.FindByAuthID(ctx, in.AuthID); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	user := &models.User{
		AuthID:    in.AuthID,
		Email:     email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      role,
		Avatar:    in.Avatar,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetByAuthID returns the user mirrored from an identity subject
func (s *UserService) GetByAuthID(ctx context.Context, authID string) (*models.User, error) {
	user, err := s.users.FindByAuthID(ctx, authID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUser returns a user by ID
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return user, nil
}

// UpdateProfile applies a partial profile edit keyed by API field names
func (s *UserService) UpdateProfile(ctx context.Context, id string, partial map[string]any) (*models.User, error) {
	values := make(map[string]any, len(partial))
	for field, raw := range partial {
		if !editableUserFields[field] {
			if _, known := models.UserFields.Column(field); known {
				return nil, fmt.Errorf("%w: %s cannot be updated", ErrValidation, field)
			}
			return nil, fmt.Errorf("%w: %v", ErrValidation, &models.UnknownFieldError{Entity: "user", Field: field})
		}

		if field == "avatar" {
			v, err := decodeAs[*string](raw)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid avatar", ErrValidation)
			}
			values[field] = v
			continue
		}

		v, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a string", ErrValidation, field)
		}
		v = strings.TrimSpace(v)
		if field == "email" {
			addr, err := parseEmail(v)
			if err != nil {
				return nil, err
			}
			v = addr
			if other, err := s.users.FindByEmail(ctx, v); err == nil && other.ID != id {
				return nil, ErrUserExists
			}
		}
		values[field] = v
	}

	columns, err := models.UserFields.ToColumns(values)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	user, err := s.users.Update(ctx, id, columns)
	if err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", id, err)
	}
	return user, nil
}

// parseEmail accepts an address with or without a display name and
// returns the bare address
func parseEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	return addr.Address, nil
}
