package services

import (
	"errors"

	"github.com/kendall-kelly/freelance-market-api/repositories"
)

var (
	ErrNotFound     = repositories.ErrNotFound
	ErrStaleVersion = repositories.ErrStaleVersion

	ErrValidation        = errors.New("validation failed")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrIllegalTransition = errors.New("illegal order status transition")
	ErrForbidden         = errors.New("not permitted for this user")
	ErrSelfOrder         = errors.New("client and freelancer must be different users")
	ErrPaymentExists     = errors.New("a payment already exists for this order")
	ErrUserExists        = errors.New("a user with this identity or email already exists")
	ErrProcessor         = errors.New("payment processor request failed")
	ErrInvalidSignature  = errors.New("webhook signature verification failed")
	ErrUnsupportedEvent  = errors.New("unsupported webhook event type")
)
