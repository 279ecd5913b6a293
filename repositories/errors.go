package repositories

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")

	// ErrStaleVersion is returned when a conditional write loses to a
	// concurrent writer
	ErrStaleVersion = errors.New("record was modified by another request")
)

// translate maps gorm's sentinel errors onto the repository ones
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
