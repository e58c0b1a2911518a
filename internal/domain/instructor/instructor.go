// Package instructor holds the kiosk instructor identity used for the
// staff-only view. PINs are stored as bcrypt hashes, never in the clear.
package instructor

import (
	"context"
	"errors"
	"time"
)

// Domain errors for instructor package.
var (
	ErrInvalidName = errors.New("instructor: name is required")
	ErrInvalidPIN  = errors.New("instructor: PIN must be 4-8 digits")
)

// Instructor is a staff member who can unlock the kiosk's instructor view.
type Instructor struct {
	Name      string
	PINHash   string
	CreatedAt time.Time
}

// Repository defines storage operations for instructors.
type Repository interface {
	// Create stores an instructor with a hashed PIN.
	Create(ctx context.Context, ins *Instructor) error

	// GetByName returns an instructor by name.
	// Returns shared.ErrInstructorNotFound when missing.
	GetByName(ctx context.Context, name string) (*Instructor, error)
}
