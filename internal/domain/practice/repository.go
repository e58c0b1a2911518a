package practice

import "context"

// Repository defines storage operations for derived practice events.
// Implementations live in infrastructure/persistence.
type Repository interface {
	// Insert stores a derived practice event.
	Insert(ctx context.Context, e *Event) error

	// GetByID returns a practice event by ID.
	// Returns shared.ErrPracticeEventNotFound when missing.
	GetByID(ctx context.Context, id string) (*Event, error)

	// RecentForMember returns up to limit practice events for a member,
	// newest first.
	RecentForMember(ctx context.Context, memberID string, limit int) ([]*Event, error)
}
