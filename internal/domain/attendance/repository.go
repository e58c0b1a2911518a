package attendance

import (
	"context"
	"time"
)

// Repository defines storage operations for the attendance ledger.
// Implementations live in infrastructure/persistence.
type Repository interface {
	// Insert appends a record to the ledger. Records are never updated.
	Insert(ctx context.Context, r *Record) error

	// GetByID returns a record by ID.
	// Returns shared.ErrAttendanceNotFound when missing.
	GetByID(ctx context.Context, id string) (*Record, error)

	// RecentBefore returns up to limit valid records for a member with a
	// civil date strictly before the given one, newest first, one record
	// per date. The limit bounds distinct days, not rows; the streak walk
	// needs the window to cover full days however many sessions each held.
	RecentBefore(ctx context.Context, memberID, date string, limit int) ([]*Record, error)

	// RecentValid returns up to limit valid records for a member regardless
	// of date, newest first. The classifier reads its analysis window here.
	RecentValid(ctx context.Context, memberID string, limit int) ([]*Record, error)

	// CountSameSession counts existing records for the member, civil date,
	// and class name. The next session number is this count plus one.
	CountSameSession(ctx context.Context, memberID, date, className string) (int, error)

	// CountOnDate counts all valid records on a civil date, across members.
	CountOnDate(ctx context.Context, date string) (int, error)

	// ValidSince returns a member's valid records with timestamps at or
	// after the given instant, newest first.
	ValidSince(ctx context.Context, memberID string, since time.Time) ([]*Record, error)
}
