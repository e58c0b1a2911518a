package command

import (
	"context"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/attendance"
)

// SessionResolver answers "which session of this class today would a check-in
// be" without writing anything. The kiosk uses it to label the confirmation
// screen; the authoritative number is still assigned inside the check-in
// transaction, so a concurrent visit can bump it between preview and commit.
type SessionResolver struct {
	attendanceRepo attendance.Repository
}

// NewSessionResolver creates a new SessionResolver.
func NewSessionResolver(attendanceRepo attendance.Repository) *SessionResolver {
	return &SessionResolver{attendanceRepo: attendanceRepo}
}

// Resolve returns the session number the next check-in would receive for the
// member, civil date, and class: the count of existing same-day records for
// that class plus one. Repeat visits are expected, never an error.
func (r *SessionResolver) Resolve(ctx context.Context, memberID, date, className string) (int, error) {
	if className == "" {
		className = attendance.DefaultClassTitle
	}

	count, err := r.attendanceRepo.CountSameSession(ctx, memberID, date, className)
	if err != nil {
		return 0, err
	}
	return count + 1, nil
}
