package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/application/command"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/attendance"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/member"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHECK-IN STORE
// The one place where members and attendance are written together. The
// member row is locked FOR UPDATE for the duration of the transaction, so
// two concurrent taps for the same member serialize: the second sees the
// already-decremented balance.
// ══════════════════════════════════════════════════════════════════════════════

// CheckInStore implements command.CheckInStore on PostgreSQL.
type CheckInStore struct {
	conn *Connection
}

// NewCheckInStore creates a new CheckInStore.
func NewCheckInStore(conn *Connection) *CheckInStore {
	return &CheckInStore{conn: conn}
}

// WithCheckIn runs fn inside the check-in transaction. Serialization
// failures and deadlocks surface as shared.ErrConflict so the handler's
// bounded retry can re-run the whole attempt.
func (s *CheckInStore) WithCheckIn(ctx context.Context, memberID string, fn func(ctx context.Context, tx command.CheckInTx) error) error {
	err := s.conn.WithTx(ctx, CheckInTxOptions(), func(tx pgx.Tx) error {
		return fn(ctx, &checkInTx{
			memberID:   memberID,
			members:    memberRepoOn(tx),
			attendance: attendanceRepoOn(tx),
		})
	})
	if err != nil && IsSerializationFailure(err) {
		return shared.NewDomainError("postgres", "CheckIn", shared.ErrConflict, "check-in transaction conflict")
	}
	return err
}

// RecentBefore serves the relaxed history read on the pool, outside the
// transaction.
func (s *CheckInStore) RecentBefore(ctx context.Context, memberID, date string, limit int) ([]*attendance.Record, error) {
	return NewAttendanceRepository(s.conn).RecentBefore(ctx, memberID, date, limit)
}

// InsertDenied writes a denial audit record on the pool. Denials roll the
// check-in transaction back, so the audit row must not ride in it.
func (s *CheckInStore) InsertDenied(ctx context.Context, rec *attendance.Record) error {
	return NewAttendanceRepository(s.conn).Insert(ctx, rec)
}

// checkInTx adapts the transaction-bound repositories to command.CheckInTx.
type checkInTx struct {
	memberID   string
	members    *MemberRepository
	attendance *AttendanceRepository
}

func (t *checkInTx) Member(ctx context.Context) (*member.Member, error) {
	return t.members.GetByIDForUpdate(ctx, t.memberID)
}

func (t *checkInTx) RecentBefore(ctx context.Context, date string, limit int) ([]*attendance.Record, error) {
	return t.attendance.RecentBefore(ctx, t.memberID, date, limit)
}

func (t *checkInTx) CountSameSession(ctx context.Context, date, className string) (int, error) {
	return t.attendance.CountSameSession(ctx, t.memberID, date, className)
}

func (t *checkInTx) UpdateMember(ctx context.Context, m *member.Member) error {
	return t.members.Update(ctx, m)
}

func (t *checkInTx) InsertRecord(ctx context.Context, rec *attendance.Record) error {
	return t.attendance.Insert(ctx, rec)
}
