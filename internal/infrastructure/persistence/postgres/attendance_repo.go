package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/attendance"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE REPOSITORY IMPLEMENTATION
// The ledger is append-only: inserts and reads, no updates or deletes.
// ══════════════════════════════════════════════════════════════════════════════

const attendanceColumns = `
	id, member_id, member_name, branch_id, class_name, instructor, class_time,
	date, ts, session_number, status, denial_reason, streak_at_time, credits_before
`

// AttendanceRepository implements attendance.Repository for PostgreSQL.
type AttendanceRepository struct {
	q Querier
}

// NewAttendanceRepository creates a new AttendanceRepository on the pool.
func NewAttendanceRepository(conn *Connection) *AttendanceRepository {
	return &AttendanceRepository{q: conn}
}

// attendanceRepoOn rebinds the repository to a transaction.
func attendanceRepoOn(q Querier) *AttendanceRepository {
	return &AttendanceRepository{q: q}
}

// Insert appends a record to the ledger.
func (r *AttendanceRepository) Insert(ctx context.Context, rec *attendance.Record) error {
	query := `
		INSERT INTO attendance (
			id, member_id, member_name, branch_id, class_name, instructor, class_time,
			date, ts, session_number, status, denial_reason, streak_at_time, credits_before
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.q.Exec(ctx, query,
		rec.ID,
		rec.MemberID,
		rec.MemberName,
		rec.BranchID,
		rec.ClassName,
		rec.Instructor,
		rec.ClassTime,
		rec.Date,
		rec.Timestamp,
		rec.SessionNumber,
		string(rec.Status),
		string(rec.DenialReason),
		rec.Context.StreakAtTime,
		rec.Context.CreditsBefore,
	)
	if err != nil {
		return fmt.Errorf("failed to insert attendance record: %w", err)
	}
	return nil
}

// GetByID returns a record by ID.
func (r *AttendanceRepository) GetByID(ctx context.Context, id string) (*attendance.Record, error) {
	query := `SELECT` + attendanceColumns + `FROM attendance WHERE id = $1`
	return r.scanRecord(r.q.QueryRow(ctx, query, id))
}

// RecentBefore returns valid records with a date strictly before the given
// one, newest first. The result carries one record per civil date, so the
// limit bounds distinct days and a member with several sessions a day keeps
// a full-depth streak window.
func (r *AttendanceRepository) RecentBefore(ctx context.Context, memberID, date string, limit int) ([]*attendance.Record, error) {
	query := `SELECT DISTINCT ON (date)` + attendanceColumns + `
		FROM attendance
		WHERE member_id = $1 AND date < $2 AND status = 'attended'
		ORDER BY date DESC, ts DESC
		LIMIT $3
	`

	rows, err := r.q.Query(ctx, query, memberID, date, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance history: %w", err)
	}
	defer rows.Close()

	return r.collectRecords(rows)
}

// RecentValid returns valid records regardless of date, newest first.
func (r *AttendanceRepository) RecentValid(ctx context.Context, memberID string, limit int) ([]*attendance.Record, error) {
	query := `SELECT` + attendanceColumns + `
		FROM attendance
		WHERE member_id = $1 AND status = 'attended'
		ORDER BY ts DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, memberID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent attendance: %w", err)
	}
	defer rows.Close()

	return r.collectRecords(rows)
}

// CountSameSession counts valid records for the member, date, and class.
// Denied attempts never advance the session numbering.
func (r *AttendanceRepository) CountSameSession(ctx context.Context, memberID, date, className string) (int, error) {
	var count int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM attendance
		 WHERE member_id = $1 AND date = $2 AND class_name = $3 AND status = 'attended'`,
		memberID, date, className,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// CountOnDate counts valid records on a civil date across members.
func (r *AttendanceRepository) CountOnDate(ctx context.Context, date string) (int, error) {
	var count int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM attendance WHERE date = $1 AND status = 'attended'`,
		date,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count attendance on date: %w", err)
	}
	return count, nil
}

// ValidSince returns valid records at or after the instant, newest first.
func (r *AttendanceRepository) ValidSince(ctx context.Context, memberID string, since time.Time) ([]*attendance.Record, error) {
	query := `SELECT` + attendanceColumns + `
		FROM attendance
		WHERE member_id = $1 AND ts >= $2 AND status = 'attended'
		ORDER BY ts DESC
	`

	rows, err := r.q.Query(ctx, query, memberID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance since: %w", err)
	}
	defer rows.Close()

	return r.collectRecords(rows)
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func (r *AttendanceRepository) scanRecord(row pgx.Row) (*attendance.Record, error) {
	var (
		rec          attendance.Record
		status       string
		denialReason string
	)

	err := row.Scan(
		&rec.ID,
		&rec.MemberID,
		&rec.MemberName,
		&rec.BranchID,
		&rec.ClassName,
		&rec.Instructor,
		&rec.ClassTime,
		&rec.Date,
		&rec.Timestamp,
		&rec.SessionNumber,
		&status,
		&denialReason,
		&rec.Context.StreakAtTime,
		&rec.Context.CreditsBefore,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrAttendanceNotFound
		}
		return nil, fmt.Errorf("failed to scan attendance record: %w", err)
	}

	rec.Status = attendance.Status(status)
	rec.DenialReason = attendance.DenialReason(denialReason)
	return &rec, nil
}

func (r *AttendanceRepository) collectRecords(rows pgx.Rows) ([]*attendance.Record, error) {
	records := make([]*attendance.Record, 0)
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
