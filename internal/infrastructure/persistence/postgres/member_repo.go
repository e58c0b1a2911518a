package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/member"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MEMBER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const memberColumns = `
	id, name, phone, phone_last4, language, membership_type, credits,
	attendance_count, streak, start_date, end_date, last_attendance_at,
	created_at, updated_at
`

// MemberRepository implements member.Repository for PostgreSQL.
type MemberRepository struct {
	q Querier
}

// NewMemberRepository creates a new MemberRepository on the pool.
func NewMemberRepository(conn *Connection) *MemberRepository {
	return &MemberRepository{q: conn}
}

// memberRepoOn rebinds the repository to a transaction.
func memberRepoOn(q Querier) *MemberRepository {
	return &MemberRepository{q: q}
}

// Create creates a new member.
func (r *MemberRepository) Create(ctx context.Context, m *member.Member) error {
	query := `
		INSERT INTO members (
			id, name, phone, phone_last4, language, membership_type, credits,
			attendance_count, streak, start_date, end_date, last_attendance_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.q.Exec(ctx, query,
		m.ID,
		m.Name,
		m.Phone,
		m.PhoneLast4,
		string(m.Language),
		string(m.MembershipType),
		m.Credits,
		m.AttendanceCount,
		m.Streak,
		m.StartDate,
		m.EndDate,
		nullableTime(m.LastAttendanceAt),
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrMemberAlreadyExists
		}
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

// GetByID returns a member by ID.
func (r *MemberRepository) GetByID(ctx context.Context, id string) (*member.Member, error) {
	query := `SELECT` + memberColumns + `FROM members WHERE id = $1`
	return r.scanMember(r.q.QueryRow(ctx, query, id))
}

// GetByIDForUpdate returns a member by ID with a row lock. Only callable
// inside a transaction; concurrent check-ins for the same member serialize
// on this lock.
func (r *MemberRepository) GetByIDForUpdate(ctx context.Context, id string) (*member.Member, error) {
	query := `SELECT` + memberColumns + `FROM members WHERE id = $1 FOR UPDATE`
	return r.scanMember(r.q.QueryRow(ctx, query, id))
}

// Update updates a member row.
func (r *MemberRepository) Update(ctx context.Context, m *member.Member) error {
	query := `
		UPDATE members SET
			name = $1,
			phone = $2,
			phone_last4 = $3,
			language = $4,
			membership_type = $5,
			credits = $6,
			attendance_count = $7,
			streak = $8,
			start_date = $9,
			end_date = $10,
			last_attendance_at = $11,
			updated_at = $12
		WHERE id = $13
	`

	result, err := r.q.Exec(ctx, query,
		m.Name,
		m.Phone,
		m.PhoneLast4,
		string(m.Language),
		string(m.MembershipType),
		m.Credits,
		m.AttendanceCount,
		m.Streak,
		m.StartDate,
		m.EndDate,
		nullableTime(m.LastAttendanceAt),
		time.Now().UTC(),
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrMemberNotFound
	}
	return nil
}

// FindByPhoneLast4 returns members matching the last four phone digits.
func (r *MemberRepository) FindByPhoneLast4(ctx context.Context, last4 string) ([]*member.Member, error) {
	query := `SELECT` + memberColumns + `FROM members WHERE phone_last4 = $1 ORDER BY name`

	rows, err := r.q.Query(ctx, query, last4)
	if err != nil {
		return nil, fmt.Errorf("failed to find members by phone: %w", err)
	}
	defer rows.Close()

	return r.collectMembers(rows)
}

// FindExpiringOn returns members whose membership ends on the given date.
func (r *MemberRepository) FindExpiringOn(ctx context.Context, date string) ([]*member.Member, error) {
	query := `SELECT` + memberColumns + `FROM members WHERE end_date = $1 ORDER BY name`

	rows, err := r.q.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to find expiring members: %w", err)
	}
	defer rows.Close()

	return r.collectMembers(rows)
}

// CountNegativeCredits returns how many members hold a negative balance.
func (r *MemberRepository) CountNegativeCredits(ctx context.Context) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM members WHERE credits < 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count negative credits: %w", err)
	}
	return count, nil
}

// CountRegisteredBetween returns how many members registered in [from, to].
func (r *MemberRepository) CountRegisteredBetween(ctx context.Context, from, to time.Time) (int, error) {
	var count int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM members WHERE created_at >= $1 AND created_at <= $2`,
		from, to,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func (r *MemberRepository) scanMember(row pgx.Row) (*member.Member, error) {
	var (
		m                member.Member
		language         string
		membershipType   string
		lastAttendanceAt *time.Time
	)

	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Phone,
		&m.PhoneLast4,
		&language,
		&membershipType,
		&m.Credits,
		&m.AttendanceCount,
		&m.Streak,
		&m.StartDate,
		&m.EndDate,
		&lastAttendanceAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to scan member: %w", err)
	}

	m.Language = shared.Language(language)
	m.MembershipType = member.MembershipType(membershipType)
	if lastAttendanceAt != nil {
		m.LastAttendanceAt = *lastAttendanceAt
	}
	return &m, nil
}

func (r *MemberRepository) collectMembers(rows pgx.Rows) ([]*member.Member, error) {
	members := make([]*member.Member, 0)
	for rows.Next() {
		m, err := r.scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// nullableTime maps the zero time to SQL NULL.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
