package postgres

import (
	"context"
	"fmt"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/practice"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRACTICE EVENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const practiceEventColumns = `
	id, member_id, attendance_id, type, gap_days, streak, time_band,
	previous_time_band, shift_details, display_message, triggered_at
`

// PracticeEventRepository implements practice.Repository for PostgreSQL.
type PracticeEventRepository struct {
	q Querier
}

// NewPracticeEventRepository creates a new PracticeEventRepository.
func NewPracticeEventRepository(conn *Connection) *PracticeEventRepository {
	return &PracticeEventRepository{q: conn}
}

// Insert stores a derived practice event.
func (r *PracticeEventRepository) Insert(ctx context.Context, e *practice.Event) error {
	query := `
		INSERT INTO practice_events (
			id, member_id, attendance_id, type, gap_days, streak, time_band,
			previous_time_band, shift_details, display_message, triggered_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.q.Exec(ctx, query,
		e.ID,
		e.MemberID,
		e.AttendanceID,
		string(e.Type),
		e.Context.GapDays,
		e.Context.Streak,
		string(e.Context.TimeBand),
		string(e.Context.PreviousTimeBand),
		e.Context.ShiftDetails,
		e.DisplayMessage,
		e.TriggeredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert practice event: %w", err)
	}
	return nil
}

// GetByID returns a practice event by ID.
func (r *PracticeEventRepository) GetByID(ctx context.Context, id string) (*practice.Event, error) {
	query := `SELECT` + practiceEventColumns + `FROM practice_events WHERE id = $1`
	return r.scanEvent(r.q.QueryRow(ctx, query, id))
}

// RecentForMember returns a member's practice events, newest first.
func (r *PracticeEventRepository) RecentForMember(ctx context.Context, memberID string, limit int) ([]*practice.Event, error) {
	query := `SELECT` + practiceEventColumns + `
		FROM practice_events
		WHERE member_id = $1
		ORDER BY triggered_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, memberID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query practice events: %w", err)
	}
	defer rows.Close()

	events := make([]*practice.Event, 0)
	for rows.Next() {
		e, err := r.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *PracticeEventRepository) scanEvent(row pgx.Row) (*practice.Event, error) {
	var (
		e            practice.Event
		eventType    string
		timeBand     string
		previousBand string
	)

	err := row.Scan(
		&e.ID,
		&e.MemberID,
		&e.AttendanceID,
		&eventType,
		&e.Context.GapDays,
		&e.Context.Streak,
		&timeBand,
		&previousBand,
		&e.Context.ShiftDetails,
		&e.DisplayMessage,
		&e.TriggeredAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrPracticeEventNotFound
		}
		return nil, fmt.Errorf("failed to scan practice event: %w", err)
	}

	e.Type = practice.EventType(eventType)
	e.Context.TimeBand = practice.Band(timeBand)
	e.Context.PreviousTimeBand = practice.Band(previousBand)
	return &e, nil
}
