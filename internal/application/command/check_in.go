// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/attendance"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/member"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/pkg/retry"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHECK-IN COMMAND
// The single write path of the system: one atomic transaction that checks the
// member's preconditions, decrements a credit, updates the streak, resolves a
// pending start date, and appends the attendance record. Downstream consumers
// react to the committed event, never to database side effects.
// ══════════════════════════════════════════════════════════════════════════════

// CheckInCommand contains the data for one check-in attempt.
type CheckInCommand struct {
	// MemberID is the ID of the member checking in.
	MemberID string

	// BranchID identifies the studio branch.
	BranchID string

	// ClassTitle is the class being attended. Empty means self-practice.
	ClassTitle string

	// Instructor is the class instructor. Empty means unassigned.
	Instructor string

	// ClassTime is the scheduled class start (HH:MM), optional.
	ClassTime string

	// Timestamp is when the check-in happened (defaults to now if zero).
	Timestamp time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CheckInCommand) Validate() error {
	if c.MemberID == "" {
		return shared.NewDomainError("attendance", "CheckIn", shared.ErrInvalidArgument, "member_id is required")
	}
	if c.BranchID == "" {
		return shared.NewDomainError("attendance", "CheckIn", shared.ErrInvalidArgument, "branch_id is required")
	}
	return nil
}

// CheckInResult is the post-commit snapshot returned to the caller.
type CheckInResult struct {
	MemberID   string
	MemberName string

	// AttendanceID is the ID of the new attendance record.
	AttendanceID string

	// Date is the Seoul civil date of the visit.
	Date string

	// SessionNumber is 1 for the first visit to this class today, 2 for the
	// second, and so on.
	SessionNumber int

	// Streak is the consecutive-day streak including today.
	Streak int

	CreditsBefore   int
	CreditsAfter    int
	AttendanceCount int

	// MembershipActivated is true when this check-in resolved a pending
	// start date.
	MembershipActivated bool
	StartDate           string
	EndDate             string

	// Language is the member's message language, carried into the events.
	Language string

	CheckedInAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// STORE CONTRACT
// ══════════════════════════════════════════════════════════════════════════════

// CheckInTx exposes the operations available inside the check-in transaction.
// The member row is locked for the duration.
type CheckInTx interface {
	// Member returns the locked member row.
	// Returns shared.ErrMemberNotFound when missing.
	Member(ctx context.Context) (*member.Member, error)

	// RecentBefore returns the member's valid records dated strictly before
	// the given civil date, newest first, one record per date, read inside
	// the transaction.
	RecentBefore(ctx context.Context, date string, limit int) ([]*attendance.Record, error)

	// CountSameSession counts existing records for this member, date, and
	// class inside the transaction.
	CountSameSession(ctx context.Context, date, className string) (int, error)

	// UpdateMember writes the mutated member row.
	UpdateMember(ctx context.Context, m *member.Member) error

	// InsertRecord appends the attendance record.
	InsertRecord(ctx context.Context, r *attendance.Record) error
}

// CheckInStore is the transactional boundary of the check-in path.
// Implementations map serialization failures and deadlocks to errors matching
// shared.ErrConflict so that the handler can retry them.
type CheckInStore interface {
	// WithCheckIn runs fn inside one transaction scoped to the member.
	// Any error from fn rolls the transaction back.
	WithCheckIn(ctx context.Context, memberID string, fn func(ctx context.Context, tx CheckInTx) error) error

	// RecentBefore reads the member's history outside any transaction, one
	// record per date, newest first.
	// This is the default, deliberately relaxed history read: a concurrent
	// commit may or may not be visible, which can only shift the derived
	// streak by one on a same-moment double booking.
	RecentBefore(ctx context.Context, memberID, date string, limit int) ([]*attendance.Record, error)

	// InsertDenied appends a denied audit record outside the transaction,
	// since a denial rolls the transaction back.
	InsertDenied(ctx context.Context, r *attendance.Record) error
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CheckInConfig contains configuration for the handler.
type CheckInConfig struct {
	// IsolatedHistoryReads moves the streak history read inside the
	// transaction, trading throughput for exact read consistency.
	IsolatedHistoryReads bool

	// HistoryLimit is how many prior records the streak read fetches.
	HistoryLimit int
}

// DefaultCheckInConfig returns default configuration.
func DefaultCheckInConfig() CheckInConfig {
	return CheckInConfig{
		IsolatedHistoryReads: false,
		HistoryLimit:         attendance.PriorHistoryLimit,
	}
}

// CheckInHandler handles the CheckInCommand.
type CheckInHandler struct {
	store          CheckInStore
	planCatalog    member.PlanCatalog
	eventPublisher shared.EventPublisher
	retrier        *retry.Retrier
	config         CheckInConfig
}

// NewCheckInHandler creates a new CheckInHandler.
func NewCheckInHandler(
	store CheckInStore,
	planCatalog member.PlanCatalog,
	eventPublisher shared.EventPublisher,
	config CheckInConfig,
) *CheckInHandler {
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = attendance.PriorHistoryLimit
	}

	return &CheckInHandler{
		store:          store,
		planCatalog:    planCatalog,
		eventPublisher: eventPublisher,
		retrier: retry.New(
			retry.WithMaxAttempts(3),
			retry.WithInitialDelay(50*time.Millisecond),
			retry.WithMaxDelay(time.Second),
			retry.WithRetryIf(shared.IsConflict),
		),
		config: config,
	}
}

// Handle executes the check-in command.
//
// Preconditions are checked in a fixed order and short-circuit: member
// existence, then membership expiry, then credit balance. A failed
// precondition leaves the member row untouched but still appends a denied
// audit record. Transaction conflicts are retried a bounded number of times
// and surface as shared.ErrConflict when exhausted.
func (h *CheckInHandler) Handle(ctx context.Context, cmd CheckInCommand) (*CheckInResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	ts := cmd.Timestamp
	if ts.IsZero() {
		ts = timeutil.Now()
	}
	today := timeutil.CivilDate(ts)

	var (
		result    *CheckInResult
		denied    *member.Member
		activated bool
	)

	attempt := func(ctx context.Context) error {
		result = nil
		denied = nil
		activated = false

		// The relaxed history read happens before the transaction opens;
		// the isolated variant replaces it inside.
		var prior []*attendance.Record
		if !h.config.IsolatedHistoryReads {
			var err error
			prior, err = h.store.RecentBefore(ctx, cmd.MemberID, today, h.config.HistoryLimit)
			if err != nil {
				return shared.WrapError("attendance", "CheckIn", fmt.Errorf("history read: %w", err))
			}
		}

		return h.store.WithCheckIn(ctx, cmd.MemberID, func(ctx context.Context, tx CheckInTx) error {
			m, err := tx.Member(ctx)
			if err != nil {
				return err
			}

			if m.IsExpired(today) {
				denied = m
				return &member.ExpiredError{MemberID: m.ID, EndDate: m.EndDate}
			}
			if !m.CanCheckIn() {
				denied = m
				return shared.ErrNoCredits
			}

			if h.config.IsolatedHistoryReads {
				prior, err = tx.RecentBefore(ctx, today, h.config.HistoryLimit)
				if err != nil {
					return err
				}
			}
			streak := attendance.Streak(prior, today)

			if m.IsStartPending() {
				months := h.planCatalog.DurationMonths(ctx, m.MembershipType)
				if err := m.ActivateMembership(today, months); err != nil {
					return shared.WrapError("member", "ActivateMembership", fmt.Errorf("resolve start date: %w", err))
				}
				activated = true
			}

			className := cmd.ClassTitle
			if className == "" {
				className = attendance.DefaultClassTitle
			}
			sameSession, err := tx.CountSameSession(ctx, today, className)
			if err != nil {
				return err
			}

			creditsBefore := m.Credits
			record, err := attendance.NewRecord(attendance.NewRecordParams{
				ID:            uuid.NewString(),
				MemberID:      m.ID,
				MemberName:    m.Name,
				BranchID:      cmd.BranchID,
				ClassName:     className,
				Instructor:    cmd.Instructor,
				ClassTime:     cmd.ClassTime,
				Timestamp:     ts,
				SessionNumber: sameSession + 1,
				StreakAtTime:  streak,
				CreditsBefore: creditsBefore,
			})
			if err != nil {
				return err
			}

			m.ApplyCheckIn(streak, ts)

			if err := tx.UpdateMember(ctx, m); err != nil {
				return err
			}
			if err := tx.InsertRecord(ctx, record); err != nil {
				return err
			}

			result = &CheckInResult{
				MemberID:            m.ID,
				MemberName:          m.Name,
				AttendanceID:        record.ID,
				Date:                today,
				SessionNumber:       record.SessionNumber,
				Streak:              streak,
				CreditsBefore:       creditsBefore,
				CreditsAfter:        m.Credits,
				AttendanceCount:     m.AttendanceCount,
				MembershipActivated: activated,
				StartDate:           m.StartDate,
				EndDate:             m.EndDate,
				Language:            m.Language.String(),
				CheckedInAt:         ts,
			}
			return nil
		})
	}

	err := h.retrier.Do(ctx, attempt)
	if err != nil {
		if shared.IsDenial(err) {
			h.recordDenial(ctx, cmd, denied, ts, err)
		}
		return nil, err
	}

	h.publishCommitted(cmd, result)
	return result, nil
}

// recordDenial appends the audit record for a refused check-in and publishes
// the denial event. Failures here are swallowed: the denial itself already
// happened and must reach the caller.
func (h *CheckInHandler) recordDenial(ctx context.Context, cmd CheckInCommand, m *member.Member, ts time.Time, cause error) {
	reason := attendance.DenialNoCredits
	if errors.Is(cause, shared.ErrMembershipExpired) {
		reason = attendance.DenialExpired
	}

	name := ""
	if m != nil {
		name = m.Name
	}

	record := attendance.NewDeniedRecord(
		uuid.NewString(), cmd.MemberID, name, cmd.BranchID, cmd.ClassTitle, ts, reason,
	)
	_ = h.store.InsertDenied(ctx, record)

	event := shared.NewCheckInDeniedEvent(cmd.MemberID, cmd.BranchID, record.ClassName, string(reason))
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)
}

// publishCommitted publishes the post-commit events. Delivery is
// fire-and-forget: subscriber failures never affect the committed check-in.
func (h *CheckInHandler) publishCommitted(cmd CheckInCommand, res *CheckInResult) {
	committed := shared.NewCheckInCommittedEvent(
		res.MemberID, res.MemberName, res.AttendanceID,
		cmd.BranchID, cmd.ClassTitle, res.Date, res.CheckedInAt,
		res.SessionNumber, res.Streak, res.CreditsBefore, res.CreditsAfter,
		res.Language,
	)
	if cmd.CorrelationID != "" {
		committed.BaseEvent = committed.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(committed)

	credits := shared.NewMemberCreditsChangedEvent(
		res.MemberID, res.MemberName, res.CreditsBefore, res.CreditsAfter,
		"check_in", res.Language,
	)
	if cmd.CorrelationID != "" {
		credits.BaseEvent = credits.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(credits)

	if res.MembershipActivated {
		_ = h.eventPublisher.Publish(shared.NewMembershipActivatedEvent(
			res.MemberID, res.StartDate, res.EndDate,
		))
	}
}
