// Package attendance contains domain entities and business logic for the
// studio's attendance ledger: check-in records, session numbering, and the
// consecutive-day streak calculation.
// This is a pure domain layer with zero external dependencies.
package attendance

import (
	"errors"
	"time"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/pkg/timeutil"
)

// Domain errors for attendance package.
var (
	ErrInvalidMemberID   = errors.New("attendance: invalid member ID")
	ErrInvalidBranchID   = errors.New("attendance: invalid branch ID")
	ErrInvalidClassTitle = errors.New("attendance: invalid class title")
	ErrInvalidDate       = errors.New("attendance: invalid civil date")
)

// Defaults for walk-in records where the kiosk sends no class details.
const (
	// DefaultClassTitle is the self-practice class used when no class is named.
	DefaultClassTitle = "자율수련"
	// DefaultInstructor marks a record with no assigned instructor.
	DefaultInstructor = "미지정"
)

// Status represents the outcome recorded for a check-in attempt.
type Status string

const (
	// StatusAttended is a valid check-in that consumed a credit.
	StatusAttended Status = "attended"
	// StatusDenied is a refused check-in. The member row was not touched;
	// the record exists only as an audit entry.
	StatusDenied Status = "denied"
)

// DenialReason explains why a check-in was refused.
type DenialReason string

const (
	// DenialExpired means the membership end date had passed.
	DenialExpired DenialReason = "expired"
	// DenialNoCredits means the credit balance was zero or below.
	DenialNoCredits DenialReason = "no_credits"
)

// Context is the point-in-time snapshot embedded in every valid record.
// It captures what was true at the moment of the check-in so that history
// stays interpretable after later membership changes.
type Context struct {
	// StreakAtTime is the consecutive-day streak including this visit.
	StreakAtTime int
	// CreditsBefore is the credit balance before this visit's decrement.
	CreditsBefore int
}

// Record is one row of the append-only attendance ledger.
type Record struct {
	ID         string
	MemberID   string
	MemberName string
	BranchID   string
	ClassName  string
	Instructor string
	ClassTime  string // scheduled class start, HH:MM, optional

	// Date is the Seoul civil date (YYYY-MM-DD), derived exactly once from
	// Timestamp at write time and never recomputed.
	Date      string
	Timestamp time.Time

	// SessionNumber distinguishes repeat visits to the same class on the
	// same day: first visit is 1, second is 2, and so on.
	SessionNumber int

	Status       Status
	DenialReason DenialReason
	Context      Context
}

// NewRecordParams holds the inputs for a valid (attended) record.
type NewRecordParams struct {
	ID            string
	MemberID      string
	MemberName    string
	BranchID      string
	ClassName     string
	Instructor    string
	ClassTime     string
	Timestamp     time.Time
	SessionNumber int
	StreakAtTime  int
	CreditsBefore int
}

// NewRecord creates a valid attendance record.
// Empty class details fall back to the self-practice defaults.
func NewRecord(params NewRecordParams) (*Record, error) {
	if params.MemberID == "" {
		return nil, ErrInvalidMemberID
	}
	if params.BranchID == "" {
		return nil, ErrInvalidBranchID
	}

	className := params.ClassName
	if className == "" {
		className = DefaultClassTitle
	}
	instructor := params.Instructor
	if instructor == "" {
		instructor = DefaultInstructor
	}
	sessionNumber := params.SessionNumber
	if sessionNumber < 1 {
		sessionNumber = 1
	}

	return &Record{
		ID:            params.ID,
		MemberID:      params.MemberID,
		MemberName:    params.MemberName,
		BranchID:      params.BranchID,
		ClassName:     className,
		Instructor:    instructor,
		ClassTime:     params.ClassTime,
		Date:          timeutil.CivilDate(params.Timestamp),
		Timestamp:     params.Timestamp,
		SessionNumber: sessionNumber,
		Status:        StatusAttended,
		Context: Context{
			StreakAtTime:  params.StreakAtTime,
			CreditsBefore: params.CreditsBefore,
		},
	}, nil
}

// NewDeniedRecord creates an audit entry for a refused check-in.
func NewDeniedRecord(id, memberID, memberName, branchID, className string, ts time.Time, reason DenialReason) *Record {
	if className == "" {
		className = DefaultClassTitle
	}
	return &Record{
		ID:           id,
		MemberID:     memberID,
		MemberName:   memberName,
		BranchID:     branchID,
		ClassName:    className,
		Instructor:   DefaultInstructor,
		Date:         timeutil.CivilDate(ts),
		Timestamp:    ts,
		Status:       StatusDenied,
		DenialReason: reason,
	}
}

// IsAttended reports whether the record consumed a credit.
func (r *Record) IsAttended() bool {
	return r.Status == StatusAttended
}

// Hour returns the Seoul wall-clock hour of the check-in.
func (r *Record) Hour() int {
	return timeutil.ToSeoul(r.Timestamp).Hour()
}
