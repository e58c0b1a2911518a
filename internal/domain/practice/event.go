// Package practice derives practice-pattern events from a member's committed
// attendance history: gap classification, time-of-day bands, and pattern-shift
// detection. Everything here is pure; persistence and delivery live elsewhere.
package practice

import (
	"errors"
	"time"
)

// Domain errors for practice package.
var (
	ErrInvalidMemberID     = errors.New("practice: invalid member ID")
	ErrInvalidAttendanceID = errors.New("practice: invalid attendance ID")
	ErrUnknownEventType    = errors.New("practice: unknown event type")
)

// EventType is the kind of practice pattern detected for a check-in.
type EventType string

const (
	// FlowMaintained covers regular practice: no gap, or a gap under a week.
	FlowMaintained EventType = "FLOW_MAINTAINED"
	// GapDetected covers a return after one to four weeks away.
	GapDetected EventType = "GAP_DETECTED"
	// FlowResumed covers a return after thirty days or more.
	FlowResumed EventType = "FLOW_RESUMED"
	// PatternShifted covers a move to a different habitual time band.
	PatternShifted EventType = "PATTERN_SHIFTED"
)

// IsValid checks if the event type is one of the defined kinds.
func (t EventType) IsValid() bool {
	switch t {
	case FlowMaintained, GapDetected, FlowResumed, PatternShifted:
		return true
	}
	return false
}

// String returns the string representation.
func (t EventType) String() string {
	return string(t)
}

// Gap thresholds in civil days.
const (
	// GapThresholdDetected is the smallest gap classified as GAP_DETECTED.
	GapThresholdDetected = 7
	// GapThresholdResumed is the smallest gap classified as FLOW_RESUMED.
	GapThresholdResumed = 30
)

// WindowDays is the size of the classifier's analysis window.
const WindowDays = 30

// ShiftMinRecords is the minimum number of recent prior records required
// before a pattern shift can be called at all.
const ShiftMinRecords = 3

// ShiftRecentCount is how many of the most recent prior records the shift
// detector considers.
const ShiftRecentCount = 5

// Context carries the derived metrics alongside a practice event.
type Context struct {
	// GapDays is the civil-day distance to the most recent prior visit.
	// Zero when there is no prior visit in the window.
	GapDays int
	// Streak is the consecutive-day streak at the time of the check-in.
	Streak int
	// TimeBand is the band of the triggering check-in.
	TimeBand Band
	// PreviousTimeBand is the habitual band before this check-in.
	// Empty when no habit could be established.
	PreviousTimeBand Band
	// ShiftDetails is "previous → new" for PATTERN_SHIFTED, empty otherwise.
	ShiftDetails string
}

// Event is a derived practice-pattern observation for one check-in.
type Event struct {
	ID           string
	MemberID     string
	AttendanceID string
	Type         EventType
	Context      Context

	// DisplayMessage is the member-facing text in the member's language,
	// resolved from the fixed template table.
	DisplayMessage string

	TriggeredAt time.Time
}
