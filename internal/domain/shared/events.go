// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Attendance events
	EventCheckInCommitted EventType = "attendance.checkin_committed"
	EventCheckInDenied    EventType = "attendance.checkin_denied"

	// Member events
	EventMemberCreditsChanged EventType = "member.credits_changed"
	EventMembershipActivated  EventType = "member.membership_activated"
	EventMembershipExpiring   EventType = "member.membership_expiring"

	// Practice pattern events
	EventPracticeEventRecorded EventType = "practice.event_recorded"

	// Monitoring events
	EventCreditAnomalyDetected EventType = "monitor.credit_anomaly_detected"
	EventCreditsDepleted       EventType = "monitor.credits_depleted"

	// Notification events
	EventNotificationSent   EventType = "notification.sent"
	EventNotificationFailed EventType = "notification.failed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Attendance Events
// ═══════════════════════════════════════════════════════════════════════════

// CheckInCommittedEvent is emitted after a check-in transaction commits.
// It is the single integration point between the transactional write path and
// downstream consumers (pattern classification, monitoring): consumers react
// to this event, never to database side effects.
type CheckInCommittedEvent struct {
	BaseEvent
	MemberID      string    `json:"member_id"`
	MemberName    string    `json:"member_name"`
	AttendanceID  string    `json:"attendance_id"`
	BranchID      string    `json:"branch_id"`
	ClassTitle    string    `json:"class_title"`
	Date          string    `json:"date"` // Seoul civil date, YYYY-MM-DD
	CheckedInAt   time.Time `json:"checked_in_at"`
	SessionNumber int       `json:"session_number"`
	Streak        int       `json:"streak"`
	CreditsBefore int       `json:"credits_before"`
	CreditsAfter  int       `json:"credits_after"`
	Language      string    `json:"language"`
}

// Payload implements Event interface.
func (e CheckInCommittedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id":      e.MemberID,
		"member_name":    e.MemberName,
		"attendance_id":  e.AttendanceID,
		"branch_id":      e.BranchID,
		"class_title":    e.ClassTitle,
		"date":           e.Date,
		"checked_in_at":  e.CheckedInAt.Format(time.RFC3339),
		"session_number": e.SessionNumber,
		"streak":         e.Streak,
		"credits_before": e.CreditsBefore,
		"credits_after":  e.CreditsAfter,
		"language":       e.Language,
	}
}

// NewCheckInCommittedEvent creates a new CheckInCommittedEvent.
func NewCheckInCommittedEvent(memberID, memberName, attendanceID, branchID, classTitle, date string, checkedInAt time.Time, sessionNumber, streak, creditsBefore, creditsAfter int, language string) CheckInCommittedEvent {
	return CheckInCommittedEvent{
		BaseEvent:     NewBaseEvent(EventCheckInCommitted, memberID),
		MemberID:      memberID,
		MemberName:    memberName,
		AttendanceID:  attendanceID,
		BranchID:      branchID,
		ClassTitle:    classTitle,
		Date:          date,
		CheckedInAt:   checkedInAt,
		SessionNumber: sessionNumber,
		Streak:        streak,
		CreditsBefore: creditsBefore,
		CreditsAfter:  creditsAfter,
		Language:      language,
	}
}

// CheckInDeniedEvent is emitted when a check-in is refused at a precondition.
// The member row is untouched; only the denied attendance record exists.
type CheckInDeniedEvent struct {
	BaseEvent
	MemberID   string `json:"member_id"`
	BranchID   string `json:"branch_id"`
	ClassTitle string `json:"class_title"`
	Reason     string `json:"reason"` // "expired" or "no_credits"
}

// Payload implements Event interface.
func (e CheckInDeniedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id":   e.MemberID,
		"branch_id":   e.BranchID,
		"class_title": e.ClassTitle,
		"reason":      e.Reason,
	}
}

// NewCheckInDeniedEvent creates a new CheckInDeniedEvent.
func NewCheckInDeniedEvent(memberID, branchID, classTitle, reason string) CheckInDeniedEvent {
	return CheckInDeniedEvent{
		BaseEvent:  NewBaseEvent(EventCheckInDenied, memberID),
		MemberID:   memberID,
		BranchID:   branchID,
		ClassTitle: classTitle,
		Reason:     reason,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Member Events
// ═══════════════════════════════════════════════════════════════════════════

// MemberCreditsChangedEvent is emitted whenever a member's credit balance
// changes. The monitor watches the before/after pair for the non-negative to
// negative transition and for depletion to exactly zero.
type MemberCreditsChangedEvent struct {
	BaseEvent
	MemberID   string `json:"member_id"`
	MemberName string `json:"member_name"`
	Before     int    `json:"before"`
	After      int    `json:"after"`
	Reason     string `json:"reason"` // e.g., "check_in", "admin_adjustment"
	Language   string `json:"language"`
}

// Payload implements Event interface.
func (e MemberCreditsChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id":   e.MemberID,
		"member_name": e.MemberName,
		"before":      e.Before,
		"after":       e.After,
		"reason":      e.Reason,
		"language":    e.Language,
	}
}

// NewMemberCreditsChangedEvent creates a new MemberCreditsChangedEvent.
func NewMemberCreditsChangedEvent(memberID, memberName string, before, after int, reason, language string) MemberCreditsChangedEvent {
	return MemberCreditsChangedEvent{
		BaseEvent:  NewBaseEvent(EventMemberCreditsChanged, memberID),
		MemberID:   memberID,
		MemberName: memberName,
		Before:     before,
		After:      after,
		Reason:     reason,
		Language:   language,
	}
}

// MembershipActivatedEvent is emitted when a pending membership (start date
// not yet decided) is activated by the member's first check-in.
type MembershipActivatedEvent struct {
	BaseEvent
	MemberID  string `json:"member_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Payload implements Event interface.
func (e MembershipActivatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id":  e.MemberID,
		"start_date": e.StartDate,
		"end_date":   e.EndDate,
	}
}

// NewMembershipActivatedEvent creates a new MembershipActivatedEvent.
func NewMembershipActivatedEvent(memberID, startDate, endDate string) MembershipActivatedEvent {
	return MembershipActivatedEvent{
		BaseEvent: NewBaseEvent(EventMembershipActivated, memberID),
		MemberID:  memberID,
		StartDate: startDate,
		EndDate:   endDate,
	}
}

// MembershipExpiringEvent is emitted by the daily sweep for members whose
// membership ends today.
type MembershipExpiringEvent struct {
	BaseEvent
	MemberID   string `json:"member_id"`
	MemberName string `json:"member_name"`
	EndDate    string `json:"end_date"`
	Language   string `json:"language"`
}

// Payload implements Event interface.
func (e MembershipExpiringEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id":   e.MemberID,
		"member_name": e.MemberName,
		"end_date":    e.EndDate,
		"language":    e.Language,
	}
}

// NewMembershipExpiringEvent creates a new MembershipExpiringEvent.
func NewMembershipExpiringEvent(memberID, memberName, endDate, language string) MembershipExpiringEvent {
	return MembershipExpiringEvent{
		BaseEvent:  NewBaseEvent(EventMembershipExpiring, memberID),
		MemberID:   memberID,
		MemberName: memberName,
		EndDate:    endDate,
		Language:   language,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Practice Pattern Events
// ═══════════════════════════════════════════════════════════════════════════

// PracticeEventRecordedEvent is emitted after the classifier derives and
// stores a practice event for a committed check-in.
type PracticeEventRecordedEvent struct {
	BaseEvent
	MemberID       string `json:"member_id"`
	PracticeID     string `json:"practice_id"`
	AttendanceID   string `json:"attendance_id"`
	PracticeType   string `json:"practice_type"` // e.g., FLOW_MAINTAINED
	GapDays        int    `json:"gap_days"`
	TimeBand       string `json:"time_band"`
	ShiftDetails   string `json:"shift_details,omitempty"`
	DisplayMessage string `json:"display_message"`
}

// Payload implements Event interface.
func (e PracticeEventRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id":       e.MemberID,
		"practice_id":     e.PracticeID,
		"attendance_id":   e.AttendanceID,
		"practice_type":   e.PracticeType,
		"gap_days":        e.GapDays,
		"time_band":       e.TimeBand,
		"shift_details":   e.ShiftDetails,
		"display_message": e.DisplayMessage,
	}
}

// NewPracticeEventRecordedEvent creates a new PracticeEventRecordedEvent.
func NewPracticeEventRecordedEvent(memberID, practiceID, attendanceID, practiceType string, gapDays int, timeBand, shiftDetails, displayMessage string) PracticeEventRecordedEvent {
	return PracticeEventRecordedEvent{
		BaseEvent:      NewBaseEvent(EventPracticeEventRecorded, memberID),
		MemberID:       memberID,
		PracticeID:     practiceID,
		AttendanceID:   attendanceID,
		PracticeType:   practiceType,
		GapDays:        gapDays,
		TimeBand:       timeBand,
		ShiftDetails:   shiftDetails,
		DisplayMessage: displayMessage,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Monitoring Events
// ═══════════════════════════════════════════════════════════════════════════

// CreditAnomalyDetectedEvent is emitted exactly once when a member's balance
// crosses from non-negative to negative.
type CreditAnomalyDetectedEvent struct {
	BaseEvent
	MemberID   string `json:"member_id"`
	MemberName string `json:"member_name"`
	Credits    int    `json:"credits"`
}

// Payload implements Event interface.
func (e CreditAnomalyDetectedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id":   e.MemberID,
		"member_name": e.MemberName,
		"credits":     e.Credits,
	}
}

// NewCreditAnomalyDetectedEvent creates a new CreditAnomalyDetectedEvent.
func NewCreditAnomalyDetectedEvent(memberID, memberName string, credits int) CreditAnomalyDetectedEvent {
	return CreditAnomalyDetectedEvent{
		BaseEvent:  NewBaseEvent(EventCreditAnomalyDetected, memberID),
		MemberID:   memberID,
		MemberName: memberName,
		Credits:    credits,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
