// Package notification defines the outbound delivery contract for the studio:
// member-facing notices, instructor alerts, and the daily admin report.
// Actual transports (KakaoTalk, SMS, push) live behind the Notifier interface
// and are out of scope here; infrastructure/service ships a logging adapter.
package notification

import (
	"context"
	"errors"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHANNEL TYPE
// ══════════════════════════════════════════════════════════════════════════════

// ChannelType identifies a delivery transport.
type ChannelType string

const (
	// ChannelTypeKakao delivers through KakaoTalk notification messages.
	ChannelTypeKakao ChannelType = "kakao"

	// ChannelTypeSMS delivers through SMS.
	ChannelTypeSMS ChannelType = "sms"

	// ChannelTypePush delivers through mobile push.
	ChannelTypePush ChannelType = "push"

	// ChannelTypeLog writes deliveries to the application log. Used in
	// development and as the wiring default until a real transport exists.
	ChannelTypeLog ChannelType = "log"
)

// IsValid checks the channel type.
func (ct ChannelType) IsValid() bool {
	switch ct {
	case ChannelTypeKakao, ChannelTypeSMS, ChannelTypePush, ChannelTypeLog:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (ct ChannelType) String() string {
	return string(ct)
}

// ══════════════════════════════════════════════════════════════════════════════
// PAYLOADS
// ══════════════════════════════════════════════════════════════════════════════

// PracticeNotice is the member-facing message derived from a practice event.
type PracticeNotice struct {
	MemberID   string
	MemberName string
	Language   string

	// EventType is the practice event kind, e.g. FLOW_MAINTAINED.
	EventType string

	// Message is the resolved display text in the member's language.
	Message string

	// ShiftDetails is "previous → new" for a pattern shift, empty otherwise.
	ShiftDetails string

	TriggeredAt time.Time
}

// MemberNotice is a direct member message outside the practice flow, such as
// the credits-depleted notice or an expiry reminder.
type MemberNotice struct {
	MemberID   string
	MemberName string
	Language   string
	Kind       string // e.g. "credits_depleted", "membership_expiring"
	Message    string
}

// AnomalyAlert is the staff-facing alert for a negative credit balance.
type AnomalyAlert struct {
	MemberID   string
	MemberName string
	Credits    int
	DetectedAt time.Time
}

// AdminReport is the daily operations summary for the studio owner.
type AdminReport struct {
	// Date is the Seoul civil date the report covers.
	Date string

	AttendanceCount  int
	NewRegistrations int

	// NegativeCreditCount is the number of members whose balance is below
	// zero at report time.
	NegativeCreditCount int

	GeneratedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFIER INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Notifier is the single outbound delivery port. Implementations must be safe
// for concurrent use; callers treat failures as non-fatal and retry or drop.
type Notifier interface {
	// SendPracticeNotice delivers a practice-pattern message to a member.
	SendPracticeNotice(ctx context.Context, notice PracticeNotice) error

	// SendMemberNotice delivers a direct message to a member.
	SendMemberNotice(ctx context.Context, notice MemberNotice) error

	// SendAnomalyAlert delivers a negative-balance alert to staff.
	SendAnomalyAlert(ctx context.Context, alert AnomalyAlert) error

	// SendAdminReport delivers the daily summary to the studio owner.
	SendAdminReport(ctx context.Context, report AdminReport) error
}

// ══════════════════════════════════════════════════════════════════════════════
// CHANNEL ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrChannelUnavailable - the transport is down.
	ErrChannelUnavailable = errors.New("notification channel is unavailable")

	// ErrDeliveryFailed - the transport rejected the message.
	ErrDeliveryFailed = errors.New("notification delivery failed")

	// ErrRateLimited - the transport throttled us.
	ErrRateLimited = errors.New("rate limited by channel")

	// ErrInvalidMessage - the payload is malformed.
	ErrInvalidMessage = errors.New("invalid notification message")
)
