// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// MemberID represents a unique member identifier.
// Legacy members carry imported document IDs, new members carry UUIDs, so the
// format is only loosely constrained.
type MemberID string

var memberIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{4,64}$`)

// IsValid checks if the member ID has an acceptable format.
func (m MemberID) IsValid() bool {
	return memberIDRegex.MatchString(string(m))
}

// String returns the string representation.
func (m MemberID) String() string {
	return string(m)
}

// IsEmpty checks if the ID is empty.
func (m MemberID) IsEmpty() bool {
	return m == ""
}

// NewMemberID creates a new MemberID with validation.
func NewMemberID(id string) (MemberID, error) {
	mid := MemberID(strings.TrimSpace(id))
	if !mid.IsValid() {
		return "", NewDomainError("shared", "NewMemberID", ErrInvalidID, "invalid member ID format")
	}
	return mid, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Credits Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Credits represents a member's remaining class credits.
// The balance itself may legitimately be negative after administrative
// corrections; the check-in path never drives it below zero, the monitor
// watches for balances that got there some other way.
type Credits int

// IsNegative reports whether the balance is below zero.
func (c Credits) IsNegative() bool {
	return c < 0
}

// IsDepleted reports whether the balance is exactly zero.
func (c Credits) IsDepleted() bool {
	return c == 0
}

// CanCheckIn reports whether the balance allows a check-in.
func (c Credits) CanCheckIn() bool {
	return c > 0
}

// Int returns the underlying int value.
func (c Credits) Int() int {
	return int(c)
}

// ═══════════════════════════════════════════════════════════════════════════
// Language Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Language is a member's preferred message language.
type Language string

// Supported member languages. Korean is the studio default.
const (
	LangKorean   Language = "ko"
	LangEnglish  Language = "en"
	LangRussian  Language = "ru"
	LangChinese  Language = "zh"
	LangJapanese Language = "ja"
)

// DefaultLanguage is used when a member has no language preference.
const DefaultLanguage = LangKorean

// IsValid checks if the language is one of the supported codes.
func (l Language) IsValid() bool {
	switch l {
	case LangKorean, LangEnglish, LangRussian, LangChinese, LangJapanese:
		return true
	}
	return false
}

// String returns the string representation.
func (l Language) String() string {
	return string(l)
}

// NormalizeLanguage maps an arbitrary language string to a supported code,
// falling back to the studio default.
func NormalizeLanguage(value string) Language {
	l := Language(strings.ToLower(strings.TrimSpace(value)))
	if l.IsValid() {
		return l
	}
	return DefaultLanguage
}

// ═══════════════════════════════════════════════════════════════════════════
// Phone Value Object
// ═══════════════════════════════════════════════════════════════════════════

var digitsOnlyRegex = regexp.MustCompile(`[^0-9]`)

// PhoneDigits strips everything but digits from a phone number.
func PhoneDigits(phone string) string {
	return digitsOnlyRegex.ReplaceAllString(phone, "")
}

// PhoneLast4 returns the last four digits of a phone number, or "" when the
// number has fewer than four digits.
func PhoneLast4(phone string) string {
	digits := PhoneDigits(phone)
	if len(digits) < 4 {
		return ""
	}
	return digits[len(digits)-4:]
}

// MaskPhone masks all but the last four digits of a phone number for display.
func MaskPhone(phone string) string {
	digits := PhoneDigits(phone)
	if len(digits) <= 4 {
		return digits
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}

// ═══════════════════════════════════════════════════════════════════════════
// TimeRange Value Object
// ═══════════════════════════════════════════════════════════════════════════

// TimeRange represents a time period.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// IsValid checks if the time range is valid.
func (t TimeRange) IsValid() bool {
	return !t.From.IsZero() && !t.To.IsZero() && !t.From.After(t.To)
}

// Duration returns the duration of the time range.
func (t TimeRange) Duration() time.Duration {
	return t.To.Sub(t.From)
}

// Contains checks if a time is within the range.
func (t TimeRange) Contains(tm time.Time) bool {
	return (tm.Equal(t.From) || tm.After(t.From)) && (tm.Equal(t.To) || tm.Before(t.To))
}

// NewTimeRange creates a new TimeRange with validation.
func NewTimeRange(from, to time.Time) (TimeRange, error) {
	tr := TimeRange{From: from, To: to}
	if !tr.IsValid() {
		return TimeRange{}, NewDomainError("shared", "NewTimeRange", ErrInvalidArgument, "'from' must be before 'to'")
	}
	return tr, nil
}

// LastNDays returns a TimeRange for the last N days.
func LastNDays(n int) TimeRange {
	now := time.Now()
	return TimeRange{
		From: now.AddDate(0, 0, -n),
		To:   now,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Pagination Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Pagination represents pagination parameters.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Offset returns the offset for database queries.
func (p Pagination) Offset() int {
	if p.Page <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the limit for database queries.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// NewPagination creates a new Pagination with defaults.
func NewPagination(page, pageSize int) Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}

// DefaultPagination returns default pagination.
func DefaultPagination() Pagination {
	return NewPagination(1, DefaultPageSize)
}
