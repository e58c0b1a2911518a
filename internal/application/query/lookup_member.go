// Package query contains the read operations. Queries never modify state;
// each one is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"strings"
	"time"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/member"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOOKUP MEMBER QUERY
// Finds members by the last four digits of their phone number. This is the
// kiosk entry point, so the response is deliberately narrow: masked phone,
// no full number, and the lookup is rate limited per kiosk.
// ══════════════════════════════════════════════════════════════════════════════

// LookupRateLimiter bounds lookup attempts per caller key. The redis
// implementation uses a fixed one-minute window.
type LookupRateLimiter interface {
	// Allow reports whether the caller identified by key may perform
	// another lookup right now.
	Allow(ctx context.Context, key string) (bool, error)
}

// LookupMemberQuery contains the lookup parameters.
type LookupMemberQuery struct {
	// PhoneLast4 is exactly four digits.
	PhoneLast4 string

	// CallerKey identifies the kiosk or client for rate limiting.
	// Empty disables the limit check (internal callers).
	CallerKey string
}

// Validate checks the query parameters.
func (q *LookupMemberQuery) Validate() error {
	digits := strings.TrimSpace(q.PhoneLast4)
	if len(digits) != 4 {
		return shared.ErrInvalidPhoneDigits
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return shared.ErrInvalidPhoneDigits
		}
	}
	q.PhoneLast4 = digits
	return nil
}

// MemberSummaryDTO is the kiosk-facing view of a member. The full phone
// number never leaves the query layer.
type MemberSummaryDTO struct {
	MemberID        string `json:"member_id"`
	Name            string `json:"name"`
	MaskedPhone     string `json:"masked_phone"`
	MembershipType  string `json:"membership_type"`
	Credits         int    `json:"credits"`
	AttendanceCount int    `json:"attendance_count"`
	Streak          int    `json:"streak"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	IsExpired       bool   `json:"is_expired"`
	Language        string `json:"language"`
}

// LookupMemberResult contains the matching members.
type LookupMemberResult struct {
	Members     []MemberSummaryDTO `json:"members"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// LookupMemberHandler handles member lookups.
type LookupMemberHandler struct {
	memberRepo  member.Repository
	rateLimiter LookupRateLimiter
}

// NewLookupMemberHandler creates a new lookup handler. The rate limiter may
// be nil, in which case lookups are unbounded.
func NewLookupMemberHandler(memberRepo member.Repository, rateLimiter LookupRateLimiter) *LookupMemberHandler {
	return &LookupMemberHandler{
		memberRepo:  memberRepo,
		rateLimiter: rateLimiter,
	}
}

// Handle executes the lookup.
func (h *LookupMemberHandler) Handle(ctx context.Context, q LookupMemberQuery) (*LookupMemberResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if h.rateLimiter != nil && q.CallerKey != "" {
		allowed, err := h.rateLimiter.Allow(ctx, q.CallerKey)
		if err != nil {
			// A broken limiter must not take the kiosk down with it.
			allowed = true
		}
		if !allowed {
			return nil, shared.NewDomainError("member", "Lookup", shared.ErrRateLimited, "too many lookup attempts")
		}
	}

	members, err := h.memberRepo.FindByPhoneLast4(ctx, q.PhoneLast4)
	if err != nil {
		return nil, shared.WrapError("member", "Lookup", err)
	}

	today := timeutil.TodayDate()
	result := &LookupMemberResult{
		Members:     make([]MemberSummaryDTO, 0, len(members)),
		GeneratedAt: timeutil.Now(),
	}
	for _, m := range members {
		result.Members = append(result.Members, MemberSummaryDTO{
			MemberID:        m.ID,
			Name:            m.Name,
			MaskedPhone:     m.MaskedPhone(),
			MembershipType:  string(m.MembershipType),
			Credits:         m.Credits,
			AttendanceCount: m.AttendanceCount,
			Streak:          m.Streak,
			StartDate:       m.StartDate,
			EndDate:         m.EndDate,
			IsExpired:       m.IsExpired(today),
			Language:        m.Language.String(),
		})
	}

	return result, nil
}
