package query

import (
	"context"
	"time"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/attendance"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/member"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/practice"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET MEMBER STATUS QUERY
// The post-check-in kiosk view: current balance and streak plus the member's
// recent visits and practice events. Member rows are served through the
// redis cache when one is wired; history always hits the database.
// ══════════════════════════════════════════════════════════════════════════════

// MemberCacheTTL is how long a member row stays cached on the read path.
// Writes invalidate eagerly, so a short TTL only bounds staleness after a
// missed invalidation.
const MemberCacheTTL = 5 * time.Minute

// GetMemberStatusQuery contains the status parameters.
type GetMemberStatusQuery struct {
	MemberID string

	// HistoryLimit bounds the visit and practice lists (default 5, max 30).
	HistoryLimit int
}

// Validate checks the query parameters.
func (q *GetMemberStatusQuery) Validate() error {
	if _, err := shared.NewMemberID(q.MemberID); err != nil {
		return err
	}
	if q.HistoryLimit <= 0 {
		q.HistoryLimit = 5
	}
	if q.HistoryLimit > 30 {
		q.HistoryLimit = 30
	}
	return nil
}

// VisitDTO is one attendance record in the status view.
type VisitDTO struct {
	Date          string `json:"date"`
	ClassName     string `json:"class_name"`
	Instructor    string `json:"instructor"`
	SessionNumber int    `json:"session_number"`
	Status        string `json:"status"`
}

// PracticeEventDTO is one derived practice event in the status view.
type PracticeEventDTO struct {
	Type         string    `json:"type"`
	GapDays      int       `json:"gap_days"`
	TimeBand     string    `json:"time_band"`
	ShiftDetails string    `json:"shift_details,omitempty"`
	Message      string    `json:"message"`
	TriggeredAt  time.Time `json:"triggered_at"`
}

// GetMemberStatusResult contains the assembled status view.
type GetMemberStatusResult struct {
	Member         MemberSummaryDTO   `json:"member"`
	RecentVisits   []VisitDTO         `json:"recent_visits"`
	RecentPractice []PracticeEventDTO `json:"recent_practice"`
	GeneratedAt    time.Time          `json:"generated_at"`
}

// GetMemberStatusHandler handles member status queries.
type GetMemberStatusHandler struct {
	memberRepo     member.Repository
	memberCache    member.Cache
	attendanceRepo attendance.Repository
	practiceRepo   practice.Repository
}

// NewGetMemberStatusHandler creates a new status handler. The cache may be
// nil, in which case every read hits the repository.
func NewGetMemberStatusHandler(
	memberRepo member.Repository,
	memberCache member.Cache,
	attendanceRepo attendance.Repository,
	practiceRepo practice.Repository,
) *GetMemberStatusHandler {
	return &GetMemberStatusHandler{
		memberRepo:     memberRepo,
		memberCache:    memberCache,
		attendanceRepo: attendanceRepo,
		practiceRepo:   practiceRepo,
	}
}

// Handle executes the status query.
func (h *GetMemberStatusHandler) Handle(ctx context.Context, q GetMemberStatusQuery) (*GetMemberStatusResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	m, err := h.loadMember(ctx, q.MemberID)
	if err != nil {
		return nil, err
	}

	visits, err := h.attendanceRepo.RecentValid(ctx, q.MemberID, q.HistoryLimit)
	if err != nil {
		return nil, shared.WrapError("member", "Status", err)
	}

	events, err := h.practiceRepo.RecentForMember(ctx, q.MemberID, q.HistoryLimit)
	if err != nil {
		return nil, shared.WrapError("member", "Status", err)
	}

	today := timeutil.TodayDate()
	result := &GetMemberStatusResult{
		Member: MemberSummaryDTO{
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
		},
		RecentVisits:   make([]VisitDTO, 0, len(visits)),
		RecentPractice: make([]PracticeEventDTO, 0, len(events)),
		GeneratedAt:    timeutil.Now(),
	}

	for _, v := range visits {
		result.RecentVisits = append(result.RecentVisits, VisitDTO{
			Date:          v.Date,
			ClassName:     v.ClassName,
			Instructor:    v.Instructor,
			SessionNumber: v.SessionNumber,
			Status:        string(v.Status),
		})
	}
	for _, e := range events {
		result.RecentPractice = append(result.RecentPractice, PracticeEventDTO{
			Type:         string(e.Type),
			GapDays:      e.Context.GapDays,
			TimeBand:     e.Context.TimeBand.String(),
			ShiftDetails: e.Context.ShiftDetails,
			Message:      e.DisplayMessage,
			TriggeredAt:  e.TriggeredAt,
		})
	}

	return result, nil
}

// loadMember serves the member row through the cache when possible.
func (h *GetMemberStatusHandler) loadMember(ctx context.Context, memberID string) (*member.Member, error) {
	if h.memberCache != nil {
		if cached, err := h.memberCache.Get(ctx, memberID); err == nil && cached != nil {
			return cached, nil
		}
	}

	m, err := h.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return nil, shared.WrapError("member", "Status", err)
	}

	if h.memberCache != nil {
		_ = h.memberCache.Set(ctx, m, MemberCacheTTL)
	}
	return m, nil
}
