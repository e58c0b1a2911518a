package query

import (
	"context"
	"time"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/attendance"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/member"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DAILY REPORT QUERY
// Aggregates one civil day of studio operations for the owner's evening
// summary: attendance volume, new registrations, and how many members are
// sitting on a negative balance.
// ══════════════════════════════════════════════════════════════════════════════

// GetDailyReportQuery contains the report parameters.
type GetDailyReportQuery struct {
	// Date is the Seoul civil date (YYYY-MM-DD). Empty means today.
	Date string
}

// Validate checks the query parameters and defaults the date.
func (q *GetDailyReportQuery) Validate() error {
	if q.Date == "" {
		q.Date = timeutil.TodayDate()
		return nil
	}
	if _, err := timeutil.ParseCivilDate(q.Date); err != nil {
		return shared.NewDomainError("report", "Validate", shared.ErrInvalidFormat, "date must be YYYY-MM-DD")
	}
	return nil
}

// DailyReportResult contains the aggregated counts for one day.
type DailyReportResult struct {
	Date                string    `json:"date"`
	AttendanceCount     int       `json:"attendance_count"`
	NewRegistrations    int       `json:"new_registrations"`
	NegativeCreditCount int       `json:"negative_credit_count"`
	GeneratedAt         time.Time `json:"generated_at"`
}

// GetDailyReportHandler handles daily report queries.
type GetDailyReportHandler struct {
	attendanceRepo attendance.Repository
	memberRepo     member.Repository
}

// NewGetDailyReportHandler creates a new daily report handler.
func NewGetDailyReportHandler(attendanceRepo attendance.Repository, memberRepo member.Repository) *GetDailyReportHandler {
	return &GetDailyReportHandler{
		attendanceRepo: attendanceRepo,
		memberRepo:     memberRepo,
	}
}

// Handle executes the aggregation.
func (h *GetDailyReportHandler) Handle(ctx context.Context, q GetDailyReportQuery) (*DailyReportResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	attendanceCount, err := h.attendanceRepo.CountOnDate(ctx, q.Date)
	if err != nil {
		return nil, shared.WrapError("report", "CountAttendance", err)
	}

	day, err := timeutil.ParseCivilDate(q.Date)
	if err != nil {
		return nil, shared.NewDomainError("report", "Handle", shared.ErrInvalidFormat, "date must be YYYY-MM-DD")
	}
	from := timeutil.StartOfDay(day)
	to := timeutil.EndOfDay(day)

	newRegistrations, err := h.memberRepo.CountRegisteredBetween(ctx, from, to)
	if err != nil {
		return nil, shared.WrapError("report", "CountRegistrations", err)
	}

	negative, err := h.memberRepo.CountNegativeCredits(ctx)
	if err != nil {
		return nil, shared.WrapError("report", "CountNegativeCredits", err)
	}

	return &DailyReportResult{
		Date:                q.Date,
		AttendanceCount:     attendanceCount,
		NewRegistrations:    newRegistrations,
		NegativeCreditCount: negative,
		GeneratedAt:         timeutil.Now(),
	}, nil
}
