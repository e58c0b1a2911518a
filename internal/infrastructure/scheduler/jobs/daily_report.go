package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/application/query"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/notification"
)

// ══════════════════════════════════════════════════════════════════════════════
// DAILY REPORT JOB
// ══════════════════════════════════════════════════════════════════════════════

// DailyReportJob assembles the evening operations summary and delivers it to
// the studio owner. It runs at 23:00 Seoul time, after the last class, so the
// counts cover the full civil day.
type DailyReportJob struct {
	reports  *query.GetDailyReportHandler
	notifier notification.Notifier
	logger   *slog.Logger

	config DailyReportConfig

	lastReport atomic.Value // *query.DailyReportResult
}

// DailyReportConfig contains configuration for the report job.
type DailyReportConfig struct {
	// Enabled toggles delivery without unregistering the job.
	Enabled bool

	// Timeout is the maximum duration for one report run.
	Timeout time.Duration
}

// DefaultDailyReportConfig returns sensible defaults.
func DefaultDailyReportConfig() DailyReportConfig {
	return DailyReportConfig{
		Enabled: true,
		Timeout: 2 * time.Minute,
	}
}

// NewDailyReportJob creates the report job.
func NewDailyReportJob(
	reports *query.GetDailyReportHandler,
	notifier notification.Notifier,
	logger *slog.Logger,
	config DailyReportConfig,
) *DailyReportJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &DailyReportJob{
		reports:  reports,
		notifier: notifier,
		logger:   logger.With("job", "daily_report"),
		config:   config,
	}
}

// Name returns the job name.
func (j *DailyReportJob) Name() string {
	return "daily_report"
}

// Description returns a human-readable description.
func (j *DailyReportJob) Description() string {
	return "Sends the daily operations summary to the studio owner"
}

// Run builds and delivers today's report.
func (j *DailyReportJob) Run(ctx context.Context) error {
	if !j.config.Enabled {
		j.logger.Info("daily report is disabled")
		return nil
	}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	// Empty date means today in Seoul.
	result, err := j.reports.Handle(ctx, query.GetDailyReportQuery{})
	if err != nil {
		return fmt.Errorf("build daily report: %w", err)
	}

	j.lastReport.Store(result)

	report := notification.AdminReport{
		Date:                result.Date,
		AttendanceCount:     result.AttendanceCount,
		NewRegistrations:    result.NewRegistrations,
		NegativeCreditCount: result.NegativeCreditCount,
		GeneratedAt:         result.GeneratedAt,
	}

	if err := j.notifier.SendAdminReport(ctx, report); err != nil {
		return fmt.Errorf("deliver daily report: %w", err)
	}

	j.logger.Info("daily report delivered",
		"date", result.Date,
		"attendance", result.AttendanceCount,
		"registrations", result.NewRegistrations,
		"negative_credits", result.NegativeCreditCount,
	)

	return nil
}

// LastReport returns the most recently generated report.
func (j *DailyReportJob) LastReport() *query.DailyReportResult {
	report := j.lastReport.Load()
	if report == nil {
		return nil
	}
	return report.(*query.DailyReportResult)
}
