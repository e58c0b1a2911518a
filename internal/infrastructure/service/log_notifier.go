// Package service contains infrastructure adapters behind the domain ports:
// outbound notification transports and the membership plan catalog.
package service

import (
	"context"
	"log/slog"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/notification"
)

// LogNotifier implements notification.Notifier by writing every delivery to
// the application log. It is the wiring default until a real transport
// (KakaoTalk, SMS) is connected, and doubles as the development notifier.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a logging notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{
		logger: logger.With("channel", notification.ChannelTypeLog.String()),
	}
}

// SendPracticeNotice logs the practice-pattern message.
func (n *LogNotifier) SendPracticeNotice(ctx context.Context, notice notification.PracticeNotice) error {
	n.logger.InfoContext(ctx, "practice notice",
		"member_id", notice.MemberID,
		"member_name", notice.MemberName,
		"event_type", notice.EventType,
		"language", notice.Language,
		"shift", notice.ShiftDetails,
		"message", notice.Message,
	)
	return nil
}

// SendMemberNotice logs the direct member message.
func (n *LogNotifier) SendMemberNotice(ctx context.Context, notice notification.MemberNotice) error {
	n.logger.InfoContext(ctx, "member notice",
		"member_id", notice.MemberID,
		"member_name", notice.MemberName,
		"kind", notice.Kind,
		"language", notice.Language,
		"message", notice.Message,
	)
	return nil
}

// SendAnomalyAlert logs the staff alert at error level so it stands out in
// the stream the front desk watches.
func (n *LogNotifier) SendAnomalyAlert(ctx context.Context, alert notification.AnomalyAlert) error {
	n.logger.ErrorContext(ctx, "anomaly alert",
		"member_id", alert.MemberID,
		"member_name", alert.MemberName,
		"credits", alert.Credits,
		"detected_at", alert.DetectedAt,
	)
	return nil
}

// SendAdminReport logs the daily summary.
func (n *LogNotifier) SendAdminReport(ctx context.Context, report notification.AdminReport) error {
	n.logger.InfoContext(ctx, "admin report",
		"date", report.Date,
		"attendance_count", report.AttendanceCount,
		"new_registrations", report.NewRegistrations,
		"negative_credit_count", report.NegativeCreditCount,
		"generated_at", report.GeneratedAt,
	)
	return nil
}
