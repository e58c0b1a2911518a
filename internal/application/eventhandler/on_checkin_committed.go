// Package eventhandler contains the domain event subscribers.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/attendance"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/notification"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/practice"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/pkg/retry"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/pkg/timeutil"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON CHECK-IN COMMITTED HANDLER
// Derives a practice event from every committed check-in.
//
// Responsibilities:
// 1. Load the member's prior visit history (excluding the triggering record)
// 2. Classify the check-in: gap type, time band, pattern shift
// 3. Resolve the display message in the member's language
// 4. Persist the practice event and publish PracticeEventRecorded
// 5. Hand the notice to the Notifier with bounded retries
//
// Runs strictly after commit. A failure here never affects the check-in
// itself; the attendance record and the credit decrement already happened.
// ═══════════════════════════════════════════════════════════════════════════

// OnCheckInCommittedHandler classifies committed check-ins into practice events.
type OnCheckInCommittedHandler struct {
	attendanceRepo attendance.Repository
	practiceRepo   practice.Repository

	publisher shared.EventPublisher
	notifier  notification.Notifier
	retrier   *retry.Retrier

	logger *slog.Logger
	config ClassifierConfig
}

// ClassifierConfig contains the classifier handler configuration.
type ClassifierConfig struct {
	// HistoryLimit is how many prior records to load for classification.
	HistoryLimit int

	// SendNotice controls whether the member-facing notice is delivered.
	// Classification and persistence happen regardless.
	SendNotice bool
}

// DefaultClassifierConfig returns the default configuration.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		HistoryLimit: attendance.PriorHistoryLimit,
		SendNotice:   true,
	}
}

// NewOnCheckInCommittedHandler creates the classifier handler.
func NewOnCheckInCommittedHandler(
	attendanceRepo attendance.Repository,
	practiceRepo practice.Repository,
	publisher shared.EventPublisher,
	notifier notification.Notifier,
	logger *slog.Logger,
	config ClassifierConfig,
) *OnCheckInCommittedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = attendance.PriorHistoryLimit
	}

	return &OnCheckInCommittedHandler{
		attendanceRepo: attendanceRepo,
		practiceRepo:   practiceRepo,
		publisher:      publisher,
		notifier:       notifier,
		retrier:        retry.NotifierRetrier(),
		logger:         logger.With("handler", "on_checkin_committed"),
		config:         config,
	}
}

// Handle processes a check-in committed event.
// Implements the shared.EventHandler contract.
func (h *OnCheckInCommittedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	checkIn, ok := event.(shared.CheckInCommittedEvent)
	if !ok {
		// Envelopes replayed from the redis bridge arrive untyped; the
		// instance that committed the check-in already classified it.
		h.logger.Debug("skipping untyped check-in event",
			"event_type", event.EventType(),
			"aggregate_id", event.AggregateID(),
		)
		return nil
	}

	prior, err := h.loadHistory(ctx, checkIn)
	if err != nil {
		h.logger.Error("failed to load visit history",
			"member_id", checkIn.MemberID,
			"error", err,
		)
		return fmt.Errorf("load visit history: %w", err)
	}

	eventType, patternCtx := practice.Classify(practice.Input{
		MemberID:     checkIn.MemberID,
		AttendanceID: checkIn.AttendanceID,
		Date:         checkIn.Date,
		Hour:         timeutil.ToSeoul(checkIn.CheckedInAt).Hour(),
		Streak:       checkIn.Streak,
		Prior:        prior,
	})

	lang := shared.NormalizeLanguage(checkIn.Language)
	practiceEvent := &practice.Event{
		ID:             uuid.NewString(),
		MemberID:       checkIn.MemberID,
		AttendanceID:   checkIn.AttendanceID,
		Type:           eventType,
		Context:        patternCtx,
		DisplayMessage: practice.Message(lang, eventType, patternCtx),
		TriggeredAt:    timeutil.Now(),
	}

	if err := h.practiceRepo.Insert(ctx, practiceEvent); err != nil {
		h.logger.Error("failed to store practice event",
			"member_id", checkIn.MemberID,
			"practice_type", string(eventType),
			"error", err,
		)
		return fmt.Errorf("store practice event: %w", err)
	}

	h.logger.Info("practice event recorded",
		"member_id", checkIn.MemberID,
		"practice_type", string(eventType),
		"gap_days", patternCtx.GapDays,
		"time_band", patternCtx.TimeBand.String(),
		"shift", patternCtx.ShiftDetails,
	)

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewPracticeEventRecordedEvent(
			checkIn.MemberID,
			practiceEvent.ID,
			checkIn.AttendanceID,
			string(eventType),
			patternCtx.GapDays,
			patternCtx.TimeBand.String(),
			patternCtx.ShiftDetails,
			practiceEvent.DisplayMessage,
		))
	}

	if h.config.SendNotice {
		h.deliverNotice(ctx, checkIn, practiceEvent)
	}

	return nil
}

// loadHistory returns the member's prior valid records, newest first, with
// the triggering record filtered out. Earlier same-day sessions stay in; the
// classifier needs them for the gap-zero case.
func (h *OnCheckInCommittedHandler) loadHistory(
	ctx context.Context,
	checkIn shared.CheckInCommittedEvent,
) ([]*attendance.Record, error) {
	records, err := h.attendanceRepo.RecentValid(ctx, checkIn.MemberID, h.config.HistoryLimit+1)
	if err != nil {
		return nil, err
	}

	prior := records[:0]
	for _, r := range records {
		if r.ID == checkIn.AttendanceID {
			continue
		}
		prior = append(prior, r)
	}
	if len(prior) > h.config.HistoryLimit {
		prior = prior[:h.config.HistoryLimit]
	}
	return prior, nil
}

// deliverNotice hands the member-facing message to the notifier with bounded
// retries. Exhaustion drops the notice; the practice event is already stored.
func (h *OnCheckInCommittedHandler) deliverNotice(
	ctx context.Context,
	checkIn shared.CheckInCommittedEvent,
	practiceEvent *practice.Event,
) {
	if h.notifier == nil {
		return
	}

	notice := notification.PracticeNotice{
		MemberID:     checkIn.MemberID,
		MemberName:   checkIn.MemberName,
		Language:     checkIn.Language,
		EventType:    string(practiceEvent.Type),
		Message:      practiceEvent.DisplayMessage,
		ShiftDetails: practiceEvent.Context.ShiftDetails,
		TriggeredAt:  practiceEvent.TriggeredAt,
	}

	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		return h.notifier.SendPracticeNotice(ctx, notice)
	})
	if err != nil {
		h.logger.Warn("practice notice dropped after retries",
			"member_id", checkIn.MemberID,
			"practice_type", notice.EventType,
			"error", err,
		)
	}
}

// EventType returns the event type this handler subscribes to.
func (h *OnCheckInCommittedHandler) EventType() shared.EventType {
	return shared.EventCheckInCommitted
}
