package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/notification"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/pkg/retry"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/pkg/timeutil"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON CREDITS CHANGED HANDLER
// Watches every credit balance change for two conditions:
//
// 1. Anomaly: the balance crossed from non-negative to negative. The engine
//    refuses check-ins at zero, so a negative balance means an out-of-band
//    mutation (manual correction, import, a bug). Staff gets alerted exactly
//    once per crossing; further decrements below zero stay silent.
// 2. Depletion: the balance dropped to exactly zero. The member gets a
//    renewal notice in their language.
// ═══════════════════════════════════════════════════════════════════════════

// OnCreditsChangedHandler monitors member credit balance transitions.
type OnCreditsChangedHandler struct {
	notifier  notification.Notifier
	publisher shared.EventPublisher
	retrier   *retry.Retrier
	logger    *slog.Logger
	config    CreditsMonitorConfig
}

// CreditsMonitorConfig contains the monitor configuration.
type CreditsMonitorConfig struct {
	// NotifyOnDepletion controls the member-facing zero-balance notice.
	// The staff anomaly alert is never disabled.
	NotifyOnDepletion bool
}

// DefaultCreditsMonitorConfig returns the default configuration.
func DefaultCreditsMonitorConfig() CreditsMonitorConfig {
	return CreditsMonitorConfig{NotifyOnDepletion: true}
}

// NewOnCreditsChangedHandler creates the credits monitor handler.
func NewOnCreditsChangedHandler(
	notifier notification.Notifier,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	config CreditsMonitorConfig,
) *OnCreditsChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnCreditsChangedHandler{
		notifier:  notifier,
		publisher: publisher,
		retrier:   retry.NotifierRetrier(),
		logger:    logger.With("handler", "on_credits_changed"),
		config:    config,
	}
}

// Handle processes a credits changed event.
// Implements the shared.EventHandler contract.
func (h *OnCreditsChangedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	change, ok := event.(shared.MemberCreditsChangedEvent)
	if !ok {
		// Envelopes replayed from the redis bridge arrive untyped; the
		// publishing instance already ran the monitor on the typed event.
		h.logger.Debug("skipping untyped credits event",
			"event_type", event.EventType(),
			"aggregate_id", event.AggregateID(),
		)
		return nil
	}

	// The crossing condition fires once: a balance already negative before
	// the change does not re-alert.
	if change.Before >= 0 && change.After < 0 {
		if err := h.alertAnomaly(ctx, change); err != nil {
			return fmt.Errorf("alert credit anomaly: %w", err)
		}
	}

	if change.After == 0 && change.After < change.Before && h.config.NotifyOnDepletion {
		h.notifyDepletion(ctx, change)
	}

	return nil
}

// alertAnomaly raises the staff alert for a negative balance.
func (h *OnCreditsChangedHandler) alertAnomaly(
	ctx context.Context,
	change shared.MemberCreditsChangedEvent,
) error {
	h.logger.Error("negative credit balance detected",
		"member_id", change.MemberID,
		"before", change.Before,
		"after", change.After,
		"reason", change.Reason,
	)

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewCreditAnomalyDetectedEvent(
			change.MemberID,
			change.MemberName,
			change.After,
		))
	}

	if h.notifier == nil {
		return nil
	}

	alert := notification.AnomalyAlert{
		MemberID:   change.MemberID,
		MemberName: change.MemberName,
		Credits:    change.After,
		DetectedAt: timeutil.Now(),
	}

	return h.retrier.Do(ctx, func(ctx context.Context) error {
		return h.notifier.SendAnomalyAlert(ctx, alert)
	})
}

// notifyDepletion sends the member the zero-balance renewal notice.
// Delivery failures are dropped after retries; the notice is advisory.
func (h *OnCreditsChangedHandler) notifyDepletion(
	ctx context.Context,
	change shared.MemberCreditsChangedEvent,
) {
	if h.notifier == nil {
		return
	}

	lang := shared.NormalizeLanguage(change.Language)
	notice := notification.MemberNotice{
		MemberID:   change.MemberID,
		MemberName: change.MemberName,
		Language:   lang.String(),
		Kind:       notification.KindCreditsDepleted,
		Message:    notification.NoticeText(notification.KindCreditsDepleted, lang.String()),
	}

	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		return h.notifier.SendMemberNotice(ctx, notice)
	})
	if err != nil {
		h.logger.Warn("credits depleted notice dropped after retries",
			"member_id", change.MemberID,
			"error", err,
		)
	}
}

// EventType returns the event type this handler subscribes to.
func (h *OnCreditsChangedHandler) EventType() shared.EventType {
	return shared.EventMemberCreditsChanged
}
