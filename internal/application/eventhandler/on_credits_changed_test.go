package eventhandler

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/notification"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"
)

// wireShapedEvent carries only the serialized form, the shape a remote
// envelope has after the redis bridge replays it.
type wireShapedEvent struct {
	eventType   shared.EventType
	aggregateID string
}

func (e wireShapedEvent) EventType() shared.EventType     { return e.eventType }
func (e wireShapedEvent) AggregateID() string             { return e.aggregateID }
func (e wireShapedEvent) OccurredAt() time.Time           { return time.Now() }
func (e wireShapedEvent) Payload() map[string]interface{} { return nil }

// recordingLogHandler captures log records for level assertions.
type recordingLogHandler struct {
	records []slog.Record
}

func (h *recordingLogHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingLogHandler) Handle(_ context.Context, r slog.Record) error {
	h.records = append(h.records, r)
	return nil
}

func (h *recordingLogHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingLogHandler) WithGroup(string) slog.Handler      { return h }

// recordingNotifier captures every delivery for assertions.
type recordingNotifier struct {
	practiceNotices []notification.PracticeNotice
	memberNotices   []notification.MemberNotice
	anomalyAlerts   []notification.AnomalyAlert
	adminReports    []notification.AdminReport

	// fail makes every delivery return an error.
	fail error
}

func (n *recordingNotifier) SendPracticeNotice(_ context.Context, notice notification.PracticeNotice) error {
	if n.fail != nil {
		return n.fail
	}
	n.practiceNotices = append(n.practiceNotices, notice)
	return nil
}

func (n *recordingNotifier) SendMemberNotice(_ context.Context, notice notification.MemberNotice) error {
	if n.fail != nil {
		return n.fail
	}
	n.memberNotices = append(n.memberNotices, notice)
	return nil
}

func (n *recordingNotifier) SendAnomalyAlert(_ context.Context, alert notification.AnomalyAlert) error {
	if n.fail != nil {
		return n.fail
	}
	n.anomalyAlerts = append(n.anomalyAlerts, alert)
	return nil
}

func (n *recordingNotifier) SendAdminReport(_ context.Context, report notification.AdminReport) error {
	if n.fail != nil {
		return n.fail
	}
	n.adminReports = append(n.adminReports, report)
	return nil
}

type capturingPublisher struct {
	events []shared.Event
}

func (p *capturingPublisher) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

func creditsChanged(before, after int) shared.MemberCreditsChangedEvent {
	return shared.NewMemberCreditsChangedEvent("m-1001", "김하늘", before, after, "admin_adjustment", "ko")
}

func TestCreditsMonitorFiresOnNegativeCrossing(t *testing.T) {
	notifier := &recordingNotifier{}
	pub := &capturingPublisher{}
	h := NewOnCreditsChangedHandler(notifier, pub, nil, DefaultCreditsMonitorConfig())

	require.NoError(t, h.Handle(creditsChanged(2, -1)))

	require.Len(t, notifier.anomalyAlerts, 1)
	assert.Equal(t, "m-1001", notifier.anomalyAlerts[0].MemberID)
	assert.Equal(t, -1, notifier.anomalyAlerts[0].Credits)

	require.Len(t, pub.events, 1)
	assert.Equal(t, shared.EventCreditAnomalyDetected, pub.events[0].EventType())
}

func TestCreditsMonitorFiresOnceAcrossTransitions(t *testing.T) {
	notifier := &recordingNotifier{}
	pub := &capturingPublisher{}
	h := NewOnCreditsChangedHandler(notifier, pub, nil, DefaultCreditsMonitorConfig())

	// 2 -> -1 crosses; -1 -> -2 stays negative and must not re-alert.
	require.NoError(t, h.Handle(creditsChanged(2, -1)))
	require.NoError(t, h.Handle(creditsChanged(-1, -2)))

	assert.Len(t, notifier.anomalyAlerts, 1)
	assert.Len(t, pub.events, 1)
}

func TestCreditsMonitorZeroFromNegativeIsSilent(t *testing.T) {
	notifier := &recordingNotifier{}
	h := NewOnCreditsChangedHandler(notifier, &capturingPublisher{}, nil, DefaultCreditsMonitorConfig())

	// Topping a negative balance back up to zero is a correction, not a
	// depletion and not an anomaly.
	require.NoError(t, h.Handle(creditsChanged(-3, 0)))

	assert.Empty(t, notifier.anomalyAlerts)
	assert.Empty(t, notifier.memberNotices)
}

func TestCreditsMonitorDepletionNotice(t *testing.T) {
	notifier := &recordingNotifier{}
	h := NewOnCreditsChangedHandler(notifier, &capturingPublisher{}, nil, DefaultCreditsMonitorConfig())

	require.NoError(t, h.Handle(creditsChanged(1, 0)))

	require.Len(t, notifier.memberNotices, 1)
	notice := notifier.memberNotices[0]
	assert.Equal(t, notification.KindCreditsDepleted, notice.Kind)
	assert.Equal(t, "ko", notice.Language)
	assert.NotEmpty(t, notice.Message)
	assert.Empty(t, notifier.anomalyAlerts)
}

func TestCreditsMonitorDepletionDisabled(t *testing.T) {
	notifier := &recordingNotifier{}
	h := NewOnCreditsChangedHandler(notifier, &capturingPublisher{}, nil, CreditsMonitorConfig{NotifyOnDepletion: false})

	require.NoError(t, h.Handle(creditsChanged(1, 0)))

	assert.Empty(t, notifier.memberNotices)
}

func TestCreditsMonitorIgnoresOtherEvents(t *testing.T) {
	notifier := &recordingNotifier{}
	h := NewOnCreditsChangedHandler(notifier, &capturingPublisher{}, nil, DefaultCreditsMonitorConfig())

	err := h.Handle(shared.NewCheckInDeniedEvent("m-1001", "gangnam", "하타요가", "expired"))
	require.NoError(t, err)

	assert.Empty(t, notifier.anomalyAlerts)
	assert.Empty(t, notifier.memberNotices)
}

func TestCreditsMonitorSkipsReplayedEnvelopesQuietly(t *testing.T) {
	notifier := &recordingNotifier{}
	logs := &recordingLogHandler{}
	h := NewOnCreditsChangedHandler(notifier, &capturingPublisher{}, slog.New(logs), DefaultCreditsMonitorConfig())

	err := h.Handle(wireShapedEvent{
		eventType:   shared.EventMemberCreditsChanged,
		aggregateID: "m-1001",
	})
	require.NoError(t, err)

	assert.Empty(t, notifier.anomalyAlerts)
	assert.Empty(t, notifier.memberNotices)

	// The skip is routine under the redis bridge, not warn-worthy noise.
	for _, r := range logs.records {
		assert.Less(t, r.Level, slog.LevelWarn)
	}
}
