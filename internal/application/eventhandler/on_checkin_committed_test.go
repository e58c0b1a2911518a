package eventhandler

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/attendance"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/practice"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/pkg/timeutil"
)

// fakeAttendanceRepo serves canned history. Only the methods the classifier
// touches are implemented.
type fakeAttendanceRepo struct {
	attendance.Repository
	records []*attendance.Record
	err     error
}

func (f *fakeAttendanceRepo) RecentValid(_ context.Context, memberID string, limit int) ([]*attendance.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*attendance.Record
	for _, r := range f.records {
		if r.MemberID != memberID || !r.IsAttended() {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakePracticeRepo struct {
	practice.Repository
	stored []*practice.Event
	err    error
}

func (f *fakePracticeRepo) Insert(_ context.Context, e *practice.Event) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, e)
	return nil
}

func visitAt(date string, hour int) *attendance.Record {
	day, _ := timeutil.ParseCivilDate(date)
	return &attendance.Record{
		ID:        "att-" + date,
		MemberID:  "m-1001",
		BranchID:  "gangnam",
		ClassName: attendance.DefaultClassTitle,
		Date:      date,
		Timestamp: day.Add(time.Duration(hour) * time.Hour),
		Status:    attendance.StatusAttended,
	}
}

func committedCheckIn(date string, hour int) shared.CheckInCommittedEvent {
	return shared.NewCheckInCommittedEvent(
		"m-1001", "김하늘", "att-new", "gangnam", "하타요가", date,
		timeutil.DateTime(2026, 3, 10, hour, 30, 0),
		1, 1, 5, 4, "ko",
	)
}

func newClassifier(
	attRepo *fakeAttendanceRepo,
	pracRepo *fakePracticeRepo,
	pub *capturingPublisher,
	notifier *recordingNotifier,
) *OnCheckInCommittedHandler {
	return NewOnCheckInCommittedHandler(attRepo, pracRepo, pub, notifier, nil, DefaultClassifierConfig())
}

func TestClassifierFirstVisit(t *testing.T) {
	attRepo := &fakeAttendanceRepo{}
	pracRepo := &fakePracticeRepo{}
	pub := &capturingPublisher{}
	notifier := &recordingNotifier{}

	err := newClassifier(attRepo, pracRepo, pub, notifier).Handle(committedCheckIn("2026-03-10", 9))
	require.NoError(t, err)

	require.Len(t, pracRepo.stored, 1)
	stored := pracRepo.stored[0]
	assert.Equal(t, practice.FlowMaintained, stored.Type)
	assert.Equal(t, 0, stored.Context.GapDays)
	assert.Equal(t, practice.BandMorning, stored.Context.TimeBand)
	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, "att-new", stored.AttendanceID)
	assert.NotEmpty(t, stored.DisplayMessage)

	require.Len(t, pub.events, 1)
	assert.Equal(t, shared.EventPracticeEventRecorded, pub.events[0].EventType())

	require.Len(t, notifier.practiceNotices, 1)
	assert.Equal(t, stored.DisplayMessage, notifier.practiceNotices[0].Message)
	assert.Equal(t, "ko", notifier.practiceNotices[0].Language)
}

func TestClassifierGapDetected(t *testing.T) {
	attRepo := &fakeAttendanceRepo{records: []*attendance.Record{
		visitAt("2026-02-28", 9),
	}}
	pracRepo := &fakePracticeRepo{}

	err := newClassifier(attRepo, pracRepo, &capturingPublisher{}, &recordingNotifier{}).
		Handle(committedCheckIn("2026-03-10", 9))
	require.NoError(t, err)

	require.Len(t, pracRepo.stored, 1)
	assert.Equal(t, practice.GapDetected, pracRepo.stored[0].Type)
	assert.Equal(t, 10, pracRepo.stored[0].Context.GapDays)
}

func TestClassifierExcludesTriggeringRecord(t *testing.T) {
	// The freshly committed record comes back from the repository too; the
	// gap must be measured against the visit before it.
	trigger := visitAt("2026-03-10", 9)
	trigger.ID = "att-new"
	attRepo := &fakeAttendanceRepo{records: []*attendance.Record{
		trigger,
		visitAt("2026-03-09", 9),
	}}
	pracRepo := &fakePracticeRepo{}

	err := newClassifier(attRepo, pracRepo, &capturingPublisher{}, &recordingNotifier{}).
		Handle(committedCheckIn("2026-03-10", 9))
	require.NoError(t, err)

	require.Len(t, pracRepo.stored, 1)
	assert.Equal(t, practice.FlowMaintained, pracRepo.stored[0].Type)
	assert.Equal(t, 1, pracRepo.stored[0].Context.GapDays)
}

func TestClassifierHistoryLoadFailure(t *testing.T) {
	attRepo := &fakeAttendanceRepo{err: errors.New("connection reset")}
	pracRepo := &fakePracticeRepo{}

	err := newClassifier(attRepo, pracRepo, &capturingPublisher{}, &recordingNotifier{}).
		Handle(committedCheckIn("2026-03-10", 9))
	require.Error(t, err)
	assert.Empty(t, pracRepo.stored)
}

func TestClassifierStoreFailure(t *testing.T) {
	pracRepo := &fakePracticeRepo{err: errors.New("insert failed")}
	pub := &capturingPublisher{}
	notifier := &recordingNotifier{}

	err := newClassifier(&fakeAttendanceRepo{}, pracRepo, pub, notifier).
		Handle(committedCheckIn("2026-03-10", 9))
	require.Error(t, err)

	// Nothing downstream of a failed store.
	assert.Empty(t, pub.events)
	assert.Empty(t, notifier.practiceNotices)
}

func TestClassifierNotifierFailureIsSwallowed(t *testing.T) {
	pracRepo := &fakePracticeRepo{}
	pub := &capturingPublisher{}
	notifier := &recordingNotifier{fail: errors.New("channel down")}

	err := newClassifier(&fakeAttendanceRepo{}, pracRepo, pub, notifier).
		Handle(committedCheckIn("2026-03-10", 9))
	require.NoError(t, err)

	// The event is stored and published even when delivery is exhausted.
	assert.Len(t, pracRepo.stored, 1)
	assert.Len(t, pub.events, 1)
}

func TestClassifierNoticeDisabled(t *testing.T) {
	pracRepo := &fakePracticeRepo{}
	notifier := &recordingNotifier{}
	cfg := DefaultClassifierConfig()
	cfg.SendNotice = false
	h := NewOnCheckInCommittedHandler(&fakeAttendanceRepo{}, pracRepo, &capturingPublisher{}, notifier, nil, cfg)

	require.NoError(t, h.Handle(committedCheckIn("2026-03-10", 9)))

	assert.Len(t, pracRepo.stored, 1)
	assert.Empty(t, notifier.practiceNotices)
}

func TestClassifierIgnoresOtherEvents(t *testing.T) {
	pracRepo := &fakePracticeRepo{}
	h := newClassifier(&fakeAttendanceRepo{}, pracRepo, &capturingPublisher{}, &recordingNotifier{})

	err := h.Handle(shared.NewCheckInDeniedEvent("m-1001", "gangnam", "하타요가", "no_credits"))
	require.NoError(t, err)
	assert.Empty(t, pracRepo.stored)
}

func TestClassifierSkipsReplayedEnvelopesQuietly(t *testing.T) {
	pracRepo := &fakePracticeRepo{}
	logs := &recordingLogHandler{}
	h := NewOnCheckInCommittedHandler(
		&fakeAttendanceRepo{}, pracRepo, &capturingPublisher{}, &recordingNotifier{},
		slog.New(logs), DefaultClassifierConfig())

	// A check-in committed on another instance arrives as a wire envelope;
	// its own instance already classified it.
	err := h.Handle(wireShapedEvent{
		eventType:   shared.EventCheckInCommitted,
		aggregateID: "m-1001",
	})
	require.NoError(t, err)

	assert.Empty(t, pracRepo.stored)
	for _, r := range logs.records {
		assert.Less(t, r.Level, slog.LevelWarn)
	}
}
