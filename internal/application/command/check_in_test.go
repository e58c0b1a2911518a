package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/attendance"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/member"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/pkg/timeutil"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeStore struct {
	members map[string]*member.Member
	records []*attendance.Record

	// conflicts makes the next N transactions fail with a conflict.
	conflicts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{members: make(map[string]*member.Member)}
}

var errFakeConflict = shared.NewDomainError("postgres", "CheckIn", shared.ErrConflict, "serialization failure")

func (s *fakeStore) WithCheckIn(ctx context.Context, memberID string, fn func(context.Context, CheckInTx) error) error {
	if s.conflicts > 0 {
		s.conflicts--
		return errFakeConflict
	}

	tx := &fakeTx{store: s, memberID: memberID}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	if tx.updated != nil {
		s.members[memberID] = tx.updated
	}
	s.records = append(s.records, tx.inserted...)
	return nil
}

func (s *fakeStore) RecentBefore(_ context.Context, memberID, date string, limit int) ([]*attendance.Record, error) {
	return filterRecords(s.records, memberID, date, limit), nil
}

func (s *fakeStore) InsertDenied(_ context.Context, r *attendance.Record) error {
	s.records = append(s.records, r)
	return nil
}

type fakeTx struct {
	store    *fakeStore
	memberID string
	updated  *member.Member
	inserted []*attendance.Record
}

func (t *fakeTx) Member(context.Context) (*member.Member, error) {
	m, ok := t.store.members[t.memberID]
	if !ok {
		return nil, shared.ErrMemberNotFound
	}
	return m.Clone(), nil
}

func (t *fakeTx) RecentBefore(_ context.Context, date string, limit int) ([]*attendance.Record, error) {
	return filterRecords(t.store.records, t.memberID, date, limit), nil
}

func (t *fakeTx) CountSameSession(_ context.Context, date, className string) (int, error) {
	count := 0
	for _, r := range t.store.records {
		if r.MemberID == t.memberID && r.Date == date && r.ClassName == className {
			count++
		}
	}
	return count, nil
}

func (t *fakeTx) UpdateMember(_ context.Context, m *member.Member) error {
	t.updated = m.Clone()
	return nil
}

func (t *fakeTx) InsertRecord(_ context.Context, r *attendance.Record) error {
	t.inserted = append(t.inserted, r)
	return nil
}

// filterRecords mirrors the repository read: newest first, one record per
// date, limit bounding distinct days.
func filterRecords(all []*attendance.Record, memberID, before string, limit int) []*attendance.Record {
	var out []*attendance.Record
	seen := make(map[string]bool)
	for i := len(all) - 1; i >= 0; i-- {
		r := all[i]
		if r.MemberID != memberID || !r.IsAttended() || seen[r.Date] {
			continue
		}
		if !timeutil.DateBefore(r.Date, before) {
			continue
		}
		seen[r.Date] = true
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out
}

type fakePublisher struct {
	events []shared.Event
}

func (p *fakePublisher) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) byType(t shared.EventType) []shared.Event {
	var out []shared.Event
	for _, e := range p.events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}

type fakeCatalog struct{ months int }

func (c fakeCatalog) DurationMonths(context.Context, member.MembershipType) int {
	if c.months <= 0 {
		return member.DefaultDurationMonths
	}
	return c.months
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func seedMember(store *fakeStore, credits int, endDate string) *member.Member {
	m, _ := member.NewMember(member.NewMemberParams{
		ID:             "m-1001",
		Name:           "김하늘",
		Phone:          "010-1234-5678",
		Language:       "ko",
		MembershipType: member.MembershipMonthly,
		Credits:        credits,
		StartDate:      "2026-01-01",
		EndDate:        endDate,
	})
	store.members[m.ID] = m
	return m
}

func seedVisit(store *fakeStore, memberID, date string) {
	store.records = append(store.records, &attendance.Record{
		ID:        "seed-" + date,
		MemberID:  memberID,
		BranchID:  "gangnam",
		ClassName: attendance.DefaultClassTitle,
		Date:      date,
		Status:    attendance.StatusAttended,
	})
}

func newHandler(store *fakeStore, pub *fakePublisher) *CheckInHandler {
	return NewCheckInHandler(store, fakeCatalog{}, pub, DefaultCheckInConfig())
}

var testTime = timeutil.DateTime(2026, 3, 10, 9, 30, 0)

func cmd(memberID string) CheckInCommand {
	return CheckInCommand{
		MemberID:   memberID,
		BranchID:   "gangnam",
		ClassTitle: "하타요가",
		Instructor: "이선생",
		Timestamp:  testTime,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestCheckInHappyPath(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	seedMember(store, 10, "2026-12-31")

	res, err := newHandler(store, pub).Handle(context.Background(), cmd("m-1001"))
	require.NoError(t, err)

	assert.Equal(t, 9, res.CreditsAfter)
	assert.Equal(t, 10, res.CreditsBefore)
	assert.Equal(t, 1, res.AttendanceCount)
	assert.Equal(t, 1, res.SessionNumber)
	assert.Equal(t, 1, res.Streak)
	assert.Equal(t, "2026-03-10", res.Date)

	m := store.members["m-1001"]
	assert.Equal(t, 9, m.Credits)
	assert.Equal(t, 1, m.AttendanceCount)
	assert.Equal(t, 1, m.Streak)

	require.Len(t, store.records, 1)
	rec := store.records[0]
	assert.Equal(t, attendance.StatusAttended, rec.Status)
	assert.Equal(t, "하타요가", rec.ClassName)
	assert.Equal(t, 10, rec.Context.CreditsBefore)
	assert.Equal(t, 1, rec.Context.StreakAtTime)

	assert.Len(t, pub.byType(shared.EventCheckInCommitted), 1)
	assert.Len(t, pub.byType(shared.EventMemberCreditsChanged), 1)
}

func TestCheckInStreakContinues(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	seedMember(store, 10, "2026-12-31")
	seedVisit(store, "m-1001", "2026-03-09")
	seedVisit(store, "m-1001", "2026-03-08")

	res, err := newHandler(store, pub).Handle(context.Background(), cmd("m-1001"))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Streak)
	assert.Equal(t, 3, store.members["m-1001"].Streak)
}

func TestCheckInStreakCountsDaysNotSessions(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	seedMember(store, 30, "2026-12-31")

	// Twelve prior days with two sessions each, oldest first. The history
	// window bounds distinct days, so the doubled records must not halve
	// its reach.
	for i := 12; i >= 1; i-- {
		date, err := timeutil.AddDaysToDate("2026-03-10", -i)
		require.NoError(t, err)
		seedVisit(store, "m-1001", date)
		seedVisit(store, "m-1001", date)
	}

	res, err := newHandler(store, pub).Handle(context.Background(), cmd("m-1001"))
	require.NoError(t, err)

	// Ten distinct prior days in the window plus today.
	assert.Equal(t, 11, res.Streak)
}

func TestCheckInExpiredMembership(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	seedMember(store, 5, "2026-03-09")

	_, err := newHandler(store, pub).Handle(context.Background(), cmd("m-1001"))
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrMembershipExpired)

	// No mutation on the member row.
	m := store.members["m-1001"]
	assert.Equal(t, 5, m.Credits)
	assert.Equal(t, 0, m.AttendanceCount)

	// The denial is still recorded for the audit trail.
	require.Len(t, store.records, 1)
	assert.Equal(t, attendance.StatusDenied, store.records[0].Status)
	assert.Equal(t, attendance.DenialExpired, store.records[0].DenialReason)

	assert.Len(t, pub.byType(shared.EventCheckInDenied), 1)
	assert.Empty(t, pub.byType(shared.EventCheckInCommitted))
}

func TestCheckInExpiryCheckedBeforeCredits(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	seedMember(store, 0, "2026-03-01")

	_, err := newHandler(store, pub).Handle(context.Background(), cmd("m-1001"))
	assert.ErrorIs(t, err, shared.ErrMembershipExpired)

	require.Len(t, store.records, 1)
	assert.Equal(t, attendance.DenialExpired, store.records[0].DenialReason)
}

func TestCheckInNoCredits(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	seedMember(store, 0, "2026-12-31")

	_, err := newHandler(store, pub).Handle(context.Background(), cmd("m-1001"))
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInsufficientCredits)

	m := store.members["m-1001"]
	assert.Equal(t, 0, m.Credits)
	assert.Equal(t, 0, m.AttendanceCount)

	require.Len(t, store.records, 1)
	assert.Equal(t, attendance.DenialNoCredits, store.records[0].DenialReason)
}

func TestCheckInMemberNotFound(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}

	_, err := newHandler(store, pub).Handle(context.Background(), cmd("ghost"))
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	// Unknown members leave no audit record and no events.
	assert.Empty(t, store.records)
	assert.Empty(t, pub.events)
}

func TestCheckInValidation(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	h := newHandler(store, pub)

	_, err := h.Handle(context.Background(), CheckInCommand{BranchID: "gangnam"})
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = h.Handle(context.Background(), CheckInCommand{MemberID: "m-1001"})
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)
}

func TestCheckInSecondSessionSameDay(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	seedMember(store, 10, "2026-12-31")
	h := newHandler(store, pub)

	first, err := h.Handle(context.Background(), cmd("m-1001"))
	require.NoError(t, err)
	second, err := h.Handle(context.Background(), cmd("m-1001"))
	require.NoError(t, err)

	assert.Equal(t, 1, first.SessionNumber)
	assert.Equal(t, 2, second.SessionNumber)

	// Both sessions consumed a credit; the streak does not double-count.
	m := store.members["m-1001"]
	assert.Equal(t, 8, m.Credits)
	assert.Equal(t, 2, m.AttendanceCount)
	assert.Equal(t, 1, m.Streak)
}

func TestCheckInDifferentClassRestartsNumbering(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	seedMember(store, 10, "2026-12-31")
	h := newHandler(store, pub)

	_, err := h.Handle(context.Background(), cmd("m-1001"))
	require.NoError(t, err)

	other := cmd("m-1001")
	other.ClassTitle = "빈야사"
	res, err := h.Handle(context.Background(), other)
	require.NoError(t, err)

	assert.Equal(t, 1, res.SessionNumber)
}

func TestCheckInActivatesPendingMembership(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	m, _ := member.NewMember(member.NewMemberParams{
		ID:             "m-2001",
		Name:           "박지우",
		Phone:          "010-9876-5432",
		MembershipType: member.MembershipMonthly,
		Credits:        8,
	})
	store.members[m.ID] = m

	res, err := newHandler(store, pub).Handle(context.Background(), cmd("m-2001"))
	require.NoError(t, err)

	assert.True(t, res.MembershipActivated)
	assert.Equal(t, "2026-03-10", res.StartDate)
	assert.Equal(t, "2026-04-10", res.EndDate)

	saved := store.members["m-2001"]
	assert.Equal(t, "2026-03-10", saved.StartDate)
	assert.Equal(t, "2026-04-10", saved.EndDate)

	assert.Len(t, pub.byType(shared.EventMembershipActivated), 1)
}

func TestCheckInLastCreditThenDenied(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	seedMember(store, 1, "2026-12-31")
	h := newHandler(store, pub)

	first, err := h.Handle(context.Background(), cmd("m-1001"))
	require.NoError(t, err)
	assert.Equal(t, 0, first.CreditsAfter)

	_, err = h.Handle(context.Background(), cmd("m-1001"))
	assert.ErrorIs(t, err, shared.ErrInsufficientCredits)

	// One valid record, one denied record, balance still zero.
	m := store.members["m-1001"]
	assert.Equal(t, 0, m.Credits)
	assert.Equal(t, 1, m.AttendanceCount)

	require.Len(t, store.records, 2)
	assert.Equal(t, attendance.StatusAttended, store.records[0].Status)
	assert.Equal(t, attendance.StatusDenied, store.records[1].Status)
}

func TestCheckInRetriesConflicts(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	seedMember(store, 5, "2026-12-31")
	store.conflicts = 1

	res, err := newHandler(store, pub).Handle(context.Background(), cmd("m-1001"))
	require.NoError(t, err)
	assert.Equal(t, 4, res.CreditsAfter)
}

func TestCheckInConflictExhaustion(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	seedMember(store, 5, "2026-12-31")
	store.conflicts = 10

	_, err := newHandler(store, pub).Handle(context.Background(), cmd("m-1001"))
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConflict)

	// Nothing committed, nothing published.
	assert.Equal(t, 5, store.members["m-1001"].Credits)
	assert.Empty(t, store.records)
	assert.Empty(t, pub.events)
}

func TestCheckInIsolatedHistoryReads(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	seedMember(store, 10, "2026-12-31")
	seedVisit(store, "m-1001", "2026-03-09")

	cfg := DefaultCheckInConfig()
	cfg.IsolatedHistoryReads = true
	h := NewCheckInHandler(store, fakeCatalog{}, pub, cfg)

	res, err := h.Handle(context.Background(), cmd("m-1001"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Streak)
}

func TestSessionResolverPreview(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	seedMember(store, 10, "2026-12-31")
	h := newHandler(store, pub)

	_, err := h.Handle(context.Background(), cmd("m-1001"))
	require.NoError(t, err)

	resolver := NewSessionResolver(fakeAttendanceRepo{store: store})
	n, err := resolver.Resolve(context.Background(), "m-1001", "2026-03-10", "하타요가")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// fakeAttendanceRepo adapts fakeStore to the attendance.Repository methods
// the resolver needs.
type fakeAttendanceRepo struct {
	attendance.Repository
	store *fakeStore
}

func (f fakeAttendanceRepo) CountSameSession(_ context.Context, memberID, date, className string) (int, error) {
	count := 0
	for _, r := range f.store.records {
		if r.MemberID == memberID && r.Date == date && r.ClassName == className {
			count++
		}
	}
	return count, nil
}
