package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/attendance"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/member"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/practice"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"
)

type fakeMemberCache struct {
	entries map[string]*member.Member
	hits    int
	sets    int
}

func (c *fakeMemberCache) Get(_ context.Context, memberID string) (*member.Member, error) {
	if m, ok := c.entries[memberID]; ok {
		c.hits++
		return m, nil
	}
	return nil, nil
}

func (c *fakeMemberCache) Set(_ context.Context, m *member.Member, _ time.Duration) error {
	c.sets++
	c.entries[m.ID] = m
	return nil
}

func (c *fakeMemberCache) Invalidate(_ context.Context, memberID string) error {
	delete(c.entries, memberID)
	return nil
}

type fakeHistoryRepo struct {
	attendance.Repository
	records []*attendance.Record
}

func (f *fakeHistoryRepo) RecentValid(_ context.Context, _ string, limit int) ([]*attendance.Record, error) {
	if len(f.records) > limit {
		return f.records[:limit], nil
	}
	return f.records, nil
}

type fakePracticeHistory struct {
	practice.Repository
	events []*practice.Event
}

func (f *fakePracticeHistory) RecentForMember(_ context.Context, _ string, limit int) ([]*practice.Event, error) {
	if len(f.events) > limit {
		return f.events[:limit], nil
	}
	return f.events, nil
}

func TestGetMemberStatus(t *testing.T) {
	repo := &fakeMemberRepo{members: []*member.Member{testMember("m-1001", "010-1234-5678")}}
	visits := &fakeHistoryRepo{records: []*attendance.Record{
		{ID: "a1", MemberID: "m-1001", Date: "2026-03-10", ClassName: "하타요가", Instructor: "이선생", SessionNumber: 1, Status: attendance.StatusAttended},
	}}
	events := &fakePracticeHistory{events: []*practice.Event{
		{ID: "p1", MemberID: "m-1001", Type: practice.FlowMaintained, DisplayMessage: "꾸준한 수련이 이어지고 있어요!"},
	}}
	h := NewGetMemberStatusHandler(repo, nil, visits, events)

	res, err := h.Handle(context.Background(), GetMemberStatusQuery{MemberID: "m-1001"})
	require.NoError(t, err)

	assert.Equal(t, "m-1001", res.Member.MemberID)
	assert.Equal(t, 7, res.Member.Credits)
	require.Len(t, res.RecentVisits, 1)
	assert.Equal(t, "하타요가", res.RecentVisits[0].ClassName)
	require.Len(t, res.RecentPractice, 1)
	assert.Equal(t, string(practice.FlowMaintained), res.RecentPractice[0].Type)
}

func TestGetMemberStatusCachesMemberRow(t *testing.T) {
	repo := &fakeMemberRepo{members: []*member.Member{testMember("m-1001", "010-1234-5678")}}
	cache := &fakeMemberCache{entries: make(map[string]*member.Member)}
	h := NewGetMemberStatusHandler(repo, cache, &fakeHistoryRepo{}, &fakePracticeHistory{})

	_, err := h.Handle(context.Background(), GetMemberStatusQuery{MemberID: "m-1001"})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 0, cache.hits)

	_, err = h.Handle(context.Background(), GetMemberStatusQuery{MemberID: "m-1001"})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
}

func TestGetMemberStatusUnknownMember(t *testing.T) {
	h := NewGetMemberStatusHandler(&fakeMemberRepo{}, nil, &fakeHistoryRepo{}, &fakePracticeHistory{})

	_, err := h.Handle(context.Background(), GetMemberStatusQuery{MemberID: "ghost-404"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
