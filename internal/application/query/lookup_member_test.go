package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/member"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"
)

type fakeMemberRepo struct {
	member.Repository
	members []*member.Member
	err     error
}

func (f *fakeMemberRepo) FindByPhoneLast4(_ context.Context, last4 string) ([]*member.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*member.Member
	for _, m := range f.members {
		if m.PhoneLast4 == last4 {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMemberRepo) GetByID(_ context.Context, id string) (*member.Member, error) {
	for _, m := range f.members {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, shared.ErrMemberNotFound
}

type fakeLimiter struct {
	allowed bool
	err     error
	calls   int
}

func (f *fakeLimiter) Allow(context.Context, string) (bool, error) {
	f.calls++
	return f.allowed, f.err
}

func testMember(id, phone string) *member.Member {
	m, _ := member.NewMember(member.NewMemberParams{
		ID:             id,
		Name:           "김하늘",
		Phone:          phone,
		MembershipType: member.MembershipMonthly,
		Credits:        7,
		StartDate:      "2026-01-01",
		EndDate:        "2026-12-31",
	})
	return m
}

func TestLookupMemberByLast4(t *testing.T) {
	repo := &fakeMemberRepo{members: []*member.Member{
		testMember("m-1001", "010-1234-5678"),
		testMember("m-1002", "010-9999-5678"),
		testMember("m-1003", "010-1234-0000"),
	}}
	h := NewLookupMemberHandler(repo, nil)

	res, err := h.Handle(context.Background(), LookupMemberQuery{PhoneLast4: "5678"})
	require.NoError(t, err)

	require.Len(t, res.Members, 2)
	assert.Equal(t, "m-1001", res.Members[0].MemberID)
	assert.Equal(t, "m-1002", res.Members[1].MemberID)

	// Full phone numbers never leave the query layer.
	assert.NotContains(t, res.Members[0].MaskedPhone, "1234")
	assert.Contains(t, res.Members[0].MaskedPhone, "5678")
}

func TestLookupMemberNoMatches(t *testing.T) {
	h := NewLookupMemberHandler(&fakeMemberRepo{}, nil)

	res, err := h.Handle(context.Background(), LookupMemberQuery{PhoneLast4: "0000"})
	require.NoError(t, err)
	assert.Empty(t, res.Members)
}

func TestLookupMemberValidation(t *testing.T) {
	h := NewLookupMemberHandler(&fakeMemberRepo{}, nil)

	for _, last4 := range []string{"", "123", "12345", "12a4"} {
		_, err := h.Handle(context.Background(), LookupMemberQuery{PhoneLast4: last4})
		assert.ErrorIs(t, err, shared.ErrInvalidPhoneDigits, "last4=%q", last4)
	}
}

func TestLookupMemberRateLimited(t *testing.T) {
	limiter := &fakeLimiter{allowed: false}
	h := NewLookupMemberHandler(&fakeMemberRepo{}, limiter)

	_, err := h.Handle(context.Background(), LookupMemberQuery{PhoneLast4: "5678", CallerKey: "kiosk-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrRateLimited)
	assert.Equal(t, 1, limiter.calls)
}

func TestLookupMemberLimiterFailureIsOpen(t *testing.T) {
	// A broken limiter must not block the kiosk.
	limiter := &fakeLimiter{allowed: false, err: errors.New("redis down")}
	repo := &fakeMemberRepo{members: []*member.Member{testMember("m-1001", "010-1234-5678")}}
	h := NewLookupMemberHandler(repo, limiter)

	res, err := h.Handle(context.Background(), LookupMemberQuery{PhoneLast4: "5678", CallerKey: "kiosk-1"})
	require.NoError(t, err)
	assert.Len(t, res.Members, 1)
}

func TestLookupMemberNoCallerKeySkipsLimiter(t *testing.T) {
	limiter := &fakeLimiter{allowed: false}
	h := NewLookupMemberHandler(&fakeMemberRepo{}, limiter)

	_, err := h.Handle(context.Background(), LookupMemberQuery{PhoneLast4: "5678"})
	require.NoError(t, err)
	assert.Zero(t, limiter.calls)
}

func TestLookupMemberExpiredFlag(t *testing.T) {
	expired := testMember("m-1001", "010-1234-5678")
	expired.EndDate = "2020-01-01"
	h := NewLookupMemberHandler(&fakeMemberRepo{members: []*member.Member{expired}}, nil)

	res, err := h.Handle(context.Background(), LookupMemberQuery{PhoneLast4: "5678"})
	require.NoError(t, err)
	require.Len(t, res.Members, 1)
	assert.True(t, res.Members[0].IsExpired)
	assert.WithinDuration(t, time.Now(), res.GeneratedAt, 5*time.Second)
}
