// Package member는 복샘요가 회원 도메인 모델을 담는다.
// 비즈니스 로직의 핵심이며 외부 의존성이 없다.
package member

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/pkg/timeutil"
)

// StartDateTBD는 아직 시작일이 정해지지 않은 회원권의 표시값이다.
// 첫 출석 체크인 순간에 실제 시작일로 교체된다.
const StartDateTBD = "TBD"

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// MembershipType은 회원권 종류를 나타낸다.
type MembershipType string

const (
	// MembershipMonthly - 1개월 회원권.
	MembershipMonthly MembershipType = "monthly"
	// MembershipQuarterly - 3개월 회원권.
	MembershipQuarterly MembershipType = "quarterly"
	// MembershipHalfYear - 6개월 회원권.
	MembershipHalfYear MembershipType = "half_year"
	// MembershipYearly - 12개월 회원권.
	MembershipYearly MembershipType = "yearly"
)

// String은 문자열 표현을 돌려준다.
func (m MembershipType) String() string {
	return string(m)
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: MEMBER
// ══════════════════════════════════════════════════════════════════════════════

// Member는 스튜디오 회원 애그리거트다.
type Member struct {
	// ID - 회원 고유 식별자.
	ID string

	// Name - 회원 이름.
	Name string

	// Phone - 전화번호 (숫자만 저장).
	Phone string

	// PhoneLast4 - 전화번호 뒤 4자리. 키오스크 조회용 검색 키.
	PhoneLast4 string

	// Language - 알림 메시지 언어.
	Language shared.Language

	// MembershipType - 회원권 종류.
	MembershipType MembershipType

	// Credits - 남은 수업 크레딧. 관리자 보정으로 음수가 될 수 있다.
	Credits int

	// AttendanceCount - 누적 유효 출석 횟수.
	AttendanceCount int

	// Streak - 마지막 출석 시점의 연속 수련 일수.
	Streak int

	// StartDate - 회원권 시작일 (YYYY-MM-DD). 미정이면 "TBD".
	StartDate string

	// EndDate - 회원권 종료일 (YYYY-MM-DD). 빈 문자열이면 무기한.
	EndDate string

	// LastAttendanceAt - 마지막 출석 시각.
	LastAttendanceAt time.Time

	// CreatedAt - 등록 시각.
	CreatedAt time.Time

	// UpdatedAt - 마지막 수정 시각.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidName - 이름이 비어 있다.
	ErrInvalidName = errors.New("invalid member name: must be 1-100 chars")

	// ErrInvalidMembershipType - 알 수 없는 회원권 종류.
	ErrInvalidMembershipType = errors.New("invalid membership type")

	// ErrMembershipNotStarted - 회원권 시작일이 아직 미정이다.
	ErrMembershipNotStarted = errors.New("membership start date is not decided yet")
)

// ExpiredError는 만료된 회원권으로 체크인을 시도했을 때 돌려준다.
// errors.Is(err, shared.ErrMembershipExpired)로 판별할 수 있다.
type ExpiredError struct {
	MemberID string
	EndDate  string
}

// Error는 error 인터페이스를 구현한다.
func (e *ExpiredError) Error() string {
	return fmt.Sprintf("member %s: membership expired on %s", e.MemberID, e.EndDate)
}

// Is는 errors.Is 매칭을 구현한다.
func (e *ExpiredError) Is(target error) bool {
	return target == shared.ErrMembershipExpired
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewMemberParams는 신규 회원 생성 파라미터다.
type NewMemberParams struct {
	ID             string
	Name           string
	Phone          string
	Language       string
	MembershipType MembershipType
	Credits        int
	StartDate      string
	EndDate        string
}

// NewMember는 모든 필드를 검증하여 새 회원을 만든다.
// StartDate를 비우면 "TBD"로 저장되어 첫 출석 때 확정된다.
func NewMember(params NewMemberParams) (*Member, error) {
	if params.ID == "" {
		return nil, errors.New("member id is required")
	}

	name := strings.TrimSpace(params.Name)
	if len(name) == 0 || len(name) > 100 {
		return nil, ErrInvalidName
	}

	startDate := strings.TrimSpace(params.StartDate)
	if startDate == "" {
		startDate = StartDateTBD
	}

	now := time.Now().UTC()

	return &Member{
		ID:              params.ID,
		Name:            name,
		Phone:           shared.PhoneDigits(params.Phone),
		PhoneLast4:      shared.PhoneLast4(params.Phone),
		Language:        shared.NormalizeLanguage(params.Language),
		MembershipType:  params.MembershipType,
		Credits:         params.Credits,
		AttendanceCount: 0,
		Streak:          0,
		StartDate:       startDate,
		EndDate:         strings.TrimSpace(params.EndDate),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// IsStartPending은 시작일이 아직 확정되지 않았는지 돌려준다.
func (m *Member) IsStartPending() bool {
	return m.StartDate == "" || m.StartDate == StartDateTBD
}

// IsExpired는 주어진 서울 기준 날짜(YYYY-MM-DD)에서 회원권이 만료됐는지 판단한다.
// 종료일이 비어 있으면 만료되지 않는다. 종료일 당일까지는 유효하다.
func (m *Member) IsExpired(today string) bool {
	if m.EndDate == "" {
		return false
	}
	return timeutil.DateBefore(m.EndDate, today)
}

// CanCheckIn은 크레딧 잔액이 체크인을 허용하는지 돌려준다.
func (m *Member) CanCheckIn() bool {
	return shared.Credits(m.Credits).CanCheckIn()
}

// ActivateMembership은 미정 상태의 시작일을 오늘로 확정하고
// 회원권 기간만큼 종료일을 계산한다. 시작일이 이미 확정돼 있으면 아무것도 하지 않는다.
func (m *Member) ActivateMembership(today string, durationMonths int) error {
	if !m.IsStartPending() {
		return nil
	}
	endDate, err := timeutil.AddMonthsToDate(today, durationMonths)
	if err != nil {
		return err
	}
	m.StartDate = today
	m.EndDate = endDate
	m.UpdatedAt = time.Now().UTC()
	return nil
}

// ApplyCheckIn은 유효한 체크인의 회원 측 변이를 적용한다:
// 크레딧 차감, 출석 횟수 증가, 연속 일수 갱신, 마지막 출석 시각 기록.
// 선행 조건 검사는 호출 측(트랜잭션 코디네이터)의 책임이다.
func (m *Member) ApplyCheckIn(streak int, at time.Time) {
	m.Credits--
	m.AttendanceCount++
	m.Streak = streak
	m.LastAttendanceAt = at
	m.UpdatedAt = time.Now().UTC()
}

// MaskedPhone은 표시용으로 마스킹한 전화번호를 돌려준다.
func (m *Member) MaskedPhone() string {
	return shared.MaskPhone(m.Phone)
}

// String은 로그용 문자열 표현을 돌려준다.
func (m *Member) String() string {
	return fmt.Sprintf(
		"Member{ID: %s, Name: %s, Credits: %d, Streak: %d, End: %s}",
		m.ID, m.Name, m.Credits, m.Streak, m.EndDate,
	)
}

// Clone은 회원의 얕은 복사본을 만든다.
func (m *Member) Clone() *Member {
	if m == nil {
		return nil
	}

	clone := *m
	return &clone
}
