package member

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// 저장소 계약. 구현은 infrastructure/persistence에 있다.
// ══════════════════════════════════════════════════════════════════════════════

// Repository는 회원 CRUD 조작을 정의한다.
type Repository interface {
	// Create는 새 회원을 만든다.
	// 이미 존재하면 shared.ErrMemberAlreadyExists를 돌려준다.
	Create(ctx context.Context, m *Member) error

	// GetByID는 ID로 회원을 찾는다.
	// 없으면 shared.ErrMemberNotFound를 돌려준다.
	GetByID(ctx context.Context, id string) (*Member, error)

	// Update는 회원 데이터를 갱신한다.
	// 없으면 shared.ErrMemberNotFound를 돌려준다.
	Update(ctx context.Context, m *Member) error

	// FindByPhoneLast4는 전화번호 뒤 4자리로 회원을 검색한다.
	// 여러 명이 일치할 수 있다. 일치가 없으면 빈 슬라이스를 돌려준다.
	FindByPhoneLast4(ctx context.Context, last4 string) ([]*Member, error)

	// FindExpiringOn은 종료일이 주어진 날짜(YYYY-MM-DD)인 회원을 모두 찾는다.
	FindExpiringOn(ctx context.Context, date string) ([]*Member, error)

	// CountNegativeCredits는 크레딧이 음수인 회원 수를 돌려준다.
	// 일일 관리자 리포트의 이상 잔액 집계에 쓰인다.
	CountNegativeCredits(ctx context.Context) (int, error)

	// CountRegisteredBetween은 기간 내 등록된 회원 수를 돌려준다.
	CountRegisteredBetween(ctx context.Context, from, to time.Time) (int, error)
}

// Cache는 자주 조회되는 회원 데이터의 캐시 조작을 정의한다.
// 읽기 경로 전용이다. 체크인 쓰기 경로는 캐시를 거치지 않는다.
type Cache interface {
	// Get은 캐시에서 회원을 꺼낸다. 캐시 미스면 (nil, nil)을 돌려준다.
	Get(ctx context.Context, memberID string) (*Member, error)

	// Set은 회원을 캐시에 넣는다.
	Set(ctx context.Context, m *Member, ttl time.Duration) error

	// Invalidate는 회원의 캐시 항목을 지운다.
	Invalidate(ctx context.Context, memberID string) error
}
