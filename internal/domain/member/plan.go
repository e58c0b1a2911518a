package member

import "context"

// DefaultDurationMonths는 플랜 메타데이터가 없을 때의 회원권 기간이다.
const DefaultDurationMonths = 1

// PlanCatalog는 회원권 종류별 기간 메타데이터를 제공한다.
// 플랜 관리 자체는 외부 시스템의 몫이고, 여기서는 조회만 한다.
type PlanCatalog interface {
	// DurationMonths는 회원권 종류의 기간(개월)을 돌려준다.
	// 알 수 없는 종류면 DefaultDurationMonths를 돌려준다.
	DurationMonths(ctx context.Context, membershipType MembershipType) int
}
