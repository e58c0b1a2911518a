package service

import (
	"context"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/member"
)

// StaticPlanCatalog implements member.PlanCatalog from a fixed table. Plan
// management lives in the front-desk system; the check-in path only needs the
// duration to activate a pending membership on first visit.
type StaticPlanCatalog struct {
	durations map[member.MembershipType]int
}

// NewStaticPlanCatalog creates the catalog with the studio's standard plans.
func NewStaticPlanCatalog() *StaticPlanCatalog {
	return &StaticPlanCatalog{
		durations: map[member.MembershipType]int{
			member.MembershipMonthly:   1,
			member.MembershipQuarterly: 3,
			member.MembershipHalfYear:  6,
			member.MembershipYearly:    12,
		},
	}
}

// DurationMonths returns the plan duration in months, or the default for an
// unknown membership type.
func (c *StaticPlanCatalog) DurationMonths(_ context.Context, membershipType member.MembershipType) int {
	if months, ok := c.durations[membershipType]; ok {
		return months
	}
	return member.DefaultDurationMonths
}
