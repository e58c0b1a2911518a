package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func rec(date string) *Record {
	ts, _ := time.Parse("2006-01-02", date)
	return &Record{
		ID:        "rec-" + date,
		MemberID:  "m1",
		BranchID:  "gangnam",
		ClassName: DefaultClassTitle,
		Date:      date,
		Timestamp: ts,
		Status:    StatusAttended,
	}
}

func TestStreakFirstVisit(t *testing.T) {
	assert.Equal(t, 1, Streak(nil, "2026-03-10"))
	assert.Equal(t, 1, Streak([]*Record{}, "2026-03-10"))
}

func TestStreakConsecutiveDays(t *testing.T) {
	prior := []*Record{
		rec("2026-03-09"),
		rec("2026-03-08"),
		rec("2026-03-07"),
	}
	assert.Equal(t, 4, Streak(prior, "2026-03-10"))
}

func TestStreakBrokenByGap(t *testing.T) {
	prior := []*Record{
		rec("2026-03-09"),
		rec("2026-03-07"), // missing the 8th ends the walk
		rec("2026-03-06"),
	}
	assert.Equal(t, 2, Streak(prior, "2026-03-10"))
}

func TestStreakYesterdayMissing(t *testing.T) {
	prior := []*Record{
		rec("2026-03-08"),
		rec("2026-03-07"),
	}
	assert.Equal(t, 1, Streak(prior, "2026-03-10"))
}

func TestStreakDuplicateDatesCountOnce(t *testing.T) {
	prior := []*Record{
		rec("2026-03-09"),
		rec("2026-03-09"), // two sessions on the same day
		rec("2026-03-08"),
	}
	assert.Equal(t, 3, Streak(prior, "2026-03-10"))
}

func TestStreakUnorderedInput(t *testing.T) {
	prior := []*Record{
		rec("2026-03-07"),
		rec("2026-03-09"),
		rec("2026-03-08"),
	}
	assert.Equal(t, 4, Streak(prior, "2026-03-10"))
}

func TestStreakIgnoresDeniedRecords(t *testing.T) {
	denied := rec("2026-03-09")
	denied.Status = StatusDenied
	denied.DenialReason = DenialNoCredits

	prior := []*Record{denied, rec("2026-03-08")}
	assert.Equal(t, 1, Streak(prior, "2026-03-10"))
}

func TestStreakIgnoresTodayAndFuture(t *testing.T) {
	prior := []*Record{
		rec("2026-03-10"), // same-day earlier session
		rec("2026-03-11"), // clock skew artifact
		rec("2026-03-09"),
	}
	assert.Equal(t, 2, Streak(prior, "2026-03-10"))
}

func TestStreakAcrossMonthBoundary(t *testing.T) {
	prior := []*Record{
		rec("2026-02-28"),
		rec("2026-02-27"),
	}
	assert.Equal(t, 3, Streak(prior, "2026-03-01"))
}
