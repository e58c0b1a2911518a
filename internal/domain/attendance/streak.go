package attendance

import (
	"sort"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/pkg/timeutil"
)

// PriorHistoryLimit is how many prior records the streak calculation reads.
// Ten distinct prior days plus today bound the streak at eleven, which is the
// same bound the kiosk display uses.
const PriorHistoryLimit = 10

// Streak computes the consecutive-day streak for a check-in on the given
// Seoul civil date. prior holds the member's attendance records strictly
// before today; order and duplicates do not matter, dates are deduplicated
// here. The result counts today, so it is always at least 1.
//
// Only valid (attended) records extend a streak; denied audit entries are
// skipped. Records dated today or later are ignored so that a same-day
// second session cannot inflate the count.
func Streak(prior []*Record, today string) int {
	seen := make(map[string]struct{}, len(prior))
	for _, r := range prior {
		if r == nil || !r.IsAttended() {
			continue
		}
		if r.Date == "" || !timeutil.DateBefore(r.Date, today) {
			continue
		}
		seen[r.Date] = struct{}{}
	}

	if len(seen) == 0 {
		return 1
	}

	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	streak := 1
	expected := today
	for _, d := range dates {
		prev, err := timeutil.AddDaysToDate(expected, -1)
		if err != nil {
			break
		}
		if d != prev {
			break
		}
		streak++
		expected = prev
	}
	return streak
}
