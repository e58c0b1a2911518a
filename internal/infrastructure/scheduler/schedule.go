package scheduler

import (
	"fmt"
	"time"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERVAL SCHEDULE
// ══════════════════════════════════════════════════════════════════════════════

// IntervalSchedule schedules a job to run at a fixed interval.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule creates a new IntervalSchedule.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{
		Interval: interval,
	}
}

// Next returns the next scheduled time.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String returns the string representation of the schedule.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval.String())
}

// ══════════════════════════════════════════════════════════════════════════════
// DAILY SCHEDULE
// ══════════════════════════════════════════════════════════════════════════════

// DailySchedule runs a job once per day at a fixed Seoul wall-clock time.
// The expiry sweep runs at 13:00, after the morning classes settle; the
// operations report runs at 23:00, after the last evening class.
type DailySchedule struct {
	Hour   int
	Minute int
}

// DailyAt creates a schedule that fires every day at hour:minute Seoul time.
func DailyAt(hour, minute int) *DailySchedule {
	return &DailySchedule{Hour: hour, Minute: minute}
}

// Next returns the next hour:minute occurrence after t.
func (s *DailySchedule) Next(t time.Time) time.Time {
	seoul := timeutil.ToSeoul(t)
	next := time.Date(seoul.Year(), seoul.Month(), seoul.Day(), s.Hour, s.Minute, 0, 0, timeutil.SeoulTZ)
	if !next.After(seoul) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// String returns the string representation of the schedule.
func (s *DailySchedule) String() string {
	return fmt.Sprintf("@daily %02d:%02d KST", s.Hour, s.Minute)
}
