package practice

import (
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/attendance"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/pkg/timeutil"
)

// Input describes one committed check-in and the member's prior history.
// Prior holds valid records strictly before the triggering check-in, newest
// first. It may reach past the analysis window; the gap is measured against
// the most recent prior visit wherever it falls, while habit detection only
// looks at recent records inside the window.
type Input struct {
	MemberID     string
	AttendanceID string

	// Date is the Seoul civil date of the triggering check-in.
	Date string
	// Hour is the Seoul wall-clock hour of the triggering check-in.
	Hour int
	// Streak is the consecutive-day streak including the check-in.
	Streak int

	Prior []*attendance.Record
}

// Classify derives the practice event type and context for a check-in.
//
// The gap classification comes first: no prior visit or a same-day prior
// session count as gap 0, anything under a week keeps the flow, a week to
// under thirty days is a detected gap, thirty days or more is a resumed flow.
// A habitual time-band shift overrides the gap classification when the
// member has an established habit and the new band departs from it.
func Classify(in Input) (EventType, Context) {
	band := BandForHour(in.Hour)

	ctx := Context{
		Streak:   in.Streak,
		TimeBand: band,
	}

	ctx.GapDays = gapDays(in.Prior, in.Date)

	eventType := FlowMaintained
	switch {
	case ctx.GapDays >= GapThresholdResumed:
		eventType = FlowResumed
	case ctx.GapDays >= GapThresholdDetected:
		eventType = GapDetected
	}

	if habit, ok := habitualBand(in.Prior, in.Date); ok {
		ctx.PreviousTimeBand = habit
		if habit != band {
			eventType = PatternShifted
			ctx.ShiftDetails = habit.String() + " → " + band.String()
		}
	}

	return eventType, ctx
}

// gapDays returns the civil-day distance from the most recent prior visit to
// the check-in date. No usable prior visit means 0.
func gapDays(prior []*attendance.Record, date string) int {
	for _, r := range prior {
		if r == nil || !r.IsAttended() || r.Date == "" {
			continue
		}
		if !timeutil.DateBefore(r.Date, date) {
			// Same-day earlier session: the flow is unbroken.
			return 0
		}
		days, err := timeutil.DaysBetweenDates(r.Date, date)
		if err != nil {
			return 0
		}
		return days
	}
	return 0
}

// habitualBand finds the member's established time band from the most recent
// prior records inside the analysis window. It needs at least three of the
// last five to exist; the most frequent band wins, with ties going to the
// band of the most recent tied record.
func habitualBand(prior []*attendance.Record, date string) (Band, bool) {
	recent := make([]*attendance.Record, 0, ShiftRecentCount)
	for _, r := range prior {
		if r == nil || !r.IsAttended() || r.Date == "" {
			continue
		}
		days, err := timeutil.DaysBetweenDates(r.Date, date)
		if err != nil || days < 0 || days > WindowDays {
			continue
		}
		recent = append(recent, r)
		if len(recent) == ShiftRecentCount {
			break
		}
	}

	if len(recent) < ShiftMinRecords {
		return "", false
	}

	counts := make(map[Band]int, 4)
	for _, r := range recent {
		counts[BandForHour(r.Hour())]++
	}

	var best Band
	bestCount := 0
	// recent is newest first, so the first record reaching the top count is
	// the most recent tied one.
	for _, r := range recent {
		b := BandForHour(r.Hour())
		if counts[b] > bestCount {
			best = b
			bestCount = counts[b]
		}
	}

	return best, true
}
