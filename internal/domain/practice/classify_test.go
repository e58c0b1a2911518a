package practice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/attendance"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/pkg/timeutil"
)

func visit(date string, hour int) *attendance.Record {
	ts := timeutil.DateTime(2026, 1, 1, hour, 0, 0)
	if parsed, err := timeutil.ParseCivilDate(date); err == nil {
		ts = parsed.Add(time.Duration(hour) * time.Hour)
	}
	return &attendance.Record{
		ID:        "att-" + date,
		MemberID:  "m1",
		BranchID:  "gangnam",
		Date:      date,
		Timestamp: ts,
		Status:    attendance.StatusAttended,
	}
}

func TestBandForHour(t *testing.T) {
	assert.Equal(t, BandMorning, BandForHour(5))
	assert.Equal(t, BandMorning, BandForHour(11))
	assert.Equal(t, BandAfternoon, BandForHour(12))
	assert.Equal(t, BandAfternoon, BandForHour(16))
	assert.Equal(t, BandEvening, BandForHour(17))
	assert.Equal(t, BandEvening, BandForHour(20))
	assert.Equal(t, BandNight, BandForHour(21))
	assert.Equal(t, BandNight, BandForHour(23))
	assert.Equal(t, BandNight, BandForHour(0))
	assert.Equal(t, BandNight, BandForHour(4))
}

func TestClassifyNoHistory(t *testing.T) {
	eventType, ctx := Classify(Input{Date: "2026-03-10", Hour: 9, Streak: 1})

	assert.Equal(t, FlowMaintained, eventType)
	assert.Equal(t, 0, ctx.GapDays)
	assert.Equal(t, BandMorning, ctx.TimeBand)
	assert.Empty(t, ctx.ShiftDetails)
}

func TestClassifySameDaySecondSession(t *testing.T) {
	eventType, ctx := Classify(Input{
		Date:  "2026-03-10",
		Hour:  18,
		Prior: []*attendance.Record{visit("2026-03-10", 9)},
	})

	assert.Equal(t, FlowMaintained, eventType)
	assert.Equal(t, 0, ctx.GapDays)
}

func TestClassifyShortGapKeepsFlow(t *testing.T) {
	eventType, ctx := Classify(Input{
		Date:  "2026-03-10",
		Hour:  9,
		Prior: []*attendance.Record{visit("2026-03-04", 9)},
	})

	assert.Equal(t, FlowMaintained, eventType)
	assert.Equal(t, 6, ctx.GapDays)
}

func TestClassifyGapDetected(t *testing.T) {
	eventType, ctx := Classify(Input{
		Date:  "2026-03-11",
		Hour:  9,
		Prior: []*attendance.Record{visit("2026-03-01", 9)},
	})

	assert.Equal(t, GapDetected, eventType)
	assert.Equal(t, 10, ctx.GapDays)
}

func TestClassifyGapBoundaries(t *testing.T) {
	// Exactly 7 days is already a detected gap.
	eventType, ctx := Classify(Input{
		Date:  "2026-03-10",
		Hour:  9,
		Prior: []*attendance.Record{visit("2026-03-03", 9)},
	})
	assert.Equal(t, GapDetected, eventType)
	assert.Equal(t, 7, ctx.GapDays)

	// 29 days still counts as a gap, not a resumed flow.
	eventType, ctx = Classify(Input{
		Date:  "2026-03-10",
		Hour:  9,
		Prior: []*attendance.Record{visit("2026-02-09", 9)},
	})
	assert.Equal(t, GapDetected, eventType)
	assert.Equal(t, 29, ctx.GapDays)

	// 30 days flips to FLOW_RESUMED.
	eventType, ctx = Classify(Input{
		Date:  "2026-03-10",
		Hour:  9,
		Prior: []*attendance.Record{visit("2026-02-08", 9)},
	})
	assert.Equal(t, FlowResumed, eventType)
	assert.Equal(t, 30, ctx.GapDays)
}

func TestClassifyLongAbsence(t *testing.T) {
	eventType, ctx := Classify(Input{
		Date:  "2026-03-10",
		Hour:  9,
		Prior: []*attendance.Record{visit("2026-01-24", 9)},
	})

	assert.Equal(t, FlowResumed, eventType)
	assert.Equal(t, 45, ctx.GapDays)
}

func TestClassifyPatternShift(t *testing.T) {
	// Five recent morning visits, then an evening check-in.
	prior := []*attendance.Record{
		visit("2026-03-09", 9),
		visit("2026-03-08", 10),
		visit("2026-03-07", 9),
		visit("2026-03-06", 8),
		visit("2026-03-05", 9),
	}

	eventType, ctx := Classify(Input{Date: "2026-03-10", Hour: 19, Prior: prior})

	assert.Equal(t, PatternShifted, eventType)
	assert.Equal(t, BandMorning, ctx.PreviousTimeBand)
	assert.Equal(t, BandEvening, ctx.TimeBand)
	assert.Equal(t, "morning → evening", ctx.ShiftDetails)
}

func TestClassifyShiftOverridesGap(t *testing.T) {
	// The habit is established inside the window even though the last visit
	// was ten days ago: the shift wins over GAP_DETECTED.
	prior := []*attendance.Record{
		visit("2026-02-28", 9),
		visit("2026-02-27", 9),
		visit("2026-02-26", 10),
	}

	eventType, ctx := Classify(Input{Date: "2026-03-10", Hour: 19, Prior: prior})

	assert.Equal(t, PatternShifted, eventType)
	assert.Equal(t, 10, ctx.GapDays)
	assert.Equal(t, "morning → evening", ctx.ShiftDetails)
}

func TestClassifyNoShiftWithoutHabit(t *testing.T) {
	// Two prior records are below the habit threshold.
	prior := []*attendance.Record{
		visit("2026-03-09", 9),
		visit("2026-03-08", 9),
	}

	eventType, ctx := Classify(Input{Date: "2026-03-10", Hour: 19, Prior: prior})

	assert.Equal(t, FlowMaintained, eventType)
	assert.Empty(t, ctx.PreviousTimeBand)
	assert.Empty(t, ctx.ShiftDetails)
}

func TestClassifyNoShiftWhenBandMatchesHabit(t *testing.T) {
	prior := []*attendance.Record{
		visit("2026-03-09", 9),
		visit("2026-03-08", 9),
		visit("2026-03-07", 9),
	}

	eventType, ctx := Classify(Input{Date: "2026-03-10", Hour: 10, Prior: prior})

	assert.Equal(t, FlowMaintained, eventType)
	assert.Equal(t, BandMorning, ctx.PreviousTimeBand)
}

func TestClassifyHabitTieGoesToMostRecent(t *testing.T) {
	// Two evening and two morning visits: the tie breaks toward the most
	// recent of the tied bands, which is evening.
	prior := []*attendance.Record{
		visit("2026-03-09", 19),
		visit("2026-03-08", 9),
		visit("2026-03-07", 19),
		visit("2026-03-06", 9),
	}

	eventType, ctx := Classify(Input{Date: "2026-03-10", Hour: 9, Prior: prior})

	assert.Equal(t, PatternShifted, eventType)
	assert.Equal(t, BandEvening, ctx.PreviousTimeBand)
	assert.Equal(t, "evening → morning", ctx.ShiftDetails)
}

func TestClassifyHabitIgnoresRecordsOutsideWindow(t *testing.T) {
	// Only one record sits inside the thirty-day window; the old morning
	// habit no longer counts, so no shift fires.
	prior := []*attendance.Record{
		visit("2026-03-09", 9),
		visit("2026-01-15", 9),
		visit("2026-01-14", 9),
		visit("2026-01-13", 9),
	}

	eventType, _ := Classify(Input{Date: "2026-03-10", Hour: 19, Prior: prior})

	assert.Equal(t, FlowMaintained, eventType)
}

func TestClassifyHabitUsesFiveMostRecent(t *testing.T) {
	// Six prior records: the oldest evening one falls off the five-record
	// habit, leaving a solid morning habit.
	prior := []*attendance.Record{
		visit("2026-03-09", 9),
		visit("2026-03-08", 9),
		visit("2026-03-07", 9),
		visit("2026-03-06", 9),
		visit("2026-03-05", 9),
		visit("2026-03-04", 19),
	}

	eventType, ctx := Classify(Input{Date: "2026-03-10", Hour: 9, Prior: prior})

	assert.Equal(t, FlowMaintained, eventType)
	assert.Equal(t, BandMorning, ctx.PreviousTimeBand)
}
