package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/pkg/timeutil"
)

func TestDailyScheduleNextSameDay(t *testing.T) {
	s := DailyAt(13, 0)

	morning := time.Date(2026, 3, 2, 9, 30, 0, 0, timeutil.SeoulTZ)
	next := s.Next(morning)

	assert.Equal(t, time.Date(2026, 3, 2, 13, 0, 0, 0, timeutil.SeoulTZ), next)
}

func TestDailyScheduleNextRollsToTomorrow(t *testing.T) {
	s := DailyAt(13, 0)

	afternoon := time.Date(2026, 3, 2, 13, 0, 0, 0, timeutil.SeoulTZ)
	next := s.Next(afternoon)

	// Exactly on the mark counts as passed.
	assert.Equal(t, time.Date(2026, 3, 3, 13, 0, 0, 0, timeutil.SeoulTZ), next)
}

func TestDailyScheduleConvertsToSeoul(t *testing.T) {
	s := DailyAt(23, 0)

	// 15:30 UTC is 00:30 the next day in Seoul, so 23:00 Seoul is still
	// almost a full day away.
	utc := time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)
	next := s.Next(utc)

	assert.Equal(t, time.Date(2026, 3, 3, 23, 0, 0, 0, timeutil.SeoulTZ), next)
}

func TestDailyScheduleString(t *testing.T) {
	assert.Equal(t, "@daily 13:00 KST", DailyAt(13, 0).String())
	assert.Equal(t, "@daily 23:05 KST", DailyAt(23, 5).String())
}

func TestIntervalScheduleNext(t *testing.T) {
	s := NewIntervalSchedule(30 * time.Minute)

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, timeutil.SeoulTZ)
	assert.Equal(t, now.Add(30*time.Minute), s.Next(now))
}

func TestCronExpressionDailySweep(t *testing.T) {
	expr, err := ParseCronExpression(EveryDay13PM)
	require.NoError(t, err)

	after := time.Date(2026, 3, 2, 9, 0, 0, 0, timeutil.SeoulTZ)
	next := expr.Next(after)

	assert.Equal(t, 13, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.Equal(t, 2, next.Day())
}

func TestCronExpressionInvalid(t *testing.T) {
	_, err := ParseCronExpression("not a cron")
	require.Error(t, err)

	_, err = ParseCronExpression("61 * * * *")
	require.Error(t, err)
}
