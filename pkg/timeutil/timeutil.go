// Package timeutil provides timezone utilities for the Seoul timezone (UTC+9).
// Every attendance date in the studio is a civil date on the Korean calendar,
// so all day boundaries and date strings here are computed in Seoul wall-clock
// time regardless of the server's locale. No external dependencies - uses only
// standard library.
package timeutil

import (
	"fmt"
	"time"
)

// SeoulTZ is the Seoul timezone (UTC+9, no DST).
// South Korea has not observed DST since 1988, so this is constant year-round.
var SeoulTZ = time.FixedZone("Asia/Seoul", 9*60*60)

// Now returns the current time in Seoul timezone.
func Now() time.Time {
	return time.Now().In(SeoulTZ)
}

// ToSeoul converts a time to Seoul timezone.
func ToSeoul(t time.Time) time.Time {
	return t.In(SeoulTZ)
}

// ToUTC converts a time to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// Date creates a time in Seoul timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, SeoulTZ)
}

// DateTime creates a time in Seoul timezone with the given date and time.
func DateTime(year, month, day, hour, min, sec int) time.Time {
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, SeoulTZ)
}

// StartOfDay returns the start of the day (00:00:00) in Seoul timezone.
func StartOfDay(t time.Time) time.Time {
	seoul := ToSeoul(t)
	return time.Date(seoul.Year(), seoul.Month(), seoul.Day(), 0, 0, 0, 0, SeoulTZ)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in Seoul timezone.
func EndOfDay(t time.Time) time.Time {
	seoul := ToSeoul(t)
	return time.Date(seoul.Year(), seoul.Month(), seoul.Day(), 23, 59, 59, 999999999, SeoulTZ)
}

// StartOfMonth returns the start of the month in Seoul timezone.
func StartOfMonth(t time.Time) time.Time {
	seoul := ToSeoul(t)
	return time.Date(seoul.Year(), seoul.Month(), 1, 0, 0, 0, 0, SeoulTZ)
}

// EndOfMonth returns the end of the month in Seoul timezone.
func EndOfMonth(t time.Time) time.Time {
	start := StartOfMonth(t)
	return EndOfDay(start.AddDate(0, 1, -1))
}

// IsToday checks if the given time is today in Seoul timezone.
func IsToday(t time.Time) bool {
	now := Now()
	seoul := ToSeoul(t)
	return seoul.Year() == now.Year() &&
		seoul.Month() == now.Month() &&
		seoul.Day() == now.Day()
}

// Common date/time formats.
const (
	// FormatDate is the standard civil date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatDateTimeSeconds includes seconds.
	FormatDateTimeSeconds = "2006-01-02 15:04:05"
	// FormatKoreanDate is the Korean date format (YYYY년 MM월 DD일).
	FormatKoreanDate = "2006년 01월 02일"
)

// CivilDate returns the Seoul civil date string (YYYY-MM-DD) for a time.
// This is the canonical attendance date: it is derived exactly once from the
// check-in timestamp and stored, never recomputed from the timestamp again.
func CivilDate(t time.Time) string {
	return ToSeoul(t).Format(FormatDate)
}

// TodayDate returns today's Seoul civil date string (YYYY-MM-DD).
func TodayDate() string {
	return CivilDate(time.Now())
}

// FormatSeoul formats a time in Seoul timezone with the given layout.
func FormatSeoul(t time.Time, layout string) string {
	return ToSeoul(t).Format(layout)
}

// FormatTimeStr formats a time as a time string (HH:MM) in Seoul timezone.
func FormatTimeStr(t time.Time) string {
	return FormatSeoul(t, FormatTime)
}

// FormatDateTimeStr formats a time as datetime string in Seoul timezone.
func FormatDateTimeStr(t time.Time) string {
	return FormatSeoul(t, FormatDateTime)
}

// ParseSeoul parses a time string in Seoul timezone.
func ParseSeoul(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, SeoulTZ)
}

// ParseCivilDate parses a civil date string (YYYY-MM-DD) in Seoul timezone.
func ParseCivilDate(value string) (time.Time, error) {
	return ParseSeoul(FormatDate, value)
}

// Civil date string arithmetic.
//
// Member start/end dates and attendance dates circulate as YYYY-MM-DD strings,
// so the helpers below work on strings directly and fail on malformed input.

// AddDaysToDate returns the civil date string n days after the given one.
func AddDaysToDate(date string, n int) (string, error) {
	t, err := ParseCivilDate(date)
	if err != nil {
		return "", fmt.Errorf("timeutil: invalid date %q: %w", date, err)
	}
	return t.AddDate(0, 0, n).Format(FormatDate), nil
}

// AddMonthsToDate returns the civil date string n calendar months after the
// given one, using Go's month normalization (Jan 31 + 1 month = Mar 2/3).
func AddMonthsToDate(date string, n int) (string, error) {
	t, err := ParseCivilDate(date)
	if err != nil {
		return "", fmt.Errorf("timeutil: invalid date %q: %w", date, err)
	}
	return t.AddDate(0, n, 0).Format(FormatDate), nil
}

// DaysBetweenDates returns the number of civil days from one date string to
// another. The result is positive when `to` is after `from`.
func DaysBetweenDates(from, to string) (int, error) {
	t1, err := ParseCivilDate(from)
	if err != nil {
		return 0, fmt.Errorf("timeutil: invalid date %q: %w", from, err)
	}
	t2, err := ParseCivilDate(to)
	if err != nil {
		return 0, fmt.Errorf("timeutil: invalid date %q: %w", to, err)
	}
	return int(t2.Sub(t1).Hours() / 24), nil
}

// DateBefore reports whether civil date a is strictly before civil date b.
// YYYY-MM-DD strings compare correctly as strings.
func DateBefore(a, b string) bool {
	return a < b
}

// IsSameDay checks if two times are on the same day in Seoul timezone.
func IsSameDay(t1, t2 time.Time) bool {
	s1, s2 := ToSeoul(t1), ToSeoul(t2)
	return s1.Year() == s2.Year() && s1.YearDay() == s2.YearDay()
}

// IsConsecutiveDay checks if t2 is the day after t1.
func IsConsecutiveDay(t1, t2 time.Time) bool {
	s1, s2 := ToSeoul(t1), ToSeoul(t2)
	nextDay := s1.AddDate(0, 0, 1)
	return IsSameDay(nextDay, s2)
}

// DaysBetween calculates the number of days between two times.
func DaysBetween(t1, t2 time.Time) int {
	s1 := StartOfDay(t1)
	s2 := StartOfDay(t2)
	duration := s2.Sub(s1)
	days := int(duration.Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// Studio hours.
const (
	// StudioOpenHour is when the studio opens (6:00 AM).
	StudioOpenHour = 6
	// StudioCloseHour is when the studio closes (10:00 PM).
	StudioCloseHour = 22
)

// IsStudioOpen checks if the given time falls within studio hours (6:00-22:00).
func IsStudioOpen(t time.Time) bool {
	seoul := ToSeoul(t)
	hour := seoul.Hour()
	return hour >= StudioOpenHour && hour < StudioCloseHour
}

// Notification timing helpers.

// IsSafeNotificationTime checks if it's appropriate to send notifications (9:00-21:00).
func IsSafeNotificationTime(t time.Time) bool {
	seoul := ToSeoul(t)
	hour := seoul.Hour()
	return hour >= 9 && hour < 21
}

// NextSafeNotificationTime returns the next time when notifications are appropriate.
func NextSafeNotificationTime(t time.Time) time.Time {
	seoul := ToSeoul(t)
	hour := seoul.Hour()

	if hour < 9 {
		// Before 9 AM - return 9 AM today
		return DateTime(seoul.Year(), int(seoul.Month()), seoul.Day(), 9, 0, 0)
	} else if hour >= 21 {
		// After 9 PM - return 9 AM tomorrow
		tomorrow := seoul.AddDate(0, 0, 1)
		return DateTime(tomorrow.Year(), int(tomorrow.Month()), tomorrow.Day(), 9, 0, 0)
	}

	// Already in safe time window
	return seoul
}
