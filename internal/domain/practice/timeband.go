package practice

// Band is a named slice of the Seoul wall-clock day.
type Band string

// The canonical four-band partition. Every hour of the day belongs to
// exactly one band; night wraps past midnight through the early hours.
const (
	// BandMorning covers 05:00-11:59.
	BandMorning Band = "morning"
	// BandAfternoon covers 12:00-16:59.
	BandAfternoon Band = "afternoon"
	// BandEvening covers 17:00-20:59.
	BandEvening Band = "evening"
	// BandNight covers 21:00-04:59.
	BandNight Band = "night"
)

// String returns the string representation.
func (b Band) String() string {
	return string(b)
}

// IsValid checks if the band is one of the four defined bands.
func (b Band) IsValid() bool {
	switch b {
	case BandMorning, BandAfternoon, BandEvening, BandNight:
		return true
	}
	return false
}

// BandForHour maps a Seoul wall-clock hour (0-23) to its band.
func BandForHour(hour int) Band {
	switch {
	case hour >= 5 && hour < 12:
		return BandMorning
	case hour >= 12 && hour < 17:
		return BandAfternoon
	case hour >= 17 && hour < 21:
		return BandEvening
	default:
		return BandNight
	}
}
