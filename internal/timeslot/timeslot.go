// Package timeslot implements minute-granularity time-of-day arithmetic for
// the reservation engine: parsing and formatting "HH:MM" values, offset
// arithmetic, and enumeration of candidate booking slots within opening hours.
package timeslot

import (
	"fmt"
)

// minutesPerDay bounds a Time to a single calendar day.
const minutesPerDay = 24 * 60

// closingMarginMinutes is the fixed safety margin before closing time: no slot
// is ever offered that starts less than one hour before the restaurant closes.
// It is independent of the restaurant's service duration.
const closingMarginMinutes = 60

// Time is a time of day expressed as minutes since midnight, always in
// [0, 1440). The zero value is midnight.
//
// Offset arithmetic is intentionally asymmetric: Add wraps past midnight,
// Sub clamps at midnight. Both policies live here and only here; callers
// never do their own minute math.
type Time int

// Parse converts a 24-hour "HH:MM" string to a Time. Seconds are not
// accepted; hours must be in [0,23] and minutes in [0,59].
func Parse(s string) (Time, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	h, err := twoDigits(s[0], s[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	m, err := twoDigits(s[3], s[4])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}
	return Time(h*60 + m), nil
}

func twoDigits(a, b byte) (int, error) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, fmt.Errorf("not a digit")
	}
	return int(a-'0')*10 + int(b-'0'), nil
}

// String renders the time as zero-padded 24-hour "HH:MM".
func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Add returns the time m minutes later, wrapping past midnight into the next
// day ("23:30" + 60 = "00:30").
func (t Time) Add(m int) Time {
	v := (int(t) + m) % minutesPerDay
	if v < 0 {
		v += minutesPerDay
	}
	return Time(v)
}

// Sub returns the time m minutes earlier, clamped at midnight ("00:30" − 60 =
// "00:00"). It never wraps into the previous day.
func (t Time) Sub(m int) Time {
	v := int(t) - m
	if v < 0 {
		v = 0
	}
	return Time(v)
}

// Minutes returns the minute-of-day value.
func (t Time) Minutes() int { return int(t) }

// MarshalJSON renders the time as a quoted "HH:MM" string.
func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON accepts a quoted "HH:MM" string.
func (t *Time) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("invalid time %s: want quoted HH:MM", b)
	}
	v, err := Parse(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Slots enumerates candidate booking start times between open and close,
// stepping by interval minutes. Enumeration stops strictly before
// close − 60 minutes, so the last slot always leaves at least the fixed
// one-hour margin before closing. A non-positive interval or close <= open
// yields no slots.
func Slots(open, close Time, interval int) []Time {
	if interval <= 0 || close <= open {
		return nil
	}
	var out []Time
	limit := int(close) - closingMarginMinutes
	for t := int(open); t < limit; t += interval {
		out = append(out, Time(t))
	}
	return out
}

// Overlaps reports whether the closed intervals [aStart, aEnd] and
// [bStart, bEnd] intersect. Touching endpoints count as overlapping.
func Overlaps(aStart, aEnd, bStart, bEnd Time) bool {
	return aStart <= bEnd && aEnd >= bStart
}
