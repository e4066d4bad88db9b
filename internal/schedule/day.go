package schedule

import (
	"fmt"
	"strings"
)

// Day is a weekday key of a weekly schedule.
type Day int

const (
	Mon Day = iota
	Tue
	Wed
	Thu
	Fri
	Sat
	Sun
)

// Days lists every weekday in iteration order.
var Days = []Day{Mon, Tue, Wed, Thu, Fri, Sat, Sun}

var dayTokens = [...]string{"M", "Tu", "W", "Th", "F", "Sat", "Sun"}

var dayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// String returns the short token used in time strings ("M", "Tu", ...).
func (d Day) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayTokens[d]
}

// Name returns the full English weekday name.
func (d Day) Name() string {
	if !d.Valid() {
		return d.String()
	}
	return dayNames[d]
}

func (d Day) Valid() bool {
	return d >= Mon && d <= Sun
}

func (d Day) IsWeekend() bool {
	return d == Sat || d == Sun
}

// ParseDay accepts a day token ("Tu") or a full weekday name ("tuesday").
func ParseDay(s string) (Day, error) {
	s = strings.TrimSpace(s)
	for i, tok := range dayTokens {
		if s == tok || strings.EqualFold(s, dayNames[i]) {
			return Day(i), nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", s)
}

// UnmarshalText lets days appear as tokens in YAML configuration.
func (d *Day) UnmarshalText(text []byte) error {
	parsed, err := ParseDay(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Day) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid day %d", int(d))
	}
	return []byte(d.String()), nil
}
