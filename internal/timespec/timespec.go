// Package timespec parses free-form schedule strings such as "MWF 10:00 - 11:00 AM".
package timespec

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"tutorsched/internal/schedule"
)

var (
	// ErrNoTime means the string carries nothing to schedule.
	ErrNoTime       = errors.New("no time in string")
	ErrInvalidTime  = errors.New("invalid clock time")
	ErrInvalidRange = errors.New("invalid time range")
)

// NotAvailable marks an unscheduled entry in source spreadsheets.
const NotAvailable = "N/A"

const defaultDuration = 60

var (
	dayPattern  = regexp.MustCompile(`(M|Tu|W|Th|F|Sat|Sun)`)
	timePattern = regexp.MustCompile(`([0-9]{1,2}):([0-9]{1,2})\s*(AM|PM|am|pm)?`)
)

var dayByToken = map[string]schedule.Day{
	"M": schedule.Mon, "Tu": schedule.Tue, "W": schedule.Wed, "Th": schedule.Thu,
	"F": schedule.Fri, "Sat": schedule.Sat, "Sun": schedule.Sun,
}

// Parsed is the result of Parse: one candidate block per day, all sharing
// the same start and end minute.
type Parsed struct {
	Days  []schedule.Day
	Start int
	End   int
}

// Blocks expands p into one block per day carrying the given metadata.
func (p Parsed) Blocks(proto schedule.TimeBlock) []schedule.TimeBlock {
	out := make([]schedule.TimeBlock, 0, len(p.Days))
	for _, d := range p.Days {
		b := proto
		b.Day = d
		b.Start = p.Start
		b.End = p.End
		out = append(out, b)
	}
	return out
}

type clock struct {
	hour     int
	minute   int
	meridiem string // "AM", "PM" or empty
}

// Parse reads "<days><time>[ - <time>]". Without day letters the time is a
// Sunday time. A missing end time means a one hour block.
func Parse(raw string) (Parsed, error) {
	if strings.TrimSpace(raw) == NotAvailable {
		return Parsed{}, ErrNoTime
	}

	clocks, err := scanClocks(raw)
	if err != nil {
		return Parsed{}, err
	}

	if len(clocks) > 1 {
		resolveMeridiems(&clocks[0], &clocks[1])
	}
	start, err := clocks[0].minutes()
	if err != nil {
		return Parsed{}, fmt.Errorf("parse %q: %w", raw, err)
	}
	end := start + defaultDuration
	if len(clocks) > 1 {
		if end, err = clocks[1].minutes(); err != nil {
			return Parsed{}, fmt.Errorf("parse %q: %w", raw, err)
		}
	}
	if !schedule.ValidBounds(start, end) {
		return Parsed{}, fmt.Errorf("parse %q: %w: %d-%d", raw, ErrInvalidRange, start, end)
	}

	return Parsed{Days: days(raw), Start: start, End: end}, nil
}

// ParseKey returns the day and start minute addressed by raw, e.g. "Tu 3:00 PM".
// It is used to look blocks up by their display string.
func ParseKey(raw string) (schedule.Day, int, error) {
	clocks, err := scanClocks(raw)
	if err != nil {
		return 0, 0, err
	}
	start, err := clocks[0].minutes()
	if err != nil {
		return 0, 0, fmt.Errorf("parse %q: %w", raw, err)
	}
	return days(raw)[0], start, nil
}

// days scans only the text before the first colon so the M of AM/PM is never
// read as Monday.
func days(raw string) []schedule.Day {
	head, _, _ := strings.Cut(raw, ":")
	var out []schedule.Day
	seen := make(map[schedule.Day]bool)
	for _, tok := range dayPattern.FindAllString(head, -1) {
		d := dayByToken[tok]
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	if len(out) == 0 {
		return []schedule.Day{schedule.Sun}
	}
	return out
}

func scanClocks(raw string) ([]clock, error) {
	matches := timePattern.FindAllStringSubmatch(raw, 2)
	if len(matches) == 0 {
		return nil, ErrNoTime
	}
	out := make([]clock, 0, len(matches))
	for _, m := range matches {
		hour, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTime, m[0])
		}
		minute, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTime, m[0])
		}
		out = append(out, clock{hour: hour, minute: minute, meridiem: strings.ToUpper(m[3])})
	}
	return out, nil
}

// resolveMeridiems fills in missing AM/PM markers of a start/end pair written on
// a 12-hour clock. A 24-hour value ("13:00", "0:30") is taken literally.
func resolveMeridiems(first, second *clock) {
	if first.meridiem == "" && first.twelveHour() && !second.twentyFourHour() {
		first.meridiem = inferMeridiem(*second)
	}
	if second.meridiem != "" || first.meridiem == "" || !second.twelveHour() {
		return
	}
	// the end inherits the start's half of the day unless that puts it first
	second.meridiem = first.meridiem
	start, errStart := first.minutes()
	end, errEnd := second.minutes()
	if errStart == nil && errEnd == nil && end <= start && second.meridiem == "AM" {
		second.meridiem = "PM"
	}
}

// inferMeridiem picks AM/PM for a leading time that has none, looking at the
// trailing one. A trailing noon hour flips the meridiem ("11:00 - 12:00 PM" is
// a morning start); any other hour keeps it ("1:00 - 2:00 PM"). A trailing time
// without a marker counts as PM.
func inferMeridiem(other clock) string {
	isAM := other.meridiem == "AM"
	if other.hour == 12 {
		if isAM {
			return "PM"
		}
		return "AM"
	}
	if isAM {
		return "AM"
	}
	return "PM"
}

func (c clock) twelveHour() bool {
	return c.hour >= 1 && c.hour <= 12
}

func (c clock) twentyFourHour() bool {
	return c.meridiem == "" && !c.twelveHour()
}

func (c clock) minutes() (int, error) {
	if c.minute > 59 {
		return 0, fmt.Errorf("%w: minute %d", ErrInvalidTime, c.minute)
	}
	hour := c.hour
	switch c.meridiem {
	case "AM", "PM":
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("%w: hour %d %s", ErrInvalidTime, hour, c.meridiem)
		}
		hour %= 12
		if c.meridiem == "PM" {
			hour += 12
		}
	default:
		if hour > 23 {
			return 0, fmt.Errorf("%w: hour %d", ErrInvalidTime, hour)
		}
	}
	return hour*60 + c.minute, nil
}

// FormatMinutes renders minutes since midnight as "1:05 PM".
func FormatMinutes(m int) string {
	hour, minute := m/60, m%60
	meridiem := "AM"
	if hour >= 12 && hour < 24 {
		meridiem = "PM"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour, minute, meridiem)
}

// FormatRange renders "9:00 AM - 10:00 AM".
func FormatRange(start, end int) string {
	return FormatMinutes(start) + " - " + FormatMinutes(end)
}

// Format renders a block the way Parse reads it back, e.g. "Tu 9:00 AM - 10:00 AM".
func Format(b schedule.TimeBlock) string {
	return b.Day.String() + " " + FormatRange(b.Start, b.End)
}
