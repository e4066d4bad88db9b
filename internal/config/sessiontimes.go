package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"tutorsched/internal/schedule"
)

// SessionTimes is the table of allowed tutoring session starts per weekday.
type SessionTimes struct {
	Times map[string][]string `yaml:"session_times"` // day token -> "HH:MM" starts

	starts map[schedule.Day]map[int]bool
}

// LoadSessionTimes reads the session-time table. An empty path returns the
// built-in table.
func LoadSessionTimes(path string) (*SessionTimes, error) {
	if path == "" {
		return DefaultSessionTimes(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session times: %w", err)
	}

	var st SessionTimes
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse session times: %w", err)
	}
	if err := st.index(); err != nil {
		return nil, fmt.Errorf("validate session times: %w", err)
	}
	return &st, nil
}

// DefaultSessionTimes returns hourly Monday/Wednesday/Friday starts and
// 75-minute Tuesday/Thursday blocks, 8:00 through 20:00.
func DefaultSessionTimes() *SessionTimes {
	mwf := make([]string, 0, 13)
	for h := 8; h <= 20; h++ {
		mwf = append(mwf, fmt.Sprintf("%02d:00", h))
	}
	tuth := make([]string, 0, 9)
	for m := 8 * 60; m <= 20*60; m += 90 {
		tuth = append(tuth, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}

	st := &SessionTimes{Times: map[string][]string{
		"M": mwf, "W": mwf, "F": mwf,
		"Tu": tuth, "Th": tuth,
	}}
	if err := st.index(); err != nil {
		panic(err)
	}
	return st
}

func (s *SessionTimes) index() error {
	s.starts = make(map[schedule.Day]map[int]bool, len(s.Times))
	for tok, times := range s.Times {
		day, err := schedule.ParseDay(tok)
		if err != nil {
			return fmt.Errorf("session_times: %w", err)
		}
		set := make(map[int]bool, len(times))
		for i, t := range times {
			m, err := parseClock(t)
			if err != nil {
				return fmt.Errorf("session_times.%s[%d]: invalid format '%s', expected HH:MM", tok, i, t)
			}
			set[m] = true
		}
		s.starts[day] = set
	}
	return nil
}

// IsValidSessionStart reports whether a session may start at minutes on day.
func (s *SessionTimes) IsValidSessionStart(day schedule.Day, minutes int) bool {
	return s.starts[day][minutes]
}

// Starts returns the allowed starts for day in ascending order.
func (s *SessionTimes) Starts(day schedule.Day) []int {
	out := make([]int, 0, len(s.starts[day]))
	for m := range s.starts[day] {
		out = append(out, m)
	}
	sort.Ints(out)
	return out
}
