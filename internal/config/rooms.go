package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"tutorsched/internal/schedule"
)

// RangeConfig is a permitted booking window: weekdays plus "HH:MM" bounds.
type RangeConfig struct {
	Days  []string `yaml:"days"`  // day tokens: M, Tu, W, Th, F, Sat, Sun
	Start string   `yaml:"start"` // "08:00"
	End   string   `yaml:"end"`   // "22:00"
}

// BuildingConfig groups rooms sharing opening hours.
type BuildingConfig struct {
	Name  string       `yaml:"name"`
	Range *RangeConfig `yaml:"range,omitempty"`
}

// RoomConfig represents a single bookable room.
type RoomConfig struct {
	Name     string `yaml:"name"`
	Building string `yaml:"building,omitempty"`
	// Request rooms are placeholders pending a real room and have no session cap.
	Request bool `yaml:"request"`
}

// RoomsConfig is the root configuration for rooms.yaml. It answers range and
// request-room questions for room schedules.
type RoomsConfig struct {
	Defaults struct {
		Range *RangeConfig `yaml:"range"`
	} `yaml:"defaults"`
	Buildings []BuildingConfig `yaml:"buildings"`
	Rooms     []RoomConfig     `yaml:"rooms"`

	defaultRange schedule.AvailableRange
	ranges       map[string]schedule.AvailableRange // by building
	rooms        map[string]*RoomConfig
}

// DefaultRange is used for rooms outside any building with its own range.
var DefaultRange = RangeConfig{
	Days:  []string{"M", "Tu", "W", "Th", "F", "Sat", "Sun"},
	Start: "08:00",
	End:   "22:00",
}

// LoadRooms loads and validates the room registry from a YAML file.
func LoadRooms(path string) (*RoomsConfig, error) {
	if path == "" {
		path = "configs/rooms.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rooms config: %w", err)
	}
	return ParseRooms(data)
}

// ParseRooms decodes, validates and indexes rooms.yaml content.
func ParseRooms(data []byte) (*RoomsConfig, error) {
	var cfg RoomsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse rooms config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate rooms config: %w", err)
	}

	if err := cfg.index(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *RoomsConfig) Validate() error {
	if len(c.Rooms) == 0 {
		return fmt.Errorf("no rooms defined")
	}

	if c.Defaults.Range != nil {
		if _, err := c.Defaults.Range.toRange("defaults.range"); err != nil {
			return err
		}
	}

	buildings := make(map[string]bool)
	for i, b := range c.Buildings {
		if b.Name == "" {
			return fmt.Errorf("building[%d]: name is required", i)
		}
		if buildings[b.Name] {
			return fmt.Errorf("building[%d]: duplicate name '%s'", i, b.Name)
		}
		buildings[b.Name] = true

		if b.Range != nil {
			if _, err := b.Range.toRange(fmt.Sprintf("building[%d].range", i)); err != nil {
				return err
			}
		}
	}

	names := make(map[string]bool)
	for i, r := range c.Rooms {
		if r.Name == "" {
			return fmt.Errorf("room[%d]: name is required", i)
		}
		if names[r.Name] {
			return fmt.Errorf("room[%d]: duplicate name '%s'", i, r.Name)
		}
		names[r.Name] = true

		if r.Building != "" && !buildings[r.Building] {
			return fmt.Errorf("room[%d]: unknown building '%s'", i, r.Building)
		}
	}

	return nil
}

func (c *RoomsConfig) index() error {
	def := DefaultRange
	if c.Defaults.Range != nil {
		def = *c.Defaults.Range
	}
	r, err := def.toRange("defaults.range")
	if err != nil {
		return err
	}
	c.defaultRange = r

	c.ranges = make(map[string]schedule.AvailableRange, len(c.Buildings))
	for i, b := range c.Buildings {
		if b.Range == nil {
			continue
		}
		r, err := b.Range.toRange(fmt.Sprintf("building[%d].range", i))
		if err != nil {
			return err
		}
		c.ranges[b.Name] = r
	}

	c.rooms = make(map[string]*RoomConfig, len(c.Rooms))
	for i := range c.Rooms {
		c.rooms[c.Rooms[i].Name] = &c.Rooms[i]
	}
	return nil
}

// AvailableRange returns the range of the room's building, or the default
// range for rooms without one.
func (c *RoomsConfig) AvailableRange(room string) schedule.AvailableRange {
	if r, ok := c.rooms[room]; ok {
		if br, ok := c.ranges[r.Building]; ok {
			return br
		}
	}
	return c.defaultRange
}

// IsRequestRoom reports whether the room is exempt from the session cap.
func (c *RoomsConfig) IsRequestRoom(room string) bool {
	r, ok := c.rooms[room]
	return ok && r.Request
}

// GetRoom returns room config by name.
func (c *RoomsConfig) GetRoom(name string) *RoomConfig {
	return c.rooms[name]
}

// String returns a summary of the configuration.
func (c *RoomsConfig) String() string {
	request := 0
	for _, r := range c.Rooms {
		if r.Request {
			request++
		}
	}
	return fmt.Sprintf("RoomsConfig: %d rooms (%d request), %d buildings",
		len(c.Rooms), request, len(c.Buildings))
}

func (r *RangeConfig) toRange(prefix string) (schedule.AvailableRange, error) {
	if len(r.Days) == 0 {
		return schedule.AvailableRange{}, fmt.Errorf("%s.days is required", prefix)
	}
	days := make([]schedule.Day, 0, len(r.Days))
	for i, tok := range r.Days {
		d, err := schedule.ParseDay(tok)
		if err != nil {
			return schedule.AvailableRange{}, fmt.Errorf("%s.days[%d]: %w", prefix, i, err)
		}
		days = append(days, d)
	}

	start, err := parseClock(r.Start)
	if err != nil {
		return schedule.AvailableRange{}, fmt.Errorf("%s.start: invalid format '%s', expected HH:MM", prefix, r.Start)
	}
	end, err := parseClock(r.End)
	if err != nil {
		return schedule.AvailableRange{}, fmt.Errorf("%s.end: invalid format '%s', expected HH:MM", prefix, r.End)
	}
	if end <= start {
		return schedule.AvailableRange{}, fmt.Errorf("%s: end must be after start", prefix)
	}

	return schedule.AvailableRange{Days: days, Start: start, End: end}, nil
}

// parseClock converts "HH:MM" into minutes since midnight. "24:00" is accepted
// as the end of the day.
func parseClock(s string) (int, error) {
	if s == "24:00" {
		return schedule.MinutesPerDay, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
