package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tutorsched/internal/schedule"
)

// TimeRequest is one raw time string to schedule, e.g. "MWF 10:00 - 10:50 AM".
type TimeRequest struct {
	Time        string `yaml:"time"`
	Course      string `yaml:"course"`
	Tag         string `yaml:"tag"` // session (default), office-hours, other
	Tutor       string `yaml:"tutor,omitempty"`
	Room        string `yaml:"room,omitempty"` // assign tutor session to this room
	Coordinated bool   `yaml:"coordinated"`
}

// TutorRequests lists the times requested by one tutor.
type TutorRequests struct {
	ID    string        `yaml:"id"`
	Name  string        `yaml:"name"`
	Times []TimeRequest `yaml:"times"`
}

// RoomRequests lists times booked directly on a room.
type RoomRequests struct {
	Name  string        `yaml:"name"`
	Times []TimeRequest `yaml:"times"`
}

// Requests is the root of a requests file fed to the scheduler.
type Requests struct {
	Tutors []TutorRequests `yaml:"tutors"`
	Rooms  []RoomRequests  `yaml:"rooms"`
}

// LoadRequests loads and validates a requests file.
func LoadRequests(path string) (*Requests, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read requests: %w", err)
	}

	var req Requests
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse requests: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate requests: %w", err)
	}
	return &req, nil
}

// Validate checks the requests for errors. Time strings are not parsed here:
// unparsable times are scheduling outcomes, not configuration errors.
func (r *Requests) Validate() error {
	ids := make(map[string]bool)
	for i, t := range r.Tutors {
		if t.ID == "" {
			return fmt.Errorf("tutor[%d]: id is required", i)
		}
		if ids[t.ID] {
			return fmt.Errorf("tutor[%d]: duplicate id '%s'", i, t.ID)
		}
		ids[t.ID] = true

		for j, tr := range t.Times {
			if _, err := schedule.ParseTag(tr.Tag); err != nil {
				return fmt.Errorf("tutor[%d].times[%d]: %w", i, j, err)
			}
		}
	}

	names := make(map[string]bool)
	for i, rm := range r.Rooms {
		if rm.Name == "" {
			return fmt.Errorf("room[%d]: name is required", i)
		}
		if names[rm.Name] {
			return fmt.Errorf("room[%d]: duplicate name '%s'", i, rm.Name)
		}
		names[rm.Name] = true

		for j, tr := range rm.Times {
			if _, err := schedule.ParseTag(tr.Tag); err != nil {
				return fmt.Errorf("room[%d].times[%d]: %w", i, j, err)
			}
		}
	}
	return nil
}

// TagOf returns the parsed tag of a validated request.
func (t TimeRequest) TagOf() schedule.Tag {
	tag, err := schedule.ParseTag(t.Tag)
	if err != nil {
		return schedule.TagOther
	}
	return tag
}
