package schedule

import (
	"fmt"
	"slices"
	"strings"
)

// MinutesPerDay bounds every block: 0 <= Start < End <= MinutesPerDay.
const MinutesPerDay = 24 * 60

// Tag categorizes a time block.
type Tag string

const (
	TagSession     Tag = "session"
	TagOfficeHours Tag = "office-hours"
	TagOther       Tag = "other"
)

// ParseTag accepts the canonical tag names plus "office hours".
func ParseTag(s string) (Tag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "session":
		return TagSession, nil
	case "office-hours", "office hours":
		return TagOfficeHours, nil
	case "other":
		return TagOther, nil
	}
	return "", fmt.Errorf("unknown tag %q", s)
}

// TimeBlock is a single scheduled interval. Blocks are values: a stored block is
// only ever replaced as a whole.
type TimeBlock struct {
	Day      Day
	Start    int // minutes since midnight
	End      int // minutes since midnight
	Tag      Tag
	CourseID string
	// TutorID is set on room schedules only and names the tutor holding the slot.
	TutorID string
	// Room is the identifier of the room holding this block, if any.
	Room string
	// Coordinated marks session times scheduled by the coordinating office.
	Coordinated bool
}

// Key reports whether b is addressed by (day, tag, start).
func (b TimeBlock) Key(day Day, tag Tag, start int) bool {
	return b.Day == day && b.Tag == tag && b.Start == start
}

func (b TimeBlock) String() string {
	return fmt.Sprintf("%s %s %d-%d %s", b.Day, b.Tag, b.Start, b.End, b.CourseID)
}

// AvailableRange is the window a room may be booked in.
type AvailableRange struct {
	Days  []Day
	Start int
	End   int
}

func (r AvailableRange) Contains(day Day) bool {
	return slices.Contains(r.Days, day)
}

// OwnerKind tells which kind of owner a schedule belongs to.
type OwnerKind string

const (
	OwnerTutor OwnerKind = "tutor"
	OwnerRoom  OwnerKind = "room"
)

// Owner identifies the tutor or room a schedule belongs to. It is a lookup key,
// never a reference to the caller's object.
type Owner struct {
	Kind OwnerKind
	ID   string
}

func (o Owner) String() string {
	return string(o.Kind) + ":" + o.ID
}
