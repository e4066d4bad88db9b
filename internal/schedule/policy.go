package schedule

// MaxSessionsPerDay is the default number of sessions a room hosts per day.
const MaxSessionsPerDay = 4

// RoomDirectory answers room questions owned by the building registry.
type RoomDirectory interface {
	// AvailableRange returns the room's building range or the system default.
	AvailableRange(room string) AvailableRange
	// IsRequestRoom reports whether the room is exempt from the daily session cap.
	IsRequestRoom(room string) bool
}

// SessionTable is the fixed table of legal tutoring session starts.
type SessionTable interface {
	IsValidSessionStart(day Day, minutes int) bool
}

// Policy supplies the owner-specific rules a WeekSchedule consults.
type Policy interface {
	Kind() OwnerKind
	// Range returns the permitted window; ok is false when no range applies.
	Range() (r AvailableRange, ok bool)
	// ValidSessionStart reports whether a session may start at minutes on day.
	ValidSessionStart(day Day, minutes int) bool
	// SessionLimit returns the daily session cap and whether this owner is exempt.
	SessionLimit() (limit int, exempt bool)
	// ReplacesSameTutor reports whether an overlap with a block held by the same
	// tutor overwrites that block instead of conflicting.
	ReplacesSameTutor() bool
}

type tutorPolicy struct {
	table SessionTable
}

// NewTutorPolicy returns the policy of a tutor schedule. A nil table accepts
// every session start.
func NewTutorPolicy(table SessionTable) Policy {
	return tutorPolicy{table: table}
}

func (tutorPolicy) Kind() OwnerKind { return OwnerTutor }

func (tutorPolicy) Range() (AvailableRange, bool) { return AvailableRange{}, false }

func (p tutorPolicy) ValidSessionStart(day Day, minutes int) bool {
	if day.IsWeekend() || p.table == nil {
		return true
	}
	return p.table.IsValidSessionStart(day, minutes)
}

func (tutorPolicy) SessionLimit() (int, bool) { return 0, true }

func (tutorPolicy) ReplacesSameTutor() bool { return false }

type roomPolicy struct {
	room  string
	dir   RoomDirectory
	limit int
}

// NewRoomPolicy returns the policy of a room schedule. The directory is queried
// on every call so registry reloads apply to existing schedules. A non-positive
// limit falls back to MaxSessionsPerDay.
func NewRoomPolicy(room string, dir RoomDirectory, limit int) Policy {
	if limit <= 0 {
		limit = MaxSessionsPerDay
	}
	return roomPolicy{room: room, dir: dir, limit: limit}
}

func (roomPolicy) Kind() OwnerKind { return OwnerRoom }

func (p roomPolicy) Range() (AvailableRange, bool) {
	if p.dir == nil {
		return AvailableRange{}, false
	}
	return p.dir.AvailableRange(p.room), true
}

func (roomPolicy) ValidSessionStart(Day, int) bool { return true }

func (p roomPolicy) SessionLimit() (int, bool) {
	if p.dir == nil {
		return p.limit, false
	}
	return p.limit, p.dir.IsRequestRoom(p.room)
}

func (roomPolicy) ReplacesSameTutor() bool { return true }
