package schedule

// Overlaps reports whether proposed touches existing. Boundaries are inclusive,
// so back-to-back blocks sharing a minute overlap. A proposed block that fully
// contains an existing one also overlaps it.
func Overlaps(existing, proposed TimeBlock) bool {
	if existing.Day != proposed.Day {
		return false
	}
	return existing.Start <= proposed.End && proposed.Start <= existing.End
}

// AtCapacity reports whether a day holding sessions sessions rejects another one.
func AtCapacity(sessions, limit int, exempt bool) bool {
	if exempt || limit <= 0 {
		return false
	}
	return sessions >= limit
}

// InRange reports whether [start, end) on day fits inside r.
func InRange(r AvailableRange, day Day, start, end int) bool {
	if !r.Contains(day) {
		return false
	}
	return start >= r.Start && end <= r.End
}

// ValidBounds reports whether start and end describe a block inside one day.
func ValidBounds(start, end int) bool {
	return start >= 0 && start < end && end <= MinutesPerDay
}
