package service

import (
	"sync"

	"tutorsched/internal/schedule"
)

// directory forwards to the current room registry so a reload reaches every
// room policy already handed out.
type directory struct {
	mu  sync.RWMutex
	dir schedule.RoomDirectory
}

func (d *directory) set(dir schedule.RoomDirectory) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dir = dir
}

// AvailableRange falls back to the whole week when no registry is loaded.
func (d *directory) AvailableRange(room string) schedule.AvailableRange {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.dir == nil {
		return schedule.AvailableRange{Days: schedule.Days, Start: 0, End: schedule.MinutesPerDay}
	}
	return d.dir.AvailableRange(room)
}

func (d *directory) IsRequestRoom(room string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.dir != nil && d.dir.IsRequestRoom(room)
}

type sessionTable struct {
	mu    sync.RWMutex
	table schedule.SessionTable
}

func (t *sessionTable) set(table schedule.SessionTable) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.table = table
}

// IsValidSessionStart accepts every start when no table is loaded.
func (t *sessionTable) IsValidSessionStart(day schedule.Day, minutes int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.table == nil || t.table.IsValidSessionStart(day, minutes)
}
