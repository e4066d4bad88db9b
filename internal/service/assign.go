package service

import (
	"fmt"

	"tutorsched/internal/events"
	"tutorsched/internal/metrics"
	"tutorsched/internal/schedule"
	"tutorsched/internal/timespec"
)

// AssignRoom books the tutor's session at (day, start) into room and records
// the room on the tutor's block. The room's rules decide the outcome; the
// tutor's block is only updated when the room admits the session.
func (s *Scheduler) AssignRoom(tutorID, room string, day schedule.Day, start int) (schedule.Result, error) {
	tutor := schedule.Owner{Kind: schedule.OwnerTutor, ID: tutorID}
	roomOwner := schedule.Owner{Kind: schedule.OwnerRoom, ID: room}

	te, err := s.lookup(tutor)
	if err != nil {
		return schedule.Result{}, err
	}
	re, err := s.lookup(roomOwner)
	if err != nil {
		return schedule.Result{}, err
	}

	// tutor first, then room
	te.mu.Lock()
	defer te.mu.Unlock()

	b, ok := te.week.GetTime(day, schedule.TagSession, start)
	if !ok {
		return schedule.Result{}, fmt.Errorf("%s %s %s: %w", tutor, day, timespec.FormatMinutes(start), ErrNotFound)
	}
	if b.Room != "" && b.Room != room {
		return schedule.Result{}, fmt.Errorf("%s %s: %w (%s)", tutor, timespec.Format(b), ErrAlreadyAssigned, b.Room)
	}

	b.TutorID = tutorID
	re.mu.Lock()
	res := re.week.AddTime(b)
	re.mu.Unlock()

	s.record(roomOwner, res)
	if !res.OK() {
		return res, nil
	}

	te.week.SetRoom(day, schedule.TagSession, start, room)
	b.Room = room
	s.publish(events.Event{Type: events.RoomAssigned, Owner: tutor, Block: b, Outcome: res.Outcome})
	s.logger.Info().
		Str("tutor", tutorID).
		Str("room", room).
		Str("time", timespec.Format(b)).
		Msg("room assigned")
	return res, nil
}

// UnassignRoom removes the tutor's session at (day, start) from its room and
// clears the room on the tutor's block.
func (s *Scheduler) UnassignRoom(tutorID string, day schedule.Day, start int) error {
	tutor := schedule.Owner{Kind: schedule.OwnerTutor, ID: tutorID}
	te, err := s.lookup(tutor)
	if err != nil {
		return err
	}

	te.mu.Lock()
	defer te.mu.Unlock()

	b, ok := te.week.GetTime(day, schedule.TagSession, start)
	if !ok {
		return fmt.Errorf("%s %s %s: %w", tutor, day, timespec.FormatMinutes(start), ErrNotFound)
	}
	if b.Room == "" {
		return fmt.Errorf("%s %s: %w", tutor, timespec.Format(b), ErrNotAssigned)
	}

	roomOwner := schedule.Owner{Kind: schedule.OwnerRoom, ID: b.Room}
	re, err := s.lookup(roomOwner)
	if err != nil {
		return err
	}

	re.mu.Lock()
	held, ok := re.week.GetTime(day, schedule.TagSession, start)
	removed := ok && held.TutorID == tutorID
	if removed {
		re.week.RemoveTime(day, schedule.TagSession, start)
	}
	re.mu.Unlock()

	te.week.SetRoom(day, schedule.TagSession, start, "")

	if removed {
		metrics.AddBlocks(string(schedule.OwnerRoom), -1)
		s.publish(events.Event{Type: events.BlockRemoved, Owner: roomOwner, Block: held, Outcome: schedule.Success})
	}
	s.logger.Info().
		Str("tutor", tutorID).
		Str("room", b.Room).
		Str("time", timespec.Format(b)).
		Msg("room unassigned")
	return nil
}
