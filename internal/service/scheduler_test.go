package service

import (
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tutorsched/internal/events"
	"tutorsched/internal/schedule"
	"tutorsched/internal/timespec"
)

type busMock struct {
	mock.Mock
}

func (m *busMock) Publish(e events.Event) events.Event {
	m.Called(e)
	return e
}

type weekdayDirectory struct {
	request map[string]bool
}

func (d weekdayDirectory) AvailableRange(string) schedule.AvailableRange {
	return schedule.AvailableRange{
		Days:  []schedule.Day{schedule.Mon, schedule.Tue, schedule.Wed, schedule.Thu, schedule.Fri},
		Start: 480,
		End:   1260,
	}
}

func (d weekdayDirectory) IsRequestRoom(room string) bool {
	return d.request[room]
}

func tutorRef(id string) schedule.Owner {
	return schedule.Owner{Kind: schedule.OwnerTutor, ID: id}
}

func roomRef(name string) schedule.Owner {
	return schedule.Owner{Kind: schedule.OwnerRoom, ID: name}
}

func newScheduler(t *testing.T, opts Options, bus EventPublisher) *Scheduler {
	t.Helper()
	logger := zerolog.New(io.Discard)
	s := NewScheduler(weekdayDirectory{}, nil, opts, bus, &logger)
	require.NoError(t, s.RegisterTutor("t1", "Ada"))
	require.NoError(t, s.RegisterTutor("t2", "Grace"))
	require.NoError(t, s.RegisterRoom("LIB-101"))
	require.NoError(t, s.RegisterRoom("LIB-102"))
	return s
}

func collect(bus *events.EventBus) func() []events.Event {
	var (
		mu  sync.Mutex
		out []events.Event
	)
	bus.SubscribeAll(func(e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		out = append(out, e)
		return nil
	})
	return func() []events.Event {
		mu.Lock()
		defer mu.Unlock()
		return append([]events.Event(nil), out...)
	}
}

func TestRegister(t *testing.T) {
	s := newScheduler(t, Options{}, nil)

	assert.ErrorIs(t, s.RegisterTutor("t1", "Other"), ErrDuplicateOwner)
	assert.ErrorIs(t, s.RegisterRoom("LIB-101"), ErrDuplicateOwner)
	assert.Error(t, s.RegisterRoom(""))

	// tutor and room ids live in separate namespaces
	assert.NoError(t, s.RegisterRoom("t1"))

	assert.Equal(t, []schedule.Owner{tutorRef("t1"), tutorRef("t2")}, s.Owners(schedule.OwnerTutor))
	assert.Len(t, s.Owners(schedule.OwnerRoom), 3)

	name, err := s.Name(tutorRef("t2"))
	require.NoError(t, err)
	assert.Equal(t, "Grace", name)

	_, err = s.AddTime(tutorRef("ghost"), TimeRequest{Raw: "M 9:00 AM"})
	assert.ErrorIs(t, err, ErrUnknownOwner)
	_, err = s.Times(roomRef("ghost"), schedule.Mon)
	assert.ErrorIs(t, err, ErrUnknownOwner)
}

func TestAddTime_MultiDay(t *testing.T) {
	bus := new(busMock)
	bus.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.BlockAdded && e.Owner == tutorRef("t1")
	})).Return().Times(3)

	s := newScheduler(t, Options{AtomicMultiDay: true}, bus)

	res, err := s.AddTime(tutorRef("t1"), TimeRequest{Raw: "MWF 10:00 - 11:00 AM", CourseID: "CS101"})
	require.NoError(t, err)
	assert.True(t, res.Committed)
	require.Len(t, res.Results, 3)

	for _, d := range []schedule.Day{schedule.Mon, schedule.Wed, schedule.Fri} {
		blocks, err := s.Times(tutorRef("t1"), d)
		require.NoError(t, err)
		require.Len(t, blocks, 1)
		assert.Equal(t, 600, blocks[0].Start)
		assert.Equal(t, 660, blocks[0].End)
		assert.Equal(t, schedule.TagSession, blocks[0].Tag)
		assert.Equal(t, "CS101", blocks[0].CourseID)
		assert.Empty(t, blocks[0].TutorID)
	}
	bus.AssertExpectations(t)
}

func TestAddTime_NoTime(t *testing.T) {
	s := newScheduler(t, Options{}, nil)

	for _, raw := range []string{timespec.NotAvailable, "TBA", ""} {
		res, err := s.AddTime(tutorRef("t1"), TimeRequest{Raw: raw})
		assert.NoError(t, err, raw)
		assert.Empty(t, res.Results, raw)
	}
	snap, err := s.Snapshot(tutorRef("t1"))
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Len())
}

func TestAddTime_ParseErrors(t *testing.T) {
	s := newScheduler(t, Options{}, nil)

	_, err := s.AddTime(tutorRef("t1"), TimeRequest{Raw: "M 25:00"})
	assert.ErrorIs(t, err, timespec.ErrInvalidTime)

	_, err = s.AddTime(tutorRef("t1"), TimeRequest{Raw: "M 11:00 PM - 11:30 AM"})
	assert.ErrorIs(t, err, timespec.ErrInvalidRange)
}

func TestAddTime_AtomicVersusSequential(t *testing.T) {
	// Saturday is outside the weekday range of every room
	raw := "MWSat 9:00 - 10:00 AM"

	atomic := newScheduler(t, Options{AtomicMultiDay: true}, nil)
	res, err := atomic.AddTime(roomRef("LIB-101"), TimeRequest{Raw: raw, TutorID: "t1"})
	require.NoError(t, err)
	assert.False(t, res.Committed)
	failure, ok := res.Failure()
	require.True(t, ok)
	assert.Equal(t, schedule.OutOfRange, failure.Outcome)
	assert.Equal(t, schedule.Sat, failure.Day)
	snap, _ := atomic.Snapshot(roomRef("LIB-101"))
	assert.Equal(t, 0, snap.Len())

	sequential := newScheduler(t, Options{}, nil)
	res, err = sequential.AddTime(roomRef("LIB-101"), TimeRequest{Raw: raw, TutorID: "t1"})
	require.NoError(t, err)
	assert.False(t, res.Committed)
	require.Len(t, res.Results, 3)
	snap, _ = sequential.Snapshot(roomRef("LIB-101"))
	assert.Equal(t, 2, snap.Len())
}

func TestAddTime_RoomReplaceAndConflict(t *testing.T) {
	bus := events.NewEventBus()
	published := collect(bus)
	s := newScheduler(t, Options{AtomicMultiDay: true}, bus)
	room := roomRef("LIB-101")

	_, err := s.AddTime(room, TimeRequest{Raw: "Tu 2:00 - 3:00 PM", TutorID: "t1", CourseID: "CS101"})
	require.NoError(t, err)

	res, err := s.AddTime(room, TimeRequest{Raw: "Tu 2:30 - 3:30 PM", TutorID: "t1", CourseID: "CS102"})
	require.NoError(t, err)
	require.Len(t, res.Replacements(), 1)
	assert.Equal(t, "CS101", res.Replacements()[0].Existing.CourseID)

	res, err = s.AddTime(room, TimeRequest{Raw: "Tu 3:00 - 4:00 PM", TutorID: "t2"})
	require.NoError(t, err)
	failure, ok := res.Failure()
	require.True(t, ok)
	assert.Equal(t, schedule.Conflict, failure.Outcome)
	assert.ErrorIs(t, failure.Err(), schedule.ErrConflict)

	blocks, _ := s.Times(room, schedule.Tue)
	require.Len(t, blocks, 1)
	assert.Equal(t, 870, blocks[0].Start)
	assert.Equal(t, "LIB-101", blocks[0].Room)

	var types []string
	for _, e := range published() {
		types = append(types, e.Type)
	}
	assert.Equal(t, []string{events.BlockAdded, events.BlockReplaced, events.BlockRejected}, types)
}

func TestAddTime_RequestRoomSkipsCap(t *testing.T) {
	logger := zerolog.New(io.Discard)
	s := NewScheduler(weekdayDirectory{request: map[string]bool{"TBD": true}}, nil, Options{MaxSessionsPerDay: 1}, nil, &logger)
	require.NoError(t, s.RegisterRoom("TBD"))
	require.NoError(t, s.RegisterRoom("LIB-101"))

	for i, raw := range []string{"Th 9:00 AM", "Th 11:00 AM", "Th 1:00 PM"} {
		res, err := s.AddTime(roomRef("TBD"), TimeRequest{Raw: raw, TutorID: fmt.Sprintf("t%d", i)})
		require.NoError(t, err)
		assert.True(t, res.Committed, raw)
	}

	_, err := s.AddTime(roomRef("LIB-101"), TimeRequest{Raw: "Th 9:00 AM", TutorID: "a"})
	require.NoError(t, err)
	res, err := s.AddTime(roomRef("LIB-101"), TimeRequest{Raw: "Th 11:00 AM", TutorID: "b"})
	require.NoError(t, err)
	failure, _ := res.Failure()
	assert.Equal(t, schedule.OverBooked, failure.Outcome)

	// office hours do not count toward the cap
	res, err = s.AddTime(roomRef("LIB-101"), TimeRequest{Raw: "Th 1:00 PM", TutorID: "c", Tag: schedule.TagOfficeHours})
	require.NoError(t, err)
	assert.True(t, res.Committed)
}

func TestRemoveAndGetTime(t *testing.T) {
	bus := events.NewEventBus()
	published := collect(bus)
	s := newScheduler(t, Options{}, bus)
	tutor := tutorRef("t1")

	_, err := s.AddTime(tutor, TimeRequest{Raw: "Th 3:00 PM", Tag: schedule.TagOfficeHours})
	require.NoError(t, err)

	b, err := s.GetTimeByString(tutor, "Th 3:00 PM", schedule.TagOfficeHours)
	require.NoError(t, err)
	assert.Equal(t, 960, b.End)

	_, err = s.GetTime(tutor, schedule.Thu, schedule.TagSession, 900)
	assert.ErrorIs(t, err, ErrNotFound)

	removed, err := s.RemoveTime(tutor, schedule.Thu, schedule.TagOfficeHours, 900)
	require.NoError(t, err)
	assert.Equal(t, b, removed)

	_, err = s.RemoveTime(tutor, schedule.Thu, schedule.TagOfficeHours, 900)
	assert.ErrorIs(t, err, ErrNotFound)

	last := published()[len(published())-1]
	assert.Equal(t, events.BlockRemoved, last.Type)
	assert.Equal(t, 900, last.Block.Start)
}

func TestAssignRoom(t *testing.T) {
	bus := events.NewEventBus()
	published := collect(bus)
	s := newScheduler(t, Options{}, bus)

	_, err := s.AddTime(tutorRef("t1"), TimeRequest{Raw: "M 9:00 - 10:00 AM", CourseID: "CS101"})
	require.NoError(t, err)

	res, err := s.AssignRoom("t1", "LIB-101", schedule.Mon, 540)
	require.NoError(t, err)
	assert.Equal(t, schedule.Success, res.Outcome)

	tb, err := s.GetTime(tutorRef("t1"), schedule.Mon, schedule.TagSession, 540)
	require.NoError(t, err)
	assert.Equal(t, "LIB-101", tb.Room)
	assert.Empty(t, tb.TutorID)

	rb, err := s.GetTime(roomRef("LIB-101"), schedule.Mon, schedule.TagSession, 540)
	require.NoError(t, err)
	assert.Equal(t, "t1", rb.TutorID)
	assert.Equal(t, "CS101", rb.CourseID)
	assert.Equal(t, "LIB-101", rb.Room)

	assert.Equal(t, events.RoomAssigned, published()[len(published())-1].Type)

	// assigning the same room again replaces the room's copy
	res, err = s.AssignRoom("t1", "LIB-101", schedule.Mon, 540)
	require.NoError(t, err)
	assert.Equal(t, schedule.Replaced, res.Outcome)

	_, err = s.AssignRoom("t1", "LIB-102", schedule.Mon, 540)
	assert.ErrorIs(t, err, ErrAlreadyAssigned)

	require.NoError(t, s.UnassignRoom("t1", schedule.Mon, 540))
	tb, _ = s.GetTime(tutorRef("t1"), schedule.Mon, schedule.TagSession, 540)
	assert.Empty(t, tb.Room)
	_, err = s.GetTime(roomRef("LIB-101"), schedule.Mon, schedule.TagSession, 540)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.UnassignRoom("t1", schedule.Mon, 540), ErrNotAssigned)
	assert.ErrorIs(t, s.UnassignRoom("t1", schedule.Tue, 540), ErrNotFound)
}

func TestAssignRoom_Rejected(t *testing.T) {
	s := newScheduler(t, Options{}, nil)

	_, err := s.AddTime(tutorRef("t1"), TimeRequest{Raw: "M 9:00 - 10:00 AM"})
	require.NoError(t, err)
	_, err = s.AddTime(roomRef("LIB-101"), TimeRequest{Raw: "M 9:30 - 10:30 AM", TutorID: "t2"})
	require.NoError(t, err)

	res, err := s.AssignRoom("t1", "LIB-101", schedule.Mon, 540)
	require.NoError(t, err)
	assert.Equal(t, schedule.Conflict, res.Outcome)
	require.NotNil(t, res.Existing)
	assert.Equal(t, "t2", res.Existing.TutorID)

	tb, _ := s.GetTime(tutorRef("t1"), schedule.Mon, schedule.TagSession, 540)
	assert.Empty(t, tb.Room)

	_, err = s.AssignRoom("t1", "LIB-101", schedule.Mon, 600)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.AssignRoom("t1", "ghost", schedule.Mon, 540)
	assert.ErrorIs(t, err, ErrUnknownOwner)
}

func TestSetDirectory(t *testing.T) {
	logger := zerolog.New(io.Discard)
	s := NewScheduler(weekdayDirectory{}, nil, Options{}, nil, &logger)
	require.NoError(t, s.RegisterRoom("LIB-101"))

	res, err := s.AddTime(roomRef("LIB-101"), TimeRequest{Raw: "Sat 10:00 AM"})
	require.NoError(t, err)
	assert.False(t, res.Committed)

	s.SetDirectory(nil)
	res, err = s.AddTime(roomRef("LIB-101"), TimeRequest{Raw: "Sat 10:00 AM"})
	require.NoError(t, err)
	assert.True(t, res.Committed)
}

type oddHours struct{}

func (oddHours) IsValidSessionStart(_ schedule.Day, minutes int) bool {
	return (minutes/60)%2 == 1
}

func TestSetSessionTable(t *testing.T) {
	s := newScheduler(t, Options{}, nil)
	s.SetSessionTable(oddHours{})

	res, err := s.AddTime(tutorRef("t1"), TimeRequest{Raw: "W 10:00 AM"})
	require.NoError(t, err)
	failure, ok := res.Failure()
	require.True(t, ok)
	assert.Equal(t, schedule.InvalidSessionTime, failure.Outcome)

	// only sessions are held to the table
	res, err = s.AddTime(tutorRef("t1"), TimeRequest{Raw: "W 10:00 AM", Tag: schedule.TagOther})
	require.NoError(t, err)
	assert.True(t, res.Committed)

	res, err = s.AddTime(tutorRef("t1"), TimeRequest{Raw: "W 1:00 PM"})
	require.NoError(t, err)
	assert.True(t, res.Committed)
}

func TestConcurrentOwners(t *testing.T) {
	s := newScheduler(t, Options{}, nil)
	starts := []string{"8:00 AM", "10:00 AM", "12:00 PM", "2:00 PM"}
	days := []string{"M", "Tu", "W", "Th", "F"}
	owners := []schedule.Owner{tutorRef("t1"), tutorRef("t2"), roomRef("LIB-101"), roomRef("LIB-102")}

	var wg sync.WaitGroup
	for _, o := range owners {
		for _, d := range days {
			for _, st := range starts {
				wg.Add(1)
				go func(o schedule.Owner, raw string) {
					defer wg.Done()
					res, err := s.AddTime(o, TimeRequest{Raw: raw, TutorID: "t1"})
					assert.NoError(t, err)
					assert.True(t, res.Committed, raw)
				}(o, d+" "+st)
			}
		}
	}
	wg.Wait()

	for _, o := range owners {
		snap, err := s.Snapshot(o)
		require.NoError(t, err)
		assert.Equal(t, len(days)*len(starts), snap.Len(), o.String())
		for _, d := range schedule.Days {
			blocks := snap.Times(d)
			for i := 1; i < len(blocks); i++ {
				assert.Less(t, blocks[i-1].Start, blocks[i].Start)
			}
		}
	}
}
