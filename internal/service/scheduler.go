// Package service keeps the registry of tutor and room schedules and applies
// scheduling requests to them one owner at a time.
package service

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"tutorsched/internal/events"
	"tutorsched/internal/metrics"
	"tutorsched/internal/schedule"
	"tutorsched/internal/timespec"
)

var (
	ErrUnknownOwner    = errors.New("unknown owner")
	ErrDuplicateOwner  = errors.New("owner already registered")
	ErrNotFound        = errors.New("time block not found")
	ErrAlreadyAssigned = errors.New("session is assigned to another room")
	ErrNotAssigned     = errors.New("session has no room")
)

// EventPublisher receives scheduling events.
type EventPublisher interface {
	Publish(event events.Event) events.Event
}

// Options tune the scheduling rules.
type Options struct {
	// MaxSessionsPerDay caps sessions per room per day; zero means the default.
	MaxSessionsPerDay int
	// AtomicMultiDay rejects a multi-day time string as a whole when any day
	// fails. When false, days before the failing one stay scheduled.
	AtomicMultiDay bool
}

// TimeRequest is a raw time string plus the metadata of the blocks it yields.
type TimeRequest struct {
	Raw         string
	Tag         schedule.Tag
	CourseID    string
	TutorID     string // room schedules only
	Coordinated bool
}

type entry struct {
	mu   sync.Mutex
	name string
	week *schedule.WeekSchedule
}

// Scheduler owns every registered schedule. Calls on the same owner are
// serialized; different owners proceed in parallel.
type Scheduler struct {
	mu     sync.RWMutex
	owners map[schedule.Owner]*entry

	dir   *directory
	table *sessionTable
	opts  Options

	bus    EventPublisher
	logger zerolog.Logger
}

// NewScheduler creates an empty registry. bus and logger may be nil.
func NewScheduler(dir schedule.RoomDirectory, table schedule.SessionTable, opts Options, bus EventPublisher, logger *zerolog.Logger) *Scheduler {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	if opts.MaxSessionsPerDay <= 0 {
		opts.MaxSessionsPerDay = schedule.MaxSessionsPerDay
	}

	s := &Scheduler{
		owners: make(map[schedule.Owner]*entry),
		dir:    &directory{},
		table:  &sessionTable{},
		opts:   opts,
		bus:    bus,
		logger: l.With().Str("component", "scheduler").Logger(),
	}
	s.dir.set(dir)
	s.table.set(table)
	return s
}

// SetDirectory swaps the room registry; existing room schedules use it from
// their next call on.
func (s *Scheduler) SetDirectory(dir schedule.RoomDirectory) {
	s.dir.set(dir)
	s.logger.Info().Msg("room directory updated")
}

// SetSessionTable swaps the table of allowed session starts.
func (s *Scheduler) SetSessionTable(table schedule.SessionTable) {
	s.table.set(table)
	s.logger.Info().Msg("session table updated")
}

// RegisterTutor adds an empty tutor schedule.
func (s *Scheduler) RegisterTutor(id, name string) error {
	owner := schedule.Owner{Kind: schedule.OwnerTutor, ID: id}
	return s.register(owner, name, schedule.NewTutorPolicy(s.table))
}

// RegisterRoom adds an empty room schedule.
func (s *Scheduler) RegisterRoom(name string) error {
	owner := schedule.Owner{Kind: schedule.OwnerRoom, ID: name}
	return s.register(owner, name, schedule.NewRoomPolicy(name, s.dir, s.opts.MaxSessionsPerDay))
}

func (s *Scheduler) register(owner schedule.Owner, name string, policy schedule.Policy) error {
	if owner.ID == "" {
		return fmt.Errorf("register %s: empty id", owner.Kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.owners[owner]; ok {
		return fmt.Errorf("register %s: %w", owner, ErrDuplicateOwner)
	}
	s.owners[owner] = &entry{name: name, week: schedule.New(owner, policy)}

	s.logger.Debug().Str("owner", owner.String()).Msg("schedule registered")
	return nil
}

func (s *Scheduler) lookup(owner schedule.Owner) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.owners[owner]
	if !ok {
		return nil, fmt.Errorf("%s: %w", owner, ErrUnknownOwner)
	}
	return e, nil
}

// Owners returns the registered owners of kind ordered by id.
func (s *Scheduler) Owners(kind schedule.OwnerKind) []schedule.Owner {
	s.mu.RLock()
	out := make([]schedule.Owner, 0, len(s.owners))
	for o := range s.owners {
		if o.Kind == kind {
			out = append(out, o)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Name returns the display name given at registration.
func (s *Scheduler) Name(owner schedule.Owner) (string, error) {
	e, err := s.lookup(owner)
	if err != nil {
		return "", err
	}
	return e.name, nil
}

// AddTime parses req.Raw and schedules one block per day it names. A string
// with nothing to schedule yields an empty result and no error. Scheduling
// rejections are reported in the result, not as errors.
func (s *Scheduler) AddTime(owner schedule.Owner, req TimeRequest) (schedule.BatchResult, error) {
	e, err := s.lookup(owner)
	if err != nil {
		return schedule.BatchResult{}, err
	}

	parsed, err := timespec.Parse(req.Raw)
	if errors.Is(err, timespec.ErrNoTime) {
		s.logger.Debug().Str("owner", owner.String()).Str("time", req.Raw).Msg("nothing to schedule")
		return schedule.BatchResult{}, nil
	}
	if err != nil {
		metrics.IncParseFailure(parseReason(err))
		return schedule.BatchResult{}, fmt.Errorf("add time to %s: %w", owner, err)
	}

	proto := schedule.TimeBlock{
		Tag:         req.Tag,
		CourseID:    req.CourseID,
		Coordinated: req.Coordinated,
	}
	if proto.Tag == "" {
		proto.Tag = schedule.TagSession
	}
	if owner.Kind == schedule.OwnerRoom {
		proto.TutorID = req.TutorID
	}
	blocks := parsed.Blocks(proto)

	e.mu.Lock()
	var res schedule.BatchResult
	if s.opts.AtomicMultiDay {
		res = e.week.AddTimes(blocks)
	} else {
		res = e.week.AddTimesSequential(blocks)
	}
	e.mu.Unlock()

	for _, r := range res.Results {
		s.record(owner, r)
	}
	return res, nil
}

// RemoveTime deletes the block keyed by (day, tag, start).
func (s *Scheduler) RemoveTime(owner schedule.Owner, day schedule.Day, tag schedule.Tag, start int) (schedule.TimeBlock, error) {
	e, err := s.lookup(owner)
	if err != nil {
		return schedule.TimeBlock{}, err
	}

	e.mu.Lock()
	b, ok := e.week.RemoveTime(day, tag, start)
	e.mu.Unlock()
	if !ok {
		return schedule.TimeBlock{}, fmt.Errorf("%s %s %s: %w", owner, day, timespec.FormatMinutes(start), ErrNotFound)
	}

	metrics.AddBlocks(string(owner.Kind), -1)
	s.publish(events.Event{Type: events.BlockRemoved, Owner: owner, Block: b, Outcome: schedule.Success})
	s.logger.Info().
		Str("owner", owner.String()).
		Str("time", timespec.Format(b)).
		Msg("time removed")
	return b, nil
}

// GetTime returns the block keyed by (day, tag, start).
func (s *Scheduler) GetTime(owner schedule.Owner, day schedule.Day, tag schedule.Tag, start int) (schedule.TimeBlock, error) {
	e, err := s.lookup(owner)
	if err != nil {
		return schedule.TimeBlock{}, err
	}

	e.mu.Lock()
	b, ok := e.week.GetTime(day, tag, start)
	e.mu.Unlock()
	if !ok {
		return schedule.TimeBlock{}, fmt.Errorf("%s %s %s: %w", owner, day, timespec.FormatMinutes(start), ErrNotFound)
	}
	return b, nil
}

// GetTimeByString looks a block up by its display string, e.g. "Tu 3:00 PM".
func (s *Scheduler) GetTimeByString(owner schedule.Owner, raw string, tag schedule.Tag) (schedule.TimeBlock, error) {
	day, start, err := timespec.ParseKey(raw)
	if err != nil {
		return schedule.TimeBlock{}, err
	}
	return s.GetTime(owner, day, tag, start)
}

// Times returns a copy of the owner's blocks on day ordered by start.
func (s *Scheduler) Times(owner schedule.Owner, day schedule.Day) ([]schedule.TimeBlock, error) {
	e, err := s.lookup(owner)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.week.Times(day), nil
}

// Snapshot returns an independent copy of the owner's week.
func (s *Scheduler) Snapshot(owner schedule.Owner) (*schedule.WeekSchedule, error) {
	e, err := s.lookup(owner)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.week.Clone(), nil
}

func (s *Scheduler) record(owner schedule.Owner, r schedule.Result) {
	metrics.IncOutcome(string(owner.Kind), r.Outcome.String())
	if r.Outcome == schedule.Success {
		metrics.AddBlocks(string(owner.Kind), 1)
	}

	s.publish(events.Event{
		Type:     events.TypeOf(r.Outcome),
		Owner:    owner,
		Block:    r.Block,
		Outcome:  r.Outcome,
		Existing: r.Existing,
	})

	switch r.Outcome {
	case schedule.Success:
		s.logger.Debug().
			Str("owner", owner.String()).
			Str("time", timespec.Format(r.Block)).
			Msg("time added")
	case schedule.Replaced:
		s.logger.Info().
			Str("owner", owner.String()).
			Str("time", timespec.Format(r.Block)).
			Str("previous", timespec.Format(*r.Existing)).
			Str("previous_course", r.Existing.CourseID).
			Msg("time replaced")
	default:
		ev := s.logger.Info().
			Str("owner", owner.String()).
			Str("time", timespec.Format(r.Block)).
			Str("outcome", r.Outcome.String())
		if r.Existing != nil {
			ev = ev.Str("blocked_by", timespec.Format(*r.Existing))
		}
		ev.Msg("time rejected")
	}
}

func (s *Scheduler) publish(e events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(e)
}

func parseReason(err error) string {
	switch {
	case errors.Is(err, timespec.ErrInvalidTime):
		return "invalid-time"
	case errors.Is(err, timespec.ErrInvalidRange):
		return "invalid-range"
	}
	return "unknown"
}
