package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"tutorsched/internal/config"
	"tutorsched/internal/events"
	"tutorsched/internal/export"
	"tutorsched/internal/schedule"
	"tutorsched/internal/service"
)

func registerRooms(sched *service.Scheduler, rooms *config.RoomsConfig, logger *zerolog.Logger) {
	for _, r := range rooms.Rooms {
		err := sched.RegisterRoom(r.Name)
		if err != nil && !errors.Is(err, service.ErrDuplicateOwner) {
			logger.Warn().Err(err).Str("room", r.Name).Msg("room not registered")
		}
	}
}

// applyRequests schedules every requested time. Tutor times naming a room are
// assigned to it once the tutor's schedule admits them.
func applyRequests(sched *service.Scheduler, req *config.Requests, logger *zerolog.Logger) {
	for _, t := range req.Tutors {
		if err := sched.RegisterTutor(t.ID, t.Name); err != nil {
			logger.Warn().Err(err).Str("tutor", t.ID).Msg("tutor not registered")
			continue
		}
		owner := schedule.Owner{Kind: schedule.OwnerTutor, ID: t.ID}

		for _, tr := range t.Times {
			res, err := sched.AddTime(owner, service.TimeRequest{
				Raw:         tr.Time,
				Tag:         tr.TagOf(),
				CourseID:    tr.Course,
				Coordinated: tr.Coordinated,
			})
			if err != nil {
				logger.Warn().Err(err).Str("tutor", t.ID).Str("time", tr.Time).Msg("time not scheduled")
				continue
			}
			if tr.Room == "" || tr.TagOf() != schedule.TagSession {
				continue
			}
			for _, r := range res.Results {
				if !r.OK() {
					continue
				}
				if _, err := sched.AssignRoom(t.ID, tr.Room, r.Day, r.Block.Start); err != nil {
					logger.Warn().Err(err).Str("tutor", t.ID).Str("room", tr.Room).Msg("room not assigned")
				}
			}
		}
	}

	for _, rm := range req.Rooms {
		owner := schedule.Owner{Kind: schedule.OwnerRoom, ID: rm.Name}
		if err := sched.RegisterRoom(rm.Name); err == nil {
			logger.Warn().Str("room", rm.Name).Msg("room missing from registry, using default range")
		}

		for _, tr := range rm.Times {
			_, err := sched.AddTime(owner, service.TimeRequest{
				Raw:         tr.Time,
				Tag:         tr.TagOf(),
				CourseID:    tr.Course,
				TutorID:     tr.Tutor,
				Coordinated: tr.Coordinated,
			})
			if err != nil {
				logger.Warn().Err(err).Str("room", rm.Name).Str("time", tr.Time).Msg("time not scheduled")
			}
		}
	}
}

func writeExports(sched *service.Scheduler, cfg *config.Config) error {
	if cfg.Export.TextPath == "" && cfg.Export.XLSXPath == "" {
		return nil
	}

	tutorName := func(id string) string {
		name, _ := sched.Name(schedule.Owner{Kind: schedule.OwnerTutor, ID: id})
		return name
	}

	var text bytes.Buffer
	wb := export.NewWorkbook()
	defer wb.Close()

	for _, kind := range []schedule.OwnerKind{schedule.OwnerTutor, schedule.OwnerRoom} {
		for _, owner := range sched.Owners(kind) {
			week, err := sched.Snapshot(owner)
			if err != nil {
				return err
			}
			title := owner.ID
			if name, _ := sched.Name(owner); name != "" && name != owner.ID {
				title = fmt.Sprintf("%s (%s)", name, owner.ID)
			}

			fmt.Fprintf(&text, "%s %s\n", kind, title)
			if err := export.Text(&text, week, export.TextOptions{
				AssignedOnly: cfg.Export.AssignedOnly,
				TutorName:    tutorName,
			}); err != nil {
				return err
			}
			text.WriteByte('\n')

			if _, err := wb.AddSchedule(title, week); err != nil {
				return err
			}
		}
	}

	if cfg.Export.TextPath != "" {
		if err := os.WriteFile(cfg.Export.TextPath, text.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write text export: %w", err)
		}
	}
	if cfg.Export.XLSXPath != "" {
		if err := wb.SaveToFile(cfg.Export.XLSXPath); err != nil {
			return fmt.Errorf("write xlsx export: %w", err)
		}
	}
	return nil
}

// summary counts published events by type for the end-of-run log line.
type summary struct {
	mu     sync.Mutex
	counts map[string]int
}

func newSummary(bus *events.EventBus) *summary {
	s := &summary{counts: make(map[string]int)}
	bus.SubscribeAll(func(e events.Event) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.counts[e.Type]++
		return nil
	})
	return s
}

func (s *summary) log(logger *zerolog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger.Info().
		Int("added", s.counts[events.BlockAdded]).
		Int("replaced", s.counts[events.BlockReplaced]).
		Int("rejected", s.counts[events.BlockRejected]).
		Int("assigned", s.counts[events.RoomAssigned]).
		Msg("requests applied")
}
