// Package schedule implements weekly tutor and room schedules and the rules that
// admit, reject or replace proposed time blocks.
package schedule

import "fmt"

// WeekSchedule keeps one DaySchedule per weekday for a single owner. It does no
// locking: callers serialize mutations per schedule.
type WeekSchedule struct {
	owner  Owner
	policy Policy
	week   [7]DaySchedule
}

// New creates an empty schedule for owner governed by policy.
func New(owner Owner, policy Policy) *WeekSchedule {
	return &WeekSchedule{owner: owner, policy: policy}
}

func (w *WeekSchedule) Owner() Owner {
	return w.owner
}

func (w *WeekSchedule) Policy() Policy {
	return w.policy
}

func (w *WeekSchedule) day(d Day) *DaySchedule {
	if !d.Valid() {
		panic(fmt.Sprintf("schedule: invalid day %d", int(d)))
	}
	return &w.week[d]
}

// Check validates b without storing it. A Replaced result names the block that
// AddTime would overwrite.
func (w *WeekSchedule) Check(b TimeBlock) Result {
	r, _ := w.evaluate(b)
	return r
}

// AddTime validates b and stores it when admitted.
func (w *WeekSchedule) AddTime(b TimeBlock) Result {
	r, replace := w.evaluate(b)
	if !r.OK() {
		return r
	}
	day := w.day(b.Day)
	if replace >= 0 {
		day.removeAt(replace)
	}
	day.insert(r.Block)
	return r
}

// evaluate runs the validation steps in order: range, session window, overlap,
// capacity. The returned index is the block to overwrite on Replaced, else -1.
func (w *WeekSchedule) evaluate(b TimeBlock) (Result, int) {
	day := w.day(b.Day)
	if w.policy.Kind() == OwnerRoom {
		b.Room = w.owner.ID
	}
	res := Result{Day: b.Day, Block: b}

	if !ValidBounds(b.Start, b.End) {
		res.Outcome = OutOfRange
		return res, -1
	}
	if r, ok := w.policy.Range(); ok && !InRange(r, b.Day, b.Start, b.End) {
		res.Outcome = OutOfRange
		return res, -1
	}
	if b.Tag == TagSession && !w.policy.ValidSessionStart(b.Day, b.Start) {
		res.Outcome = InvalidSessionTime
		return res, -1
	}

	replace := -1
	for i, existing := range day.blocks {
		if !Overlaps(existing, b) {
			continue
		}
		if replace < 0 && w.policy.ReplacesSameTutor() && existing.TutorID == b.TutorID {
			replace = i
			continue
		}
		res.Outcome = Conflict
		res.Existing = &existing
		return res, -1
	}
	if replace >= 0 {
		previous := day.blocks[replace]
		res.Outcome = Replaced
		res.Existing = &previous
		return res, replace
	}

	if b.Tag == TagSession {
		limit, exempt := w.policy.SessionLimit()
		if AtCapacity(day.sessions, limit, exempt) {
			res.Outcome = OverBooked
			return res, -1
		}
	}

	res.Outcome = Success
	return res, -1
}

// AddTimes stores blocks only if every one of them is admitted. On failure
// nothing changes and the reported rejection is the one produced by the
// earliest validation step, ties going to the earlier block.
func (w *WeekSchedule) AddTimes(blocks []TimeBlock) BatchResult {
	trial := w.clone()
	results := make([]Result, 0, len(blocks))
	var failure *Result
	for _, b := range blocks {
		r := trial.AddTime(b)
		if !r.OK() && (failure == nil || r.Outcome.rank() < failure.Outcome.rank()) {
			failure = &r
		}
		results = append(results, r)
	}
	if failure != nil {
		return BatchResult{Results: []Result{*failure}}
	}
	w.week = trial.week
	return BatchResult{Results: results, Committed: true}
}

// AddTimesSequential stores blocks one by one and stops at the first rejection.
// Blocks stored before the rejection stay in the schedule.
func (w *WeekSchedule) AddTimesSequential(blocks []TimeBlock) BatchResult {
	results := make([]Result, 0, len(blocks))
	for _, b := range blocks {
		r := w.AddTime(b)
		results = append(results, r)
		if !r.OK() {
			return BatchResult{Results: results}
		}
	}
	return BatchResult{Results: results, Committed: true}
}

// RemoveTime removes and returns the first block keyed by (day, tag, start).
func (w *WeekSchedule) RemoveTime(day Day, tag Tag, start int) (TimeBlock, bool) {
	d := w.day(day)
	i := d.index(tag, start)
	if i < 0 {
		return TimeBlock{}, false
	}
	return d.removeAt(i), true
}

// GetTime returns the first block keyed by (day, tag, start).
func (w *WeekSchedule) GetTime(day Day, tag Tag, start int) (TimeBlock, bool) {
	d := w.day(day)
	i := d.index(tag, start)
	if i < 0 {
		return TimeBlock{}, false
	}
	return d.blocks[i], true
}

// ReplaceTime swaps the block keyed by (day, tag, start) for b. When b is
// rejected the previous block is restored. found is false if no block matched.
func (w *WeekSchedule) ReplaceTime(day Day, tag Tag, start int, b TimeBlock) (res Result, found bool) {
	d := w.day(day)
	i := d.index(tag, start)
	if i < 0 {
		return Result{}, false
	}
	old := d.removeAt(i)
	res = w.AddTime(b)
	if !res.OK() {
		d.insert(old)
	}
	return res, true
}

// SetRoom rewrites the block keyed by (day, tag, start) with its room set to
// room; an empty room clears the assignment.
func (w *WeekSchedule) SetRoom(day Day, tag Tag, start int, room string) bool {
	d := w.day(day)
	i := d.index(tag, start)
	if i < 0 {
		return false
	}
	b := d.blocks[i]
	b.Room = room
	d.blocks[i] = b
	return true
}

// Times returns a copy of day's blocks ordered by start.
func (w *WeekSchedule) Times(day Day) []TimeBlock {
	return w.day(day).Blocks()
}

// SessionCount returns the number of session blocks on day.
func (w *WeekSchedule) SessionCount(day Day) int {
	return w.day(day).sessions
}

// ForEachDay calls fn for every weekday in order with a copy of its blocks.
func (w *WeekSchedule) ForEachDay(fn func(day Day, blocks []TimeBlock)) {
	for _, d := range Days {
		fn(d, w.week[d].Blocks())
	}
}

// Len returns the number of blocks across the week.
func (w *WeekSchedule) Len() int {
	n := 0
	for i := range w.week {
		n += w.week[i].Len()
	}
	return n
}

// Clone returns an independent copy sharing owner and policy.
func (w *WeekSchedule) Clone() *WeekSchedule {
	return w.clone()
}

func (w *WeekSchedule) clone() *WeekSchedule {
	c := &WeekSchedule{owner: w.owner, policy: w.policy}
	for i := range w.week {
		c.week[i] = w.week[i].clone()
	}
	return c
}
