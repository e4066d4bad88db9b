package schedule

import "sort"

// DaySchedule holds the blocks of one weekday ordered by start, together with
// the number of session blocks among them.
type DaySchedule struct {
	blocks   []TimeBlock
	sessions int
}

func (d *DaySchedule) Len() int {
	return len(d.blocks)
}

// Sessions returns the number of session-tagged blocks.
func (d *DaySchedule) Sessions() int {
	return d.sessions
}

// Blocks returns a copy of the ordered blocks.
func (d *DaySchedule) Blocks() []TimeBlock {
	out := make([]TimeBlock, len(d.blocks))
	copy(out, d.blocks)
	return out
}

func (d *DaySchedule) clone() DaySchedule {
	return DaySchedule{blocks: d.Blocks(), sessions: d.sessions}
}

// insert places b after every block starting at or before it.
func (d *DaySchedule) insert(b TimeBlock) int {
	i := sort.Search(len(d.blocks), func(i int) bool {
		return d.blocks[i].Start > b.Start
	})
	d.blocks = append(d.blocks, TimeBlock{})
	copy(d.blocks[i+1:], d.blocks[i:])
	d.blocks[i] = b
	if b.Tag == TagSession {
		d.sessions++
	}
	return i
}

func (d *DaySchedule) removeAt(i int) TimeBlock {
	b := d.blocks[i]
	d.blocks = append(d.blocks[:i], d.blocks[i+1:]...)
	if b.Tag == TagSession {
		d.sessions--
	}
	return b
}

// index returns the position of the first block keyed by (tag, start), or -1.
func (d *DaySchedule) index(tag Tag, start int) int {
	for i, b := range d.blocks {
		if b.Start == start && b.Tag == tag {
			return i
		}
	}
	return -1
}
