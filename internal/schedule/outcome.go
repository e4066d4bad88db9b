package schedule

import (
	"errors"
	"fmt"
)

// Outcome is the decision taken on a proposed block.
type Outcome int

const (
	Success Outcome = iota
	Replaced
	Conflict
	OutOfRange
	OverBooked
	InvalidSessionTime
)

var outcomeNames = [...]string{
	Success:            "success",
	Replaced:           "replaced",
	Conflict:           "conflict",
	OutOfRange:         "out-of-range",
	OverBooked:         "over-booked",
	InvalidSessionTime: "invalid-session-time",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

// rank orders failures by the validation step that produces them.
func (o Outcome) rank() int {
	switch o {
	case OutOfRange:
		return 1
	case InvalidSessionTime:
		return 2
	case Conflict:
		return 3
	case OverBooked:
		return 4
	}
	return 0
}

var (
	ErrOutOfRange         = errors.New("time is outside the permitted range")
	ErrInvalidSessionTime = errors.New("session start is not an allowed session time")
	ErrConflict           = errors.New("time overlaps an existing block")
	ErrOverBooked         = errors.New("day already has the maximum number of sessions")
)

// Result describes what AddTime did with a proposed block.
type Result struct {
	Outcome Outcome
	Day     Day
	// Block is the proposed block.
	Block TimeBlock
	// Existing is the blocking block on Conflict or the overwritten block on Replaced.
	Existing *TimeBlock
}

// OK reports whether the block is now stored.
func (r Result) OK() bool {
	return r.Outcome == Success || r.Outcome == Replaced
}

// Err converts a rejection into an error wrapping one of the package sentinels.
func (r Result) Err() error {
	var base error
	switch r.Outcome {
	case Success, Replaced:
		return nil
	case OutOfRange:
		base = ErrOutOfRange
	case InvalidSessionTime:
		base = ErrInvalidSessionTime
	case Conflict:
		base = ErrConflict
	case OverBooked:
		base = ErrOverBooked
	default:
		return fmt.Errorf("unknown outcome %d", int(r.Outcome))
	}
	if r.Existing != nil {
		return fmt.Errorf("%s %d-%d: %w (blocked by %s %d-%d)",
			r.Day, r.Block.Start, r.Block.End, base, r.Existing.CourseID, r.Existing.Start, r.Existing.End)
	}
	return fmt.Errorf("%s %d-%d: %w", r.Day, r.Block.Start, r.Block.End, base)
}

// BatchResult collects the per-day results of a multi-day insert. When the
// batch fails, Results ends with the reported rejection; earlier entries are
// only present for sequential inserts and are stored.
type BatchResult struct {
	Results []Result
	// Committed reports that every block of the batch was stored.
	Committed bool
}

// Failure returns the rejection reported for the batch, if any.
func (b BatchResult) Failure() (Result, bool) {
	for _, r := range b.Results {
		if !r.OK() {
			return r, true
		}
	}
	return Result{}, false
}

// Replacements returns the results that overwrote an existing block.
func (b BatchResult) Replacements() []Result {
	var out []Result
	for _, r := range b.Results {
		if r.Outcome == Replaced {
			out = append(out, r)
		}
	}
	return out
}
