// Package export renders weekly schedules for spreadsheets: tab separated text
// for pasting and xlsx workbooks.
package export

import (
	"bufio"
	"io"

	"tutorsched/internal/schedule"
	"tutorsched/internal/timespec"
)

// TextOptions controls Text output.
type TextOptions struct {
	// AssignedOnly skips blocks that have no room.
	AssignedOnly bool
	// TutorName resolves a tutor id on room schedules; nil or "" prints the id only.
	TutorName func(id string) string
}

// Text writes one line per weekday: the day token, a tab, then every block as
// "<body><start> - <end>" followed by a tab.
func Text(w io.Writer, week *schedule.WeekSchedule, opts TextOptions) error {
	bw := bufio.NewWriter(w)
	isRoom := week.Owner().Kind == schedule.OwnerRoom

	week.ForEachDay(func(day schedule.Day, blocks []schedule.TimeBlock) {
		bw.WriteString(day.String())
		bw.WriteByte('\t')
		for _, b := range blocks {
			if opts.AssignedOnly && b.Room == "" {
				continue
			}
			bw.WriteString(body(b, isRoom, opts.TutorName))
			bw.WriteString(timespec.FormatRange(b.Start, b.End))
			bw.WriteByte('\t')
		}
		bw.WriteByte('\n')
	})
	return bw.Flush()
}

func body(b schedule.TimeBlock, isRoom bool, tutorName func(string) string) string {
	switch {
	case isRoom:
		name := ""
		if tutorName != nil {
			name = tutorName(b.TutorID)
		}
		if name != "" {
			return b.CourseID + " , " + name + " (" + b.TutorID + ") , "
		}
		return b.CourseID + " ,  (" + b.TutorID + ") , "
	case b.Room != "":
		return b.CourseID + " , " + b.Room + " , "
	case b.CourseID != "":
		return b.CourseID + " "
	}
	return ""
}
