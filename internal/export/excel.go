package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"tutorsched/internal/schedule"
	"tutorsched/internal/timespec"
)

// Columns is the header row of every schedule sheet.
var Columns = []string{"Day", "Start", "End", "Tag", "Course", "Tutor", "Room", "Coordinated"}

const maxSheetName = 31

// Workbook writes one sheet per schedule using excelize.
type Workbook struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
	sheets       map[string]bool
}

// NewWorkbook creates an empty workbook.
func NewWorkbook() *Workbook {
	return &Workbook{
		file:   excelize.NewFile(),
		sheets: make(map[string]bool),
	}
}

// AddSchedule adds a sheet titled title listing every block of week in day
// and start order. It returns the sheet name actually used.
func (w *Workbook) AddSchedule(title string, week *schedule.WeekSchedule) (string, error) {
	name := w.sheetName(title)
	if err := w.addSheet(name); err != nil {
		return "", err
	}
	if err := w.writeHeader(Columns); err != nil {
		return "", err
	}

	var err error
	week.ForEachDay(func(day schedule.Day, blocks []schedule.TimeBlock) {
		for _, b := range blocks {
			if err != nil {
				return
			}
			err = w.writeRow([]interface{}{
				day.Name(),
				timespec.FormatMinutes(b.Start),
				timespec.FormatMinutes(b.End),
				string(b.Tag),
				b.CourseID,
				b.TutorID,
				b.Room,
				b.Coordinated,
			})
		}
	})
	if err != nil {
		return "", fmt.Errorf("write sheet %s: %w", name, err)
	}
	return name, nil
}

// sheetName strips characters Excel rejects, truncates to the sheet name
// limit and makes the name unique within the workbook.
func (w *Workbook) sheetName(title string) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	if clean == "" {
		clean = "Schedule"
	}

	name := truncate(clean, maxSheetName)
	for i := 2; w.sheets[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		name = truncate(clean, maxSheetName-len(suffix)) + suffix
	}
	return name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

func (w *Workbook) addSheet(name string) error {
	// Sheet1 exists by default
	if w.currentSheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else {
		if _, err := w.file.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	w.sheets[strings.ToLower(name)] = true
	w.currentSheet = name
	w.currentRow = 1
	return nil
}

func (w *Workbook) writeHeader(columns []string) error {
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, col); err != nil {
			return err
		}
	}

	style, err := w.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, w.currentRow)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), w.currentRow)
		_ = w.file.SetCellStyle(w.currentSheet, startCell, endCell, style)
	}

	w.currentRow++
	return nil
}

func (w *Workbook) writeRow(row []interface{}) error {
	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, val); err != nil {
			return err
		}
	}

	w.currentRow++
	return nil
}

// Save writes the workbook to wr.
func (w *Workbook) Save(wr io.Writer) error {
	return w.file.Write(wr)
}

// SaveToFile writes the workbook to disk.
func (w *Workbook) SaveToFile(path string) error {
	return w.file.SaveAs(path)
}

// Close releases resources.
func (w *Workbook) Close() error {
	return w.file.Close()
}
