package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Afrawles/timereport/internal/tracker"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	tasksSheet   = "Tasks"
	maxSheetName = 31
)

type ExcelExporter struct {
	OutputDir string
}

func NewExcelExporter(outputDir string) *ExcelExporter {
	return &ExcelExporter{OutputDir: outputDir}
}

func (e *ExcelExporter) Name() string { return FormatExcel }

func (e *ExcelExporter) Export(tr *tracker.Tracker) (string, error) {
	filename := filepath.Join(e.OutputDir, FileName(tr.Name(), "xlsx"))

	f := excelize.NewFile()
	defer f.Close()

	if err := e.createSummarySheet(f, tr); err != nil {
		return "", fmt.Errorf("failed to create summary: %w", err)
	}

	if err := e.createTasksSheet(f, tr); err != nil {
		return "", fmt.Errorf("failed to create task sheet: %w", err)
	}

	// Excel compares sheet names case-insensitively.
	used := map[string]bool{
		strings.ToLower(summarySheet): true,
		strings.ToLower(tasksSheet):   true,
		"history":                     true,
	}
	for _, group := range tr.Groups() {
		sheetName := uniqueSheetName(sanitizeSheetName(group.Name), used)
		if err := e.createGroupSheet(f, sheetName, group); err != nil {
			return "", fmt.Errorf("failed to create sheet for %s: %w", group.Name, err)
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if idx, err := f.GetSheetIndex(summarySheet); err == nil {
		f.SetActiveSheet(idx)
	}

	if err := f.SaveAs(filename); err != nil {
		return "", &tracker.IOError{Op: "save excel", Path: filename, Err: err}
	}

	return filename, nil
}

func (e *ExcelExporter) createSummarySheet(f *excelize.File, tr *tracker.Tracker) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	labelStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return err
	}

	total := tr.TotalDuration()
	slowestName, slowestDuration := "N/A", ""
	if slowest, ok := tr.SlowestTask(); ok {
		d, _ := slowest.Duration()
		slowestName = slowest.Name()
		slowestDuration = tracker.FormatDuration(d)
	}

	rows := [][2]any{
		{"Tracker", tr.Name()},
		{"Tasks", tr.Len()},
		{"Total time", tracker.FormatDuration(total)},
		{"Total (ms)", millis(total)},
		{"Slowest task", slowestName},
		{"Slowest duration", slowestDuration},
	}
	for i, row := range rows {
		label := cellName(1, i+1)
		if err := f.SetCellValue(summarySheet, label, row[0]); err != nil {
			return err
		}
		if err := f.SetCellStyle(summarySheet, label, label, labelStyle); err != nil {
			return err
		}
		if err := f.SetCellValue(summarySheet, cellName(2, i+1), row[1]); err != nil {
			return err
		}
	}

	f.SetColWidth(summarySheet, "A", "A", 20)
	f.SetColWidth(summarySheet, "B", "B", 40)
	return nil
}

func (e *ExcelExporter) createTasksSheet(f *excelize.File, tr *tracker.Tracker) error {
	if _, err := f.NewSheet(tasksSheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "#000000", Style: 1},
			{Type: "right", Color: "#000000", Style: 1},
			{Type: "top", Color: "#000000", Style: 1},
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		return err
	}

	headers := []string{
		"#",
		"Task Name",
		"Duration (ms)",
		"Duration",
		"Percentage of Total",
	}

	for col, header := range headers {
		cell := cellName(col+1, 1)
		f.SetCellValue(tasksSheet, cell, header)
		f.SetCellStyle(tasksSheet, cell, cell, headerStyle)
	}

	for i, row := range tr.Rows() {
		r := i + 2
		f.SetCellValue(tasksSheet, cellName(1, r), i+1)
		f.SetCellValue(tasksSheet, cellName(2, r), row.Name)
		f.SetCellValue(tasksSheet, cellName(3, r), millis(row.Duration))
		f.SetCellValue(tasksSheet, cellName(4, r), tracker.FormatDuration(row.Duration))
		f.SetCellValue(tasksSheet, cellName(5, r), tracker.FormatPercentage(row.Percentage))
	}

	f.SetColWidth(tasksSheet, "A", "A", 5)
	f.SetColWidth(tasksSheet, "B", "B", 40)
	f.SetColWidth(tasksSheet, "C", "E", 20)

	return f.SetPanes(tasksSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// createGroupSheet lists the tasks merged in from one child tracker.
func (e *ExcelExporter) createGroupSheet(f *excelize.File, sheetName string, group tracker.Group) error {
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	headers := []string{"Task Name", "Duration (ms)", "Percentage of Group"}
	for col, header := range headers {
		f.SetCellValue(sheetName, cellName(col+1, 1), header)
	}

	for i, row := range group.Rows {
		r := i + 2
		f.SetCellValue(sheetName, cellName(1, r), row.Name)
		f.SetCellValue(sheetName, cellName(2, r), millis(row.Duration))
		f.SetCellValue(sheetName, cellName(3, r), tracker.FormatPercentage(tracker.Percentage(row.Duration, group.Duration)))
	}

	total := len(group.Rows) + 2
	f.SetCellValue(sheetName, cellName(1, total), "Total")
	f.SetCellValue(sheetName, cellName(2, total), millis(group.Duration))

	f.SetColWidth(sheetName, "A", "A", 40)
	f.SetColWidth(sheetName, "B", "C", 20)
	return nil
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func cellName(col, row int) string {
	return fmt.Sprintf("%s%d", columnLetter(col), row)
}

func columnLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}

var sheetNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"?", "",
	"*", "",
	"[", "(",
	"]", ")",
)

// sanitizeSheetName keeps names within Excel's sheet name rules.
func sanitizeSheetName(name string) string {
	name = sheetNameReplacer.Replace(name)
	name = strings.TrimSpace(strings.Trim(name, "'"))
	name = truncateRunes(name, maxSheetName)
	name = strings.TrimRight(name, "'")
	if name == "" {
		return "Group"
	}
	return name
}

// uniqueSheetName appends " (n)" to name until it no longer matches a sheet
// in used, then records it.
func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncateRunes(name, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
