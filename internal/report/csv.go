package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Afrawles/timereport/internal/tracker"
)

type CSVExporter struct {
	OutputDir string
}

func NewCSVExporter(outputDir string) *CSVExporter {
	return &CSVExporter{OutputDir: outputDir}
}

func (e *CSVExporter) Name() string { return FormatCSV }

func (e *CSVExporter) Export(tr *tracker.Tracker) (string, error) {
	filename := filepath.Join(e.OutputDir, FileName(tr.Name(), "csv"))
	file, err := os.Create(filename)
	if err != nil {
		return "", &tracker.IOError{Op: "create csv", Path: filename, Err: err}
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{
		"#",
		"Task Name",
		"Duration (ms)",
		"Percentage of Total",
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	for i, row := range tr.Rows() {
		record := []string{
			fmt.Sprintf("%d", i+1),
			row.Name,
			formatMillis(row.Duration),
			tracker.FormatPercentage(row.Percentage),
		}
		if err := writer.Write(record); err != nil {
			return "", err
		}
	}

	total := tr.TotalDuration()
	totalPercentage := 0.0
	if total > 0 {
		totalPercentage = 100
	}
	totalsRow := []string{"", "Total", formatMillis(total), tracker.FormatPercentage(totalPercentage)}
	if err := writer.Write(totalsRow); err != nil {
		return "", err
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}
	return filename, nil
}

func formatMillis(d time.Duration) string {
	return fmt.Sprintf("%.3f", float64(d)/float64(time.Millisecond))
}
