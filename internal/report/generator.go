package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/Afrawles/timereport/internal/tracker"
)

const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatCSV      = "csv"
	FormatExcel    = "xlsx"
	FormatHTML     = "html"
	FormatMetrics  = "prom"
)

// Formats lists every supported output format in the order reports are written.
var Formats = []string{FormatMarkdown, FormatJSON, FormatYAML, FormatCSV, FormatExcel, FormatHTML, FormatMetrics}

// NormalizeFormat maps accepted aliases onto the canonical format name.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatExcel, nil
	case "html":
		return FormatHTML, nil
	case "prom", "prometheus", "metrics":
		return FormatMetrics, nil
	}
	return "", fmt.Errorf("unknown format %q (valid: %s)", format, strings.Join(Formats, ", "))
}

// NewExporters builds one exporter per format, all writing into outputDir.
func NewExporters(outputDir string, formats []string, runID string) ([]Exporter, error) {
	var exporters []Exporter
	seen := make(map[string]bool)
	for _, f := range formats {
		format, err := NormalizeFormat(f)
		if err != nil {
			return nil, err
		}
		if seen[format] {
			continue
		}
		seen[format] = true

		switch format {
		case FormatMarkdown:
			exporters = append(exporters, NewMarkdownExporter(outputDir))
		case FormatJSON:
			exporters = append(exporters, NewJSONExporter(outputDir))
		case FormatYAML:
			exporters = append(exporters, NewYAMLExporter(outputDir))
		case FormatCSV:
			exporters = append(exporters, NewCSVExporter(outputDir))
		case FormatExcel:
			exporters = append(exporters, NewExcelExporter(outputDir))
		case FormatHTML:
			exporters = append(exporters, NewHTMLExporter(outputDir, runID))
		case FormatMetrics:
			exporters = append(exporters, NewMetricsExporter(outputDir))
		}
	}
	return exporters, nil
}

type Generator struct {
	Exporters []Exporter
}

func NewGenerator(exporters ...Exporter) *Generator {
	return &Generator{Exporters: exporters}
}

// Generate runs every exporter against tr and returns the written paths.
// It stops at the first failure.
func (g *Generator) Generate(ctx context.Context, tr *tracker.Tracker) ([]string, error) {
	var paths []string
	for _, exp := range g.Exporters {
		select {
		case <-ctx.Done():
			return paths, ctx.Err()
		default:
		}

		path, err := exp.Export(tr)
		if err != nil {
			return paths, fmt.Errorf("failed to export %s: %w", exp.Name(), err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Statistics generates summary stats
func Statistics(tr *tracker.Tracker) map[string]any {
	stats := make(map[string]any)
	total := tr.TotalDuration()

	stats["name"] = tr.Name()
	stats["tasks"] = tr.Len()
	stats["total"] = tracker.FormatDuration(total)
	stats["total_ms"] = float64(total.Microseconds()) / 1000

	if slowest, ok := tr.SlowestTask(); ok {
		d, _ := slowest.Duration()
		stats["slowest"] = slowest.Name()
		stats["slowest_duration"] = tracker.FormatDuration(d)
		stats["slowest_percentage"] = tracker.FormatPercentage(tracker.Percentage(d, total))
	}

	byGroup := make(map[string]string)
	for _, g := range tr.Groups() {
		byGroup[g.Name] = tracker.FormatDuration(g.Duration)
	}
	stats["by_group"] = byGroup
	return stats
}
