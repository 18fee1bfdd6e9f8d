package report

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Afrawles/timereport/internal/tracker"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed "templates"
var templateFS embed.FS

// Exporter writes one tracker into a single file and returns its path.
type Exporter interface {
	Name() string
	Export(tr *tracker.Tracker) (string, error)
}

// FileName builds a file name for a tracker report with the given extension.
func FileName(name, ext string) string {
	return tracker.SafeFileName(name) + "." + ext
}

type MarkdownExporter struct {
	OutputDir string
}

func NewMarkdownExporter(outputDir string) *MarkdownExporter {
	return &MarkdownExporter{OutputDir: outputDir}
}

func (e *MarkdownExporter) Name() string { return FormatMarkdown }

func (e *MarkdownExporter) Export(tr *tracker.Tracker) (string, error) {
	path := filepath.Join(e.OutputDir, FileName(tr.Name(), "md"))
	if err := tr.Write(path); err != nil {
		return "", err
	}
	return path, nil
}

type JSONExporter struct {
	OutputDir string
}

func NewJSONExporter(outputDir string) *JSONExporter {
	return &JSONExporter{OutputDir: outputDir}
}

func (e *JSONExporter) Name() string { return FormatJSON }

func (e *JSONExporter) Export(tr *tracker.Tracker) (string, error) {
	data, err := json.MarshalIndent(tr.Snapshot(), "", "\t")
	if err != nil {
		return "", err
	}

	path := filepath.Join(e.OutputDir, FileName(tr.Name(), "json"))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", &tracker.IOError{Op: "write json", Path: path, Err: err}
	}
	return path, nil
}

type YAMLExporter struct {
	OutputDir string
}

func NewYAMLExporter(outputDir string) *YAMLExporter {
	return &YAMLExporter{OutputDir: outputDir}
}

func (e *YAMLExporter) Name() string { return FormatYAML }

func (e *YAMLExporter) Export(tr *tracker.Tracker) (string, error) {
	data, err := yaml.Marshal(tr.Snapshot())
	if err != nil {
		return "", fmt.Errorf("failed to encode yaml: %w", err)
	}

	path := filepath.Join(e.OutputDir, FileName(tr.Name(), "yaml"))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", &tracker.IOError{Op: "write yaml", Path: path, Err: err}
	}
	return path, nil
}

// LoadSnapshot reads a tracker saved as JSON or YAML, picked by extension.
func LoadSnapshot(path string) (*tracker.Tracker, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &tracker.IOError{Op: "load snapshot", Path: path, Err: err}
		}
		var s tracker.Snapshot
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
		}
		return tracker.FromSnapshot(s)
	default:
		return tracker.Load(path)
	}
}

type HTMLExporter struct {
	OutputDir string
	RunID     string
	Now       func() time.Time
}

func NewHTMLExporter(outputDir, runID string) *HTMLExporter {
	return &HTMLExporter{OutputDir: outputDir, RunID: runID, Now: time.Now}
}

func (e *HTMLExporter) Name() string { return FormatHTML }

// htmlColumns are title-cased by the template. Tracker and task names are
// always shown as given.
var htmlColumns = []string{"#", "task name", "duration", "percentage of total"}

type htmlRow struct {
	Index      int
	Name       string
	Duration   string
	Percentage string
	Width      float64
}

func (e *HTMLExporter) Export(tr *tracker.Tracker) (string, error) {
	funcMap := template.FuncMap{
		"title": cases.Title(language.English).String,
	}
	tmpl, err := template.New("report.tmpl").Funcs(funcMap).ParseFS(templateFS, "templates/report.tmpl")
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML template: %w", err)
	}

	outputPath := filepath.Join(e.OutputDir, FileName(tr.Name(), "html"))
	f, err := os.Create(outputPath)
	if err != nil {
		return "", &tracker.IOError{Op: "create html", Path: outputPath, Err: err}
	}
	defer f.Close()

	var rows []htmlRow
	for i, row := range tr.Rows() {
		rows = append(rows, htmlRow{
			Index:      i + 1,
			Name:       row.Name,
			Duration:   tracker.FormatDuration(row.Duration),
			Percentage: tracker.FormatPercentage(row.Percentage),
			Width:      row.Percentage,
		})
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	data := map[string]any{
		"Name":    tr.Name(),
		"Date":    now().Format("2006-01-02 15:04:05"),
		"RunID":   e.RunID,
		"Total":   tracker.FormatDuration(tr.TotalDuration()),
		"Columns": htmlColumns,
		"Rows":    rows,
		"Stats":   Statistics(tr),
	}

	if err := tmpl.Execute(f, data); err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}
	return outputPath, nil
}
