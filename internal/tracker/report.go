package tracker

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// Row is one line of a tracker report.
type Row struct {
	Name       string
	Duration   time.Duration
	Percentage float64
}

// Rows returns one row per task in insertion order.
func (t *Tracker) Rows() []Row {
	total := t.TotalDuration()
	rows := make([]Row, 0, len(t.tasks))
	for _, task := range t.tasks {
		d := task.elapsed()
		rows = append(rows, Row{
			Name:       task.name,
			Duration:   d,
			Percentage: Percentage(d, total),
		})
	}
	return rows
}

// Group collects the tasks that share a name prefix, i.e. the tasks merged
// in from one child tracker. Row names have the prefix stripped.
type Group struct {
	Name     string
	Rows     []Row
	Duration time.Duration
}

// Groups splits the rows by the prefix before the first name separator, in
// order of first appearance. Rows without a prefix are skipped.
func (t *Tracker) Groups() []Group {
	var groups []Group
	index := make(map[string]int)
	for _, row := range t.Rows() {
		prefix, rest, ok := strings.Cut(row.Name, NameSeparator)
		if !ok || prefix == "" {
			continue
		}
		i, found := index[prefix]
		if !found {
			i = len(groups)
			index[prefix] = i
			groups = append(groups, Group{Name: prefix})
		}
		row.Name = rest
		groups[i].Rows = append(groups[i].Rows, row)
		groups[i].Duration += row.Duration
	}
	return groups
}

// FormatDuration renders d the way reports show it, e.g. "1.234s" or "25ms".
func FormatDuration(d time.Duration) string {
	return d.Round(time.Microsecond).String()
}

func FormatPercentage(p float64) string {
	return fmt.Sprintf("%.2f%%", p)
}

var (
	lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")
	cellEscape = strings.NewReplacer("|", `\|`, "\r\n", " ", "\r", " ", "\n", " ")
)

// singleLine keeps a name on one line outside of tables.
func singleLine(s string) string {
	return lineBreaks.Replace(s)
}

// escapeCell keeps a name inside a single markdown table cell.
func escapeCell(s string) string {
	return cellEscape.Replace(s)
}

// Report renders the tracker as a markdown document. Tasks merged in from
// child trackers also get a subtotal section per child after the main table.
func (t *Tracker) Report() (string, error) {
	var b strings.Builder
	total := t.TotalDuration()

	fmt.Fprintf(&b, "# Time Report for %s\n\n", singleLine(t.name))
	fmt.Fprintf(&b, "Total time: %s\n\n", FormatDuration(total))

	if slowest, ok := t.SlowestTask(); ok {
		fmt.Fprintf(&b, "Slowest task: `%s` took %s (%s of total).\n\n",
			singleLine(slowest.name),
			FormatDuration(slowest.elapsed()),
			FormatPercentage(Percentage(slowest.elapsed(), total)),
		)
	} else {
		b.WriteString("Slowest task: N/A\n\n")
	}

	if len(t.tasks) == 0 {
		b.WriteString("_No tasks recorded._\n")
		return b.String(), nil
	}

	if err := renderTable(&b, "Percentage of Total", t.Rows()); err != nil {
		return "", err
	}

	for _, g := range t.Groups() {
		fmt.Fprintf(&b, "\n## %s\n\n", singleLine(g.Name))
		fmt.Fprintf(&b, "Subtotal: %s (%s of total)\n\n",
			FormatDuration(g.Duration),
			FormatPercentage(Percentage(g.Duration, total)),
		)
		rows := make([]Row, len(g.Rows))
		for i, row := range g.Rows {
			row.Percentage = Percentage(row.Duration, g.Duration)
			rows[i] = row
		}
		if err := renderTable(&b, "Percentage of Group", rows); err != nil {
			return "", err
		}
	}

	return b.String(), nil
}

func renderTable(b *strings.Builder, share string, rows []Row) error {
	table := tablewriter.NewTable(b,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"Task Name", "Duration", share})
	for _, row := range rows {
		if err := table.Append([]string{escapeCell(row.Name), FormatDuration(row.Duration), FormatPercentage(row.Percentage)}); err != nil {
			return fmt.Errorf("failed to append row %q: %w", row.Name, err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

// Write renders the report and creates or overwrites the file at path.
func (t *Tracker) Write(path string) error {
	text, err := t.Report()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return &IOError{Op: "write report", Path: path, Err: err}
	}
	return nil
}
