package tracker

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoTaskTracker(t *testing.T) *Tracker {
	t.Helper()
	clock := NewManualClock(epoch)
	tr := New("Project")
	require.NoError(t, tr.Add(timedTask(t, clock, "small", 25*time.Millisecond)))
	require.NoError(t, tr.Add(timedTask(t, clock, "large", 75*time.Millisecond)))
	return tr
}

func TestRows(t *testing.T) {
	rows := twoTaskTracker(t).Rows()

	require.Len(t, rows, 2)
	assert.Equal(t, "small", rows[0].Name)
	assert.Equal(t, "25.00%", FormatPercentage(rows[0].Percentage))
	assert.Equal(t, "large", rows[1].Name)
	assert.Equal(t, "75.00%", FormatPercentage(rows[1].Percentage))
}

func TestRowsZeroTotal(t *testing.T) {
	clock := NewManualClock(epoch)
	tr := New("instant")
	require.NoError(t, tr.Add(timedTask(t, clock, "a", 0)))
	require.NoError(t, tr.Add(timedTask(t, clock, "b", 0)))

	for _, row := range tr.Rows() {
		assert.Equal(t, 0.0, row.Percentage)
	}
	report, err := tr.Report()
	require.NoError(t, err)
	assert.Contains(t, report, "0.00%")
	assert.NotContains(t, report, "NaN")
}

func TestReport(t *testing.T) {
	report, err := twoTaskTracker(t).Report()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(report, "# Time Report for Project\n"))
	assert.Contains(t, report, "Total time: 100ms")
	assert.Contains(t, report, "Slowest task: `large` took 75ms (75.00% of total).")
	assert.Contains(t, report, "Task Name")
	assert.Contains(t, report, "Percentage of Total")
	assert.Contains(t, report, "25.00%")
	assert.Contains(t, report, "75.00%")

	heading := strings.Index(report, "# Time Report")
	total := strings.Index(report, "Total time")
	slowest := strings.Index(report, "Slowest task")
	table := strings.Index(report, "Task Name")
	assert.True(t, heading < total && total < slowest && slowest < table, "sections out of order")

	rows := report[table:]
	assert.Less(t, strings.Index(rows, "small"), strings.Index(rows, "large"), "rows must follow insertion order")
}

func TestReportEmptyTracker(t *testing.T) {
	report, err := New("Nothing").Report()
	require.NoError(t, err)

	assert.Contains(t, report, "# Time Report for Nothing")
	assert.Contains(t, report, "Total time: 0s")
	assert.Contains(t, report, "Slowest task: N/A")
	assert.Contains(t, report, "No tasks recorded")
	assert.NotContains(t, report, "Task Name")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{25 * time.Millisecond, "25ms"},
		{1234 * time.Millisecond, "1.234s"},
		{1500*time.Microsecond + 300, "1.5ms"},
		{90 * time.Second, "1m30s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in))
	}
}

func TestWrite(t *testing.T) {
	tr := twoTaskTracker(t)
	path := filepath.Join(t.TempDir(), "report.md")

	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))
	require.NoError(t, tr.Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want, err := tr.Report()
	require.NoError(t, err)
	assert.Equal(t, want, string(data))
}

func TestWriteMissingDirectory(t *testing.T) {
	tr := twoTaskTracker(t)
	before := tr.Snapshot()
	path := filepath.Join(t.TempDir(), "missing", "report.md")

	err := tr.Write(path)
	require.Error(t, err)

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, path, ioErr.Path)
	assert.Contains(t, err.Error(), path)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	assert.Equal(t, before, tr.Snapshot())
}

func tableLines(report string) []string {
	var lines []string
	for _, line := range strings.Split(report, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "|") {
			lines = append(lines, line)
		}
	}
	return lines
}

func TestReportEscapesTaskNames(t *testing.T) {
	clock := NewManualClock(epoch)
	tr := New("shell")
	require.NoError(t, tr.Add(timedTask(t, clock, "go test ./... | tee log", 10*time.Millisecond)))
	require.NoError(t, tr.Add(timedTask(t, clock, "line1\nline2", 10*time.Millisecond)))

	report, err := tr.Report()
	require.NoError(t, err)

	assert.Contains(t, report, `go test ./... \| tee log`)
	assert.Contains(t, report, "line1 line2")
	assert.Contains(t, report, "Slowest task: `go test ./... | tee log` took 10ms (50.00% of total).")

	lines := tableLines(report)
	require.Len(t, lines, 4, "header, separator and one line per task")
	for _, line := range lines {
		separators := strings.Count(line, "|") - strings.Count(line, `\|`)
		assert.Equal(t, 4, separators, line)
	}
	assert.Contains(t, lines[3], "line1 line2")
	assert.Contains(t, lines[3], "50.00%")
}

func TestReportSlowestNameOnOneLine(t *testing.T) {
	clock := NewManualClock(epoch)
	tr := New("multi\nline")
	require.NoError(t, tr.Add(timedTask(t, clock, "a\r\nb", 10*time.Millisecond)))

	report, err := tr.Report()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(report, "# Time Report for multi line\n"))
	assert.Contains(t, report, "Slowest task: `a b` took 10ms (100.00% of total).")
}

func TestReportGroupSections(t *testing.T) {
	clock := NewManualClock(epoch)
	tr := New("release")
	require.NoError(t, tr.Add(timedTask(t, clock, "checkout", 50*time.Millisecond)))

	db := New("DB")
	require.NoError(t, db.Add(timedTask(t, clock, "Migrate", 10*time.Millisecond)))
	require.NoError(t, db.Add(timedTask(t, clock, "Query", 30*time.Millisecond)))
	cache := New("Cache")
	require.NoError(t, cache.Add(timedTask(t, clock, "Warm", 10*time.Millisecond)))
	tr.Extend(db)
	tr.Extend(cache)

	report, err := tr.Report()
	require.NoError(t, err)

	dbAt := strings.Index(report, "\n## DB\n")
	cacheAt := strings.Index(report, "\n## Cache\n")
	require.NotEqual(t, -1, dbAt)
	require.NotEqual(t, -1, cacheAt)
	assert.Less(t, strings.Index(report, "DB/Query"), dbAt, "main table comes first")
	assert.Less(t, dbAt, cacheAt)

	dbSection := report[dbAt:cacheAt]
	assert.Contains(t, dbSection, "Subtotal: 40ms (40.00% of total)")
	assert.Contains(t, dbSection, "Percentage of Group")
	assert.Contains(t, dbSection, "25.00%")
	assert.Contains(t, dbSection, "75.00%")
	assert.NotContains(t, dbSection, "DB/")

	assert.Contains(t, report[cacheAt:], "Subtotal: 10ms (10.00% of total)")
	assert.Contains(t, report[cacheAt:], "100.00%")
}

func TestReportWithoutGroupsHasNoSections(t *testing.T) {
	report, err := twoTaskTracker(t).Report()
	require.NoError(t, err)
	assert.NotContains(t, report, "## ")
	assert.NotContains(t, report, "Subtotal")
}

func TestGroups(t *testing.T) {
	clock := NewManualClock(epoch)
	tr := New("release")
	require.NoError(t, tr.Add(timedTask(t, clock, "checkout", 120*time.Millisecond)))
	require.NoError(t, tr.Add(timedTask(t, clock, "/rooted", time.Millisecond)))
	child := New("DB")
	require.NoError(t, child.Add(timedTask(t, clock, "Query", 30*time.Millisecond)))
	require.NoError(t, child.Add(timedTask(t, clock, "Pool/Open", 10*time.Millisecond)))
	tr.Extend(child)

	groups := tr.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, "DB", groups[0].Name)
	assert.Equal(t, 40*time.Millisecond, groups[0].Duration)
	require.Len(t, groups[0].Rows, 2)
	assert.Equal(t, "Query", groups[0].Rows[0].Name)
	assert.Equal(t, "Pool/Open", groups[0].Rows[1].Name)

	assert.Empty(t, New("empty").Groups())
}
