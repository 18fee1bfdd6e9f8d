package tracker

import (
	"encoding/json"
	"errors"
	"io/fs"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pair struct {
	name string
	d    time.Duration
}

func pairs(t *testing.T, tr *Tracker) []pair {
	t.Helper()
	var out []pair
	for _, task := range tr.Tasks() {
		d, err := task.Duration()
		require.NoError(t, err)
		out = append(out, pair{task.Name(), d})
	}
	return out
}

func sampleTracker(t *testing.T) *Tracker {
	t.Helper()
	clock := NewManualClock(epoch)
	tr := New("Release")
	require.NoError(t, tr.Add(timedTask(t, clock, "checkout", 120*time.Millisecond)))
	require.NoError(t, tr.Add(timedTask(t, clock, "build", 12345678*time.Nanosecond)))

	child := New("DB")
	require.NoError(t, child.Add(timedTask(t, clock, "Query", 30*time.Millisecond)))
	tr.Extend(child)
	return tr
}

func TestSnapshot(t *testing.T) {
	s := sampleTracker(t).Snapshot()

	assert.Equal(t, "Release", s.Name)
	require.Len(t, s.Tasks, 3)
	assert.Equal(t, TaskSnapshot{Name: "checkout", DurationMS: 120}, s.Tasks[0])
	assert.Equal(t, "DB/Query", s.Tasks[2].Name)
	assert.Equal(t, 30.0, s.Tasks[2].DurationMS)
}

func TestSnapshotRoundTrip(t *testing.T) {
	tr := sampleTracker(t)

	restored, err := FromSnapshot(tr.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, tr.Name(), restored.Name())
	assert.Equal(t, pairs(t, tr), pairs(t, restored))
}

func TestJSONRoundTrip(t *testing.T) {
	tr := sampleTracker(t)

	data, err := json.Marshal(tr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Release","tasks":[
		{"name":"checkout","duration_ms":120},
		{"name":"build","duration_ms":12.345678},
		{"name":"DB/Query","duration_ms":30}
	]}`, string(data))

	var restored Tracker
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, "Release", restored.Name())
	assert.Equal(t, pairs(t, tr), pairs(t, &restored))
}

func TestFromSnapshotRejectsBadDurations(t *testing.T) {
	tests := []struct {
		name string
		ms   float64
	}{
		{"negative", -1},
		{"overflow", 1e14},
		{"max int64", maxDurationMS},
		{"NaN", math.NaN()},
		{"+Inf", math.Inf(1)},
		{"-Inf", math.Inf(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := FromSnapshot(Snapshot{Name: "x", Tasks: []TaskSnapshot{{Name: "bad", DurationMS: tt.ms}}})
			require.Error(t, err)
			assert.Nil(t, tr)
		})
	}
}

func TestFromSnapshotLargeDuration(t *testing.T) {
	// About 11.5 days.
	tr, err := FromSnapshot(Snapshot{Name: "x", Tasks: []TaskSnapshot{{Name: "soak", DurationMS: 1e9}}})
	require.NoError(t, err)
	assert.Equal(t, 1e9*time.Millisecond, tr.TotalDuration())
}

func TestRestoredTasksAreOwned(t *testing.T) {
	tr, err := FromSnapshot(Snapshot{Name: "x", Tasks: []TaskSnapshot{{Name: "a", DurationMS: 5}}})
	require.NoError(t, err)
	require.ErrorIs(t, New("other").Add(tr.Tasks()[0]), ErrTaskOwned)
}

func TestSaveAndLoad(t *testing.T) {
	tr := sampleTracker(t)
	dir := t.TempDir()

	path, err := tr.Save(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Release.json"), path)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Release", loaded.Name())
	assert.Equal(t, pairs(t, tr), pairs(t, loaded))
}

func TestSaveMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nope")
	_, err := New("x").Save(dir)

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, filepath.Join(dir, "x.json"), ioErr.Path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestSafeFileName(t *testing.T) {
	assert.Equal(t, "DB-Query", SafeFileName("DB/Query"))
	assert.Equal(t, "my_project", SafeFileName(" my project "))
	assert.Equal(t, "report", SafeFileName(""))
	assert.Equal(t, "report", SafeFileName(".."))
}
