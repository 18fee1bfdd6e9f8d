package tracker

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Snapshot is the structured form of a tracker.
type Snapshot struct {
	Name  string         `json:"name" yaml:"name"`
	Tasks []TaskSnapshot `json:"tasks" yaml:"tasks"`
}

type TaskSnapshot struct {
	Name       string  `json:"name" yaml:"name"`
	DurationMS float64 `json:"duration_ms" yaml:"duration_ms"`
}

func (s TaskSnapshot) Duration() time.Duration {
	return time.Duration(math.Round(s.DurationMS * float64(time.Millisecond)))
}

func (t *Tracker) Snapshot() Snapshot {
	s := Snapshot{Name: t.name, Tasks: make([]TaskSnapshot, 0, len(t.tasks))}
	for _, task := range t.tasks {
		s.Tasks = append(s.Tasks, TaskSnapshot{
			Name:       task.name,
			DurationMS: float64(task.elapsed()) / float64(time.Millisecond),
		})
	}
	return s
}

// maxDurationMS is the largest duration_ms that fits in a time.Duration.
const maxDurationMS = float64(math.MaxInt64) / float64(time.Millisecond)

// FromSnapshot rebuilds a tracker with the same name and the same ordered
// task names and durations.
func FromSnapshot(s Snapshot) (*Tracker, error) {
	t := New(s.Name)
	for i, ts := range s.Tasks {
		switch {
		case math.IsNaN(ts.DurationMS) || math.IsInf(ts.DurationMS, 0):
			return nil, fmt.Errorf("task %d (%q): invalid duration %v", i, ts.Name, ts.DurationMS)
		case ts.DurationMS < 0:
			return nil, fmt.Errorf("task %d (%q): negative duration %v", i, ts.Name, ts.DurationMS)
		case ts.DurationMS >= maxDurationMS:
			return nil, fmt.Errorf("task %d (%q): duration %v ms out of range", i, ts.Name, ts.DurationMS)
		}
		t.tasks = append(t.tasks, completedTask(ts.Name, ts.Duration()))
	}
	return t, nil
}

func (t *Tracker) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Snapshot())
}

func (t *Tracker) UnmarshalJSON(data []byte) error {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	restored, err := FromSnapshot(s)
	if err != nil {
		return err
	}
	*t = *restored
	return nil
}

// Save writes the tracker as JSON to <dir>/<name>.json and returns the path.
func (t *Tracker) Save(dir string) (string, error) {
	path := filepath.Join(dir, SafeFileName(t.name)+".json")
	data, err := json.MarshalIndent(t.Snapshot(), "", "\t")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", &IOError{Op: "save snapshot", Path: path, Err: err}
	}
	return path, nil
}

// Load reads a tracker previously written by Save.
func Load(path string) (*Tracker, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "load snapshot", Path: path, Err: err}
	}
	t := &Tracker{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	return t, nil
}

// SafeFileName turns a tracker name into something usable as a file name.
func SafeFileName(name string) string {
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "-",
		" ", "_",
	)
	safe := strings.Trim(replacer.Replace(strings.TrimSpace(name)), ".")
	if safe == "" {
		return "report"
	}
	return safe
}
