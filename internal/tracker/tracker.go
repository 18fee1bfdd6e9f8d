// Package tracker measures named tasks and aggregates them into trackers
// that can be merged, summarized and rendered as reports.
//
// A Tracker is not safe for concurrent use. Work timed in parallel should use
// one Tracker per goroutine, merged into a parent with Extend afterwards.
package tracker

import (
	"fmt"
	"time"
)

// NameSeparator joins a child tracker's name to the names of its tasks when
// the child is merged into a parent.
const NameSeparator = "/"

// Tracker is a named, ordered collection of completed tasks.
type Tracker struct {
	name  string
	tasks []*Task
}

func New(name string) *Tracker {
	return &Tracker{name: name}
}

func (t *Tracker) Name() string {
	return t.name
}

// Add appends a completed task and takes ownership of it. Incomplete tasks
// are rejected so that the caller stays in charge of when timing stops, and a
// task already held by a tracker is rejected with ErrTaskOwned.
func (t *Tracker) Add(task *Task) error {
	if err := checkInsertable(task); err != nil {
		return err
	}
	task.owned = true
	t.tasks = append(t.tasks, task)
	return nil
}

// AddOrExtend adds the task, or, when a task with the same name is already
// tracked, replaces it with a copy grown by the new task's duration. Either
// way the new task is consumed.
func (t *Tracker) AddOrExtend(task *Task) error {
	if err := checkInsertable(task); err != nil {
		return err
	}
	task.owned = true
	for i, existing := range t.tasks {
		if existing.name == task.name {
			t.tasks[i] = existing.extended(task.elapsed())
			return nil
		}
	}
	t.tasks = append(t.tasks, task)
	return nil
}

// Extend moves every task of child into t, prefixing the task names with the
// child's name. The child is left empty, so merging it again adds nothing.
// Task pointers previously obtained from the child keep their old names.
func (t *Tracker) Extend(child *Tracker) {
	if child == nil || child == t {
		return
	}
	for _, task := range child.tasks {
		t.tasks = append(t.tasks, task.renamed(child.name+NameSeparator+task.name))
	}
	child.tasks = nil
}

// Tasks returns the tracked tasks in insertion order.
func (t *Tracker) Tasks() []*Task {
	out := make([]*Task, len(t.tasks))
	copy(out, t.tasks)
	return out
}

func (t *Tracker) Len() int {
	return len(t.tasks)
}

func (t *Tracker) TotalDuration() time.Duration {
	var total time.Duration
	for _, task := range t.tasks {
		total += task.elapsed()
	}
	return total
}

// SlowestTask returns the task with the longest duration. On ties the
// earliest inserted task wins. It returns false for an empty tracker.
func (t *Tracker) SlowestTask() (*Task, bool) {
	var slowest *Task
	for _, task := range t.tasks {
		if slowest == nil || task.elapsed() > slowest.elapsed() {
			slowest = task
		}
	}
	return slowest, slowest != nil
}

// Percentage returns d as a percentage of total, or 0 when total is 0.
func Percentage(d, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	return float64(d) / float64(total) * 100
}

func checkInsertable(task *Task) error {
	if task == nil {
		return ErrNilTask
	}
	if !task.completed {
		return fmt.Errorf("task %q: %w", task.name, ErrIncompleteTask)
	}
	if task.owned {
		return fmt.Errorf("task %q: %w", task.name, ErrTaskOwned)
	}
	return nil
}
