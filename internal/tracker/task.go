package tracker

import (
	"fmt"
	"time"
)

// Task is a single timed unit of work. It starts when it is created and
// stops when Complete is called.
type Task struct {
	name      string
	start     time.Time
	end       time.Time
	completed bool
	owned     bool
	clock     Clock
}

type TaskOption func(*Task)

// WithClock measures the task with c instead of the system clock.
func WithClock(c Clock) TaskOption {
	return func(t *Task) {
		if c != nil {
			t.clock = c
		}
	}
}

func NewTask(name string, opts ...TaskOption) *Task {
	t := &Task{name: name, clock: SystemClock{}}
	for _, opt := range opts {
		opt(t)
	}
	t.start = t.clock.Now()
	return t
}

// completedTask builds a task that is already finished, used when
// restoring a tracker from a snapshot.
func completedTask(name string, d time.Duration) *Task {
	var start time.Time
	return &Task{
		name:      name,
		start:     start,
		end:       start.Add(d),
		completed: true,
		owned:     true,
		clock:     SystemClock{},
	}
}

func (t *Task) Name() string {
	return t.name
}

func (t *Task) Start() time.Time {
	return t.start
}

// End returns the completion timestamp, or false if the task is still running.
func (t *Task) End() (time.Time, bool) {
	return t.end, t.completed
}

func (t *Task) Completed() bool {
	return t.completed
}

// Complete records the end timestamp. It fails on a second call and leaves
// the first measurement in place.
func (t *Task) Complete() error {
	if t.completed {
		return fmt.Errorf("task %q: %w", t.name, ErrDoubleCompletion)
	}
	t.end = t.clock.Now()
	t.completed = true
	return nil
}

func (t *Task) Duration() (time.Duration, error) {
	if !t.completed {
		return 0, fmt.Errorf("task %q: %w", t.name, ErrIncompleteTask)
	}
	return t.elapsed(), nil
}

// elapsed is only called on completed tasks.
func (t *Task) elapsed() time.Duration {
	return t.end.Sub(t.start)
}

// extended returns a tracker-owned copy whose end is pushed forward by d.
// The receiver is left untouched.
func (t *Task) extended(d time.Duration) *Task {
	c := *t
	c.end = c.end.Add(d)
	c.owned = true
	return &c
}

// renamed returns a tracker-owned copy carrying name.
func (t *Task) renamed(name string) *Task {
	c := *t
	c.name = name
	c.owned = true
	return &c
}

func (t *Task) String() string {
	if !t.completed {
		return fmt.Sprintf("%s: running", t.name)
	}
	return fmt.Sprintf("%s: %v", t.name, t.elapsed())
}
