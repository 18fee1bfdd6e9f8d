package timereport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/Afrawles/timereport/internal/config"
	"github.com/Afrawles/timereport/internal/report"
	"github.com/Afrawles/timereport/internal/tracker"
	"github.com/google/uuid"
)

// Step is one command to time. A name of the form "group/step" records the
// step in a child tracker called "group".
type Step struct {
	Name    string
	Command string
}

type Runner interface {
	Run(ctx context.Context, command string) error
}

// ShellRunner runs commands through "<shell> -c".
type ShellRunner struct {
	Shell  string
	Stdout io.Writer
	Stderr io.Writer
}

func (r *ShellRunner) Run(ctx context.Context, command string) error {
	cmd := exec.CommandContext(ctx, r.Shell, "-c", command)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	return cmd.Run()
}

type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	Generator *report.Generator
	Runner    Runner
	Clock     tracker.Clock
	RunID     string

	// OnStepStart and OnStepDone let a frontend show progress.
	OnStepStart func(step Step)
	OnStepDone  func(step Step, d time.Duration, err error)
}

// NewLogger builds the slog logger described by cfg and makes it the default.
func NewLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}

func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	runID := uuid.NewString()
	exporters, err := report.NewExporters(cfg.Output.Directory, cfg.Output.Formats, runID)
	if err != nil {
		return nil, err
	}

	return &Application{
		Config:    cfg,
		Logger:    logger.With("run_id", runID),
		Generator: report.NewGenerator(exporters...),
		Runner:    &ShellRunner{Shell: cfg.Shell, Stdout: os.Stderr, Stderr: os.Stderr},
		Clock:     tracker.SystemClock{},
		RunID:     runID,
	}, nil
}

// Run executes the steps in order and times each one. Failed steps are
// recorded too. Unless KeepGoing is set the run stops at the first failure.
// Grouped steps are merged into the returned tracker after the run, after
// the ungrouped ones.
func (app *Application) Run(ctx context.Context, name string, steps []Step) (*tracker.Tracker, error) {
	root := tracker.New(name)
	groups := make(map[string]*tracker.Tracker)
	var groupOrder []string
	var failures []error

	app.Logger.Info("starting run", "tracker", name, "steps", len(steps))

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			failures = append(failures, err)
			break
		}

		target := root
		group, stepName := SplitGroup(step.Name)
		if group != "" {
			if groups[group] == nil {
				groups[group] = tracker.New(group)
				groupOrder = append(groupOrder, group)
			}
			target = groups[group]
		}

		if app.OnStepStart != nil {
			app.OnStepStart(step)
		}
		app.Logger.Debug("running step", "step", step.Name, "command", step.Command)

		task := tracker.NewTask(stepName, tracker.WithClock(app.Clock))
		runErr := app.Runner.Run(ctx, step.Command)
		if err := task.Complete(); err != nil {
			return nil, err
		}
		if err := target.Add(task); err != nil {
			return nil, err
		}
		d, _ := task.Duration()

		if app.OnStepDone != nil {
			app.OnStepDone(step, d, runErr)
		}

		if runErr != nil {
			app.Logger.Error("step failed", "step", step.Name, "duration", tracker.FormatDuration(d), "error", runErr)
			failures = append(failures, fmt.Errorf("step %q: %w", step.Name, runErr))
			if !app.Config.KeepGoing {
				break
			}
			continue
		}
		app.Logger.Info("step finished", "step", step.Name, "duration", tracker.FormatDuration(d))
	}

	for _, group := range groupOrder {
		root.Extend(groups[group])
	}

	return root, errors.Join(failures...)
}

// RunAndExport runs the steps and then writes the reports. The export does not
// observe cancellation of ctx, so failed and interrupted runs still get a
// report for the steps they recorded.
func (app *Application) RunAndExport(ctx context.Context, name string, steps []Step) (*tracker.Tracker, []string, error) {
	tr, runErr := app.Run(ctx, name, steps)
	if tr == nil {
		return nil, nil, runErr
	}
	paths, exportErr := app.Export(context.WithoutCancel(ctx), tr)
	return tr, paths, errors.Join(runErr, exportErr)
}

// Export writes every configured report format for tr.
func (app *Application) Export(ctx context.Context, tr *tracker.Tracker) ([]string, error) {
	if err := os.MkdirAll(app.Config.Output.Directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	paths, err := app.Generator.Generate(ctx, tr)
	for _, path := range paths {
		app.Logger.Info("report exported", "file", path)
	}
	if err != nil {
		app.Logger.Error("failed to export report", "error", err)
		return paths, err
	}

	stats := report.Statistics(tr)
	app.Logger.Info("report generation complete",
		"tracker", stats["name"],
		"tasks", stats["tasks"],
		"total", stats["total"],
	)
	return paths, nil
}

// Render loads a saved snapshot and exports it again.
func (app *Application) Render(ctx context.Context, snapshotPath string) ([]string, error) {
	tr, err := report.LoadSnapshot(snapshotPath)
	if err != nil {
		return nil, err
	}
	app.Logger.Info("snapshot loaded", "file", snapshotPath, "tracker", tr.Name(), "tasks", tr.Len())
	return app.Export(ctx, tr)
}

// SplitGroup splits "group/step" at the first separator. Names without a
// group come back with an empty group.
func SplitGroup(name string) (group, step string) {
	group, step, ok := strings.Cut(name, tracker.NameSeparator)
	if !ok || group == "" || step == "" {
		return "", name
	}
	return group, step
}
