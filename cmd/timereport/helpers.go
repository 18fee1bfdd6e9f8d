package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Afrawles/timereport/internal/timereport"
	"github.com/schollz/progressbar/v3"
)

const stepSeparator = "::"

// parseSteps turns "label::command" arguments into steps. An argument
// without a label is named after its command.
func parseSteps(args []string) ([]timereport.Step, error) {
	steps := make([]timereport.Step, 0, len(args))
	for _, arg := range args {
		name, command, ok := strings.Cut(arg, stepSeparator)
		if !ok {
			name, command = arg, arg
		}
		name = strings.TrimSpace(name)
		command = strings.TrimSpace(command)
		if command == "" {
			return nil, fmt.Errorf("empty command in %q", arg)
		}
		if name == "" {
			name = command
		}
		steps = append(steps, timereport.Step{Name: name, Command: command})
	}
	return steps, nil
}

func newSpinner(description string) *progressbar.ProgressBar {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(15),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWriter(os.Stderr),
	)
	_ = bar.RenderBlank()
	return bar
}

func finishBar(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Finish()
	}
}
