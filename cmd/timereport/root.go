package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/Afrawles/timereport/internal/config"
	"github.com/Afrawles/timereport/internal/timereport"
	"github.com/Afrawles/timereport/internal/tracker"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	cfgFile   string
	output    string
	formats   string
	logLevel  string
	logFormat string
	name      string
	keepGoing bool
)

var rootCmd = &cobra.Command{
	Use:           "timereport",
	Short:         "Time build steps and write time reports",
	Long:          `timereport runs commands as timed tasks and writes markdown, JSON, YAML, CSV, Excel, HTML and Prometheus reports.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	runCmd = &cobra.Command{
		Use:   "run [flags] -- label::command ...",
		Short: "Run commands in order and report how long each took",
		Long: `Each argument is a command run through the configured shell. Prefix it with
"label::" to name the task; labels of the form "group/step" are collected in a
child tracker that is merged into the report as "group/step".`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSteps,
	}

	renderCmd = &cobra.Command{
		Use:   "render <snapshot.json|snapshot.yaml>",
		Short: "Write reports from a saved snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  renderSnapshot,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
)

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd, renderCmd, versionCmd)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "Output directory (default \"reports\")")
	rootCmd.PersistentFlags().StringVarP(&formats, "format", "f", "", "Comma-separated formats: markdown, json, yaml, csv, xlsx, html, prom")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json")

	runCmd.Flags().StringVarP(&name, "name", "n", "", "Tracker name, used as report title and file name")
	runCmd.Flags().BoolVar(&keepGoing, "keep-going", false, "Keep running after a command fails")
}

// loadConfig merges the config file and environment with explicit flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output.Directory = output
	}
	if flags.Changed("format") {
		cfg.Output.Formats = config.SplitList(formats)
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	if flags.Changed("name") {
		cfg.Name = name
	}
	if flags.Changed("keep-going") {
		cfg.KeepGoing = keepGoing
	}

	return cfg, cfg.Validate()
}

func newApp(cmd *cobra.Command) (*timereport.Application, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := timereport.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return nil, err
	}

	return timereport.New(cfg, logger)
}

func runSteps(cmd *cobra.Command, args []string) error {
	steps, err := parseSteps(args)
	if err != nil {
		return err
	}

	app, err := newApp(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	bar := newSpinner("")
	app.OnStepStart = func(step timereport.Step) {
		bar.Describe(step.Name)
	}
	app.OnStepDone = func(step timereport.Step, d time.Duration, err error) {
		_ = bar.Clear()
		status := "ok"
		if err != nil {
			status = "FAILED"
		}
		fmt.Fprintf(os.Stderr, "%-6s %s (%s)\n", status, step.Name, tracker.FormatDuration(d))
	}

	_, paths, err := app.RunAndExport(ctx, app.Config.Name, steps)
	finishBar(bar)
	for _, p := range paths {
		fmt.Fprintf(cmd.OutOrStdout(), "  -> %s\n", p)
	}
	return err
}

func renderSnapshot(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}

	paths, err := app.Render(cmd.Context(), args[0])
	for _, p := range paths {
		fmt.Fprintf(cmd.OutOrStdout(), "  -> %s\n", p)
	}
	return err
}
