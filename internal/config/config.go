package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Afrawles/timereport/internal/report"
	"github.com/spf13/viper"
)

const EnvPrefix = "TIMEREPORT"

type Config struct {
	Name      string
	Output    OutputConfig
	Log       LogConfig
	KeepGoing bool
	Shell     string
}

type OutputConfig struct {
	Directory string
	Formats   []string // markdown, json, yaml, csv, xlsx, html, prom
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("name", "timereport")
	v.SetDefault("output.directory", "reports")
	v.SetDefault("output.formats", "markdown,json")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("keep_going", false)
	v.SetDefault("shell", "sh")
}

// Load reads defaults, then the optional config file, then TIMEREPORT_*
// environment variables, e.g. TIMEREPORT_OUTPUT_DIRECTORY.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", cfgFile, err)
		}
	}

	cfg := &Config{
		Name: v.GetString("name"),
		Output: OutputConfig{
			Directory: v.GetString("output.directory"),
			Formats:   SplitList(v.GetStringSlice("output.formats")...),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		KeepGoing: v.GetBool("keep_going"),
		Shell:     v.GetString("shell"),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Output.Directory) == "" {
		return fmt.Errorf("output directory is required")
	}

	if len(c.Output.Formats) == 0 {
		return fmt.Errorf("at least one output format is required")
	}
	for _, f := range c.Output.Formats {
		if _, err := report.NormalizeFormat(f); err != nil {
			return err
		}
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q (valid: json, text)", c.Log.Format)
	}

	if c.Shell == "" {
		return fmt.Errorf("shell is required")
	}

	return nil
}

func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return l, fmt.Errorf("unknown log level %q", level)
	}
	return l, nil
}

// SplitList splits comma-separated values and trims whitespace, dropping
// empty entries.
func SplitList(values ...string) []string {
	result := []string{}
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
	}
	return result
}
