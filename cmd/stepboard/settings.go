package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jpalmerr/stepboard/config"
	"github.com/jpalmerr/stepboard/internal/logger"
)

const envPrefix = "STEPBOARD"

// registerSettingsFlags adds the flags shared by every command that
// needs a configuration.
func registerSettingsFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "path to config file")
	fs.Int("port", 0, "dashboard port (0 keeps the configured value)")
	fs.Duration("interval", 0, "polling interval, e.g. 1s")
	fs.String("url", "", "step counter URL")
	fs.String("title", "", "dashboard title")
	fs.String("overlap", "", "overlap policy: skip or queue")
	fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.String("log-format", "", "log format: console or json")
}

// newSettings binds the command's flags and STEPBOARD_* variables to a
// fresh viper instance. Env keys use underscores: STEPBOARD_LOG_LEVEL.
func newSettings(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}
	return v, nil
}

// loadConfig builds the effective configuration:
// defaults < config file < environment < flags.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := v.GetString("config"); path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		cfg = config.Default()
	}

	if v.IsSet("port") && v.GetInt("port") != 0 {
		cfg.Port = v.GetInt("port")
	}
	if v.IsSet("interval") && v.GetDuration("interval") != 0 {
		cfg.PollInterval = config.Duration(v.GetDuration("interval"))
	}
	if s := v.GetString("url"); s != "" {
		cfg.Source.URL = s
	}
	if s := v.GetString("title"); s != "" {
		cfg.Title = s
	}
	if s := v.GetString("overlap"); s != "" {
		cfg.Overlap = s
	}
	if s := v.GetString("log-level"); s != "" {
		cfg.Log.Level = s
	}
	if s := v.GetString("log-format"); s != "" {
		cfg.Log.Format = s
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger creates the CLI logger from the log section.
// Validation has already accepted level and format.
func newLogger(w io.Writer, lc config.LogConfig) *slog.Logger {
	level, _ := logger.ParseLevel(lc.Level)
	format, _ := logger.ParseFormat(lc.Format)
	return logger.New(w, level, format)
}
