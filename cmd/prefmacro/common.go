package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"prefmacro/internal/config"
	"prefmacro/internal/driver"
)

// loadConfig resolves --config or the nearest prefmacro.toml above target.
func loadConfig(cmd *cobra.Command, target string) (config.Config, error) {
	explicit, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	start := target
	if start == "" || start == "-" {
		start = "."
	}
	if info, statErr := os.Stat(start); statErr == nil && !info.IsDir() {
		start = filepath.Dir(start)
	}
	cfg, err := config.Discover(start, explicit)
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// maxDiagnostics: флаг важнее конфига, ноль значит "как в конфиге".
func maxDiagnostics(cmd *cobra.Command, cfg config.Config) (int, error) {
	n, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return 0, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	switch {
	case n > 0:
		return n, nil
	case cfg.MaxDiagnostics > 0:
		return cfg.MaxDiagnostics, nil
	}
	return config.DefaultMaxDiagnostics, nil
}

func isQuiet(cmd *cobra.Command) bool {
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	return err == nil && quiet
}

// driverOptions collects the settings shared by expand, diag and fix.
func driverOptions(cmd *cobra.Command, s *session, cfg *config.Config) (driver.Options, error) {
	limit, err := maxDiagnostics(cmd, *cfg)
	if err != nil {
		return driver.Options{}, err
	}
	opts := driver.Options{
		Config:           cfg,
		MaxDiagnostics:   limit,
		WarningsAsErrors: cfg.WarningsAsErrors,
		Timer:            s.timer,
	}
	if f := cmd.Flags().Lookup("jobs"); f != nil {
		jobs, err := cmd.Flags().GetInt("jobs")
		if err != nil {
			return driver.Options{}, fmt.Errorf("failed to get jobs flag: %w", err)
		}
		opts.Jobs = jobs
	}
	return opts, nil
}
