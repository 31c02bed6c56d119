package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/opd-ai/thermoguard/pkg/thermoguard"
)

var (
	flagSettings string
	flagLogLevel string
	flagJSONLogs bool
)

var rootCmd = &cobra.Command{
	Use:   "thermoguard",
	Short: "Storage temperature monitor with desktop and email alerts",
	Long: `thermoguard watches storage device temperatures through a chain of
sensor sources (hwmon, gopsutil, smartctl, simulation fallback),
classifies them against warning and critical thresholds and delivers
cooldown-gated desktop notifications and emails.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagSettings, "settings", defaultSettingsPath(), "settings file path")
	pf.StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.BoolVar(&flagJSONLogs, "json-logs", false, "emit JSON log records")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(sensorsCmd())
	rootCmd.AddCommand(testEmailCmd())
	rootCmd.AddCommand(versionCmd())
}

func defaultSettingsPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "thermoguard", "settings.json")
	}
	return "settings.json"
}

func buildLogger() *slog.Logger {
	var level slog.Level
	switch flagLogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if flagJSONLogs {
		return thermoguard.JSONLogger(os.Stderr, level)
	}
	if level == slog.LevelDebug {
		return thermoguard.DebugLogger()
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
