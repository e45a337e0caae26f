// Package config resolves command settings from flags, environment variables and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables backing each flag
const (
	EnvOutputFormat = "LEDGER_OUTPUT_FORMAT"
	EnvChartOut     = "LEDGER_CHART_OUT"
	EnvLogLevel     = "LEDGER_LOG_LEVEL"
	EnvLogFormat    = "LEDGER_LOG_FORMAT"
	EnvStats        = "LEDGER_STATS"
)

// Config holds the settings of one ledger run
type Config struct {
	InputPath    string
	OutputFormat string // csv, table, chart
	ChartOut     string // PNG destination for the chart format
	LogLevel     string
	LogFormat    string // console, json
	Stats        bool
}

// LoadDotEnv loads a .env file from the working directory if one exists.
// It reports whether a file was loaded.
func LoadDotEnv() bool {
	return godotenv.Load() == nil
}

// Load parses command line arguments (without the program name).
// Flags take precedence over environment variables, which take precedence
// over defaults. Usage and parse errors are written to output.
func Load(args []string, output io.Writer) (Config, error) {
	fs := flag.NewFlagSet("ledger", flag.ContinueOnError)
	fs.SetOutput(output)

	cfg := Config{}
	fs.StringVar(&cfg.OutputFormat, "format", getEnv(EnvOutputFormat, "csv"), "Output format: csv, table, chart")
	fs.StringVar(&cfg.ChartOut, "chart-out", getEnv(EnvChartOut, "balances.png"), "File to write the chart to when -format=chart")
	fs.StringVar(&cfg.LogLevel, "log-level", getEnv(EnvLogLevel, "info"), "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", getEnv(EnvLogFormat, "console"), "Log encoding: console, json")
	fs.BoolVar(&cfg.Stats, "stats", getEnvBool(EnvStats, false), "Log a processing summary when done")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ledger [flags] <transactions.csv>\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	switch fs.NArg() {
	case 0:
		return Config{}, errors.New("an input file path is required")
	case 1:
		cfg.InputPath = fs.Arg(0)
	default:
		return Config{}, fmt.Errorf("expected one input file, got %d arguments", fs.NArg())
	}

	cfg.OutputFormat = strings.ToLower(strings.TrimSpace(cfg.OutputFormat))
	if cfg.OutputFormat == "chart" && cfg.ChartOut == "" {
		return Config{}, errors.New("-chart-out must be set for the chart format")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
