package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pedro-hbl/lambda-gopher-ledger/internal/config"
	"github.com/pedro-hbl/lambda-gopher-ledger/internal/generate"
	"github.com/pedro-hbl/lambda-gopher-ledger/internal/logging"
	"github.com/pedro-hbl/lambda-gopher-ledger/pkg/ledger"
)

// invocationPath is the Lambda runtime interface emulator route
const invocationPath = "/2015-03-31/functions/function/invocations"

type options struct {
	gen            generate.Options
	output         string
	lambdaEndpoint string
	resultsDir     string
	timeout        time.Duration
	logLevel       string
}

// invokeRequest mirrors the ledger Lambda event
type invokeRequest struct {
	Source string `json:"source"`
	CSV    string `json:"csv"`
}

// invokeResult mirrors the ledger Lambda response
type invokeResult struct {
	RunID        string                   `json:"runId"`
	Success      bool                     `json:"success"`
	ErrorMessage string                   `json:"errorMessage,omitempty"`
	Accounts     []ledger.AccountSnapshot `json:"accounts,omitempty"`
	Metrics      map[string]interface{}   `json:"metrics,omitempty"`
	Timestamp    time.Time                `json:"timestamp"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, output io.Writer) (options, error) {
	opts := options{gen: generate.DefaultOptions()}

	fs := flag.NewFlagSet("txgen", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.IntVar(&opts.gen.Count, "count", opts.gen.Count, "Number of transactions to generate")
	fs.IntVar(&opts.gen.Clients, "clients", opts.gen.Clients, "Number of distinct clients")
	fs.Int64Var(&opts.gen.Seed, "seed", opts.gen.Seed, "Random seed")
	fs.Float64Var(&opts.gen.MaxAmount, "max-amount", opts.gen.MaxAmount, "Largest deposit or withdrawal amount")
	fs.Float64Var(&opts.gen.DisputeRate, "dispute-rate", opts.gen.DisputeRate, "Share of records that dispute, resolve or charge back a deposit")
	fs.StringVar(&opts.output, "output", "-", "File to write the CSV to, - for stdout")
	fs.StringVar(&opts.lambdaEndpoint, "lambda-endpoint", os.Getenv("LAMBDA_ENDPOINT"), "Send the stream to a ledger Lambda instead of writing it")
	fs.StringVar(&opts.resultsDir, "results-dir", envOr("RESULTS_DIR", "./results"), "Directory to store Lambda results in")
	fs.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Lambda invocation timeout")
	fs.StringVar(&opts.logLevel, "log-level", envOr(config.EnvLogLevel, "info"), "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() != 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, opts.gen.Validate()
}

func run(args []string, stdout, stderr io.Writer) int {
	config.LoadDotEnv()

	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "txgen: %v\n", err)
		return 2
	}

	logger, err := logging.NewWithSink(opts.logLevel, logging.FormatConsole, zapcore.AddSync(stderr))
	if err != nil {
		fmt.Fprintf(stderr, "txgen: %v\n", err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	gen, err := generate.New(opts.gen)
	if err != nil {
		logger.Error("Invalid generator options", zap.Error(err))
		return 2
	}

	if opts.lambdaEndpoint != "" {
		if err := invoke(context.Background(), gen, opts, logger); err != nil {
			logger.Error("Lambda invocation failed", zap.String("endpoint", opts.lambdaEndpoint), zap.Error(err))
			return 1
		}
		return 0
	}

	if err := writeStream(gen, opts.output, stdout); err != nil {
		logger.Error("Failed to write transactions", zap.String("output", opts.output), zap.Error(err))
		return 1
	}

	logger.Debug("Generated transactions",
		zap.Int("count", opts.gen.Count),
		zap.Int("clients", opts.gen.Clients),
		zap.Int64("seed", opts.gen.Seed))
	return 0
}

func writeStream(gen *generate.Generator, output string, stdout io.Writer) error {
	if output == "-" {
		return gen.WriteCSV(stdout)
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := gen.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// invoke posts the generated stream to the ledger Lambda and saves the result
func invoke(ctx context.Context, gen *generate.Generator, opts options, logger *zap.Logger) error {
	var stream bytes.Buffer
	if err := gen.WriteCSV(&stream); err != nil {
		return err
	}

	payload, err := json.Marshal(invokeRequest{
		Source: fmt.Sprintf("txgen-seed-%d", opts.gen.Seed),
		CSV:    stream.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.lambdaEndpoint+invocationPath, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	logger.Debug("Invoking ledger Lambda", zap.String("endpoint", opts.lambdaEndpoint), zap.Int("bytes", len(payload)))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to invoke Lambda function: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	var result invokeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to parse result: %w", err)
	}
	result.Timestamp = time.Now()

	path, err := saveResult(opts.resultsDir, &result)
	if err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("ledger run failed: %s", result.ErrorMessage)
	}

	logger.Info("Ledger run completed",
		zap.String("run_id", result.RunID),
		zap.Int("accounts", len(result.Accounts)),
		zap.Any("metrics", result.Metrics),
		zap.String("saved_to", path))
	return nil
}

func saveResult(dir string, result *invokeResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}

	filename := fmt.Sprintf("ledger-%s.json", result.Timestamp.Format("20060102-150405"))
	if result.RunID != "" {
		filename = fmt.Sprintf("ledger-%s.json", result.RunID)
	}
	path := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write result: %w", err)
	}
	return path, nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
