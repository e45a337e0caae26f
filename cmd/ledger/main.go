package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pedro-hbl/lambda-gopher-ledger/internal/config"
	"github.com/pedro-hbl/lambda-gopher-ledger/internal/ingest"
	"github.com/pedro-hbl/lambda-gopher-ledger/internal/logging"
	"github.com/pedro-hbl/lambda-gopher-ledger/internal/metrics"
	"github.com/pedro-hbl/lambda-gopher-ledger/internal/report"
	"github.com/pedro-hbl/lambda-gopher-ledger/pkg/ledger"
)

// ProcessRequest is the Lambda event: an inline CSV transaction document
type ProcessRequest struct {
	Source string `json:"source"` // label for logs and metrics
	CSV    string `json:"csv"`
}

// ProcessResponse holds the final balances of a Lambda invocation
type ProcessResponse struct {
	RunID        string                   `json:"runId"`
	Success      bool                     `json:"success"`
	ErrorMessage string                   `json:"errorMessage,omitempty"`
	Accounts     []ledger.AccountSnapshot `json:"accounts,omitempty"`
	Report       string                   `json:"report,omitempty"` // CSV summary table
	Metrics      map[string]interface{}   `json:"metrics,omitempty"`
}

// handler serves Lambda invocations; each one gets a fresh ledger
type handler struct {
	collector *metrics.Collector
	logger    *zap.Logger
}

func (h *handler) handleRequest(ctx context.Context, request ProcessRequest) (ProcessResponse, error) {
	runID := uuid.New().String()
	logger := h.logger.With(zap.String("run_id", runID))

	// warm containers reuse the collector; keep only this invocation's run
	h.collector.ResetCollector()

	source := request.Source
	if source == "" {
		source = "lambda-event"
	}

	response := ProcessResponse{RunID: runID}

	l := ledger.New()
	result, err := ingest.NewProcessor(l, h.collector, logger).Run(ctx, runID, source, strings.NewReader(request.CSV))
	if err != nil {
		logger.Error("Failed to process transactions", zap.Error(err))
		response.ErrorMessage = fmt.Sprintf("failed to process transactions: %v", err)
		return response, nil
	}

	accounts := l.Accounts()

	var buf bytes.Buffer
	if err := (report.CSVWriter{}).Write(&buf, accounts); err != nil {
		response.ErrorMessage = fmt.Sprintf("failed to render report: %v", err)
		return response, nil
	}

	response.Success = true
	response.Accounts = accounts
	response.Report = buf.String()
	response.Metrics = result.Summary

	return response, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	config.LoadDotEnv()

	// Run as Lambda function if in AWS environment
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		logger, err := logging.NewWithSink(os.Getenv(config.EnvLogLevel), logging.FormatJSON, zapcore.AddSync(stderr))
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
		h := &handler{collector: metrics.NewCollector(), logger: logger}
		lambda.Start(h.handleRequest)
		return 0
	}

	cfg, err := config.Load(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "ledger: %v\n", err)
		return 2
	}

	logger, err := logging.NewWithSink(cfg.LogLevel, cfg.LogFormat, zapcore.AddSync(stderr))
	if err != nil {
		fmt.Fprintf(stderr, "ledger: %v\n", err)
		return 2
	}
	runID := uuid.New().String()
	logger = logger.With(zap.String("run_id", runID))
	defer func() { _ = logger.Sync() }()

	writer, err := report.NewFactory().CreateWriter(cfg.OutputFormat)
	if err != nil {
		logger.Error("Invalid output format", zap.Error(err))
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	input, err := os.Open(cfg.InputPath)
	if err != nil {
		logger.Error("Failed to open input", zap.String("path", cfg.InputPath), zap.Error(err))
		return 1
	}
	defer input.Close()

	l := ledger.New()
	result, err := ingest.NewProcessor(l, metrics.NewCollector(), logger).Run(ctx, runID, cfg.InputPath, input)
	if err != nil {
		logger.Error("Failed to process transactions", zap.String("path", cfg.InputPath), zap.Error(err))
		return 1
	}

	if cfg.Stats {
		logger.Info("Run summary", zap.Any("metrics", result.Summary))
	}

	if err := writeReport(writer, cfg, stdout, l.Accounts()); err != nil {
		logger.Error("Failed to write report", zap.String("format", cfg.OutputFormat), zap.Error(err))
		return 1
	}

	return 0
}

// writeReport sends text formats to stdout and charts to cfg.ChartOut
func writeReport(writer report.Writer, cfg config.Config, stdout io.Writer, accounts []ledger.AccountSnapshot) error {
	if cfg.OutputFormat != report.FormatChart {
		return writer.Write(stdout, accounts)
	}

	f, err := os.Create(cfg.ChartOut)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}

	if err := writer.Write(f, accounts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Chart saved to: %s\n", cfg.ChartOut)
	return nil
}
