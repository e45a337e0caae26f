package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pedro-hbl/lambda-gopher-ledger/internal/metrics"
)

const transactionsCSV = `type, client, tx, amount
deposit, 1, 1, 1.0
deposit, 2, 2, 2.0
deposit, 1, 3, 2.0
withdrawal, 1, 4, 1.5
withdrawal, 2, 5, 3.0
dispute, 2, 2,
deposit, x, 6, 1.0
`

const expectedReport = "client,available,held,total,locked\n" +
	"1,1.5000,0.0000,1.5000,false\n" +
	"2,0.0000,2.0000,2.0000,false\n"

func writeInput(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "transactions.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func cliEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AWS_LAMBDA_FUNCTION_NAME",
		"LEDGER_OUTPUT_FORMAT",
		"LEDGER_CHART_OUT",
		"LEDGER_LOG_LEVEL",
		"LEDGER_LOG_FORMAT",
		"LEDGER_STATS",
	} {
		t.Setenv(key, "")
	}
}

func TestRunPrintsSummary(t *testing.T) {
	cliEnv(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{writeInput(t, transactionsCSV)}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, expectedReport, stdout.String())
	assert.Contains(t, stderr.String(), "Skipping malformed record")
	assert.Contains(t, stderr.String(), "Transaction rejected")
}

func TestRunWithStats(t *testing.T) {
	cliEnv(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{"-stats", "-log-format", "json", writeInput(t, transactionsCSV)}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stderr.String(), `"msg":"Run summary"`)
	assert.Contains(t, stderr.String(), `"run_id"`)
}

func TestRunMissingInputPrintsNothing(t *testing.T) {
	cliEnv(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{filepath.Join(t.TempDir(), "missing.csv")}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "Failed to open input")
}

func TestRunBadHeaderPrintsNothing(t *testing.T) {
	cliEnv(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{writeInput(t, "kind,who\ndeposit,1\n")}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout.String())
}

func TestRunUsageErrors(t *testing.T) {
	cliEnv(t)
	var stdout, stderr bytes.Buffer

	assert.Equal(t, 2, run(nil, &stdout, &stderr))
	assert.Equal(t, 2, run([]string{"-format", "xml", writeInput(t, transactionsCSV)}, &stdout, &stderr))
	assert.Equal(t, 2, run([]string{"-log-level", "loud", writeInput(t, transactionsCSV)}, &stdout, &stderr))
	assert.Equal(t, 0, run([]string{"-h"}, &stdout, &stderr))
	assert.Empty(t, stdout.String())
}

func TestRunTableFormat(t *testing.T) {
	cliEnv(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{"-format", "table", writeInput(t, transactionsCSV)}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "1.5000")
	assert.Contains(t, stdout.String(), "available")
}

func TestRunChartFormat(t *testing.T) {
	cliEnv(t)
	var stdout, stderr bytes.Buffer
	chartPath := filepath.Join(t.TempDir(), "balances.png")

	code := run([]string{"-format", "chart", "-chart-out", chartPath, writeInput(t, transactionsCSV)}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), chartPath)
	data, err := os.ReadFile(chartPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestHandleRequest(t *testing.T) {
	h := &handler{collector: metrics.NewCollector(), logger: zap.NewNop()}

	response, err := h.handleRequest(context.Background(), ProcessRequest{Source: "test", CSV: transactionsCSV})
	require.NoError(t, err)

	assert.True(t, response.Success)
	assert.NotEmpty(t, response.RunID)
	assert.Empty(t, response.ErrorMessage)
	assert.Equal(t, expectedReport, response.Report)
	require.Len(t, response.Accounts, 2)
	assert.Equal(t, "2.0000", response.Accounts[1].Held.String())
	assert.Equal(t, int64(1), response.Metrics["skippedCount"])
	assert.Equal(t, int64(1), response.Metrics["rejectedCount"])
}

func TestHandleRequestSourceFailure(t *testing.T) {
	h := &handler{collector: metrics.NewCollector(), logger: zap.NewNop()}

	response, err := h.handleRequest(context.Background(), ProcessRequest{CSV: "kind,who\n"})
	require.NoError(t, err)

	assert.False(t, response.Success)
	assert.NotEmpty(t, response.ErrorMessage)
	assert.Empty(t, response.Accounts)
	assert.Empty(t, response.Report)
}
