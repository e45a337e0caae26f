// Package logging builds the zap logger shared by the ledger commands.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Supported encodings
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// NewWithSink creates a logger writing to sink at the given level ("debug",
// "info", "warn" or "error") and encoding ("console" or "json").
// The commands pass stderr so stdout stays free for reports.
func NewWithSink(level, format string, sink zapcore.WriteSyncer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON:
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	case FormatConsole, "":
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}

	return zap.New(zapcore.NewCore(encoder, sink, lvl)), nil
}
