// Package ingest feeds transaction records from a CSV source into a ledger.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/pedro-hbl/lambda-gopher-ledger/internal/metrics"
	"github.com/pedro-hbl/lambda-gopher-ledger/pkg/ledger"
)

// Processor applies a stream of transactions to a ledger, one record at a time
type Processor struct {
	ledger    *ledger.Ledger
	collector *metrics.Collector
	logger    *zap.Logger
}

// NewProcessor creates a processor. A nil collector or logger is replaced
// by a private collector and a no-op logger.
func NewProcessor(l *ledger.Ledger, collector *metrics.Collector, logger *zap.Logger) *Processor {
	if collector == nil {
		collector = metrics.NewCollector()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		ledger:    l,
		collector: collector,
		logger:    logger,
	}
}

// Run reads every record from r and submits it to the ledger.
//
// Records that cannot be decoded and transactions the ledger rejects are
// logged and skipped. Run only fails when the source itself cannot be read
// or ctx is cancelled; the ledger then holds whatever was applied so far
// and the caller should not report it.
func (p *Processor) Run(ctx context.Context, runID, source string, r io.Reader) (*metrics.RunResult, error) {
	startTime := time.Now()
	p.collector.StartRun(runID, source)

	if err := p.consume(ctx, r); err != nil {
		p.collector.EndRun(runID)
		return nil, err
	}

	_ = p.collector.AddCustomMetric("accountCount", p.ledger.Len())
	result := p.collector.EndRun(runID)
	if result == nil {
		return nil, fmt.Errorf("run %s is no longer active in the metrics collector", runID)
	}

	p.logger.Info("Processed transactions",
		zap.String("source", source),
		zap.Int64("applied", result.Count(metrics.Applied)),
		zap.Int64("rejected", result.Count(metrics.Rejected)),
		zap.Int64("skipped", result.Count(metrics.Skipped)),
		zap.Int("accounts", p.ledger.Len()),
		zap.Duration("elapsed", time.Since(startTime)),
	)

	return result, nil
}

func (p *Processor) consume(ctx context.Context, r io.Reader) error {
	reader, err := NewReader(r)
	if err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		tx, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}

		var recordErr *RecordError
		if errors.As(err, &recordErr) {
			p.logger.Warn("Skipping malformed record",
				zap.Int("line", recordErr.Line),
				zap.Error(recordErr.Err),
			)
			_ = p.collector.RecordSkipped()
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read transactions: %w", err)
		}

		err = p.collector.MeasureOperation(string(tx.Type), func() error {
			return p.ledger.Submit(tx)
		})
		if err != nil {
			p.logger.Warn("Transaction rejected",
				zap.String("type", string(tx.Type)),
				zap.Uint16("client", uint16(tx.Client)),
				zap.Uint32("tx", uint32(tx.ID)),
				zap.Error(err),
			)
		}
	}
}
