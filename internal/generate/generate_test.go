package generate

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pedro-hbl/lambda-gopher-ledger/internal/ingest"
	"github.com/pedro-hbl/lambda-gopher-ledger/internal/metrics"
	"github.com/pedro-hbl/lambda-gopher-ledger/pkg/ledger"
)

func TestValidate(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())

	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"negative count", func(o *Options) { o.Count = -1 }},
		{"no clients", func(o *Options) { o.Clients = 0 }},
		{"too many clients", func(o *Options) { o.Clients = 70000 }},
		{"zero amount", func(o *Options) { o.MaxAmount = 0 }},
		{"amount below smallest unit", func(o *Options) { o.MaxAmount = 0.00001 }},
		{"dispute rate above one", func(o *Options) { o.DisputeRate = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)

			_, err := New(opts)
			assert.Error(t, err)
		})
	}
}

func TestSmallestMaxAmount(t *testing.T) {
	opts := DefaultOptions()
	opts.Count = 50
	opts.MaxAmount = 0.0001
	g, err := New(opts)
	require.NoError(t, err)

	for i := 0; i < opts.Count; i++ {
		tx := g.Next()
		if tx.Amount != nil {
			assert.Equal(t, "0.0001", tx.Amount.String())
		}
	}
}

func TestSameSeedSameStream(t *testing.T) {
	render := func(seed int64) string {
		opts := DefaultOptions()
		opts.Seed = seed
		g, err := New(opts)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, g.WriteCSV(&buf))
		return buf.String()
	}

	assert.Equal(t, render(7), render(7))
	assert.NotEqual(t, render(7), render(8))
}

func TestFollowUpsReferenceEarlierDeposits(t *testing.T) {
	opts := DefaultOptions()
	opts.Count = 5000
	opts.DisputeRate = 0.3
	g, err := New(opts)
	require.NoError(t, err)

	deposits := make(map[ledger.TransactionID]ledger.ClientID)
	seen := make(map[ledger.TransactionType]int)

	for i := 0; i < opts.Count; i++ {
		tx := g.Next()
		seen[tx.Type]++

		switch tx.Type {
		case ledger.Deposit:
			require.NotNil(t, tx.Amount)
			assert.True(t, tx.Amount.Cmp(ledger.Zero()) > 0)
			deposits[tx.ID] = tx.Client
		case ledger.Withdrawal:
			require.NotNil(t, tx.Amount)
		default:
			assert.Nil(t, tx.Amount)
			client, ok := deposits[tx.ID]
			require.True(t, ok, "follow-up %s references unknown deposit", tx)
			assert.Equal(t, client, tx.Client)
		}

		assert.LessOrEqual(t, int(tx.Client), opts.Clients)
	}

	for _, txType := range ledger.TransactionTypes {
		assert.NotZero(t, seen[txType], "no %s generated", txType)
	}
}

func TestWriteCSVIsReadable(t *testing.T) {
	opts := DefaultOptions()
	opts.Count = 500
	g, err := New(opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, g.WriteCSV(&buf))
	assert.True(t, strings.HasPrefix(buf.String(), "type,client,tx,amount\n"))

	reader, err := ingest.NewReader(&buf)
	require.NoError(t, err)

	records := 0
	for {
		_, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		records++
	}
	assert.Equal(t, opts.Count, records)
}

func TestGeneratedStreamProcesses(t *testing.T) {
	opts := DefaultOptions()
	opts.Count = 2000
	g, err := New(opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, g.WriteCSV(&buf))

	l := ledger.New()
	result, err := ingest.NewProcessor(l, metrics.NewCollector(), zap.NewNop()).Run(context.Background(), "gen", "generated", &buf)
	require.NoError(t, err)

	assert.Equal(t, int64(0), result.Count(metrics.Skipped))
	assert.Equal(t, int64(opts.Count), result.Count(metrics.Applied)+result.Count(metrics.Rejected))

	for _, account := range l.Accounts() {
		assert.True(t, account.Available.Add(account.Held).Equal(account.Total))
	}
}

func BenchmarkProcessGenerated(b *testing.B) {
	opts := DefaultOptions()
	opts.Count = 10000
	opts.Clients = 500
	g, err := New(opts)
	require.NoError(b, err)

	var buf bytes.Buffer
	require.NoError(b, g.WriteCSV(&buf))
	input := buf.Bytes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := ingest.NewProcessor(ledger.New(), nil, nil).Run(context.Background(), "bench", "generated", bytes.NewReader(input))
		if err != nil {
			b.Fatal(err)
		}
	}
}
