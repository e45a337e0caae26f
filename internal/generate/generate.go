// Package generate produces reproducible synthetic transaction streams for
// load testing the ledger.
package generate

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"

	"github.com/pedro-hbl/lambda-gopher-ledger/pkg/ledger"
)

// Options controls the shape of a generated stream
type Options struct {
	Count       int     // number of records
	Clients     int     // client ids are drawn from 1..Clients
	Seed        int64   // same seed, same stream
	MaxAmount   float64 // upper bound for deposit and withdrawal amounts
	DisputeRate float64 // share of records that follow up an earlier deposit
}

// DefaultOptions returns a small mixed stream
func DefaultOptions() Options {
	return Options{
		Count:       1000,
		Clients:     10,
		Seed:        1,
		MaxAmount:   100,
		DisputeRate: 0.05,
	}
}

// Validate checks the options are usable
func (o Options) Validate() error {
	if o.Count < 0 {
		return fmt.Errorf("count must not be negative, got %d", o.Count)
	}
	if o.Clients < 1 || o.Clients > math.MaxUint16 {
		return fmt.Errorf("clients must be between 1 and %d, got %d", math.MaxUint16, o.Clients)
	}
	if units(o.MaxAmount) < 1 {
		return fmt.Errorf("max amount must be at least 0.0001, got %v", o.MaxAmount)
	}
	if o.DisputeRate < 0 || o.DisputeRate > 1 {
		return fmt.Errorf("dispute rate must be between 0 and 1, got %v", o.DisputeRate)
	}
	return nil
}

// units converts an amount to whole ten-thousandths, rounding down.
// The small offset absorbs float error so 0.0001 counts as one unit.
func units(amount float64) int64 {
	return int64(math.Floor(amount*10000 + 1e-9))
}

// disputable is a deposit that later records may dispute
type disputable struct {
	client   ledger.ClientID
	id       ledger.TransactionID
	disputed bool
}

// Generator emits transactions one at a time
type Generator struct {
	opts     Options
	rng      *rand.Rand
	nextID   ledger.TransactionID
	maxUnits int64
	deposits []disputable
}

// New creates a generator for opts
func New(opts Options) (*Generator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return &Generator{
		opts:     opts,
		rng:      rand.New(rand.NewSource(opts.Seed)),
		nextID:   1,
		maxUnits: units(opts.MaxAmount),
	}, nil
}

// Next returns the next transaction of the stream.
// Follow-ups move a deposit through dispute and then resolve or chargeback.
func (g *Generator) Next() ledger.Transaction {
	if len(g.deposits) > 0 && g.rng.Float64() < g.opts.DisputeRate {
		return g.followUp()
	}

	client := ledger.ClientID(g.rng.Intn(g.opts.Clients) + 1)
	id := g.nextID
	g.nextID++
	amount := g.amount()

	if g.rng.Intn(10) < 7 {
		g.deposits = append(g.deposits, disputable{client: client, id: id})
		return ledger.NewDeposit(client, id, amount)
	}
	return ledger.NewWithdrawal(client, id, amount)
}

func (g *Generator) followUp() ledger.Transaction {
	i := g.rng.Intn(len(g.deposits))
	ref := &g.deposits[i]

	if !ref.disputed {
		ref.disputed = true
		return ledger.NewDispute(ref.client, ref.id)
	}

	if g.rng.Intn(4) == 0 {
		tx := ledger.NewChargeback(ref.client, ref.id)
		g.deposits = append(g.deposits[:i], g.deposits[i+1:]...)
		return tx
	}

	ref.disputed = false
	return ledger.NewResolve(ref.client, ref.id)
}

// amount draws a positive value with four decimal places
func (g *Generator) amount() ledger.Currency {
	n := g.rng.Int63n(g.maxUnits) + 1
	return ledger.MustParseCurrency(fmt.Sprintf("%d.%04d", n/10000, n%10000))
}

// WriteCSV writes opts.Count transactions with a header row
func (g *Generator) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"type", "client", "tx", "amount"}); err != nil {
		return err
	}

	for i := 0; i < g.opts.Count; i++ {
		tx := g.Next()

		amount := ""
		if tx.Amount != nil {
			amount = tx.Amount.String()
		}

		record := []string{
			string(tx.Type),
			strconv.FormatUint(uint64(tx.Client), 10),
			strconv.FormatUint(uint64(tx.ID), 10),
			amount,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
