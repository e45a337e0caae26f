package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/pedro-hbl/lambda-gopher-ledger/pkg/ledger"
)

// Header is the first row of the CSV summary
var Header = []string{"client", "available", "held", "total", "locked"}

// CSVWriter writes one row per client with amounts at four decimal places
type CSVWriter struct{}

// Write implements Writer
func (CSVWriter) Write(w io.Writer, accounts []ledger.AccountSnapshot) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, account := range accounts {
		if err := cw.Write(Row(account)); err != nil {
			return fmt.Errorf("failed to write client %d: %w", account.Client, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Row formats a snapshot as client, available, held, total, locked
func Row(account ledger.AccountSnapshot) []string {
	return []string{
		strconv.FormatUint(uint64(account.Client), 10),
		account.Available.String(),
		account.Held.String(),
		account.Total.String(),
		strconv.FormatBool(account.Locked),
	}
}
