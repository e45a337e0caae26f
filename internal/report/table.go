package report

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/pedro-hbl/lambda-gopher-ledger/pkg/ledger"
)

// TableWriter renders an aligned text table for terminals
type TableWriter struct{}

// Write implements Writer
func (TableWriter) Write(w io.Writer, accounts []ledger.AccountSnapshot) error {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetHeader(Header)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, account := range accounts {
		table.Append(Row(account))
	}

	table.Render()
	return nil
}
