// Package report renders ledger account snapshots in the supported output formats.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pedro-hbl/lambda-gopher-ledger/pkg/ledger"
)

// Writer renders the final account snapshots
type Writer interface {
	Write(w io.Writer, accounts []ledger.AccountSnapshot) error
}

// Format names
const (
	FormatCSV   = "csv"
	FormatTable = "table"
	FormatChart = "chart"
)

// Factory creates writers based on format name
type Factory struct {
	builders map[string]func() Writer
}

// NewFactory creates a factory with the standard formats registered
func NewFactory() *Factory {
	factory := &Factory{
		builders: make(map[string]func() Writer),
	}

	factory.Register(FormatCSV, func() Writer { return CSVWriter{} })
	factory.Register(FormatTable, func() Writer { return TableWriter{} })
	factory.Register(FormatChart, func() Writer { return ChartWriter{Width: 800, Height: 400} })

	return factory
}

// Register adds a new writer builder to the factory
func (f *Factory) Register(format string, builder func() Writer) {
	f.builders[strings.ToLower(format)] = builder
}

// CreateWriter creates a writer for the given format
func (f *Factory) CreateWriter(format string) (Writer, error) {
	builder, ok := f.builders[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return nil, fmt.Errorf("unknown output format: %s (supported: %s)", format, strings.Join(f.Formats(), ", "))
	}
	return builder(), nil
}

// Formats lists the registered format names
func (f *Factory) Formats() []string {
	formats := make([]string, 0, len(f.builders))
	for name := range f.builders {
		formats = append(formats, name)
	}
	sort.Strings(formats)
	return formats
}
