package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pedro-hbl/lambda-gopher-ledger/pkg/ledger"
)

// Column names expected in the header row
const (
	ColumnType   = "type"
	ColumnClient = "client"
	ColumnTx     = "tx"
	ColumnAmount = "amount"
)

// RecordError reports a single record that could not be decoded.
// The stream stays readable after a RecordError.
type RecordError struct {
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Reader decodes transactions from CSV one record at a time
type Reader struct {
	csv     *csv.Reader
	columns map[string]int
}

// NewReader reads the header row of r and returns a Reader positioned at
// the first record. Columns are matched by name, ignoring case and spaces.
// An empty input yields a Reader that returns io.EOF immediately.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	reader := &Reader{csv: cr, columns: make(map[string]int)}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return reader, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		reader.columns[name] = i
	}
	for _, required := range []string{ColumnType, ColumnClient, ColumnTx} {
		if _, ok := reader.columns[required]; !ok {
			return nil, fmt.Errorf("header is missing column %q", required)
		}
	}

	return reader, nil
}

// Read returns the next transaction. It returns io.EOF at the end of the
// input, a *RecordError for a record that should be skipped, and any other
// error when the source itself failed.
func (r *Reader) Read() (ledger.Transaction, error) {
	if len(r.columns) == 0 {
		return ledger.Transaction{}, io.EOF
	}

	record, err := r.csv.Read()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return ledger.Transaction{}, &RecordError{Line: parseErr.StartLine, Err: parseErr.Err}
		}
		return ledger.Transaction{}, err
	}

	line, _ := r.csv.FieldPos(0)
	tx, err := r.decode(record)
	if err != nil {
		return ledger.Transaction{}, &RecordError{Line: line, Err: err}
	}
	return tx, nil
}

func (r *Reader) decode(record []string) (ledger.Transaction, error) {
	txType, err := ledger.ParseTransactionType(r.field(record, ColumnType))
	if err != nil {
		return ledger.Transaction{}, err
	}

	client, err := strconv.ParseUint(r.field(record, ColumnClient), 10, 16)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("invalid client id: %w", err)
	}

	id, err := strconv.ParseUint(r.field(record, ColumnTx), 10, 32)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("invalid transaction id: %w", err)
	}

	tx := ledger.Transaction{
		Type:   txType,
		Client: ledger.ClientID(client),
		ID:     ledger.TransactionID(id),
	}

	// Disputes, resolves and chargebacks take the amount of the referenced transaction
	if !txType.CarriesAmount() {
		return tx, nil
	}

	if raw := r.field(record, ColumnAmount); raw != "" {
		amount, err := ledger.ParseCurrency(raw)
		if err != nil {
			return ledger.Transaction{}, err
		}
		if amount.IsNegative() {
			return ledger.Transaction{}, fmt.Errorf("negative amount %s", amount)
		}
		tx.Amount = &amount
	}

	return tx, nil
}

// field returns the trimmed value of a column, or "" when the record is short
func (r *Reader) field(record []string, column string) string {
	i, ok := r.columns[column]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
