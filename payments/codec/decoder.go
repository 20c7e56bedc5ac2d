package codec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	constant "github.com/LerianStudio/payments-engine/payments/constants"
	"github.com/LerianStudio/payments-engine/payments/currency"
	"github.com/LerianStudio/payments-engine/payments/transaction"
)

// ErrMalformedRecord wraps every input framing or field error.
var ErrMalformedRecord = constant.ErrMalformedRecord

// Record is one raw data row and the line it started on.
type Record struct {
	Line   int
	Fields []string
}

type columns struct {
	typ, client, tx, amount int
}

// Decoder reads events from a CSV stream. ReadRecord and Next must be called
// from one goroutine; Decode only reads the header layout and may be called
// concurrently once the header is read.
type Decoder struct {
	reader *csv.Reader
	cols   columns
	ready  bool
}

// NewDecoder returns a Decoder reading from r. The header is read on first use.
func NewDecoder(r io.Reader) *Decoder {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	return &Decoder{reader: reader}
}

// ReadHeader reads and validates the header row if it has not been read yet.
func (d *Decoder) ReadHeader() error {
	if d.ready {
		return nil
	}

	header, err := d.reader.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: line 1: missing header", ErrMalformedRecord)
	}

	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}

	cols := columns{typ: -1, client: -1, tx: -1, amount: -1}

	for i, name := range header {
		var target *int

		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case constant.ColumnType:
			target = &cols.typ
		case constant.ColumnClient:
			target = &cols.client
		case constant.ColumnTx:
			target = &cols.tx
		case constant.ColumnAmount:
			target = &cols.amount
		default:
			continue
		}

		if *target != -1 {
			return fmt.Errorf("%w: line 1: duplicate column %q", ErrMalformedRecord, name)
		}

		*target = i
	}

	required := []struct {
		name string
		idx  int
	}{{constant.ColumnType, cols.typ}, {constant.ColumnClient, cols.client}, {constant.ColumnTx, cols.tx}}

	for _, col := range required {
		if col.idx == -1 {
			return fmt.Errorf("%w: line 1: header is missing column %q", ErrMalformedRecord, col.name)
		}
	}

	d.cols = cols
	d.ready = true

	return nil
}

// ReadRecord returns the next raw data row, or io.EOF when the input is exhausted.
func (d *Decoder) ReadRecord() (Record, error) {
	if err := d.ReadHeader(); err != nil {
		return Record{}, err
	}

	fields, err := d.reader.Read()
	if errors.Is(err, io.EOF) {
		return Record{}, io.EOF
	}

	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}

	line, _ := d.reader.FieldPos(0)

	return Record{Line: line, Fields: fields}, nil
}

// Next reads and decodes the next event, or returns io.EOF.
func (d *Decoder) Next() (transaction.Event, int, error) {
	rec, err := d.ReadRecord()
	if err != nil {
		return transaction.Event{}, 0, err
	}

	event, err := d.Decode(rec)

	return event, rec.Line, err
}

// Decode turns a raw row into an event.
func (d *Decoder) Decode(rec Record) (transaction.Event, error) {
	if !d.ready {
		return transaction.Event{}, fmt.Errorf("%w: line %d: header not read", ErrMalformedRecord, rec.Line)
	}

	field := func(idx int) string {
		if idx < 0 || idx >= len(rec.Fields) {
			return ""
		}

		return strings.TrimSpace(rec.Fields[idx])
	}

	malformed := func(column string, err error) error {
		return fmt.Errorf("%w: line %d: %s: %w", ErrMalformedRecord, rec.Line, column, err)
	}

	typ, err := transaction.ParseType(strings.ToLower(field(d.cols.typ)))
	if err != nil {
		return transaction.Event{}, malformed(constant.ColumnType, err)
	}

	client, err := strconv.ParseUint(field(d.cols.client), 10, 16)
	if err != nil {
		return transaction.Event{}, malformed(constant.ColumnClient, err)
	}

	tx, err := strconv.ParseUint(field(d.cols.tx), 10, 32)
	if err != nil {
		return transaction.Event{}, malformed(constant.ColumnTx, err)
	}

	event := transaction.Event{Type: typ, Client: transaction.ClientID(client), Tx: transaction.TxID(tx)}

	if typ.Disputable() {
		raw := field(d.cols.amount)
		if raw == "" {
			return transaction.Event{}, malformed(constant.ColumnAmount, fmt.Errorf("%s requires an amount", typ))
		}

		value, err := currency.Parse(raw)
		if err != nil {
			return transaction.Event{}, malformed(constant.ColumnAmount, err)
		}

		event.Amount = &value
	}

	return event, nil
}
