package codec

import (
	"encoding/csv"
	"io"
	"strconv"
	"sync"

	constant "github.com/LerianStudio/payments-engine/payments/constants"
	"github.com/LerianStudio/payments-engine/payments/engine"
)

// RejectionWriter writes one CSV row per dropped event. Record matches the
// engine.WithRejectionHook signature; the first write error is kept and
// returned by Close.
type RejectionWriter struct {
	mu     sync.Mutex
	writer *csv.Writer
	err    error
}

// NewRejectionWriter writes the header and returns the writer.
func NewRejectionWriter(w io.Writer) *RejectionWriter {
	rw := &RejectionWriter{writer: csv.NewWriter(w)}
	rw.err = rw.writer.Write([]string{
		constant.ColumnType, constant.ColumnClient, constant.ColumnTx,
		constant.ColumnAmount, constant.ColumnCode, constant.ColumnReason,
	})

	return rw
}

// Record appends r to the report.
func (rw *RejectionWriter) Record(r engine.Rejection) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.err != nil {
		return
	}

	amount := ""
	if r.Event.Amount != nil {
		amount = r.Event.Amount.String()
	}

	rw.err = rw.writer.Write([]string{
		r.Event.Type.String(),
		strconv.FormatUint(uint64(r.Event.Client), 10),
		strconv.FormatUint(uint64(r.Event.Tx), 10),
		amount,
		string(r.Err.Code),
		r.Err.Message,
	})
}

// Close flushes buffered rows and returns the first error seen.
func (rw *RejectionWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	rw.writer.Flush()

	if rw.err != nil {
		return rw.err
	}

	return rw.writer.Error()
}
