package codec

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	constant "github.com/LerianStudio/payments-engine/payments/constants"
	"github.com/LerianStudio/payments-engine/payments/engine"
)

// Output formats accepted by NewEncoder.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Encoder writes a final account snapshot.
type Encoder interface {
	Encode(accounts []engine.Account) error
}

// NewEncoder returns the encoder for format.
//
//nolint:ireturn
func NewEncoder(format string, w io.Writer) (Encoder, error) {
	switch format {
	case FormatCSV, "":
		return &CSVEncoder{w: w}, nil
	case FormatJSON:
		return &JSONEncoder{w: w}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// CSVEncoder writes `client,available,held,total,locked` rows.
type CSVEncoder struct {
	w io.Writer
}

func (e *CSVEncoder) Encode(accounts []engine.Account) error {
	writer := csv.NewWriter(e.w)

	header := []string{constant.ColumnClient, constant.ColumnAvailable, constant.ColumnHeld, constant.ColumnTotal, constant.ColumnLocked}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(header))

	for _, acct := range accounts {
		row[0] = strconv.FormatUint(uint64(acct.Client), 10)
		row[1] = acct.Available.String()
		row[2] = acct.Held.String()
		row[3] = acct.Total.String()
		row[4] = strconv.FormatBool(acct.Locked)

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write client %d: %w", acct.Client, err)
		}
	}

	writer.Flush()

	return writer.Error()
}

// JSONEncoder writes the snapshot as a JSON array with numeric amounts.
type JSONEncoder struct {
	w io.Writer
}

func (e *JSONEncoder) Encode(accounts []engine.Account) error {
	if accounts == nil {
		accounts = []engine.Account{}
	}

	enc := json.NewEncoder(e.w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(accounts); err != nil {
		return fmt.Errorf("encode accounts: %w", err)
	}

	return nil
}
