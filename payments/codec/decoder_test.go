package codec

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/LerianStudio/payments-engine/payments/currency"
	"github.com/LerianStudio/payments-engine/payments/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeAll(t *testing.T, input string) ([]transaction.Event, error) {
	t.Helper()

	dec := NewDecoder(strings.NewReader(input))

	var events []transaction.Event

	for {
		event, _, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return events, nil
		}

		if err != nil {
			return events, err
		}

		events = append(events, event)
	}
}

func mustAmount(t *testing.T, text string) *currency.Currency {
	t.Helper()

	value, err := currency.Parse(text)
	require.NoError(t, err)

	return &value
}

func TestDecoder_ReadsEveryEventType(t *testing.T) {
	t.Parallel()

	input := "type, client, tx, amount\n" +
		"deposit, 1, 1, 1.0\n" +
		"withdrawal, 1, 2, 0.5\n" +
		"dispute, 1, 1,\n" +
		"resolve, 1, 1\n" +
		"chargeback,1,1,\n"

	events, err := decodeAll(t, input)
	require.NoError(t, err)

	assert.Equal(t, []transaction.Event{
		{Type: transaction.TypeDeposit, Client: 1, Tx: 1, Amount: mustAmount(t, "1.0")},
		{Type: transaction.TypeWithdrawal, Client: 1, Tx: 2, Amount: mustAmount(t, "0.5")},
		{Type: transaction.TypeDispute, Client: 1, Tx: 1},
		{Type: transaction.TypeResolve, Client: 1, Tx: 1},
		{Type: transaction.TypeChargeback, Client: 1, Tx: 1},
	}, events)
}

func TestDecoder_ColumnsByName(t *testing.T) {
	t.Parallel()

	input := "amount,tx,type,client\n2.5,9,deposit,65535\n"

	events, err := decodeAll(t, input)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, transaction.ClientID(65535), events[0].Client)
	assert.Equal(t, transaction.TxID(9), events[0].Tx)
	assert.Equal(t, "2.5000", events[0].Amount.String())
}

func TestDecoder_HeaderOnlyOrEmptyBody(t *testing.T) {
	t.Parallel()

	events, err := decodeAll(t, "type,client,tx,amount\n")
	require.NoError(t, err)
	assert.Empty(t, events)

	events, err = decodeAll(t, "\ufefftype,client,tx\n\n\ndispute,2,3\n")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestDecoder_DisputeAmountIsIgnored(t *testing.T) {
	t.Parallel()

	events, err := decodeAll(t, "type,client,tx,amount\ndispute,1,1,3.0\n")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].Amount)
}

func TestDecoder_HeaderErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty input", "", "missing header"},
		{"missing tx column", "type,client,amount\n", `missing column "tx"`},
		{"duplicate column", "type,client,tx,client\n", "duplicate column"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := decodeAll(t, tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedRecord)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecoder_RecordErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		row    string
		column string
	}{
		{"unknown type", "transfer,1,1,1.0", "type"},
		{"client not a number", "deposit,abc,1,1.0", "client"},
		{"client out of range", "deposit,65536,1,1.0", "client"},
		{"negative client", "deposit,-1,1,1.0", "client"},
		{"tx out of range", "deposit,1,4294967296,1.0", "tx"},
		{"missing tx", "deposit,1,,1.0", "tx"},
		{"missing amount", "deposit,1,1,", "amount"},
		{"missing amount column", "withdrawal,1,1", "amount"},
		{"bad amount", "deposit,1,1,1.0.0", "amount"},
		{"too many decimals", "deposit,1,1,1.00001", "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			events, err := decodeAll(t, "type,client,tx,amount\ndeposit,1,1,1.0\n"+tt.row+"\n")
			require.Error(t, err)
			assert.Len(t, events, 1, "rows before the bad one decode")
			assert.ErrorIs(t, err, ErrMalformedRecord)
			assert.Contains(t, err.Error(), "line 3: "+tt.column)
		})
	}
}

func TestDecoder_AmountErrorsKeepParseCause(t *testing.T) {
	t.Parallel()

	_, err := decodeAll(t, "type,client,tx,amount\ndeposit,1,1,ten\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, currency.ErrParse)

	_, err = decodeAll(t, "type,client,tx,amount\ndeposit,1,1,900000000000001\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, currency.ErrOverflow)
}

func TestDecoder_FramingError(t *testing.T) {
	t.Parallel()

	_, err := decodeAll(t, "type,client,tx,amount\ndeposit,1,1,\"1.0\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestDecoder_DecodeRawRecords(t *testing.T) {
	t.Parallel()

	dec := NewDecoder(strings.NewReader("type,client,tx,amount\ndeposit,4,2,1\n\nresolve,4,2\n"))

	first, err := dec.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, 2, first.Line)

	second, err := dec.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, 4, second.Line)

	_, err = dec.ReadRecord()
	assert.ErrorIs(t, err, io.EOF)

	event, err := dec.Decode(second)
	require.NoError(t, err)
	assert.Equal(t, transaction.Resolve(4, 2), event)
}

func TestDecoder_DecodeBeforeHeader(t *testing.T) {
	t.Parallel()

	dec := NewDecoder(strings.NewReader("type,client,tx\n"))

	_, err := dec.Decode(Record{Line: 2, Fields: []string{"dispute", "1", "1"}})
	assert.ErrorIs(t, err, ErrMalformedRecord)
}
