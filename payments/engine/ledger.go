package engine

import (
	"github.com/LerianStudio/payments-engine/payments/currency"
	"github.com/LerianStudio/payments-engine/payments/transaction"
)

// record is the per-transaction entry kept for later disputes. The dispute
// status lives in a separate map so the common undisputed record stays small.
type record struct {
	amount currency.Currency
	client transaction.ClientID
	kind   transaction.Type
}

type ledger struct {
	records  map[transaction.TxID]record
	disputes map[transaction.TxID]transaction.DisputeStatus
}

func newLedger() *ledger {
	return &ledger{
		records:  make(map[transaction.TxID]record),
		disputes: make(map[transaction.TxID]transaction.DisputeStatus),
	}
}

func (l *ledger) exists(tx transaction.TxID) bool {
	_, ok := l.records[tx]
	return ok
}

func (l *ledger) insert(tx transaction.TxID, rec record) {
	l.records[tx] = rec
}

func (l *ledger) lookup(tx transaction.TxID) (record, bool) {
	rec, ok := l.records[tx]
	return rec, ok
}

// status returns StatusClean for transactions that were never disputed.
func (l *ledger) status(tx transaction.TxID) transaction.DisputeStatus {
	return l.disputes[tx]
}

func (l *ledger) setStatus(tx transaction.TxID, status transaction.DisputeStatus) {
	l.disputes[tx] = status
}

func (l *ledger) openDisputes() int {
	open := 0

	for _, status := range l.disputes {
		if status == transaction.StatusDisputed {
			open++
		}
	}

	return open
}
