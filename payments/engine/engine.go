package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/LerianStudio/payments-engine/payments/assert"
	"github.com/LerianStudio/payments-engine/payments/currency"
	"github.com/LerianStudio/payments-engine/payments/log"
	"github.com/LerianStudio/payments-engine/payments/opentelemetry/metrics"
	"github.com/LerianStudio/payments-engine/payments/transaction"
)

// ErrUnknownAccount is returned by Account for a client the engine has never seen.
var ErrUnknownAccount = errors.New("unknown account")

// ErrUnknownTransaction is returned by Transaction for an id with no record.
var ErrUnknownTransaction = errors.New("unknown transaction")

// Account is the reported state of one client.
type Account struct {
	Client    transaction.ClientID `json:"client"`
	Available currency.Currency    `json:"available"`
	Held      currency.Currency    `json:"held"`
	Total     currency.Currency    `json:"total"`
	Locked    bool                 `json:"locked"`
}

// TransactionRecord is the ledger entry kept for a deposit or withdrawal.
type TransactionRecord struct {
	Tx     transaction.TxID          `json:"tx"`
	Client transaction.ClientID      `json:"client"`
	Type   transaction.Type          `json:"type"`
	Amount currency.Currency         `json:"amount"`
	Status transaction.DisputeStatus `json:"status"`
}

// Stats summarizes what the engine has seen so far.
type Stats struct {
	Events       uint64
	Applied      uint64
	Rejected     uint64
	Accounts     int
	Locked       int
	Transactions int
	OpenDisputes int
	Rejections   map[transaction.ErrorCode]uint64
}

type slot struct {
	balance transaction.Balance
	open    bool
}

// Engine owns the account table and the transaction ledger.
type Engine struct {
	accounts []slot
	ledger   *ledger

	logger   log.Logger
	metrics  *metrics.MetricsFactory
	onReject func(Rejection)
	asserter *assert.Asserter

	opened   int
	locked   int
	events   uint64
	applied  uint64
	rejected map[transaction.ErrorCode]uint64
}

// New creates an empty Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		ledger:   newLedger(),
		logger:   log.NewNop(),
		metrics:  metrics.NewNopFactory(),
		rejected: make(map[transaction.ErrorCode]uint64),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.asserter = assert.New(e.logger, e.metrics, "engine")

	return e
}

// Apply processes one event. Business-rule violations drop the event and
// return nil; a non-nil error means the run cannot continue.
func (e *Engine) Apply(ctx context.Context, event transaction.Event) error {
	e.events++

	err := e.apply(ctx, event)
	if err == nil {
		e.applied++
		e.record(ctx, e.metrics.RecordEventProcessed(ctx, event.Type.String()))

		return nil
	}

	var domainErr transaction.DomainError
	if errors.As(err, &domainErr) {
		e.reject(ctx, event, domainErr)
		return nil
	}

	return fmt.Errorf("apply %s tx %d for client %d: %w", event.Type, event.Tx, event.Client, err)
}

func (e *Engine) apply(ctx context.Context, event transaction.Event) error {
	// Any reference opens the account, so a client whose every event is
	// dropped is still reported with zero balances.
	acct := e.account(ctx, event.Client)

	switch event.Type {
	case transaction.TypeDeposit, transaction.TypeWithdrawal:
		return e.transfer(ctx, acct, event)
	case transaction.TypeDispute, transaction.TypeResolve, transaction.TypeChargeback:
		return e.settle(ctx, acct, event)
	default:
		return transaction.NewDomainError(transaction.ErrorInvalidInput, "type", "unsupported transaction type")
	}
}

// account returns the slot for id, opening it on first reference.
func (e *Engine) account(ctx context.Context, id transaction.ClientID) *slot {
	if int(id) >= len(e.accounts) {
		e.accounts = append(e.accounts, make([]slot, int(id)+1-len(e.accounts))...)
	}

	acct := &e.accounts[id]
	if !acct.open {
		acct.open = true
		e.opened++
		e.record(ctx, e.metrics.RecordAccountCreated(ctx))
	}

	return acct
}

func (e *Engine) transfer(ctx context.Context, acct *slot, event transaction.Event) error {
	if event.Amount == nil {
		return transaction.NewDomainError(transaction.ErrorInvalidInput, "amount", fmt.Sprintf("%s requires an amount", event.Type))
	}

	if e.ledger.exists(event.Tx) {
		return transaction.NewDomainError(transaction.ErrorDuplicateTransaction, "tx", fmt.Sprintf("transaction %d already exists", event.Tx))
	}

	op, err := transaction.ResolveOperation(event.Type)
	if err != nil {
		return err
	}

	next, err := transaction.ApplyPosting(acct.balance, transaction.Posting{Operation: op, Amount: *event.Amount})
	if err != nil {
		return err
	}

	if err := e.check(ctx, event.Client, next); err != nil {
		return err
	}

	acct.balance = next
	e.ledger.insert(event.Tx, record{amount: *event.Amount, client: event.Client, kind: event.Type})

	return nil
}

func (e *Engine) settle(ctx context.Context, acct *slot, event transaction.Event) error {
	rec, ok := e.ledger.lookup(event.Tx)
	if !ok {
		return transaction.NewDomainError(transaction.ErrorTransactionNotFound, "tx", fmt.Sprintf("transaction %d not found", event.Tx))
	}

	if rec.client != event.Client {
		return transaction.NewDomainError(transaction.ErrorForeignTransaction, "client",
			fmt.Sprintf("transaction %d does not belong to client %d", event.Tx, event.Client))
	}

	status, err := e.ledger.status(event.Tx).Transition(event.Type)
	if err != nil {
		return err
	}

	op, err := transaction.ResolveOperation(event.Type)
	if err != nil {
		return err
	}

	wasLocked := acct.balance.Locked

	next, err := transaction.ApplyPosting(acct.balance, transaction.Posting{Operation: op, Amount: rec.amount})
	if err != nil {
		return err
	}

	if err := e.check(ctx, event.Client, next); err != nil {
		return err
	}

	acct.balance = next
	e.ledger.setStatus(event.Tx, status)

	switch {
	case status == transaction.StatusDisputed:
		e.record(ctx, e.metrics.RecordDisputeOpened(ctx))
	case next.Locked && !wasLocked:
		e.locked++
		e.record(ctx, e.metrics.RecordAccountLocked(ctx))
		e.logger.Log(ctx, log.LevelInfo, "account locked by chargeback",
			log.Client(uint16(event.Client)), log.Tx(uint32(event.Tx)))
	}

	return nil
}

// check verifies the balance invariants before a posting is committed.
func (e *Engine) check(ctx context.Context, id transaction.ClientID, b transaction.Balance) error {
	if err := e.asserter.That(ctx, !b.Available.IsNegative() && !b.Held.IsNegative(),
		"balances must not be negative", "client", id, "available", b.Available, "held", b.Held); err != nil {
		return err
	}

	_, err := b.Total()

	return e.asserter.NoError(ctx, err, "total must be representable", "client", id)
}

func (e *Engine) reject(ctx context.Context, event transaction.Event, domainErr transaction.DomainError) {
	e.rejected[domainErr.Code]++
	e.record(ctx, e.metrics.RecordEventRejected(ctx, event.Type.String(), string(domainErr.Code)))

	if e.logger.Enabled(log.LevelDebug) {
		e.logger.Log(ctx, log.LevelDebug, "event rejected",
			log.String("type", event.Type.String()),
			log.Client(uint16(event.Client)),
			log.Tx(uint32(event.Tx)),
			log.String("code", string(domainErr.Code)),
			log.String("reason", domainErr.Message),
		)
	}

	if e.onReject != nil {
		e.onReject(Rejection{Event: event, Err: domainErr})
	}
}

// record logs a failed metric write; metrics never change the outcome of an event.
func (e *Engine) record(ctx context.Context, err error) {
	if err != nil {
		e.logger.Log(ctx, log.LevelWarn, "failed to record metric", log.Err(err))
	}
}

// Account returns the state of one client.
func (e *Engine) Account(id transaction.ClientID) (Account, error) {
	if int(id) >= len(e.accounts) || !e.accounts[id].open {
		return Account{}, fmt.Errorf("%w: client %d", ErrUnknownAccount, id)
	}

	return view(id, e.accounts[id].balance)
}

// Snapshot returns every known account ordered by client id.
func (e *Engine) Snapshot() ([]Account, error) {
	out := make([]Account, 0, e.opened)

	for i := range e.accounts {
		if !e.accounts[i].open {
			continue
		}

		acct, err := view(transaction.ClientID(i), e.accounts[i].balance)
		if err != nil {
			return nil, err
		}

		out = append(out, acct)
	}

	return out, nil
}

func view(id transaction.ClientID, b transaction.Balance) (Account, error) {
	total, err := b.Total()
	if err != nil {
		return Account{}, fmt.Errorf("client %d total: %w", id, err)
	}

	return Account{Client: id, Available: b.Available, Held: b.Held, Total: total, Locked: b.Locked}, nil
}

// Transaction returns the ledger entry for tx.
func (e *Engine) Transaction(tx transaction.TxID) (TransactionRecord, error) {
	rec, ok := e.ledger.lookup(tx)
	if !ok {
		return TransactionRecord{}, fmt.Errorf("%w: tx %d", ErrUnknownTransaction, tx)
	}

	return TransactionRecord{
		Tx:     tx,
		Client: rec.client,
		Type:   rec.kind,
		Amount: rec.amount,
		Status: e.ledger.status(tx),
	}, nil
}

// Stats returns counters for the events applied so far.
func (e *Engine) Stats() Stats {
	rejections := make(map[transaction.ErrorCode]uint64, len(e.rejected))

	var rejected uint64

	for code, n := range e.rejected {
		rejections[code] = n
		rejected += n
	}

	return Stats{
		Events:       e.events,
		Applied:      e.applied,
		Rejected:     rejected,
		Accounts:     e.opened,
		Locked:       e.locked,
		Transactions: len(e.ledger.records),
		OpenDisputes: e.ledger.openDisputes(),
		Rejections:   rejections,
	}
}
