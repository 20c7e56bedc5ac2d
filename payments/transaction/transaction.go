package transaction

import (
	"errors"
	"fmt"

	constant "github.com/LerianStudio/payments-engine/payments/constants"
	"github.com/LerianStudio/payments-engine/payments/currency"
)

// ClientID identifies a client account.
type ClientID uint16

// TxID identifies a deposit or withdrawal. Identifiers are unique across the input stream.
type TxID uint32

// Type is the kind of an input event.
type Type uint8

const (
	// TypeDeposit credits the client's available balance.
	TypeDeposit Type = iota + 1
	// TypeWithdrawal debits the client's available balance.
	TypeWithdrawal
	// TypeDispute holds the funds of a prior deposit or withdrawal.
	TypeDispute
	// TypeResolve releases held funds back to available.
	TypeResolve
	// TypeChargeback removes held funds and locks the account.
	TypeChargeback
)

// String returns the input name of the type, e.g. "deposit".
func (t Type) String() string {
	switch t {
	case TypeDeposit:
		return constant.DEPOSIT
	case TypeWithdrawal:
		return constant.WITHDRAWAL
	case TypeDispute:
		return constant.DISPUTE
	case TypeResolve:
		return constant.RESOLVE
	case TypeChargeback:
		return constant.CHARGEBACK
	default:
		return "unknown"
	}
}

// Disputable reports whether events of this type create a transaction record.
func (t Type) Disputable() bool {
	return t == TypeDeposit || t == TypeWithdrawal
}

// ParseType converts an input name into a Type.
func ParseType(name string) (Type, error) {
	switch name {
	case constant.DEPOSIT:
		return TypeDeposit, nil
	case constant.WITHDRAWAL:
		return TypeWithdrawal, nil
	case constant.DISPUTE:
		return TypeDispute, nil
	case constant.RESOLVE:
		return TypeResolve, nil
	case constant.CHARGEBACK:
		return TypeChargeback, nil
	}

	return 0, NewDomainError(ErrorInvalidInput, "type", fmt.Sprintf("unknown transaction type %q", name))
}

// DisputeStatus is the dispute lifecycle state of a deposit or withdrawal.
//
// Transitions:
//
//	CLEAN → DISPUTED
//	DISPUTED → RESOLVED | CHARGED_BACK
//	RESOLVED, CHARGED_BACK → (terminal)
type DisputeStatus uint8

const (
	// StatusClean marks a transaction that was never disputed.
	StatusClean DisputeStatus = iota
	// StatusDisputed marks a transaction whose amount is held.
	StatusDisputed
	// StatusResolved marks a dispute that was withdrawn; funds were restored.
	StatusResolved
	// StatusChargedBack marks a dispute that was upheld; funds were removed.
	StatusChargedBack
)

// String returns the status name.
func (s DisputeStatus) String() string {
	switch s {
	case StatusClean:
		return constant.CLEAN
	case StatusDisputed:
		return constant.DISPUTED
	case StatusResolved:
		return constant.RESOLVED
	case StatusChargedBack:
		return constant.CHARGEDBACK
	default:
		return "UNKNOWN"
	}
}

// Transition returns the status reached by applying an event of type t.
func (s DisputeStatus) Transition(t Type) (DisputeStatus, error) {
	switch {
	case t == TypeDispute && s == StatusClean:
		return StatusDisputed, nil
	case t == TypeResolve && s == StatusDisputed:
		return StatusResolved, nil
	case t == TypeChargeback && s == StatusDisputed:
		return StatusChargedBack, nil
	}

	return s, NewDomainError(
		ErrorInvalidStateTransition,
		"status",
		fmt.Sprintf("%s is not allowed on a %s transaction", t, s),
	)
}

// Event is one decoded input record. Amount is set for deposits and
// withdrawals and nil for the dispute family.
type Event struct {
	Type   Type               `json:"type"`
	Client ClientID           `json:"client"`
	Tx     TxID               `json:"tx"`
	Amount *currency.Currency `json:"amount,omitempty"`
}

// Validate checks that the event is structurally complete.
func (e Event) Validate() error {
	switch {
	case e.Type.Disputable():
		if e.Amount == nil {
			return NewDomainError(ErrorInvalidInput, "amount", fmt.Sprintf("%s requires an amount", e.Type))
		}
	case e.Type == TypeDispute, e.Type == TypeResolve, e.Type == TypeChargeback:
	default:
		return NewDomainError(ErrorInvalidInput, "type", "unsupported transaction type")
	}

	return nil
}

// Deposit builds a deposit event.
func Deposit(client ClientID, tx TxID, amount currency.Currency) Event {
	return Event{Type: TypeDeposit, Client: client, Tx: tx, Amount: &amount}
}

// Withdrawal builds a withdrawal event.
func Withdrawal(client ClientID, tx TxID, amount currency.Currency) Event {
	return Event{Type: TypeWithdrawal, Client: client, Tx: tx, Amount: &amount}
}

// Dispute builds a dispute event.
func Dispute(client ClientID, tx TxID) Event {
	return Event{Type: TypeDispute, Client: client, Tx: tx}
}

// Resolve builds a resolve event.
func Resolve(client ClientID, tx TxID) Event {
	return Event{Type: TypeResolve, Client: client, Tx: tx}
}

// Chargeback builds a chargeback event.
func Chargeback(client ClientID, tx TxID) Event {
	return Event{Type: TypeChargeback, Client: client, Tx: tx}
}

// ErrorCode is a domain error code used by transaction validations.
type ErrorCode string

const (
	// ErrorInsufficientFunds indicates available or held funds cannot cover the amount.
	ErrorInsufficientFunds ErrorCode = "0018"
	// ErrorForeignTransaction indicates the referenced transaction belongs to another client.
	ErrorForeignTransaction ErrorCode = "0019"
	// ErrorAccountLocked indicates the account was locked by a chargeback.
	ErrorAccountLocked ErrorCode = "0024"
	// ErrorTransactionNotFound indicates the referenced transaction does not exist.
	ErrorTransactionNotFound ErrorCode = "0034"
	// ErrorDuplicateTransaction indicates the transaction id was already used.
	ErrorDuplicateTransaction ErrorCode = "0073"
	// ErrorInvalidInput indicates the event payload failed validation.
	ErrorInvalidInput ErrorCode = "1001"
	// ErrorInvalidStateTransition indicates the dispute lifecycle forbids the event.
	ErrorInvalidStateTransition ErrorCode = "1002"
)

var codeSentinels = map[ErrorCode]error{
	ErrorInsufficientFunds:    constant.ErrInsufficientFunds,
	ErrorForeignTransaction:   constant.ErrForeignTransaction,
	ErrorAccountLocked:        constant.ErrAccountLocked,
	ErrorTransactionNotFound:  constant.ErrTransactionNotFound,
	ErrorDuplicateTransaction: constant.ErrDuplicateTransaction,
}

// DomainError represents a structured transaction rejection.
type DomainError struct {
	Code    ErrorCode
	Field   string
	Message string
}

// Error returns the formatted domain error string.
func (e DomainError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}

	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
}

// Is matches the shared sentinel registered for the error code, so
// errors.Is(err, constant.ErrInsufficientFunds) holds for code 0018.
func (e DomainError) Is(target error) bool {
	sentinel, ok := codeSentinels[e.Code]

	return ok && errors.Is(sentinel, target)
}

// NewDomainError creates a domain error with code, field, and message.
func NewDomainError(code ErrorCode, field, message string) error {
	return DomainError{Code: code, Field: field, Message: message}
}

// Balance is the state of one client account.
type Balance struct {
	Available currency.Currency `json:"available"`
	Held      currency.Currency `json:"held"`
	Locked    bool              `json:"locked"`
	Version   int64             `json:"version"`
}

// Total returns Available + Held.
func (b Balance) Total() (currency.Currency, error) {
	return currency.CheckedAdd(b.Available, b.Held)
}

// Operation represents the balance transition applied by a posting.
type Operation string

const (
	// OperationCredit increases available balance.
	OperationCredit Operation = "CREDIT"
	// OperationDebit decreases available balance.
	OperationDebit Operation = "DEBIT"
	// OperationOnHold moves value from available to held.
	OperationOnHold Operation = "ON_HOLD"
	// OperationRelease moves value from held back to available.
	OperationRelease Operation = "RELEASE"
	// OperationChargeback removes value from held and locks the account.
	OperationChargeback Operation = "CHARGEBACK"
)

// Posting is a concrete operation to apply against a balance.
type Posting struct {
	Operation Operation         `json:"operation"`
	Amount    currency.Currency `json:"amount"`
}
