package transaction

import (
	"errors"
	"fmt"

	"github.com/LerianStudio/payments-engine/payments/currency"
)

// ResolveOperation maps an event type to the balance operation it applies.
func ResolveOperation(t Type) (Operation, error) {
	switch t {
	case TypeDeposit:
		return OperationCredit, nil
	case TypeWithdrawal:
		return OperationDebit, nil
	case TypeDispute:
		return OperationOnHold, nil
	case TypeResolve:
		return OperationRelease, nil
	case TypeChargeback:
		return OperationChargeback, nil
	default:
		return "", NewDomainError(ErrorInvalidInput, "type", fmt.Sprintf("no operation for type %s", t))
	}
}

// ApplyPosting applies a posting transition to a balance and returns the new state.
//
// The input balance is never modified. Rejections are returned as DomainError;
// a currency overflow is returned wrapped with currency.ErrOverflow.
func ApplyPosting(balance Balance, posting Posting) (Balance, error) {
	if !posting.Amount.IsPositive() {
		return Balance{}, NewDomainError(ErrorInvalidInput, "posting.amount", "posting amount must be greater than zero")
	}

	// A locked account only honors disputes that were already open.
	if balance.Locked && posting.Operation != OperationRelease && posting.Operation != OperationChargeback {
		return Balance{}, NewDomainError(ErrorAccountLocked, "posting.operation", fmt.Sprintf("%s rejected on a locked account", posting.Operation))
	}

	result := balance

	var err error

	switch posting.Operation {
	case OperationCredit:
		// Total must stay representable, not just available.
		total, totalErr := balance.Total()
		if totalErr != nil {
			return Balance{}, totalErr
		}

		if _, err = currency.CheckedAdd(total, posting.Amount); err != nil {
			return Balance{}, fmt.Errorf("credit total: %w", err)
		}

		result.Available, err = currency.CheckedAdd(balance.Available, posting.Amount)
	case OperationDebit:
		result.Available, err = currency.CheckedSub(balance.Available, posting.Amount)
	case OperationOnHold:
		result.Available, err = currency.CheckedSub(balance.Available, posting.Amount)
		if err == nil {
			result.Held, err = currency.CheckedAdd(balance.Held, posting.Amount)
		}
	case OperationRelease:
		result.Held, err = currency.CheckedSub(balance.Held, posting.Amount)
		if err == nil {
			result.Available, err = currency.CheckedAdd(balance.Available, posting.Amount)
		}
	case OperationChargeback:
		result.Held, err = currency.CheckedSub(balance.Held, posting.Amount)
		result.Locked = true
	default:
		return Balance{}, NewDomainError(ErrorInvalidInput, "posting.operation", "unsupported operation")
	}

	if err != nil {
		return Balance{}, fmt.Errorf("%s %s: %w", posting.Operation, posting.Amount, err)
	}

	if result.Available.IsNegative() {
		return Balance{}, NewDomainError(ErrorInsufficientFunds, "posting.amount", "operation would result in negative available balance")
	}

	if result.Held.IsNegative() {
		return Balance{}, NewDomainError(ErrorInsufficientFunds, "posting.amount", "operation would result in negative held balance")
	}

	result.Version++

	return result, nil
}

// IsRejection reports whether err is a DomainError, i.e. an event that must
// be dropped without aborting the run.
func IsRejection(err error) bool {
	var domainErr DomainError

	return errors.As(err, &domainErr)
}
