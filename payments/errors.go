package payments

import (
	"errors"

	constant "github.com/LerianStudio/payments-engine/payments/constants"
)

// Response is an operator-facing error with a stable code.
type Response struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	Err        error  `json:"-"`
}

func (e Response) Error() string {
	if e.Err == nil {
		return e.Code + " " + e.Title + ": " + e.Message
	}

	return e.Code + " " + e.Title + ": " + e.Message + ": " + e.Err.Error()
}

func (e Response) Unwrap() error {
	return e.Err
}

var businessErrors = []struct {
	sentinel error
	title    string
	message  string
}{
	{constant.ErrMalformedRecord, "Malformed Input", "The input could not be decoded. Fix the reported line and run again."},
	{constant.ErrOverflow, "Overflow Error", "An amount or balance exceeded the supported range. The run was aborted."},
	{constant.ErrParse, "Invalid Amount", "An amount could not be parsed as a decimal with at most four fractional digits."},
	{constant.ErrInsufficientFunds, "Insufficient Funds", "The account does not hold enough available funds."},
	{constant.ErrAccountLocked, "Account Locked", "The account was locked by a chargeback and accepts no further activity."},
	{constant.ErrDuplicateTransaction, "Duplicate Transaction", "The transaction id was already used."},
	{constant.ErrTransactionNotFound, "Transaction Not Found", "The referenced transaction does not exist."},
	{constant.ErrForeignTransaction, "Foreign Transaction", "The referenced transaction belongs to another client."},
}

// ValidateBusinessError maps err to a Response when it wraps a known
// sentinel, keeping err as the cause. Other errors are returned unchanged.
func ValidateBusinessError(err error, entityType string) error {
	if err == nil {
		return nil
	}

	for _, be := range businessErrors {
		if errors.Is(err, be.sentinel) {
			return Response{
				EntityType: entityType,
				Code:       be.sentinel.Error(),
				Title:      be.title,
				Message:    be.message,
				Err:        err,
			}
		}
	}

	return err
}
