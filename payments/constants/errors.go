package constant

import "errors"

var (
	// ErrInsufficientFunds maps to error code 0018.
	ErrInsufficientFunds = errors.New("0018")
	// ErrForeignTransaction maps to error code 0019.
	ErrForeignTransaction = errors.New("0019")
	// ErrAccountLocked maps to error code 0024.
	ErrAccountLocked = errors.New("0024")
	// ErrTransactionNotFound maps to error code 0034.
	ErrTransactionNotFound = errors.New("0034")
	// ErrDuplicateTransaction maps to error code 0073.
	ErrDuplicateTransaction = errors.New("0073")
	// ErrOverflow maps to error code 0097.
	ErrOverflow = errors.New("0097")
	// ErrParse maps to error code 1003.
	ErrParse = errors.New("1003")
	// ErrMalformedRecord maps to error code 1004.
	ErrMalformedRecord = errors.New("1004")
)
