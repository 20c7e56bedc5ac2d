// Package currency provides the exact fixed-point amount type used by the
// payments engine.
//
// A Currency is a signed 64-bit integer scaled by 10,000, so every value
// carries exactly four implied decimal digits. Arithmetic goes through
// CheckedAdd and CheckedSub, which report ErrOverflow instead of wrapping once
// a result leaves the supported range of ±900 trillion major units.
//
// Values never round: text with more than four significant fractional digits
// is rejected with ErrParse.
package currency
