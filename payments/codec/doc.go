// Package codec reads transaction events from CSV and writes account
// snapshots and rejection reports.
//
// Input framing: a header row naming the columns (type, client, tx and an
// optional amount, in any order), then one event per row. Fields are trimmed
// and rows may omit the amount column. Any framing or field error is reported
// as constant.ErrMalformedRecord with the 1-based line number.
package codec
