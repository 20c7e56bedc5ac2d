package currency

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	constant "github.com/LerianStudio/payments-engine/payments/constants"
	"github.com/shopspring/decimal"
)

const (
	// Precision is the number of implied decimal digits.
	Precision = 4
	// Scale is the integer multiplier applied to major units.
	Scale int64 = 10_000
	// MaxMajorUnits is the largest magnitude, in major units, a Currency may hold.
	MaxMajorUnits int64 = 900_000_000_000_000

	maxUnits = MaxMajorUnits * Scale
)

var (
	// ErrOverflow is returned when a value or an arithmetic result exceeds MaxMajorUnits.
	ErrOverflow = constant.ErrOverflow
	// ErrParse is returned when text or parts do not describe a valid amount.
	ErrParse = constant.ErrParse

	maxUnitsDecimal = decimal.NewFromInt(maxUnits)
)

// Currency is an immutable amount with four implied decimal digits.
// The zero value is 0.0000.
type Currency struct {
	units int64
}

// Zero is the 0.0000 amount.
var Zero = Currency{}

// FromUnits builds a Currency from an already scaled integer (1.5 is 15000).
func FromUnits(units int64) (Currency, error) {
	if units > maxUnits || units < -maxUnits {
		return Zero, fmt.Errorf("%w: %d scaled units exceeds %d major units", ErrOverflow, units, MaxMajorUnits)
	}

	return Currency{units: units}, nil
}

// FromDecimal builds a Currency from an integer part and the digits written
// after the decimal point, so FromDecimal(10, "5") is 10.5000 and
// FromDecimal(10, "05") is 10.0500. fraction may hold at most four digits.
//
// The sign of integer applies to the whole amount; use Parse for negative
// amounts whose integer part is zero.
func FromDecimal(integer int64, fraction string) (Currency, error) {
	if len(fraction) > Precision {
		return Zero, fmt.Errorf("%w: fraction %q has more than %d digits", ErrParse, fraction, Precision)
	}

	var frac int64

	for _, r := range fraction {
		if r < '0' || r > '9' {
			return Zero, fmt.Errorf("%w: fraction %q is not a digit string", ErrParse, fraction)
		}

		frac = frac*10 + int64(r-'0')
	}

	for i := len(fraction); i < Precision; i++ {
		frac *= 10
	}

	if integer > MaxMajorUnits || integer < -MaxMajorUnits {
		return Zero, fmt.Errorf("%w: integer part %d exceeds %d major units", ErrOverflow, integer, MaxMajorUnits)
	}

	units := integer * Scale
	if integer < 0 {
		units -= frac
	} else {
		units += frac
	}

	return FromUnits(units)
}

// FromDecimalValue converts a shopspring decimal into a Currency. It fails
// with ErrParse when d carries a non-zero digit past the fourth decimal place.
func FromDecimalValue(d decimal.Decimal) (Currency, error) {
	scaled := d.Shift(Precision)
	if !scaled.IsInteger() {
		return Zero, fmt.Errorf("%w: %s has more than %d decimal digits", ErrParse, d, Precision)
	}

	if scaled.Abs().GreaterThan(maxUnitsDecimal) {
		return Zero, fmt.Errorf("%w: %s exceeds %d major units", ErrOverflow, d, MaxMajorUnits)
	}

	return Currency{units: scaled.IntPart()}, nil
}

// Parse reads a decimal amount such as "1.5", "-0.0005" or "42".
// Surrounding whitespace is ignored.
func Parse(text string) (Currency, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Zero, fmt.Errorf("%w: empty amount", ErrParse)
	}

	if strings.ContainsAny(trimmed, "eE") {
		return Zero, fmt.Errorf("%w: %q: exponent notation is not accepted", ErrParse, trimmed)
	}

	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q: %v", ErrParse, trimmed, err)
	}

	return FromDecimalValue(d)
}

// CheckedAdd returns a+b, or ErrOverflow when the sum leaves the supported range.
func CheckedAdd(a, b Currency) (Currency, error) {
	if (b.units > 0 && a.units > maxUnits-b.units) || (b.units < 0 && a.units < -maxUnits-b.units) {
		return Zero, fmt.Errorf("%w: %s + %s exceeds %d major units", ErrOverflow, a, b, MaxMajorUnits)
	}

	return Currency{units: a.units + b.units}, nil
}

// CheckedSub returns a-b, or ErrOverflow when the difference leaves the
// supported range. A negative difference is a valid result; deciding that it
// means "insufficient funds" is up to the caller.
func CheckedSub(a, b Currency) (Currency, error) {
	if (b.units < 0 && a.units > maxUnits+b.units) || (b.units > 0 && a.units < -maxUnits+b.units) {
		return Zero, fmt.Errorf("%w: %s - %s exceeds %d major units", ErrOverflow, a, b, MaxMajorUnits)
	}

	return Currency{units: a.units - b.units}, nil
}

// Units returns the scaled integer representation.
func (c Currency) Units() int64 {
	return c.units
}

// Cmp returns -1, 0 or +1 when c is less than, equal to or greater than other.
func (c Currency) Cmp(other Currency) int {
	switch {
	case c.units < other.units:
		return -1
	case c.units > other.units:
		return 1
	default:
		return 0
	}
}

// LessThan reports whether c < other.
func (c Currency) LessThan(other Currency) bool {
	return c.units < other.units
}

// IsZero reports whether c is 0.0000.
func (c Currency) IsZero() bool {
	return c.units == 0
}

// IsPositive reports whether c > 0.
func (c Currency) IsPositive() bool {
	return c.units > 0
}

// IsNegative reports whether c < 0.
func (c Currency) IsNegative() bool {
	return c.units < 0
}

// Decimal returns c as a shopspring decimal with exponent -4.
func (c Currency) Decimal() decimal.Decimal {
	return decimal.New(c.units, -Precision)
}

// String formats c with exactly four decimal digits, e.g. "-1.0500".
func (c Currency) String() string {
	units := c.units
	sign := ""

	if units < 0 {
		sign = "-"
		units = -units
	}

	frac := strconv.FormatInt(units%Scale, 10)

	return sign + strconv.FormatInt(units/Scale, 10) + "." + strings.Repeat("0", Precision-len(frac)) + frac
}

// MarshalJSON encodes c as a JSON number with four decimal digits.
func (c Currency) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (c *Currency) UnmarshalJSON(data []byte) error {
	text := string(bytes.Trim(data, `"`))
	if text == "null" {
		return fmt.Errorf("%w: null amount", ErrParse)
	}

	parsed, err := Parse(text)
	if err != nil {
		return err
	}

	*c = parsed

	return nil
}
