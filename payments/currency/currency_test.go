package currency

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustParse parses text or fails the test.
func mustParse(t *testing.T, text string) Currency {
	t.Helper()

	c, err := Parse(text)
	require.NoError(t, err, "parse %q", text)

	return c
}

func mustDecimal(t *testing.T, integer int64, fraction string) Currency {
	t.Helper()

	c, err := FromDecimal(integer, fraction)
	require.NoError(t, err)

	return c
}

// ---------------------------------------------------------------------------
// Parse
// ---------------------------------------------------------------------------

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		units int64
	}{
		{name: "one digit fraction", input: "1.5", units: 15000},
		{name: "two digit fraction", input: "1.50", units: 15000},
		{name: "three digit fraction", input: "1.500", units: 15000},
		{name: "four digit fraction", input: "1.5000", units: 15000},
		{name: "integer only", input: "42", units: 420000},
		{name: "smallest unit", input: "1.0005", units: 10005},
		{name: "leading zero fraction", input: "1.0050", units: 10050},
		{name: "negative", input: "-1.5", units: -15000},
		{name: "negative below one", input: "-0.0005", units: -5},
		{name: "surrounding whitespace", input: "  2.75 ", units: 27500},
		{name: "trailing zeros past precision", input: "3.140000", units: 31400},
		{name: "zero", input: "0", units: 0},
		{name: "cap", input: "900000000000000", units: maxUnits},
		{name: "negative cap", input: "-900000000000000", units: -maxUnits},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.units, got.Units())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		target error
	}{
		{name: "empty", input: "", target: ErrParse},
		{name: "blank", input: "   ", target: ErrParse},
		{name: "letters", input: "abc", target: ErrParse},
		{name: "two dots", input: "1.2.3", target: ErrParse},
		{name: "exponent", input: "1e5", target: ErrParse},
		{name: "upper case exponent", input: "2.5E-2", target: ErrParse},
		{name: "five significant decimals", input: "1.00001", target: ErrParse},
		{name: "above cap", input: "900000000000000.0001", target: ErrOverflow},
		{name: "far above cap", input: "100000000000000000000", target: ErrOverflow},
		{name: "below negative cap", input: "-900000000000001", target: ErrOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "expected %v, got %v", tt.target, err)
		})
	}
}

// ---------------------------------------------------------------------------
// FromDecimal / FromUnits / FromDecimalValue
// ---------------------------------------------------------------------------

func TestFromDecimal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		integer  int64
		fraction string
		want     string
	}{
		{name: "half", integer: 10, fraction: "5", want: "10.5000"},
		{name: "leading zero", integer: 10, fraction: "05", want: "10.0500"},
		{name: "full precision", integer: 0, fraction: "0001", want: "0.0001"},
		{name: "no fraction", integer: 7, fraction: "", want: "7.0000"},
		{name: "negative", integer: -3, fraction: "25", want: "-3.2500"},
		{name: "cap", integer: MaxMajorUnits, fraction: "", want: "900000000000000.0000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := FromDecimal(tt.integer, tt.fraction)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFromDecimal_Errors(t *testing.T) {
	t.Parallel()

	_, err := FromDecimal(1, "00001")
	assert.ErrorIs(t, err, ErrParse)

	_, err = FromDecimal(1, "5a")
	assert.ErrorIs(t, err, ErrParse)

	_, err = FromDecimal(MaxMajorUnits+1, "")
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = FromDecimal(MaxMajorUnits, "1")
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestFromUnits(t *testing.T) {
	t.Parallel()

	c, err := FromUnits(maxUnits)
	require.NoError(t, err)
	assert.Equal(t, maxUnits, c.Units())

	_, err = FromUnits(maxUnits + 1)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = FromUnits(-maxUnits - 1)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestFromDecimalValue(t *testing.T) {
	t.Parallel()

	c, err := FromDecimalValue(decimal.RequireFromString("12.3456"))
	require.NoError(t, err)
	assert.Equal(t, int64(123456), c.Units())

	_, err = FromDecimalValue(decimal.RequireFromString("0.00005"))
	assert.ErrorIs(t, err, ErrParse)

	assert.True(t, c.Decimal().Equal(decimal.RequireFromString("12.3456")))
}

// ---------------------------------------------------------------------------
// Arithmetic
// ---------------------------------------------------------------------------

func TestCheckedAdd_IsExact(t *testing.T) {
	t.Parallel()

	sum, err := CheckedAdd(mustDecimal(t, 10, "5"), mustDecimal(t, 0, "5"))
	require.NoError(t, err)
	assert.Equal(t, mustDecimal(t, 11, ""), sum)

	sum, err = CheckedAdd(mustParse(t, "0.1"), mustParse(t, "0.2"))
	require.NoError(t, err)
	assert.Equal(t, mustParse(t, "0.3"), sum)

	sum, err = CheckedAdd(mustParse(t, "1.5"), mustParse(t, "-1.5"))
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
}

func TestCheckedSub(t *testing.T) {
	t.Parallel()

	diff, err := CheckedSub(mustParse(t, "4"), mustParse(t, "10"))
	require.NoError(t, err)
	assert.Equal(t, "-6.0000", diff.String())
	assert.True(t, diff.IsNegative())

	diff, err = CheckedSub(mustParse(t, "3"), mustParse(t, "3"))
	require.NoError(t, err)
	assert.True(t, diff.IsZero())
}

func TestCheckedArithmetic_OverflowAtCap(t *testing.T) {
	t.Parallel()

	top := mustParse(t, "900000000000000")
	bottom := mustParse(t, "-900000000000000")
	unit := mustParse(t, "0.0001")

	_, err := CheckedAdd(top, unit)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = CheckedAdd(bottom, Currency{units: -1})
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = CheckedSub(bottom, unit)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = CheckedSub(top, Currency{units: -1})
	assert.ErrorIs(t, err, ErrOverflow)

	// Adding the two extremes never wraps around int64.
	_, err = CheckedAdd(top, top)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = CheckedSub(bottom, top)
	assert.ErrorIs(t, err, ErrOverflow)

	got, err := CheckedSub(top, unit)
	require.NoError(t, err)
	assert.Equal(t, "899999999999999.9999", got.String())

	// Same inputs always fail the same way.
	for range 3 {
		_, err = CheckedAdd(top, unit)
		assert.ErrorIs(t, err, ErrOverflow)
	}
}

func TestCompare(t *testing.T) {
	t.Parallel()

	one := mustParse(t, "1")
	two := mustParse(t, "2")

	assert.Equal(t, -1, one.Cmp(two))
	assert.Equal(t, 1, two.Cmp(one))
	assert.Equal(t, 0, one.Cmp(one))
	assert.True(t, one.LessThan(two))
	assert.False(t, two.LessThan(one))
	assert.True(t, one.IsPositive())
	assert.False(t, Zero.IsPositive())
}

// ---------------------------------------------------------------------------
// Formatting
// ---------------------------------------------------------------------------

func TestString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		units int64
		want  string
	}{
		{units: 15000, want: "1.5000"},
		{units: -15000, want: "-1.5000"},
		{units: 10500, want: "1.0500"},
		{units: -10500, want: "-1.0500"},
		{units: 10050, want: "1.0050"},
		{units: 10005, want: "1.0005"},
		{units: -10005, want: "-1.0005"},
		{units: -5000, want: "-0.5000"},
		{units: 0, want: "0.0000"},
		{units: maxUnits, want: "900000000000000.0000"},
		{units: -maxUnits, want: "-900000000000000.0000"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, Currency{units: tt.units}.String())
		})
	}
}

func TestString_RoundTripsThroughParse(t *testing.T) {
	t.Parallel()

	for _, units := range []int64{0, 1, -1, 9999, 10000, -10001, 123456789, maxUnits, -maxUnits} {
		c := Currency{units: units}
		assert.Equal(t, c, mustParse(t, c.String()))
	}
}

func TestJSON(t *testing.T) {
	t.Parallel()

	payload, err := json.Marshal(struct {
		Amount Currency `json:"amount"`
	}{Amount: mustParse(t, "2.5")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":2.5000}`, string(payload))

	var decoded struct {
		Amount Currency `json:"amount"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"amount":"7.25"}`), &decoded))
	assert.Equal(t, "7.2500", decoded.Amount.String())

	require.NoError(t, json.Unmarshal([]byte(`{"amount":7.25}`), &decoded))
	assert.Equal(t, "7.2500", decoded.Amount.String())

	assert.Error(t, json.Unmarshal([]byte(`{"amount":"1.23456"}`), &decoded))
}
