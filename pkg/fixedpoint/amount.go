// Package fixedpoint provides the deterministic money math used by the
// settlement engine: unsigned fixed-precision amounts and an 18-decimal
// fixed-point ratio type. Every multiply/divide floors, and nothing in this
// package touches binary floating point, so independent replicas replay to
// byte-identical results.
package fixedpoint

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Amount is an unsigned fixed-precision token amount. The zero value is a
// usable zero amount.
type Amount struct {
	i uint256.Int
}

// NewAmount creates an Amount from a uint64.
func NewAmount(v uint64) Amount {
	var a Amount
	a.i.SetUint64(v)
	return a
}

// AmountFromString parses a base-10 integer string into an Amount.
func AmountFromString(s string) (Amount, error) {
	var a Amount
	err := a.i.SetFromDecimal(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return a, nil
}

// MustAmount parses a base-10 integer string and panics on failure.
// Intended for constants in tests and fixtures.
func MustAmount(s string) Amount {
	a, err := AmountFromString(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Add returns a + b. Panics on 256-bit overflow, which cannot be reached by
// any sequence of valid market transitions (inputs are 128-bit scale).
func (a Amount) Add(b Amount) Amount {
	var out Amount
	_, overflow := out.i.AddOverflow(&a.i, &b.i)
	if overflow {
		panic("fixedpoint: amount overflow")
	}
	return out
}

// Sub returns a - b, or an error when b exceeds a.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.i.Lt(&b.i) {
		return Amount{}, fmt.Errorf("amount underflow: %s - %s", a.String(), b.String())
	}
	var out Amount
	out.i.Sub(&a.i, &b.i)
	return out, nil
}

// MulDivFloor returns floor(a * num / den). Panics when den is zero.
func (a Amount) MulDivFloor(num, den Amount) Amount {
	if den.IsZero() {
		panic("fixedpoint: division by zero")
	}
	var prod uint256.Int
	_, overflow := prod.MulOverflow(&a.i, &num.i)
	if overflow {
		panic("fixedpoint: amount overflow")
	}
	var out Amount
	out.i.Div(&prod, &den.i)
	return out
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool {
	return a.i.IsZero()
}

// Cmp compares a and b, returning -1, 0 or 1.
func (a Amount) Cmp(b Amount) int {
	return a.i.Cmp(&b.i)
}

// LT reports a < b.
func (a Amount) LT(b Amount) bool {
	return a.i.Lt(&b.i)
}

// Uint64 returns the amount as a uint64. Panics when it does not fit;
// callers use it only for values they created from uint64s.
func (a Amount) Uint64() uint64 {
	if !a.i.IsUint64() {
		panic("fixedpoint: amount exceeds uint64")
	}
	return a.i.Uint64()
}

// String renders the amount as a base-10 integer.
func (a Amount) String() string {
	return a.i.Dec()
}

// MarshalJSON encodes the amount as a JSON string to avoid precision loss
// in consumers that parse numbers as floats.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON decodes an amount from a JSON string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := AmountFromString(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
