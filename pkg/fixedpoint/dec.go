package fixedpoint

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// Decimals is the fixed number of fractional digits carried by Dec.
const Decimals = 18

// unit is 10^Decimals, the scale factor between Dec and its integer
// representation.
var unit = uint256.NewInt(0).Exp(uint256.NewInt(10), uint256.NewInt(Decimals))

// Dec is an unsigned fixed-point decimal with 18 fractional digits.
// All operations floor, matching the amount arithmetic, so a ratio computed
// here and applied to an Amount is reproducible on every replica.
type Dec struct {
	i uint256.Int
}

// ZeroDec returns 0.
func ZeroDec() Dec {
	return Dec{}
}

// OneDec returns 1.
func OneDec() Dec {
	var d Dec
	d.i.Set(unit)
	return d
}

// DecFromRatio returns floor(num/den) at 18-decimal precision.
// Panics when den is zero; callers guard the empty-pool case explicitly.
func DecFromRatio(num, den Amount) Dec {
	if den.IsZero() {
		panic("fixedpoint: ratio with zero denominator")
	}
	var scaled uint256.Int
	_, overflow := scaled.MulOverflow(&num.i, unit)
	if overflow {
		panic("fixedpoint: ratio overflow")
	}
	var d Dec
	d.i.Div(&scaled, &den.i)
	return d
}

// DecFromString parses a decimal string such as "2", "0.5" or "97000.25".
// At most 18 fractional digits are accepted.
func DecFromString(s string) (Dec, error) {
	whole, frac := s, ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		whole, frac = s[:idx], s[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > Decimals {
		return Dec{}, fmt.Errorf("parse decimal %q: more than %d fractional digits", s, Decimals)
	}

	var d Dec
	err := d.i.SetFromDecimal(whole)
	if err != nil {
		return Dec{}, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	d.i.Mul(&d.i, unit)

	if frac != "" {
		var fracInt uint256.Int
		err = fracInt.SetFromDecimal(frac)
		if err != nil {
			return Dec{}, fmt.Errorf("parse decimal %q: %w", s, err)
		}
		scale := uint256.NewInt(0).Exp(uint256.NewInt(10), uint256.NewInt(uint64(Decimals-len(frac))))
		fracInt.Mul(&fracInt, scale)
		d.i.Add(&d.i, &fracInt)
	}
	return d, nil
}

// MustDec parses a decimal string and panics on failure.
func MustDec(s string) Dec {
	d, err := DecFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Sub returns d - o, or an error when o exceeds d.
func (d Dec) Sub(o Dec) (Dec, error) {
	if d.i.Lt(&o.i) {
		return Dec{}, fmt.Errorf("decimal underflow: %s - %s", d.String(), o.String())
	}
	var out Dec
	out.i.Sub(&d.i, &o.i)
	return out, nil
}

// MulAmountFloor returns floor(a * d).
func (d Dec) MulAmountFloor(a Amount) Amount {
	var prod uint256.Int
	_, overflow := prod.MulOverflow(&a.i, &d.i)
	if overflow {
		panic("fixedpoint: amount overflow")
	}
	var out Amount
	out.i.Div(&prod, unit)
	return out
}

// IsZero reports whether d is zero.
func (d Dec) IsZero() bool {
	return d.i.IsZero()
}

// Cmp compares d and o, returning -1, 0 or 1.
func (d Dec) Cmp(o Dec) int {
	return d.i.Cmp(&o.i)
}

// GTE reports d >= o.
func (d Dec) GTE(o Dec) bool {
	return d.i.Cmp(&o.i) >= 0
}

// String renders the decimal with trailing fractional zeros trimmed:
// "2", "0.5", "0.333333333333333333".
func (d Dec) String() string {
	var whole, frac uint256.Int
	whole.Div(&d.i, unit)
	frac.Mod(&d.i, unit)
	if frac.IsZero() {
		return whole.Dec()
	}
	fracStr := frac.Dec()
	for len(fracStr) < Decimals {
		fracStr = "0" + fracStr
	}
	fracStr = strings.TrimRight(fracStr, "0")
	return whole.Dec() + "." + fracStr
}

// MarshalJSON encodes the decimal as a JSON string.
func (d Dec) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a decimal from a JSON string.
func (d *Dec) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := DecFromString(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
