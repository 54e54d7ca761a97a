// Package frac provides the exact rational number used for every time and
// duration value in barline.
//
// Q is an immutable value: every operation returns a new Q and never mutates
// its receiver or arguments. The zero value is 0.
//
// Values are never approximated. Conversion to float64 exists only for the
// final rendering stage (spacing, raster preview).
package frac

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// Q is an exact, always-reduced fraction.
type Q struct {
	r *big.Rat // nil means 0
}

// Zero and One are shared constants. Q is immutable so sharing is safe.
var (
	Zero = Q{}
	One  = New(1, 1)
)

// New returns num/den. Panics if den is zero.
func New(num, den int64) Q {
	if den == 0 {
		panic("frac: zero denominator")
	}
	return Q{r: big.NewRat(num, den)}
}

// Int returns n/1.
func Int(n int64) Q {
	return New(n, 1)
}

// Parse reads "n/d" or "n". Whitespace around the parts is ignored.
func Parse(s string) (Q, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, fmt.Errorf("parse fraction: empty string")
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Zero, fmt.Errorf("parse fraction %q: invalid syntax", s)
	}
	return Q{r: r}, nil
}

// MustParse is like Parse but panics on error.
// Use only in tests or for compile-time constants.
func MustParse(s string) Q {
	q, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return q
}

func (q Q) rat() *big.Rat {
	if q.r == nil {
		return new(big.Rat)
	}
	return q.r
}

// Add returns q+o.
func (q Q) Add(o Q) Q { return Q{r: new(big.Rat).Add(q.rat(), o.rat())} }

// Sub returns q-o.
func (q Q) Sub(o Q) Q { return Q{r: new(big.Rat).Sub(q.rat(), o.rat())} }

// Mul returns q*o.
func (q Q) Mul(o Q) Q { return Q{r: new(big.Rat).Mul(q.rat(), o.rat())} }

// Div returns q/o. Panics if o is zero.
func (q Q) Div(o Q) Q {
	if o.IsZero() {
		panic("frac: division by zero")
	}
	return Q{r: new(big.Rat).Quo(q.rat(), o.rat())}
}

// MulInt returns q*n.
func (q Q) MulInt(n int64) Q { return q.Mul(Int(n)) }

// DivInt returns q/n.
func (q Q) DivInt(n int64) Q { return q.Div(Int(n)) }

// Neg returns -q.
func (q Q) Neg() Q { return Q{r: new(big.Rat).Neg(q.rat())} }

// Cmp compares q and o and returns -1, 0 or +1.
func (q Q) Cmp(o Q) int { return q.rat().Cmp(o.rat()) }

// Equal reports q == o.
func (q Q) Equal(o Q) bool { return q.Cmp(o) == 0 }

// Less reports q < o.
func (q Q) Less(o Q) bool { return q.Cmp(o) < 0 }

// LessEq reports q <= o.
func (q Q) LessEq(o Q) bool { return q.Cmp(o) <= 0 }

// Sign returns -1, 0 or +1.
func (q Q) Sign() int { return q.rat().Sign() }

// IsZero reports q == 0.
func (q Q) IsZero() bool { return q.Sign() == 0 }

// Positive reports q > 0.
func (q Q) Positive() bool { return q.Sign() > 0 }

// IsInt reports whether the denominator is 1.
func (q Q) IsInt() bool { return q.rat().IsInt() }

// Num returns the reduced numerator. Panics if it does not fit in int64.
func (q Q) Num() int64 {
	n := q.rat().Num()
	if !n.IsInt64() {
		panic("frac: numerator overflows int64")
	}
	return n.Int64()
}

// Denom returns the reduced, positive denominator. Panics if it does not fit in int64.
func (q Q) Denom() int64 {
	d := q.rat().Denom()
	if !d.IsInt64() {
		panic("frac: denominator overflows int64")
	}
	return d.Int64()
}

// DenomBig returns a copy of the reduced, positive denominator.
func (q Q) DenomBig() *big.Int { return new(big.Int).Set(q.rat().Denom()) }

// Floor returns the greatest integer <= q.
func (q Q) Floor() int64 {
	r := q.rat()
	z := new(big.Int)
	m := new(big.Int)
	z.DivMod(r.Num(), r.Denom(), m) // Euclidean: m >= 0 with a positive divisor
	return z.Int64()
}

// Ceil returns the least integer >= q.
func (q Q) Ceil() int64 {
	f := q.Floor()
	if q.IsInt() {
		return f
	}
	return f + 1
}

// Min returns the smaller of q and o.
func (q Q) Min(o Q) Q {
	if o.Less(q) {
		return o
	}
	return q
}

// Max returns the larger of q and o.
func (q Q) Max(o Q) Q {
	if q.Less(o) {
		return o
	}
	return q
}

// Float64 returns the nearest float64. Rendering only.
func (q Q) Float64() float64 {
	f, _ := q.rat().Float64()
	return f
}

// String returns "n/d", or "n" when q is an integer.
func (q Q) String() string {
	return q.rat().RatString()
}

// MarshalJSON encodes q as its String form.
func (q Q) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.String())
}

// UnmarshalJSON decodes the String form.
func (q *Q) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("fraction must be a string: %w", err)
	}
	p, err := Parse(s)
	if err != nil {
		return err
	}
	*q = p
	return nil
}

// MarshalYAML encodes q as its String form.
func (q Q) MarshalYAML() (any, error) {
	return q.String(), nil
}

// UnmarshalText decodes the String form. yaml.v3 uses it for scalar nodes.
func (q *Q) UnmarshalText(text []byte) error {
	p, err := Parse(string(text))
	if err != nil {
		return err
	}
	*q = p
	return nil
}

// GCD returns the greatest common divisor of a and b (non-negative).
func GCD(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// LCM returns the least common multiple of a and b. LCM(0, x) is x.
func LCM(a, b int64) int64 {
	if a == 0 {
		return b
	}
	if b == 0 {
		return a
	}
	return a / GCD(a, b) * b
}
