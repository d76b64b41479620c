// Package num provides exact unsigned 256-bit integer arithmetic for
// monetary and volume quantities. All values are fixed-point integers at
// an explicit scale owned by the caller; this package never rounds, it
// only truncates on division.
package num

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Uint wraps uint256.Int so arithmetic stays explicit and copies stay
// intentional. The zero value is usable and equal to UintZero().
type Uint struct {
	u uint256.Int
}

// NewUint returns a Uint with the given uint64 value.
func NewUint(val uint64) *Uint {
	u := &Uint{}
	u.u.SetUint64(val)
	return u
}

// UintZero returns a new zero-valued Uint.
func UintZero() *Uint {
	return NewUint(0)
}

// UintFromString parses a base-10 string. The bool is true on failure
// (bad syntax or overflow past 2^256).
func UintFromString(s string) (*Uint, bool) {
	u := &Uint{}
	if err := u.u.SetFromDecimal(s); err != nil {
		return UintZero(), true
	}
	return u, false
}

// MustUintFromString parses a base-10 string and panics on failure.
// Reserved for constants and tests.
func MustUintFromString(s string) *Uint {
	u, failed := UintFromString(s)
	if failed {
		panic("num: invalid uint string: " + s)
	}
	return u
}

// UintFromBig converts a big.Int. The bool is true on failure (negative
// value or overflow past 2^256).
func UintFromBig(b *big.Int) (*Uint, bool) {
	if b.Sign() < 0 {
		return UintZero(), true
	}
	u := &Uint{}
	if overflow := u.u.SetFromBig(b); overflow {
		return UintZero(), true
	}
	return u, false
}

// BigInt returns an independent big.Int copy of u.
func (u *Uint) BigInt() *big.Int {
	return u.u.ToBig()
}

// UintTenToThe returns 10^exp. Panics if the result overflows 2^256
// (exp > 77), which never happens for token decimal exponents.
func UintTenToThe(exp uint8) *Uint {
	ten := NewUint(10)
	out := NewUint(1)
	for i := uint8(0); i < exp; i++ {
		out.Mul(out, ten)
	}
	return out
}

// Add sets u to x + y and returns u. Wraps on overflow like the
// underlying uint256; callers keep values far below 2^256 by scale
// construction.
func (u *Uint) Add(x, y *Uint) *Uint {
	u.u.Add(&x.u, &y.u)
	return u
}

// Sub sets u to x - y and returns u. Callers must ensure x >= y.
func (u *Uint) Sub(x, y *Uint) *Uint {
	u.u.Sub(&x.u, &y.u)
	return u
}

// Mul sets u to x * y and returns u.
func (u *Uint) Mul(x, y *Uint) *Uint {
	u.u.Mul(&x.u, &y.u)
	return u
}

// Div sets u to x / y truncated toward zero, and returns u.
// Division by zero yields zero, matching uint256; callers that treat a
// zero denominator as a configuration fault must check before dividing.
func (u *Uint) Div(x, y *Uint) *Uint {
	u.u.Div(&x.u, &y.u)
	return u
}

// AddSum adds all given values to u and returns u.
func (u *Uint) AddSum(vals ...*Uint) *Uint {
	for _, v := range vals {
		u.u.Add(&u.u, &v.u)
	}
	return u
}

// Sum returns a new Uint holding the sum of all given values.
func Sum(vals ...*Uint) *Uint {
	return UintZero().AddSum(vals...)
}

// Clone returns an independent copy of u.
func (u *Uint) Clone() *Uint {
	out := &Uint{}
	out.u.Set(&u.u)
	return out
}

// Set sets u to the value of x and returns u.
func (u *Uint) Set(x *Uint) *Uint {
	u.u.Set(&x.u)
	return u
}

// IsZero reports whether u is zero.
func (u *Uint) IsZero() bool {
	return u.u.IsZero()
}

// EQ reports u == o.
func (u *Uint) EQ(o *Uint) bool { return u.u.Eq(&o.u) }

// GT reports u > o.
func (u *Uint) GT(o *Uint) bool { return u.u.Gt(&o.u) }

// GTE reports u >= o.
func (u *Uint) GTE(o *Uint) bool { return !u.u.Lt(&o.u) }

// LT reports u < o.
func (u *Uint) LT(o *Uint) bool { return u.u.Lt(&o.u) }

// LTE reports u <= o.
func (u *Uint) LTE(o *Uint) bool { return !u.u.Gt(&o.u) }

// Uint64 returns the low 64 bits of u. Only meaningful when the caller
// knows the value fits.
func (u *Uint) Uint64() uint64 {
	return u.u.Uint64()
}

// String returns the base-10 representation.
func (u *Uint) String() string {
	return u.u.Dec()
}
