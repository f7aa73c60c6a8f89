// Package gamemath holds the deterministic number types used by the simulation.
// Nothing in here touches float64 except the render-side conversions.
package gamemath

import (
	"errors"
	"math"
	"math/bits"
	"strconv"
)

// Q48.16 fixed point
const (
	FracBits       = 16
	One      Fixed = 1 << FracBits
	Half     Fixed = One >> 1

	maxInt = 1<<(63-FracBits) - 1
	minInt = -1 << (63 - FracBits)
)

// ErrOverflow is the panic value raised when an operation leaves the Q48.16 range.
var ErrOverflow = errors.New("gamemath: fixed-point overflow")

// Fixed is a signed fixed-point scalar with 48 integer and 16 fractional bits.
type Fixed int64

// FromInt converts an integer exactly.
func FromInt(i int64) Fixed {
	if i > maxInt || i < minInt {
		panic(ErrOverflow)
	}
	return Fixed(i << FracBits)
}

// FromRatio returns num/den truncated toward zero to the format resolution.
func FromRatio(num, den int64) Fixed {
	if den == 0 {
		panic(errors.New("gamemath: zero denominator"))
	}
	q, ok := CheckedDiv(Fixed(num), Fixed(den))
	if !ok {
		panic(ErrOverflow)
	}
	return q
}

// FromFloat64 is for input capture only; never call it from simulation code.
func FromFloat64(f float64) Fixed {
	if math.IsNaN(f) || math.Abs(f) >= float64(maxInt) {
		panic(ErrOverflow)
	}
	return Fixed(math.Round(f * float64(One)))
}

// ToFloat64 is for rendering only.
func (f Fixed) ToFloat64() float64 { return float64(f) / float64(One) }

// Int truncates toward negative infinity.
func (f Fixed) Int() int64 { return int64(f) >> FracBits }

func (f Fixed) Raw() int64 { return int64(f) }

func (f Fixed) String() string {
	return strconv.FormatFloat(f.ToFloat64(), 'f', -1, 64)
}

func (f Fixed) Add(g Fixed) Fixed {
	r, ok := CheckedAdd(f, g)
	if !ok {
		panic(ErrOverflow)
	}
	return r
}

func (f Fixed) Sub(g Fixed) Fixed {
	r, ok := CheckedSub(f, g)
	if !ok {
		panic(ErrOverflow)
	}
	return r
}

func (f Fixed) Mul(g Fixed) Fixed {
	r, ok := CheckedMul(f, g)
	if !ok {
		panic(ErrOverflow)
	}
	return r
}

func (f Fixed) Div(g Fixed) Fixed {
	r, ok := CheckedDiv(f, g)
	if !ok {
		panic(ErrOverflow)
	}
	return r
}

func (f Fixed) Neg() Fixed {
	if f == math.MinInt64 {
		panic(ErrOverflow)
	}
	return -f
}

func (f Fixed) Abs() Fixed {
	if f < 0 {
		return f.Neg()
	}
	return f
}

// CheckedAdd reports ok=false instead of wrapping.
func CheckedAdd(a, b Fixed) (Fixed, bool) {
	r := a + b
	// overflow iff both operands share a sign the result does not
	if (a >= 0) == (b >= 0) && (r >= 0) != (a >= 0) {
		return 0, false
	}
	return r, true
}

func CheckedSub(a, b Fixed) (Fixed, bool) {
	r := a - b
	if (a >= 0) != (b >= 0) && (r >= 0) != (a >= 0) {
		return 0, false
	}
	return r, true
}

// CheckedMul multiplies through a 128-bit product and truncates toward zero.
func CheckedMul(a, b Fixed) (Fixed, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	neg := (a < 0) != (b < 0)
	ua, ub := magnitude(a), magnitude(b)

	hi, lo := bits.Mul64(ua, ub)
	// the shifted result must fit in 63 bits
	if hi>>(FracBits-1) != 0 {
		return 0, false
	}
	u := hi<<(64-FracBits) | lo>>FracBits
	return signed(u, neg)
}

// CheckedDiv divides through a 128-bit dividend and truncates toward zero.
func CheckedDiv(a, b Fixed) (Fixed, bool) {
	if b == 0 {
		return 0, false
	}
	if a == 0 {
		return 0, true
	}
	neg := (a < 0) != (b < 0)
	ua, ub := magnitude(a), magnitude(b)

	hi := ua >> (64 - FracBits)
	lo := ua << FracBits
	if hi >= ub {
		return 0, false
	}
	q, _ := bits.Div64(hi, lo, ub)
	return signed(q, neg)
}

func magnitude(f Fixed) uint64 {
	if f < 0 {
		return uint64(-f)
	}
	return uint64(f)
}

func signed(u uint64, neg bool) (Fixed, bool) {
	if neg {
		if u > 1<<63 {
			return 0, false
		}
		return Fixed(-int64(u)), true
	}
	if u > math.MaxInt64 {
		return 0, false
	}
	return Fixed(u), true
}
