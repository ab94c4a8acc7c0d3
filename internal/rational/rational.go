// Package rational implements exact rational arithmetic over cycles.
//
// All pattern-time math in cyclist goes through this package rather than
// float64 so that spans and cycle boundaries stay exact across arbitrarily
// many cycles — the float rewrite rounds at the audio sample rather than
// inside the time algebra.
package rational

import (
	"fmt"
	"math"
)

// Rational is an exact fraction, always stored reduced with a positive
// denominator.
type Rational struct {
	num, den int64
}

// Zero, One and Half are common constants.
var (
	Zero = Rational{0, 1}
	One  = Rational{1, 1}
	Half = Rational{1, 2}
)

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

// New builds a reduced Rational from a numerator and denominator.
// It panics if den is zero, mirroring the teacher's fail-fast style for
// programmer errors rather than plumbing an error return through every
// arithmetic call site.
func New(num, den int64) Rational {
	if den == 0 {
		panic("rational: zero denominator")
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(num, den)
	return Rational{num / g, den / g}
}

// FromInt builds a whole-number Rational.
func FromInt(n int64) Rational { return Rational{n, 1} }

// FromFloat approximates f as a Rational with a bounded denominator,
// used when lowering mini-notation decimal literals.
func FromFloat(f float64) Rational {
	if f == math.Trunc(f) {
		return FromInt(int64(f))
	}
	const maxDen = 1_000_000_000
	den := int64(1)
	for den < maxDen {
		scaled := f * float64(den)
		if math.Abs(scaled-math.Round(scaled)) < 1e-9 {
			break
		}
		den *= 10
	}
	return New(int64(math.Round(f*float64(den))), den)
}

func (r Rational) Num() int64 { return r.num }
func (r Rational) Den() int64 { return r.den }

func (r Rational) Add(o Rational) Rational {
	return New(r.num*o.den+o.num*r.den, r.den*o.den)
}

func (r Rational) Sub(o Rational) Rational {
	return New(r.num*o.den-o.num*r.den, r.den*o.den)
}

func (r Rational) Mul(o Rational) Rational {
	return New(r.num*o.num, r.den*o.den)
}

func (r Rational) Div(o Rational) Rational {
	if o.num == 0 {
		panic("rational: division by zero")
	}
	return New(r.num*o.den, r.den*o.num)
}

func (r Rational) Neg() Rational { return Rational{-r.num, r.den} }

// Cmp returns -1, 0 or 1 as r is less than, equal to, or greater than o.
func (r Rational) Cmp(o Rational) int {
	lhs := r.num * o.den
	rhs := o.num * r.den
	switch {
	case lhs < rhs:
		return -1
	case lhs > rhs:
		return 1
	default:
		return 0
	}
}

func (r Rational) Equal(o Rational) bool      { return r.Cmp(o) == 0 }
func (r Rational) LessThan(o Rational) bool   { return r.Cmp(o) < 0 }
func (r Rational) LessEqual(o Rational) bool  { return r.Cmp(o) <= 0 }
func (r Rational) GreaterThan(o Rational) bool { return r.Cmp(o) > 0 }
func (r Rational) GreaterEqual(o Rational) bool { return r.Cmp(o) >= 0 }
func (r Rational) IsZero() bool               { return r.num == 0 }
func (r Rational) IsNegative() bool           { return r.num < 0 }

func (r Rational) Min(o Rational) Rational {
	if r.LessEqual(o) {
		return r
	}
	return o
}

func (r Rational) Max(o Rational) Rational {
	if r.GreaterEqual(o) {
		return r
	}
	return o
}

// Sam returns the start of the cycle containing r: floor(r).
func (r Rational) Sam() Rational {
	return FromInt(floorDiv(r.num, r.den))
}

// NextSam returns Sam(r) + 1.
func (r Rational) NextSam() Rational {
	return r.Sam().Add(One)
}

// CyclePos returns r - Sam(r), i.e. the position within its cycle, in [0,1).
func (r Rational) CyclePos() Rational {
	return r.Sub(r.Sam())
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Floor returns floor(r) as an int64.
func (r Rational) Floor() int64 { return floorDiv(r.num, r.den) }

// Ceil returns ceil(r) as an int64.
func (r Rational) Ceil() int64 {
	f := floorDiv(r.num, r.den)
	if (Rational{f, 1}).Equal(r) {
		return f
	}
	return f + 1
}

// Mod returns r mod o, with the sign of o (Euclidean floor-mod).
func (r Rational) Mod(o Rational) Rational {
	q := r.Div(o).Floor()
	return r.Sub(o.Mul(FromInt(q)))
}

// Float64 converts to a float64, used only at the audio-sample boundary.
func (r Rational) Float64() float64 {
	return float64(r.num) / float64(r.den)
}

func (r Rational) String() string {
	if r.den == 1 {
		return fmt.Sprintf("%d", r.num)
	}
	return fmt.Sprintf("%d/%d", r.num, r.den)
}
