// Package timespan implements half-open intervals over cycles, as used by
// every pattern query and hap in cyclist.
package timespan

import (
	"fmt"

	"github.com/cellux/cyclist/internal/rational"
)

// Span is a half-open interval [Begin, End) measured in cycles.
type Span struct {
	Begin rational.Rational
	End   rational.Rational
}

// New builds a Span. It does not enforce Begin <= End; callers that need
// that invariant should check it explicitly (most combinators build spans
// from already-ordered endpoints).
func New(begin, end rational.Rational) Span {
	return Span{Begin: begin, End: end}
}

// Duration returns End - Begin.
func (s Span) Duration() rational.Rational {
	return s.End.Sub(s.Begin)
}

// Empty reports whether Begin == End.
func (s Span) Empty() bool {
	return s.Begin.Equal(s.End)
}

// WithTime applies f to both endpoints, returning a new Span.
func (s Span) WithTime(f func(rational.Rational) rational.Rational) Span {
	return Span{Begin: f(s.Begin), End: f(s.End)}
}

// Intersection returns the overlap of s and o, and whether it is non-empty.
// Two spans touching only at an endpoint (e.g. [0,1) and [1,2)) do not
// overlap, since spans are half-open.
func (s Span) Intersection(o Span) (Span, bool) {
	begin := s.Begin.Max(o.Begin)
	end := s.End.Min(o.End)
	if begin.GreaterThan(end) {
		return Span{}, false
	}
	if begin.Equal(end) {
		// Zero-width overlap is only meaningful when one of the source
		// spans was itself zero-width at that point (a point query).
		if s.Empty() && s.Begin.Equal(begin) {
			return Span{Begin: begin, End: end}, true
		}
		if o.Empty() && o.Begin.Equal(begin) {
			return Span{Begin: begin, End: end}, true
		}
		return Span{}, false
	}
	return Span{Begin: begin, End: end}, true
}

// Contains reports whether o lies entirely within s.
func (s Span) Contains(o Span) bool {
	return s.Begin.LessEqual(o.Begin) && o.End.LessEqual(s.End)
}

// Equal reports structural equality of the two spans' endpoints.
func (s Span) Equal(o Span) bool {
	return s.Begin.Equal(o.Begin) && s.End.Equal(o.End)
}

// Cycles splits s at every integer boundary into a list of contiguous
// subspans whose union is s. A zero-width span yields itself unchanged.
func (s Span) Cycles() []Span {
	if s.Begin.GreaterEqual(s.End) {
		return []Span{s}
	}
	var out []Span
	begin := s.Begin
	for begin.LessThan(s.End) {
		nextSam := begin.NextSam()
		end := nextSam.Min(s.End)
		out = append(out, Span{Begin: begin, End: end})
		begin = end
	}
	return out
}

func (s Span) String() string {
	return fmt.Sprintf("[%s,%s)", s.Begin, s.End)
}
