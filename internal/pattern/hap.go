// Package pattern implements the rational-time pattern algebra: patterns
// are pure functions from a query span to a list of discrete events
// ("haps"). Nothing is computed until a query runs — every combinator in
// this package returns a new lazy Pattern without touching its inputs.
package pattern

import (
	"fmt"

	"github.com/cellux/cyclist/internal/rational"
	"github.com/cellux/cyclist/internal/timespan"
)

// Value is the dynamic payload carried by a hap. Mini-notation atoms lower
// to either a bare string or a ControlMap; arithmetic patterns carry
// float64; euclid carries bool. Mirrors the teacher's own Val = any
// dynamic-value convention rather than introducing a closed sum type.
type Value = any

// ControlMap is an event's control-value vocabulary (§6): a mapping from
// control name to value, built up by SetControl applications as a mini-
// notation pattern is lowered and chained through the control builder.
type ControlMap map[string]Value

// Clone returns a shallow copy of m, used whenever a combinator needs to
// mutate a copy of an upstream control map without aliasing the original
// hap's value.
func (m ControlMap) Clone() ControlMap {
	out := make(ControlMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Context carries debugging/provenance metadata that rides along with a
// hap but never affects scheduling decisions.
type Context map[string]Value

// Hap is a single discrete event: a value active over Part, understood to
// conceptually belong to the larger Whole span when one exists (a hap with
// no Whole, e.g. produced by a filter, is a pure "part" fragment).
type Hap[V any] struct {
	Whole   *timespan.Span
	Part    timespan.Span
	Value   V
	Context Context
}

// HasOnset reports whether this hap's part begins at the same point as its
// whole — i.e. whether this hap represents the start of an event rather
// than a fragment carried over from a previous query.
func (h Hap[V]) HasOnset() bool {
	return h.Whole != nil && h.Whole.Begin.Equal(h.Part.Begin)
}

// WholeOrPart returns Whole if present, otherwise Part.
func (h Hap[V]) WholeOrPart() timespan.Span {
	if h.Whole != nil {
		return *h.Whole
	}
	return h.Part
}

// Duration returns the duration of WholeOrPart, the conventional notion of
// "how long this event lasts" used by the scheduler to size a voice hold.
func (h Hap[V]) Duration() rational.Rational {
	return h.WholeOrPart().Duration()
}

// WithSpans returns a copy of h with both Whole and Part remapped through f.
func (h Hap[V]) WithSpans(f func(timespan.Span) timespan.Span) Hap[V] {
	out := h
	out.Part = f(h.Part)
	if h.Whole != nil {
		w := f(*h.Whole)
		out.Whole = &w
	}
	return out
}

// WithHapValue returns a copy of h whose value is replaced by f(h.Value).
func WithHapValue[V, W any](h Hap[V], f func(V) W) Hap[W] {
	return Hap[W]{Whole: h.Whole, Part: h.Part, Value: f(h.Value), Context: h.Context}
}

func (h Hap[V]) String() string {
	if h.Whole == nil {
		return fmt.Sprintf("Hap(~,%v,%v)", h.Part, h.Value)
	}
	return fmt.Sprintf("Hap(%v,%v,%v)", *h.Whole, h.Part, h.Value)
}

// Query is a request to sample a pattern over a span, optionally carrying
// named controls visible to the patterns being queried (cps, etc).
type Query struct {
	Span     timespan.Span
	Controls map[string]Value
}
