package pattern

import (
	"math"

	"github.com/cellux/cyclist/internal/timespan"
)

// InnerJoin combines two patterns structurally driven by the left pattern:
// for every hap L of left, right is queried over L's whole-or-part, and for
// every hap R of right overlapping L's part, one output hap is emitted with
// part = L.Part ∩ R.Part, whole = L.Whole ∩ R.Whole (when both present), and
// value = combine(L.Value, R.Value). The left pattern drives onsets; the
// right pattern only supplies values, which is why a right-side pure scalar
// lifted via Pure still honours the left's structure.
func InnerJoin[L, R, O any](left Pattern[L], right Pattern[R], combine func(L, R) O) Pattern[O] {
	return Func[O](func(q Query) []Hap[O] {
		var out []Hap[O]
		for _, l := range left.Query(q) {
			rq := Query{Span: l.WholeOrPart(), Controls: q.Controls}
			for _, r := range right.Query(rq) {
				part, ok := l.Part.Intersection(r.Part)
				if !ok {
					continue
				}
				var whole *timespan.Span
				if l.Whole != nil && r.Whole != nil {
					if w, ok := l.Whole.Intersection(*r.Whole); ok {
						whole = &w
					}
				}
				out = append(out, Hap[O]{
					Whole:   whole,
					Part:    part,
					Value:   combine(l.Value, r.Value),
					Context: mergeContext(l.Context, r.Context),
				})
			}
		}
		return out
	})
}

func mergeContext(l, r Context) Context {
	if len(l) == 0 {
		return r
	}
	if len(r) == 0 {
		return l
	}
	out := make(Context, len(l)+len(r))
	for k, v := range l {
		out[k] = v
	}
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Lift wraps a scalar as a whole-cycle constant pattern, used whenever a
// combinator's right operand is a bare value rather than a Pattern.
func Lift[V any](v V) Pattern[V] { return Pure(v) }

// Add, Sub, Mul, Div and Pow implement the spec's inner-join arithmetic over
// numeric patterns.
func Add(l, r Pattern[float64]) Pattern[float64] {
	return InnerJoin(l, r, func(a, b float64) float64 { return a + b })
}

func Sub(l, r Pattern[float64]) Pattern[float64] {
	return InnerJoin(l, r, func(a, b float64) float64 { return a - b })
}

func Mul(l, r Pattern[float64]) Pattern[float64] {
	return InnerJoin(l, r, func(a, b float64) float64 { return a * b })
}

func Div(l, r Pattern[float64]) Pattern[float64] {
	return InnerJoin(l, r, func(a, b float64) float64 { return a / b })
}

func Pow(l, r Pattern[float64]) Pattern[float64] {
	return InnerJoin(l, r, func(a, b float64) float64 {
		return math.Pow(a, b)
	})
}

// SetControl applies valuePat's value under key onto the left pattern's
// control map, via inner join. If a left value is not already a
// ControlMap, it is wrapped into a fresh one first — the behaviour spec.md
// §9 calls out explicitly for the "gain" surface helper and friends.
func SetControl[R any](left Pattern[Value], key string, valuePat Pattern[R]) Pattern[Value] {
	return InnerJoin(left, valuePat, func(l Value, r R) Value {
		cm, ok := l.(ControlMap)
		if !ok {
			cm = ControlMap{}
		} else {
			cm = cm.Clone()
		}
		cm[key] = r
		return Value(cm)
	})
}
