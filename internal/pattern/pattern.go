package pattern

import (
	"github.com/cellux/cyclist/internal/rational"
	"github.com/cellux/cyclist/internal/timespan"
)

// Pattern is a pure function from a Query to the list of haps active (at
// least partially) within the query span. Nothing about a Pattern is
// mutable; every combinator below wraps its inputs in a new closure rather
// than modifying them. Mirrors the teacher's "represent a pattern as a
// trait/interface with a single query method" design note.
type Pattern[V any] interface {
	Query(q Query) []Hap[V]
}

// Func adapts a plain closure to the Pattern interface, the same adapter
// shape the teacher uses for Fun (a bare func(*VM) error satisfying Evaler).
type Func[V any] func(Query) []Hap[V]

func (f Func[V]) Query(q Query) []Hap[V] { return f(q) }

// Pure returns a pattern which repeats v once per cycle, with whole = [n,n+1)
// for every integer n touched by the query span.
func Pure[V any](v V) Pattern[V] {
	return Func[V](func(q Query) []Hap[V] {
		var haps []Hap[V]
		for _, sub := range q.Span.Cycles() {
			whole := timespan.New(sub.Begin.Sam(), sub.Begin.NextSam())
			w := whole
			haps = append(haps, Hap[V]{Whole: &w, Part: sub, Value: v, Context: q.controlsAsContext()})
		}
		return haps
	})
}

func (q Query) controlsAsContext() Context {
	if len(q.Controls) == 0 {
		return nil
	}
	ctx := make(Context, len(q.Controls))
	for k, v := range q.Controls {
		ctx[k] = v
	}
	return ctx
}

// Silence never produces any haps.
func Silence[V any]() Pattern[V] {
	return Func[V](func(Query) []Hap[V] { return nil })
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		if b > 0 {
			m += b
		} else {
			m -= b
		}
	}
	return m
}

func floorDivInt(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// SlowCat concatenates patterns one per cycle: on cycle n it plays
// ps[n mod k] as if that pattern were on its own cycle floor(n/k).
func SlowCat[V any](ps ...Pattern[V]) Pattern[V] {
	k := int64(len(ps))
	if k == 0 {
		return Silence[V]()
	}
	return Func[V](func(q Query) []Hap[V] {
		var haps []Hap[V]
		for _, sub := range q.Span.Cycles() {
			cyc := sub.Begin.Sam().Floor()
			idx := floorMod(cyc, k)
			offsetCycles := cyc - floorDivInt(cyc, k)
			offset := rational.FromInt(offsetCycles)
			shifted := sub.WithTime(func(t rational.Rational) rational.Rational { return t.Sub(offset) })
			sub := Query{Span: shifted, Controls: q.Controls}
			for _, h := range ps[idx].Query(sub) {
				haps = append(haps, h.WithSpans(func(s timespan.Span) timespan.Span {
					return s.WithTime(func(t rational.Rational) rational.Rational { return t.Add(offset) })
				}))
			}
		}
		return haps
	})
}

// FastCat packs all patterns into a single cycle: fastcat(p0..pk-1) =
// fast(k, slowcat(p0..pk-1)).
func FastCat[V any](ps ...Pattern[V]) Pattern[V] {
	k := len(ps)
	if k == 0 {
		return Silence[V]()
	}
	return Fast[V](rational.FromInt(int64(k)), SlowCat(ps...))
}

// Stack merges the haps of every pattern queried over the same span.
func Stack[V any](ps ...Pattern[V]) Pattern[V] {
	return Func[V](func(q Query) []Hap[V] {
		var haps []Hap[V]
		for _, p := range ps {
			haps = append(haps, p.Query(q)...)
		}
		return haps
	})
}

// Fast queries p over a span scaled by r and rescales the result times by
// 1/r. Slow(r, p) == Fast(1/r, p).
func Fast[V any](r rational.Rational, p Pattern[V]) Pattern[V] {
	if r.IsZero() {
		return Silence[V]()
	}
	if r.IsNegative() {
		return Rev(Fast(r.Neg(), p))
	}
	return Func[V](func(q Query) []Hap[V] {
		scaled := q.Span.WithTime(func(t rational.Rational) rational.Rational { return t.Mul(r) })
		inner := Query{Span: scaled, Controls: q.Controls}
		haps := p.Query(inner)
		out := make([]Hap[V], len(haps))
		for i, h := range haps {
			out[i] = h.WithSpans(func(s timespan.Span) timespan.Span {
				return s.WithTime(func(t rational.Rational) rational.Rational { return t.Div(r) })
			})
		}
		return out
	})
}

// Slow is Fast(1/r, p).
func Slow[V any](r rational.Rational, p Pattern[V]) Pattern[V] {
	return Fast(rational.One.Div(r), p)
}

// WithValue maps f over every hap's value.
func WithValue[V, W any](p Pattern[V], f func(V) W) Pattern[W] {
	return Func[W](func(q Query) []Hap[W] {
		src := p.Query(q)
		out := make([]Hap[W], len(src))
		for i, h := range src {
			out[i] = WithHapValue(h, f)
		}
		return out
	})
}

// Every applies f to p only on cycles where cycleIndex mod n == n-1; on all
// other cycles p is queried unchanged.
func Every[V any](n int, f func(Pattern[V]) Pattern[V], p Pattern[V]) Pattern[V] {
	if n <= 0 {
		return p
	}
	transformed := f(p)
	return Func[V](func(q Query) []Hap[V] {
		var haps []Hap[V]
		for _, sub := range q.Span.Cycles() {
			cyc := sub.Begin.Sam().Floor()
			active := transformed
			if floorMod(cyc, int64(n)) != int64(n-1) {
				active = p
			}
			haps = append(haps, active.Query(Query{Span: sub, Controls: q.Controls})...)
		}
		return haps
	})
}

// Rev reflects each hap within its own cycle. rev(rev(p)) == p.
func Rev[V any](p Pattern[V]) Pattern[V] {
	return Func[V](func(q Query) []Hap[V] {
		var haps []Hap[V]
		for _, sub := range q.Span.Cycles() {
			cycle := sub.Begin.Sam()
			nextCycle := cycle.Add(rational.One)
			k := cycle.Add(nextCycle)
			reflect := func(s timespan.Span) timespan.Span {
				return timespan.New(k.Sub(s.End), k.Sub(s.Begin))
			}
			reflected := reflect(sub)
			for _, h := range p.Query(Query{Span: reflected, Controls: q.Controls}) {
				haps = append(haps, h.WithSpans(reflect))
			}
		}
		sortHapsByPartBegin(haps)
		return haps
	})
}

func sortHapsByPartBegin[V any](haps []Hap[V]) {
	for i := 1; i < len(haps); i++ {
		j := i
		for j > 0 && haps[j-1].Part.Begin.GreaterThan(haps[j].Part.Begin) {
			haps[j-1], haps[j] = haps[j], haps[j-1]
			j--
		}
	}
}

// FilterHaps keeps only haps satisfying pred.
func FilterHaps[V any](p Pattern[V], pred func(Hap[V]) bool) Pattern[V] {
	return Func[V](func(q Query) []Hap[V] {
		src := p.Query(q)
		out := make([]Hap[V], 0, len(src))
		for _, h := range src {
			if pred(h) {
				out = append(out, h)
			}
		}
		return out
	})
}

// OnsetsOnly keeps only haps that represent the onset of their whole.
func OnsetsOnly[V any](p Pattern[V]) Pattern[V] {
	return FilterHaps(p, func(h Hap[V]) bool { return h.HasOnset() })
}

// Compress squeezes p into the sub-span [b,e) of every cycle, leaving the
// rest of the cycle silent. Used by mini-notation to place a group at its
// step position within an enclosing sequence.
func Compress[V any](b, e rational.Rational, p Pattern[V]) Pattern[V] {
	if b.GreaterThan(e) || b.GreaterThan(rational.One) || e.GreaterThan(rational.One) || b.IsNegative() || e.IsNegative() || b.Equal(e) {
		return Silence[V]()
	}
	dur := e.Sub(b)
	return FastOffset(dur, b, p)
}

// FastOffset speeds p up by 1/dur and places cycle n of p at
// [n+offset, n+offset+dur); the rest of every cycle is silent. Factored out
// of Compress so the cycle-shift arithmetic isn't duplicated inline.
func FastOffset[V any](dur, offset rational.Rational, p Pattern[V]) Pattern[V] {
	sped := Slow(dur, p)
	return Func[V](func(q Query) []Hap[V] {
		var haps []Hap[V]
		for _, sub := range q.Span.Cycles() {
			cyc := sub.Begin.Sam()
			start := cyc.Add(offset)
			part, ok := sub.Intersection(timespan.New(start, start.Add(dur)))
			if !ok {
				continue
			}
			// sped plays p's cycle n over [n*dur, (n+1)*dur).
			shiftAmt := start.Sub(cyc.Mul(dur))
			shift := func(t rational.Rational) rational.Rational { return t.Sub(shiftAmt) }
			unshift := func(t rational.Rational) rational.Rational { return t.Add(shiftAmt) }
			queried := part.WithTime(shift)
			for _, h := range sped.Query(Query{Span: queried, Controls: q.Controls}) {
				haps = append(haps, h.WithSpans(func(s timespan.Span) timespan.Span { return s.WithTime(unshift) }))
			}
		}
		return haps
	})
}

