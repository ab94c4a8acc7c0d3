package mininotation

import (
	"github.com/cellux/cyclist/internal/pattern"
	"github.com/cellux/cyclist/internal/rational"
)

// Compile parses src as mini-notation and lowers it into a pattern
// combinator tree. filename is used only for error positions.
func Compile(filename, src string) (pattern.Pattern[pattern.Value], error) {
	top, err := parse(filename, src)
	if err != nil {
		return nil, err
	}
	return compileNode(top)
}

func compileNode(n node) (pattern.Pattern[pattern.Value], error) {
	switch v := n.(type) {
	case atomNode:
		return compileAtom(v), nil
	case restNode:
		return pattern.Silence[pattern.Value](), nil
	case groupNode:
		return compileNode(v.body)
	case slowcatNode:
		return compileSlowcat(v)
	case sequenceNode:
		return compileSequence(v)
	case stackNode:
		return compileStack(v)
	default:
		return nil, errf(n.pos(), "mini-notation: internal error: unknown node type %T", n)
	}
}

func compileAtom(a atomNode) pattern.Pattern[pattern.Value] {
	if a.n != nil {
		cm := pattern.ControlMap{"s": a.name, "n": float64(*a.n)}
		return pattern.Pure(pattern.Value(cm))
	}
	return pattern.Pure(pattern.Value(a.name))
}

func compileStack(s stackNode) (pattern.Pattern[pattern.Value], error) {
	ps := make([]pattern.Pattern[pattern.Value], len(s.seqs))
	for i, seq := range s.seqs {
		p, err := compileNode(seq)
		if err != nil {
			return nil, err
		}
		ps[i] = p
	}
	return pattern.Stack(ps...), nil
}

// expandReplicate turns every "a!n" element into n separate weight-1
// elements carrying the same inner node and no mod, per §4.3's "replicates
// a inline n times, increasing the enclosing sequence's step count."
func expandReplicate(elems []element) ([]element, error) {
	var out []element
	for _, el := range elems {
		if el.mod != nil && el.mod.kind == modRepeat {
			if el.elongate {
				return nil, errf(el.p, "mini-notation: elongate marker cannot take a '!' modifier")
			}
			count := int(el.mod.n)
			if count < 0 {
				count = 0
			}
			for i := 0; i < count; i++ {
				out = append(out, element{inner: el.inner, p: el.p})
			}
			continue
		}
		out = append(out, el)
	}
	return out, nil
}

type weightedStep struct {
	inner  node
	mod    *mod
	weight int
	p      pattern.Pattern[pattern.Value]
}

// compileSequence divides the cycle into weighted steps: a plain element
// has weight 1, and each trailing "_" merges into the previous step's
// weight instead of starting a new one, per §4.3's elongate semantics.
func compileSequence(s sequenceNode) (pattern.Pattern[pattern.Value], error) {
	elems, err := expandReplicate(s.elems)
	if err != nil {
		return nil, err
	}

	var steps []weightedStep
	for _, el := range elems {
		if el.elongate {
			if len(steps) == 0 {
				return nil, errf(el.p, "mini-notation: '_' with no preceding step")
			}
			steps[len(steps)-1].weight++
			continue
		}
		steps = append(steps, weightedStep{inner: el.inner, mod: el.mod, weight: 1})
	}
	if len(steps) == 0 {
		return nil, errf(s.p, "mini-notation: empty sequence")
	}

	for i := range steps {
		p, err := compileNode(steps[i].inner)
		if err != nil {
			return nil, err
		}
		if steps[i].mod != nil && steps[i].mod.kind == modFast {
			p = pattern.Fast(rational.FromFloat(steps[i].mod.n), p)
		}
		steps[i].p = p
	}

	total := 0
	for _, st := range steps {
		total += st.weight
	}

	var out []pattern.Pattern[pattern.Value]
	cum := 0
	for _, st := range steps {
		b := rational.New(int64(cum), int64(total))
		e := rational.New(int64(cum+st.weight), int64(total))
		cum += st.weight
		if b.Equal(e) {
			continue
		}
		out = append(out, pattern.Compress(b, e, st.p))
	}
	return pattern.Stack(out...), nil
}

// compileSlowcat lowers "< a b c >" into a SlowCat, resolving "_" by
// repeating the previously resolved element (§4.3: "inside <...> at cycle
// index i, it repeats the element at cycle index i-1").
func compileSlowcat(s slowcatNode) (pattern.Pattern[pattern.Value], error) {
	elems, err := expandReplicate(s.elems)
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, errf(s.p, "mini-notation: empty slowcat")
	}

	resolved := make([]element, len(elems))
	for i, el := range elems {
		if el.elongate {
			if i == 0 {
				return nil, errf(el.p, "mini-notation: '_' with no preceding element in '<...>'")
			}
			resolved[i] = resolved[i-1]
			continue
		}
		resolved[i] = el
	}

	ps := make([]pattern.Pattern[pattern.Value], len(resolved))
	for i, el := range resolved {
		p, err := compileNode(el.inner)
		if err != nil {
			return nil, err
		}
		if el.mod != nil && el.mod.kind == modFast {
			p = pattern.Fast(rational.FromFloat(el.mod.n), p)
		}
		ps[i] = p
	}
	return pattern.SlowCat(ps...), nil
}
