package pattern

// Bjorklund distributes pulses pulses across steps equal slots as evenly as
// possible, returning a boolean slice of length steps. It implements the
// classic Bjorklund grouping algorithm: build `pulses` groups of [true] and
// `steps-pulses` groups of [false], then repeatedly fold the trailing
// identical-count group onto the leading groups until only one group
// remains (or the remainder group count drops to one).
func Bjorklund(pulses, steps int) []bool {
	if steps <= 0 || pulses <= 0 {
		return make([]bool, max0(steps))
	}
	if pulses >= steps {
		out := make([]bool, steps)
		for i := range out {
			out[i] = true
		}
		return out
	}

	groupsA := make([][]bool, pulses)
	for i := range groupsA {
		groupsA[i] = []bool{true}
	}
	groupsB := make([][]bool, steps-pulses)
	for i := range groupsB {
		groupsB[i] = []bool{false}
	}

	for len(groupsB) > 1 {
		n := min(len(groupsA), len(groupsB))
		var newA [][]bool
		for i := 0; i < n; i++ {
			newA = append(newA, append(append([]bool{}, groupsA[i]...), groupsB[i]...))
		}
		var remainder [][]bool
		if len(groupsA) > n {
			remainder = append(remainder, groupsA[n:]...)
		} else if len(groupsB) > n {
			remainder = append(remainder, groupsB[n:]...)
		}
		groupsA, groupsB = newA, remainder
		if len(groupsA) <= 1 {
			break
		}
	}

	var out []bool
	for _, g := range groupsA {
		out = append(out, g...)
	}
	for _, g := range groupsB {
		out = append(out, g...)
	}
	return out
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// Euclid returns a pattern of bool haps, one per step of size 1/steps, true
// at the pulses distributed by Bjorklund and rotated by rotation steps.
func Euclid(pulses, steps, rotation int) Pattern[bool] {
	if steps <= 0 {
		return Silence[bool]()
	}
	pattern := Bjorklund(abs(pulses), steps)
	if pulses < 0 {
		for i := range pattern {
			pattern[i] = !pattern[i]
		}
	}
	rotated := rotateBools(pattern, rotation)
	ps := make([]Pattern[bool], len(rotated))
	for i, v := range rotated {
		ps[i] = Pure(v)
	}
	return FastCat(ps...)
}

func rotateBools(bs []bool, n int) []bool {
	l := len(bs)
	if l == 0 {
		return bs
	}
	n = ((n % l) + l) % l
	out := make([]bool, l)
	for i := range bs {
		out[i] = bs[(i+n)%l]
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// EuclidOnsets is a convenience that keeps only the onsets ("true" hits) of
// Euclid as a pattern of unit values, matching §4.2's "events of true
// become unit-value haps."
func EuclidOnsets(pulses, steps, rotation int) Pattern[struct{}] {
	e := Euclid(pulses, steps, rotation)
	onset := OnsetsOnly(FilterHaps(e, func(h Hap[bool]) bool { return h.Value }))
	return WithValue(onset, func(bool) struct{} { return struct{}{} })
}
