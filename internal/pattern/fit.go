package pattern

// Fit annotates each hap's control map with unit="c" and speed = 1/duration
// (in cycles), mapping a sample onto exactly one event's duration.
func Fit(p Pattern[Value]) Pattern[Value] {
	return Func[Value](func(q Query) []Hap[Value] {
		src := p.Query(q)
		out := make([]Hap[Value], len(src))
		for i, h := range src {
			dur := h.Duration()
			cm, ok := h.Value.(ControlMap)
			if ok {
				cm = cm.Clone()
			} else {
				cm = ControlMap{}
			}
			cm["unit"] = "c"
			if !dur.IsZero() {
				cm["speed"] = 1.0 / dur.Float64()
			}
			out[i] = h
			out[i].Value = Value(cm)
		}
		return out
	})
}
