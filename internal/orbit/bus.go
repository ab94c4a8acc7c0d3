package orbit

// Bus holds one orbit's effects state: its delay line and any duck
// envelopes currently sidechained against it.
type Bus struct {
	Delay *Delay
	Ducks []*DuckEnvelope
}

// Map is the scheduler's orbit table. It grows lazily and never shrinks,
// per spec.md §5.
type Map struct {
	sampleRate float64
	buses      map[int]*Bus
}

// NewMap creates an empty orbit table for the given sample rate.
func NewMap(sampleRate float64) *Map {
	return &Map{sampleRate: sampleRate, buses: make(map[int]*Bus)}
}

// Get returns the bus for orbit id, creating it (with a fresh delay line)
// on first access.
func (m *Map) Get(id int) *Bus {
	b, ok := m.buses[id]
	if !ok {
		b = &Bus{Delay: NewDelay(m.sampleRate)}
		m.buses[id] = b
	}
	return b
}

// AddDuck attaches a freshly-triggered duck envelope to orbit id's bus.
func (m *Map) AddDuck(id int, env *DuckEnvelope) {
	b := m.Get(id)
	b.Ducks = append(b.Ducks, env)
}

// DuckGain returns the combined gain of every duck envelope sidechained
// against orbit id for the current sample, advancing and pruning finished
// envelopes as it goes.
func (m *Map) DuckGain(id int) float64 {
	b, ok := m.buses[id]
	if !ok {
		return 1
	}
	gain := 1.0
	live := b.Ducks[:0]
	for _, env := range b.Ducks {
		g := env.Step()
		gain *= g
		if env.stage != duckIdle {
			live = append(live, env)
		}
	}
	b.Ducks = live
	return gain
}

// Ids returns every orbit id that has been touched so far.
func (m *Map) Ids() []int {
	ids := make([]int, 0, len(m.buses))
	for id := range m.buses {
		ids = append(ids, id)
	}
	return ids
}
