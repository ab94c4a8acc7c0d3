package scheduler

import "sync"

// Tempo is the engine's global cps state, guarded the same way the
// teacher's Box[T] (util.go) guards any value mutated from one thread and
// read from another: the control thread calls SetCps/SetBpm, the audio
// thread calls Cps at the start of every block.
type Tempo struct {
	mu  sync.Mutex
	cps float64
}

// NewTempo returns a Tempo initialised to spec.md §9's process-wide
// default, cps=0.5.
func NewTempo() *Tempo {
	return &Tempo{cps: 0.5}
}

// Cps returns the current cycles-per-second rate.
func (t *Tempo) Cps() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cps
}

// SetCps installs a new cycles-per-second rate.
func (t *Tempo) SetCps(cps float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cps = cps
}

// Cpm returns cycles per minute: cps*60.
func (t *Tempo) Cpm() float64 { return t.Cps() * 60 }

// Bpm returns beats per minute for bpc beats per cycle: cps*60*bpc.
func (t *Tempo) Bpm(bpc float64) float64 { return t.Cps() * 60 * bpc }

// SetBpm installs cps from a beats-per-minute value and a beats-per-cycle
// divisor (default 4): setbpm(bpm,bpc) == setcps(bpm/(60*bpc)).
func (t *Tempo) SetBpm(bpm, bpc float64) {
	if bpc == 0 {
		bpc = 4
	}
	t.SetCps(bpm / (60 * bpc))
}
