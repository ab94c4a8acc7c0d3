// Package scheduler implements the "cyclist" audio-block scheduler and
// mixer of spec.md §4.5: queries the active pattern once per block,
// resolves triggered haps into voices, mixes them through per-orbit delay
// and duck buses, and normalises and soft-limits the master output.
// Grounded on the teacher's tape.go/mixtape.go block-render loop shape and
// util.go's Box[T] mutex hand-off for the live pattern swap.
package scheduler

import (
	"log/slog"
	"math"
	"sync"

	"github.com/cellux/cyclist/internal/orbit"
	"github.com/cellux/cyclist/internal/pattern"
	"github.com/cellux/cyclist/internal/rational"
	"github.com/cellux/cyclist/internal/timespan"
	"github.com/cellux/cyclist/internal/voice"
)

// SampleSource resolves a sample-bank name and index to decoded channel
// data, per spec.md §6's sample-bank contract. internal/samplebank.Bank
// satisfies this structurally.
type SampleSource interface {
	Get(name string, n int) (channels [][]float32, sampleRate float64, ok bool)
}

type voiceEntry struct {
	v     voice.Voice
	orbit int
	panL  float64
	panR  float64
}

// Cyclist is the scheduler/mixer state: current cycle cursor, active
// voices, per-orbit effects buses, and the installed pattern. The audio
// thread is the sole caller of Generate; SetPattern/Reset may be called
// from a different (control) thread, guarded by mu.
type Cyclist struct {
	mu sync.Mutex

	sampleRate float64
	tempo      *Tempo
	samples    SampleSource
	log        *slog.Logger

	cursor  rational.Rational
	pat     pattern.Pattern[pattern.Value]
	hasPat  bool
	voices  []*voiceEntry
	orbits  *orbit.Map
	smoothG float64
}

// New builds a Cyclist for sampleRate, sharing tempo with whatever else in
// the process reads/writes cps, and samples for resolving sample-bank
// names. log may be nil, in which case slog.Default() is used.
func New(sampleRate float64, tempo *Tempo, samples SampleSource, log *slog.Logger) *Cyclist {
	if log == nil {
		log = slog.Default()
	}
	return &Cyclist{
		sampleRate: sampleRate,
		tempo:      tempo,
		samples:    samples,
		log:        log,
		orbits:     orbit.NewMap(sampleRate),
		smoothG:    1,
	}
}

// SetPattern atomically installs p as the active pattern. A nil p clears
// it, stopping new triggers (already-active voices keep playing out).
func (c *Cyclist) SetPattern(p pattern.Pattern[pattern.Value]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pat = p
	c.hasPat = p != nil
}

// Reset zeroes the cursor and clears every active voice, per spec.md
// §4.5's reset() contract.
func (c *Cyclist) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cursor = rational.Zero
	c.voices = nil
}

func toMap(v pattern.Value) pattern.ControlMap {
	switch x := v.(type) {
	case pattern.ControlMap:
		return x
	case string:
		return pattern.ControlMap{"s": x}
	default:
		return pattern.ControlMap{}
	}
}

func getFloat(cm pattern.ControlMap, key string, def float64) float64 {
	v, ok := cm[key]
	if !ok {
		return def
	}
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	default:
		return def
	}
}

func hasKey(cm pattern.ControlMap, keys ...string) bool {
	for _, k := range keys {
		if _, ok := cm[k]; ok {
			return true
		}
	}
	return false
}

func getFloatAny(cm pattern.ControlMap, def float64, keys ...string) float64 {
	for _, k := range keys {
		if v, ok := cm[k]; ok {
			switch x := v.(type) {
			case float64:
				return x
			case int:
				return float64(x)
			}
		}
	}
	return def
}

func getString(cm pattern.ControlMap, key, def string) string {
	v, ok := cm[key]
	if !ok {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

func optFloat(cm pattern.ControlMap, key string) *float64 {
	if _, ok := cm[key]; !ok {
		return nil
	}
	f := getFloat(cm, key, 0)
	return &f
}

func noteToFreq(note float64) float64 {
	return 440 * math.Pow(2, (note-69)/12)
}

// resolveVoice builds a voice.Voice and its mixing metadata from one
// onset hap, per spec.md §4.5 step 3.
func (c *Cyclist) resolveVoice(cm pattern.ControlMap, holdSeconds float64) (voice.Voice, int, float64, bool) {
	name := getString(cm, "s", getString(cm, "sound", ""))

	gain := getFloat(cm, "gain", 1)
	if vel, ok := cm["velocity"]; ok {
		if v, ok := vel.(float64); ok {
			gain = v / 127
		}
	}

	orbitID := int(getFloat(cm, "orbit", 1))
	pan := getFloat(cm, "pan", 0.5)

	var attack, decay, sustain, release *float64
	hasADSR := hasKey(cm, "attack", "decay", "sustain", "release")
	if hasADSR {
		attack = optFloat(cm, "attack")
		decay = optFloat(cm, "decay")
		sustain = optFloat(cm, "sustain")
		release = optFloat(cm, "release")
	}

	params := voice.Params{
		Gain:           gain,
		HoldSeconds:    holdSeconds,
		HasHoldSeconds: true,
		Attack:         attack,
		Decay:          decay,
		Sustain:        sustain,
		Release:        release,
		HasADSR:        hasADSR,
	}

	if hasKey(cm, "lpf") {
		params.HasLpf = true
		params.Lpf = getFloat(cm, "lpf", 1000)
		params.Lpq = getFloat(cm, "lpq", 0.5)
		params.Lpenv = getFloat(cm, "lpenv", 0)
		params.Lpa = getFloat(cm, "lpa", 0)
		params.Lpd = getFloat(cm, "lpd", 0)
		params.Lps = getFloat(cm, "lps", 0)
		params.Lpr = getFloat(cm, "lpr", 0)
	}

	if fmi := getFloat(cm, "fmi", 0); fmi != 0 {
		params.HasFM = true
		params.Fmi = fmi
		params.Fmh = getFloat(cm, "fmh", 1)
		shape, ok := voice.ResolveShape(getString(cm, "fmwave", "sine"))
		if !ok {
			shape = voice.Sine
		}
		params.Fmwave = shape
	}

	if shape, ok := voice.ResolveShape(name); ok {
		freq := resolveFreq(cm)
		if detune := getFloat(cm, "detune", 0); detune != 0 && shape != voice.Supersaw {
			freq *= math.Pow(2, detune/12)
		}
		params.Shape = shape
		params.Freq = freq
		if shape == voice.Supersaw {
			params.SupersawVoices = int(getFloat(cm, "unison", 5))
			params.DetuneSemitones = getFloat(cm, "detune", 10)
			params.PanSpread = getFloat(cm, "spread", 0.5)
		}
		return voice.NewSynthVoice(params, c.sampleRate), orbitID, pan, true
	}

	if name == "" || c.samples == nil {
		return nil, orbitID, pan, false
	}
	n := int(getFloat(cm, "n", 0))
	channels, srcRate, ok := c.samples.Get(name, n)
	if !ok {
		// samplebank.Bank already logs this once per (name, n) key; an
		// onset that keeps referencing a missing sample shouldn't re-log
		// it on every cycle.
		return nil, orbitID, pan, false
	}
	speed := getFloat(cm, "speed", 1)
	return voice.NewSampleVoice(channels, srcRate, c.sampleRate, speed, gain, params), orbitID, pan, true
}

func resolveFreq(cm pattern.ControlMap) float64 {
	if f, ok := cm["frequency"]; ok {
		if v, ok := f.(float64); ok {
			return v
		}
	}
	if n, ok := cm["note"]; ok {
		if v, ok := n.(float64); ok {
			return noteToFreq(v)
		}
	}
	return 440
}

func (c *Cyclist) applyDelayConfig(orbitID int, cm pattern.ControlMap, cps float64) {
	if !hasKey(cm, "delay", "delaytime", "delayt", "dt", "delayfeedback", "delayfb", "dfb", "delaysync") {
		return
	}
	bus := c.orbits.Get(orbitID)
	cfg := bus.Delay.Config()
	if hasKey(cm, "delay") {
		cfg.Wet = getFloat(cm, "delay", cfg.Wet)
	}
	if hasKey(cm, "delaytime", "delayt", "dt") {
		cfg.Time = getFloatAny(cm, cfg.Time, "delaytime", "delayt", "dt")
	}
	if hasKey(cm, "delayfeedback", "delayfb", "dfb") {
		cfg.Feedback = getFloatAny(cm, cfg.Feedback, "delayfeedback", "delayfb", "dfb")
	}
	if hasKey(cm, "delaysync") {
		cfg.Time = orbit.ResolveDelayTime(cfg.Time, getFloat(cm, "delaysync", 0), true, cps)
	}
	bus.Delay.SetConfig(cfg)
}

func (c *Cyclist) applyDuck(cm pattern.ControlMap, sampleRate float64) {
	if !hasKey(cm, "duckorbit", "duck") {
		return
	}
	var raw interface{}
	if v, ok := cm["duckorbit"]; ok {
		raw = v
	} else {
		raw = cm["duck"]
	}
	targets := orbit.ParseOrbitIDs(raw)
	depth := getFloat(cm, "duckdepth", 0)
	onset := getFloat(cm, "duckonset", 0)
	attack := getFloat(cm, "duckattack", 0)
	for _, id := range targets {
		env := &orbit.DuckEnvelope{}
		env.Trigger(depth, onset, attack, sampleRate)
		c.orbits.AddDuck(id, env)
	}
}

// Generate renders n stereo frames, implementing spec.md §4.5's twelve-step
// per-block algorithm.
func (c *Cyclist) Generate(n int) (left, right []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	left = make([]float64, n)
	right = make([]float64, n)

	cps := c.tempo.Cps()
	if cps <= 0 {
		cps = 0.5
	}
	framesPerCycle := c.sampleRate / cps
	deltaCycles := rational.FromFloat(float64(n) / framesPerCycle)
	endCycle := c.cursor.Add(deltaCycles)

	if c.hasPat && c.pat != nil {
		haps := c.safeQuery(c.pat, timespan.New(c.cursor, endCycle))
		for _, h := range haps {
			if !h.HasOnset() {
				continue
			}
			cm := toMap(h.Value)
			holdSeconds := h.Duration().Float64() / cps
			v, orbitID, pan, ok := c.resolveVoice(cm, holdSeconds)
			if !ok {
				continue
			}
			c.applyDelayConfig(orbitID, cm, cps)
			c.applyDuck(cm, c.sampleRate)

			theta := pan * math.Pi / 2
			entry := &voiceEntry{v: v, orbit: orbitID, panL: math.Cos(theta), panR: math.Sin(theta)}
			c.voices = append(c.voices, entry)
		}
	}

	orbitBufL := make(map[int][]float64)
	orbitBufR := make(map[int][]float64)
	activeCount := len(c.voices)

	for _, e := range c.voices {
		bufL, ok := orbitBufL[e.orbit]
		if !ok {
			bufL = make([]float64, n)
			orbitBufL[e.orbit] = bufL
			orbitBufR[e.orbit] = make([]float64, n)
			c.orbits.Get(e.orbit) // register so its bus keeps running even once this voice ends
		}
		bufR := orbitBufR[e.orbit]

		vl := make([]float64, n)
		vr := make([]float64, n)
		e.v.Generate(vl, vr)
		for i := 0; i < n; i++ {
			bufL[i] += vl[i] * e.panL
			bufR[i] += vr[i] * e.panR
		}
	}

	// Every orbit ever touched keeps running its delay/duck buses every
	// block, even with no active voice this block, so a lingering echo or
	// sidechain ramp keeps decaying instead of freezing.
	silence := make([]float64, n)
	for _, orbitID := range c.orbits.Ids() {
		bufL, ok := orbitBufL[orbitID]
		bufR := silence
		if ok {
			bufR = orbitBufR[orbitID]
		} else {
			bufL = silence
		}
		bus := c.orbits.Get(orbitID)
		for i := 0; i < n; i++ {
			dl, dr := bus.Delay.Process(c.sampleRate, bufL[i], bufR[i])
			duckGain := c.orbits.DuckGain(orbitID)
			left[i] += dl * duckGain
			right[i] += dr * duckGain
		}
	}

	target := 1.0
	if activeCount > 1 {
		target = 1 / math.Sqrt(float64(activeCount))
	}
	for i := 0; i < n; i++ {
		c.smoothG = c.smoothG*0.999 + target*0.001
		left[i] *= c.smoothG
		right[i] *= c.smoothG
		left[i] = softLimit(left[i])
		right[i] = softLimit(right[i])
	}

	live := c.voices[:0]
	for _, e := range c.voices {
		if e.v.Playing() {
			live = append(live, e)
		}
	}
	c.voices = live

	c.cursor = endCycle
	return left, right
}

func softLimit(x float64) float64 {
	if math.Abs(x) > 0.8 {
		return math.Tanh(x)
	}
	return x
}

// safeQuery runs p.Query, recovering from a panic the way spec.md §4.5
// step 2 and §7 require: log it and produce no new voices for this block.
func (c *Cyclist) safeQuery(p pattern.Pattern[pattern.Value], span timespan.Span) []pattern.Hap[pattern.Value] {
	var haps []pattern.Hap[pattern.Value]
	func() {
		defer func() {
			if r := recover(); r != nil {
				c.log.Error("pattern query failed", "error", r)
			}
		}()
		haps = p.Query(pattern.Query{Span: span})
	}()
	return haps
}
