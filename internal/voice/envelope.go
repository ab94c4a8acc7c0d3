package voice

import "math"

type adsrStage int

const (
	stageIdle adsrStage = iota
	stageAttack
	stageDecay
	stageSustain
	stageRelease
)

// AmpADSR is the linear, sample-count based amplitude envelope of
// spec.md §4.4. Defaults (synth and sample voices are identical):
// A=0.001, D=0.05, S=0.6, R=0.01 seconds; whenever any field is set
// explicitly, each field is floored at envMin (release at releaseMin).
type AmpADSR struct {
	Attack, Decay, Sustain, Release float64

	sampleRate float64
	stage      adsrStage
	level      float64
	stageStart float64 // level when the current stage began
	samplesIn  int
}

const (
	envMin     = 0.001
	releaseMin = 0.01
)

// DefaultAmpADSR returns the default envelope shared by synth and sample
// voices when no ADSR fields are supplied.
func DefaultAmpADSR() AmpADSR {
	return AmpADSR{Attack: 0.001, Decay: 0.05, Sustain: 0.6, Release: 0.01}
}

// NewAmpADSR builds an envelope from explicitly supplied fields (nil =
// unset, use the default for that field), flooring every set field per
// §4.4.
func NewAmpADSR(attack, decay, sustain, release *float64) AmpADSR {
	def := DefaultAmpADSR()
	a := def
	if attack != nil {
		a.Attack = math.Max(*attack, envMin)
	}
	if decay != nil {
		a.Decay = math.Max(*decay, envMin)
	}
	if sustain != nil {
		a.Sustain = math.Max(*sustain, envMin)
	}
	if release != nil {
		a.Release = math.Max(*release, releaseMin)
	}
	return a
}

// Trigger resets the envelope to the start of its attack stage.
func (e *AmpADSR) Trigger(sampleRate float64) {
	e.sampleRate = sampleRate
	e.stage = stageAttack
	e.stageStart = e.level
	e.samplesIn = 0
}

// Release moves the envelope into its release stage from whatever level
// it currently holds.
func (e *AmpADSR) Release() {
	if e.stage == stageIdle || e.stage == stageRelease {
		return
	}
	e.stage = stageRelease
	e.stageStart = e.level
	e.samplesIn = 0
}

// Idle reports whether the envelope has finished its release and produces
// silence.
func (e *AmpADSR) Idle() bool { return e.stage == stageIdle }

// Step advances the envelope by one sample and returns its current level.
func (e *AmpADSR) Step() float64 {
	switch e.stage {
	case stageIdle:
		return 0
	case stageAttack:
		n := int(e.Attack * e.sampleRate)
		if n <= 0 {
			e.level = 1
			e.stage = stageDecay
			e.stageStart = e.level
			e.samplesIn = 0
			break
		}
		t := float64(e.samplesIn) / float64(n)
		if t >= 1 {
			e.level = 1
			e.stage = stageDecay
			e.stageStart = e.level
			e.samplesIn = 0
		} else {
			e.level = e.stageStart + (1-e.stageStart)*t
			e.samplesIn++
		}
	case stageDecay:
		n := int(e.Decay * e.sampleRate)
		if n <= 0 {
			e.level = e.Sustain
			e.stage = stageSustain
			e.samplesIn = 0
			break
		}
		t := float64(e.samplesIn) / float64(n)
		if t >= 1 {
			e.level = e.Sustain
			e.stage = stageSustain
			e.samplesIn = 0
		} else {
			e.level = e.stageStart + (e.Sustain-e.stageStart)*t
			e.samplesIn++
		}
	case stageSustain:
		e.level = e.Sustain
	case stageRelease:
		n := int(e.Release * e.sampleRate)
		if n <= 0 {
			e.level = 0
			e.stage = stageIdle
			e.samplesIn = 0
			break
		}
		t := float64(e.samplesIn) / float64(n)
		if t >= 1 {
			e.level = 0
			e.stage = stageIdle
			e.samplesIn = 0
		} else {
			e.level = e.stageStart * (1 - t)
			e.samplesIn++
		}
	}
	return e.level
}

// FilterEnvelope is the octave-depth filter-cutoff envelope of spec.md
// §4.4. Segments interpolate exponentially via the same one-pole
// technique used for cutoff smoothing in biquad.go, rather than the
// linear ramps AmpADSR uses.
type FilterEnvelope struct {
	Attack, Decay, Sustain, Release float64
	Base, Depth                     float64 // cutoff base (Hz) and env depth (octaves, can be negative)

	sampleRate float64
	stage      adsrStage
	value      float64
	min, max   float64
}

// DefaultFilterEnvelope returns §4.4's stated defaults.
func DefaultFilterEnvelope() FilterEnvelope {
	return FilterEnvelope{Attack: 0.005, Decay: 0.14, Sustain: 0, Release: 0.1}
}

// filterEnvAnchor places the base cutoff at the geometric center of the
// envelope's excursion range; spec.md §4.4 leaves "anchor" unspecified,
// resolved here as 0.5 (see DESIGN.md).
const filterEnvAnchor = 0.5

// Trigger computes the min/max excursion bounds from base and depth and
// resets the envelope to its attack stage.
func (e *FilterEnvelope) Trigger(sampleRate float64) {
	e.sampleRate = sampleRate
	envAbs := math.Abs(e.Depth)
	offset := envAbs * filterEnvAnchor
	min := e.Base * math.Pow(2, -offset)
	max := e.Base * math.Pow(2, envAbs-offset)
	if e.Depth < 0 {
		min, max = max, min
	}
	e.min, e.max = min, max
	e.value = min
	e.stage = stageAttack
}

func (e *FilterEnvelope) Release() {
	if e.stage == stageIdle || e.stage == stageRelease {
		return
	}
	e.stage = stageRelease
}

func (e *FilterEnvelope) Idle() bool { return e.stage == stageIdle }

// expApproach advances value one sample toward target with time constant
// tau seconds, the same one-pole shape biquad.go uses for cutoff
// smoothing.
func expApproach(value, target, tau, sampleRate float64) float64 {
	if tau <= 0 {
		return target
	}
	coeff := math.Exp(-1 / (tau * sampleRate))
	return target + (value-target)*coeff
}

// Step advances the envelope by one sample and returns its current
// cutoff value, clamped to [0, 20000] per §4.4.
func (e *FilterEnvelope) Step() float64 {
	switch e.stage {
	case stageIdle:
		return clampCutoffRange(e.min)
	case stageAttack:
		e.value = expApproach(e.value, e.max, e.Attack, e.sampleRate)
		if math.Abs(e.value-e.max) < 1e-6*math.Max(1, math.Abs(e.max)) {
			e.stage = stageDecay
		}
	case stageDecay:
		sustainCutoff := e.min + e.Sustain*(e.max-e.min)
		e.value = expApproach(e.value, sustainCutoff, e.Decay, e.sampleRate)
		if math.Abs(e.value-sustainCutoff) < 1e-6*math.Max(1, math.Abs(sustainCutoff)) {
			e.stage = stageSustain
			e.value = sustainCutoff
		}
	case stageSustain:
		// held, no change
	case stageRelease:
		e.value = expApproach(e.value, e.min, e.Release, e.sampleRate)
		if math.Abs(e.value-e.min) < 1e-6*math.Max(1, math.Abs(e.min)) {
			e.stage = stageIdle
			e.value = e.min
		}
	}
	return clampCutoffRange(e.value)
}

func clampCutoffRange(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 20000 {
		return 20000
	}
	return v
}
