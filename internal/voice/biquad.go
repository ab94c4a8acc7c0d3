package voice

import "math"

// LowPass is a fixed low-pass response of the teacher's TPT state-variable
// filter core (svf.go's svfStepper/svfCoefficient), specialised to emit
// only the lowpass output and adding the cutoff smoothing and output
// clipping spec.md §4.4 calls for.
type LowPass struct {
	ic1eq, ic2eq float64
	smoothedCut  float64
	initialised  bool
}

const (
	minCutoffHz    = 20.0
	maxResonanceQ  = 50.0
	minResonanceQ  = 0.5
	cutoffSmoothA  = 0.99
	cutoffSnapHz   = 1.0
)

// maxCutoffHz returns 0.45*sampleRate, the upper clamp spec.md §4.4
// specifies.
func maxCutoffHz(sampleRate float64) float64 { return 0.45 * sampleRate }

func clampCutoff(hz, sampleRate float64) float64 {
	lo, hi := minCutoffHz, maxCutoffHz(sampleRate)
	if hz < lo {
		return lo
	}
	if hz > hi {
		return hi
	}
	return hz
}

func clampResonance(q float64) float64 {
	if q < minResonanceQ {
		return minResonanceQ
	}
	if q > maxResonanceQ {
		return maxResonanceQ
	}
	return q
}

// Step filters one sample with the given target cutoff (Hz, pre-clamp) and
// resonance Q, smoothing the cutoff toward its target with a one-pole
// filter (alpha=0.99) unless the gap is within 1 Hz, per spec.md §4.4.
func (f *LowPass) Step(x, cutoffHz, resonanceQ, sampleRate float64) float64 {
	target := clampCutoff(cutoffHz, sampleRate)
	q := clampResonance(resonanceQ)

	if !f.initialised {
		f.smoothedCut = target
		f.initialised = true
	} else if math.Abs(target-f.smoothedCut) <= cutoffSnapHz {
		f.smoothedCut = target
	} else {
		f.smoothedCut = f.smoothedCut*cutoffSmoothA + target*(1-cutoffSmoothA)
	}

	g := svfCoefficient(f.smoothedCut, sampleRate)
	k := 1 / q

	denom := 1 + g*(g+k)
	if denom == 0 {
		denom = 1e-9
	}
	a0 := 1 / denom
	a1 := g * a0
	a2 := g * a1

	v3 := x - f.ic2eq
	v1 := a0*f.ic1eq + a1*v3
	v2 := f.ic2eq + a1*f.ic1eq + a2*v3
	f.ic1eq = 2*v1 - f.ic1eq
	f.ic2eq = 2*v2 - f.ic2eq

	lp := v2
	return softClip(lp)
}

// svfCoefficient computes the one-pole TPT SVF coefficient
// tan(pi*min(0.499, f/sr)), identical to the teacher's svfCoefficient.
func svfCoefficient(cutoffHz, sampleRate float64) float64 {
	ratio := cutoffHz / sampleRate
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 0.499 {
		ratio = 0.499
	}
	return math.Tan(math.Pi * ratio)
}

// softClip bounds the filter's output to (-2,2), containing self-
// oscillation without the hard discontinuity of a plain clamp.
func softClip(x float64) float64 {
	return 2 * math.Tanh(x/2)
}
