// Package orbit implements the per-orbit effects buses of spec.md §4.5:
// a stereo feedback delay line and a sidechain duck envelope, each keyed
// by orbit id. Grounded on the teacher's comb.go feedback comb filter,
// generalized from a mono single-purpose comb into a stereo wet/dry delay
// with its own configurable feedback and time.
package orbit

import "math"

const maxDelaySeconds = 10.0

// DelayConfig is the orbit's current delay settings, clamped per
// spec.md §4.5 step 7.
type DelayConfig struct {
	Wet      float64 // 0..1
	Time     float64 // seconds, 0..10
	Feedback float64 // 0..0.999
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampDelayConfig bounds every field to the ranges spec.md §4.5 step 7
// specifies.
func ClampDelayConfig(cfg DelayConfig) DelayConfig {
	return DelayConfig{
		Wet:      clamp(cfg.Wet, 0, 1),
		Time:     clamp(cfg.Time, 0, maxDelaySeconds),
		Feedback: clamp(cfg.Feedback, 0, 0.999),
	}
}

// ResolveDelayTime converts a delaysync value (cycles) into seconds via
// time = delaysync/cps when hasSync is true, overriding timeSeconds.
func ResolveDelayTime(timeSeconds, delaySync float64, hasSync bool, cps float64) float64 {
	if hasSync && cps > 0 {
		return delaySync / cps
	}
	return timeSeconds
}

// Delay is a stereo feedback ring-buffer delay line, one per orbit.
type Delay struct {
	cfg DelayConfig

	bufL, bufR []float64
	writePos   int
}

// NewDelay allocates a ring sized for maxDelaySeconds at sampleRate.
func NewDelay(sampleRate float64) *Delay {
	size := int(maxDelaySeconds * sampleRate)
	if size < 1 {
		size = 1
	}
	return &Delay{bufL: make([]float64, size), bufR: make([]float64, size)}
}

// SetConfig installs cfg after clamping it with ClampDelayConfig.
func (d *Delay) SetConfig(cfg DelayConfig) { d.cfg = ClampDelayConfig(cfg) }

// Config returns the delay's current configuration, used by callers that
// need to merge in a partial update from a newly triggered event.
func (d *Delay) Config() DelayConfig { return d.cfg }

// Process advances the delay line by one stereo sample, per spec.md §4.5
// step 7: read the delayed sample, mix wet/dry for the output, write
// dry+feedback*delayed back into the ring, advance the write pointer.
func (d *Delay) Process(sampleRate, dryL, dryR float64) (float64, float64) {
	n := len(d.bufL)
	offset := int(math.Round(d.cfg.Time * sampleRate))
	if offset < 0 {
		offset = 0
	}
	if offset >= n {
		offset = n - 1
	}
	readPos := (d.writePos - offset + n) % n

	delayedL := d.bufL[readPos]
	delayedR := d.bufR[readPos]

	outL := dryL + d.cfg.Wet*delayedL
	outR := dryR + d.cfg.Wet*delayedR

	d.bufL[d.writePos] = dryL + d.cfg.Feedback*delayedL
	d.bufR[d.writePos] = dryR + d.cfg.Feedback*delayedR

	d.writePos++
	if d.writePos == n {
		d.writePos = 0
	}

	return outL, outR
}
