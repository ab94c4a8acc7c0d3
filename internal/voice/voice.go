package voice

import "math"

// Voice is one currently-sounding event, advanced one sample at a time by
// the scheduler's mixer loop.
type Voice interface {
	// Generate writes n stereo frames starting at out[0], advancing
	// internal state.
	Generate(outL, outR []float64)
	// Playing reports whether the voice still produces sound.
	Playing() bool
	// Release begins the voice's note-off stage (envelope release).
	Release()
}

// Params captures every control-value key §4.5 step 3 consults when
// resolving a voice; zero values mean "unset", letting NewSynthVoice and
// NewSampleVoice apply the documented defaults.
type Params struct {
	Shape Shape // resolved synth wave, or "" for a sample voice

	Freq float64 // Hz, already resolved from note/frequency + detune
	Gain float64

	HoldSeconds    float64 // read only when HasHoldSeconds is set
	HasHoldSeconds bool

	Attack, Decay, Sustain, Release             *float64
	HasADSR                                     bool

	Lpf, Lpq, Lpenv, Lpa, Lpd, Lps, Lpr float64
	HasLpf                              bool

	Fmi, Fmh     float64
	Fmwave       Shape
	HasFM        bool

	SupersawVoices   int
	DetuneSemitones  float64
	PanSpread        float64
}

// SynthVoice is an oscillator-driven voice per spec.md §4.4.
type SynthVoice struct {
	shape Shape
	osc   Oscillator
	super *SupersawVoice

	modOsc  Oscillator
	fmi, fmh float64
	fmwave  Shape
	hasFM   bool

	baseFreq float64
	gain     float64

	amp AmpADSR
	flt FilterEnvelope

	lp     LowPass
	lpR    LowPass
	hasLpf bool
	lpf, lpq float64

	sampleRate float64

	holdSamples    int
	hasHold        bool
	samplesElapsed int

	// fallback path when no duration is supplied: a plain exponential
	// decay with time constant decay, per §4.4's synth voice lifecycle.
	freeDecayLevel float64
	freeDecayTau   float64

	released bool
	ended    bool
}

// NewSynthVoice builds and triggers a synth voice from p.
func NewSynthVoice(p Params, sampleRate float64) *SynthVoice {
	v := &SynthVoice{
		shape:      p.Shape,
		baseFreq:   p.Freq,
		gain:       p.Gain,
		sampleRate: sampleRate,
	}
	if v.gain == 0 {
		v.gain = 1
	}

	if p.Shape == Supersaw {
		voices := p.SupersawVoices
		if voices <= 0 {
			voices = 5
		}
		v.super = NewSupersawVoice(voices, p.DetuneSemitones, p.PanSpread)
	} else {
		seed := uint32(math.Float64bits(p.Freq)) ^ 0x9e3779b9
		v.osc.Reset(seed)
	}

	if p.HasFM && p.Fmi != 0 {
		v.hasFM = true
		v.fmi, v.fmh = p.Fmi, p.Fmh
		if v.fmh == 0 {
			v.fmh = 1
		}
		v.fmwave = p.Fmwave
		if v.fmwave == "" {
			v.fmwave = Sine
		}
		v.modOsc.Reset(1)
	}

	var attack, decay, sustain, release *float64
	if p.HasADSR {
		attack, decay, sustain, release = p.Attack, p.Decay, p.Sustain, p.Release
	}
	v.amp = NewAmpADSR(attack, decay, sustain, release)
	v.amp.Trigger(sampleRate)

	if p.HasHoldSeconds {
		v.hasHold = true
		v.holdSamples = int(p.HoldSeconds * sampleRate)
	} else {
		v.freeDecayLevel = 1
		v.freeDecayTau = v.amp.Decay
	}

	if p.HasLpf {
		v.hasLpf = true
		v.lpf, v.lpq = p.Lpf, p.Lpq
		if v.lpq == 0 {
			v.lpq = minResonanceQ
		}
		flt := DefaultFilterEnvelope()
		if p.Lpa != 0 {
			flt.Attack = p.Lpa
		}
		if p.Lpd != 0 {
			flt.Decay = p.Lpd
		}
		flt.Sustain = p.Lps
		if p.Lpr != 0 {
			flt.Release = p.Lpr
		}
		flt.Base = v.lpf
		flt.Depth = p.Lpenv
		flt.Trigger(sampleRate)
		v.flt = flt
	}

	return v
}

func (v *SynthVoice) carrierFreq() float64 {
	if !v.hasFM {
		return v.baseFreq
	}
	mod := v.modOsc.Step(v.fmwave, v.baseFreq*v.fmh, v.sampleRate)
	freq := v.baseFreq + mod*v.baseFreq*v.fmh*v.fmi
	if freq < 0 {
		freq = 0
	}
	return freq
}

// Generate writes len(outL) frames (outR must be the same length).
func (v *SynthVoice) Generate(outL, outR []float64) {
	for i := range outL {
		if v.ended {
			outL[i], outR[i] = 0, 0
			continue
		}

		var ampLevel float64
		if v.hasHold {
			if !v.released && v.samplesElapsed >= v.holdSamples {
				v.amp.Release()
				if v.hasLpf {
					v.flt.Release()
				}
				v.released = true
			}
			ampLevel = v.amp.Step()
			if v.amp.Idle() {
				v.ended = true
			}
		} else {
			if v.freeDecayTau <= 0 {
				v.freeDecayLevel = 0
			} else {
				v.freeDecayLevel *= math.Exp(-1 / (v.freeDecayTau * v.sampleRate))
			}
			ampLevel = v.freeDecayLevel
			if ampLevel < 1e-4 {
				v.ended = true
			}
		}
		v.samplesElapsed++

		var l, r float64
		if v.super != nil {
			l, r = v.super.Step(v.carrierFreq(), v.sampleRate)
		} else {
			s := v.osc.Step(v.shape, v.carrierFreq(), v.sampleRate)
			l, r = s, s
		}

		if v.hasLpf {
			cutoff := v.flt.Step()
			l = v.lp.Step(l, cutoff, v.lpq, v.sampleRate)
			r = v.lpR.Step(r, cutoff, v.lpq, v.sampleRate)
		}

		scale := ampLevel * v.gain * 0.3
		outL[i] = l * scale
		outR[i] = r * scale
	}
}

// Playing reports whether the voice still produces sound.
func (v *SynthVoice) Playing() bool { return !v.ended }

// Release forces the voice into its release stage immediately.
func (v *SynthVoice) Release() {
	if v.released {
		return
	}
	v.released = true
	v.amp.Release()
	if v.hasLpf {
		v.flt.Release()
	}
}

// SampleVoice plays back decoded sample data per spec.md §4.4.
type SampleVoice struct {
	channels [][]float32
	srcRate  float64

	pos       float64
	rateRatio float64

	gain float64
	amp  AmpADSR

	hasHold        bool
	holdSamples    int
	samplesElapsed int
	released       bool
	ended          bool
}

// NewSampleVoice builds and triggers playback of channels (native rate
// srcRate) at targetRate, honouring speed and gain.
func NewSampleVoice(channels [][]float32, srcRate, targetRate, speed, gain float64, p Params) *SampleVoice {
	if speed == 0 {
		speed = 1
	}
	v := &SampleVoice{
		channels:  channels,
		srcRate:   srcRate,
		rateRatio: (srcRate / targetRate) * math.Abs(speed),
		gain:      gain,
	}
	if v.gain == 0 {
		v.gain = 1
	}

	var attack, decay, sustain, release *float64
	if p.HasADSR {
		attack, decay, sustain, release = p.Attack, p.Decay, p.Sustain, p.Release
	}
	v.amp = NewAmpADSR(attack, decay, sustain, release)
	v.amp.Trigger(targetRate)

	if p.HasHoldSeconds {
		v.hasHold = true
		v.holdSamples = int(p.HoldSeconds * targetRate)
	}
	return v
}

func (v *SampleVoice) frameCount() int {
	if len(v.channels) == 0 {
		return 0
	}
	return len(v.channels[0])
}

func (v *SampleVoice) sampleAt(ch int, pos float64) float64 {
	data := v.channels[ch]
	n := len(data)
	i0 := int(math.Floor(pos))
	if i0 < 0 || i0 >= n {
		return 0
	}
	i1 := i0 + 1
	frac := pos - float64(i0)
	s0 := float64(data[i0])
	var s1 float64
	if i1 < n {
		s1 = float64(data[i1])
	} else {
		s1 = s0
	}
	return s0 + (s1-s0)*frac
}

// Generate writes len(outL) frames of interpolated sample playback.
func (v *SampleVoice) Generate(outL, outR []float64) {
	n := v.frameCount()
	for i := range outL {
		if v.ended || n == 0 || v.pos >= float64(n-1) {
			outL[i], outR[i] = 0, 0
			v.ended = true
			continue
		}

		if v.hasHold {
			if !v.released && v.samplesElapsed >= v.holdSamples {
				v.amp.Release()
				v.released = true
			}
		}
		ampLevel := v.amp.Step()
		if v.amp.Idle() {
			v.ended = true
		}
		v.samplesElapsed++

		var l, r float64
		switch len(v.channels) {
		case 1:
			s := v.sampleAt(0, v.pos)
			l, r = s, s
		default:
			l = v.sampleAt(0, v.pos)
			r = v.sampleAt(1, v.pos)
		}

		scale := ampLevel * v.gain
		outL[i] = l * scale
		outR[i] = r * scale
		v.pos += v.rateRatio
	}
}

// Playing reports whether the voice still produces sound.
func (v *SampleVoice) Playing() bool { return !v.ended }

// Release forces the voice into its release stage immediately.
func (v *SampleVoice) Release() {
	if v.released {
		return
	}
	v.released = true
	v.amp.Release()
}
