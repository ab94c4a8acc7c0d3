package voice

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/mjibson/go-dsp/fft"
)

func countZeroCrossings(buf []float64) int {
	n := 0
	for i := 1; i < len(buf); i++ {
		if buf[i-1] < 0 && buf[i] >= 0 {
			n++
		}
	}
	return n
}

// dominantFrequency FFTs buf and returns the frequency of its largest
// magnitude bin below Nyquist, the same fft.FFT call wave.go's
// buildFFTLowpass uses for bin-domain analysis of a waveform.
func dominantFrequency(buf []float64, sampleRate float64) float64 {
	n := len(buf)
	x := make([]complex128, n)
	for i, v := range buf {
		x[i] = complex(v, 0)
	}
	X := fft.FFT(x)
	bestBin, bestMag := 0, 0.0
	for k := 1; k < n/2; k++ {
		mag := cmplx.Abs(X[k])
		if mag > bestMag {
			bestMag = mag
			bestBin = k
		}
	}
	return float64(bestBin) * sampleRate / float64(n)
}

func TestOscillatorSinePeriod(t *testing.T) {
	var o Oscillator
	const sr = 48000.0
	const freq = 440.0
	buf := make([]float64, int(sr)) // one second
	for i := range buf {
		buf[i] = o.Step(Sine, freq, sr)
	}
	crossings := countZeroCrossings(buf)
	if math.Abs(float64(crossings)-freq) > 2 {
		t.Fatalf("got %d rising zero crossings, want ~%v", crossings, freq)
	}
}

func TestOscillatorSawtoothPeriod(t *testing.T) {
	var o Oscillator
	const sr = 48000.0
	const freq = 220.0
	buf := make([]float64, int(sr))
	for i := range buf {
		buf[i] = o.Step(Sawtooth, freq, sr)
	}
	crossings := countZeroCrossings(buf)
	if math.Abs(float64(crossings)-freq) > 2 {
		t.Fatalf("got %d rising zero crossings, want ~%v", crossings, freq)
	}
}

func TestOscillatorSineSpectralPeak(t *testing.T) {
	var o Oscillator
	const sr = 48000.0
	const freq = 880.0
	const n = 4096
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = o.Step(Sine, freq, sr)
	}
	got := dominantFrequency(buf, sr)
	binWidth := sr / float64(n)
	if math.Abs(got-freq) > binWidth {
		t.Fatalf("got dominant bin frequency %v, want ~%v (bin width %v)", got, freq, binWidth)
	}
}

func TestSupersawVoiceSpectralPeakNearBaseFrequency(t *testing.T) {
	s := NewSupersawVoice(5, 0.2, 0.5)
	const sr = 48000.0
	const freq = 110.0
	const n = 4096
	buf := make([]float64, n)
	for i := range buf {
		l, r := s.Step(freq, sr)
		buf[i] = l + r
	}
	got := dominantFrequency(buf, sr)
	binWidth := sr / float64(n)
	// detune spreads energy across a few bins either side of the base
	// frequency; allow a wider window than the single-oscillator test.
	if math.Abs(got-freq) > binWidth*4 {
		t.Fatalf("got dominant bin frequency %v, want near %v (bin width %v)", got, freq, binWidth)
	}
}

func TestOscillatorWhiteNoiseBounded(t *testing.T) {
	var o Oscillator
	for i := 0; i < 1000; i++ {
		v := o.Step(White, 0, 48000)
		if v < -1 || v >= 1 {
			t.Fatalf("white noise sample %v out of [-1,1)", v)
		}
	}
}

func TestSupersawVoiceStereoBalanced(t *testing.T) {
	s := NewSupersawVoice(5, 10, 0.5)
	var sumL, sumR float64
	for i := 0; i < 48000; i++ {
		l, r := s.Step(220, 48000)
		sumL += l * l
		sumR += r * r
	}
	if sumL <= 0 || sumR <= 0 {
		t.Fatalf("expected nonzero energy in both channels, got L=%v R=%v", sumL, sumR)
	}
}

func TestResolveShapeAliases(t *testing.T) {
	cases := map[string]Shape{
		"sin": Sine, "saw": Sawtooth, "sqr": Square, "tri": Triangle,
		"supersaw": Supersaw, "white": White,
	}
	for alias, want := range cases {
		got, ok := ResolveShape(alias)
		if !ok || got != want {
			t.Fatalf("ResolveShape(%q) = %v,%v want %v,true", alias, got, ok, want)
		}
	}
	if _, ok := ResolveShape("bd"); ok {
		t.Fatalf("ResolveShape(%q) unexpectedly resolved", "bd")
	}
}

func TestLowPassAttenuatesHighFrequency(t *testing.T) {
	var f LowPass
	var o Oscillator
	const sr = 48000.0
	sumIn, sumOut := 0.0, 0.0
	for i := 0; i < int(sr); i++ {
		x := o.Step(Sine, 8000, sr)
		y := f.Step(x, 200, 1, sr)
		sumIn += x * x
		sumOut += y * y
	}
	if sumOut >= sumIn {
		t.Fatalf("expected filtered energy (%v) < input energy (%v)", sumOut, sumIn)
	}
}

func TestAmpADSRDefaultEnvelope(t *testing.T) {
	a := DefaultAmpADSR()
	a.Trigger(1000)
	var peak float64
	for i := 0; i < 200; i++ {
		v := a.Step()
		if v > peak {
			peak = v
		}
	}
	if peak < 0.9 {
		t.Fatalf("expected envelope to reach near 1, peak=%v", peak)
	}
	a.Release()
	var last float64
	for i := 0; i < 100; i++ {
		last = a.Step()
	}
	if last > 0.1 {
		t.Fatalf("expected envelope near 0 after release, got %v", last)
	}
	if !a.Idle() {
		t.Fatalf("expected envelope idle after full release")
	}
}

func TestFilterEnvelopeSweepsBetweenBounds(t *testing.T) {
	e := FilterEnvelope{Attack: 0.01, Decay: 0.05, Sustain: 0, Release: 0.05, Base: 1000, Depth: 2}
	e.Trigger(1000)
	var max float64
	for i := 0; i < 100; i++ {
		v := e.Step()
		if v > max {
			max = v
		}
	}
	if max <= 1000 {
		t.Fatalf("expected envelope to sweep above base 1000, max=%v", max)
	}
}

func TestSynthVoiceHeldDurationReleasesAndEnds(t *testing.T) {
	p := Params{
		Shape:          Sine,
		Freq:           440,
		Gain:           1,
		HoldSeconds:    0.01,
		HasHoldSeconds: true,
	}
	v := NewSynthVoice(p, 48000)
	outL := make([]float64, 48000)
	outR := make([]float64, 48000)
	v.Generate(outL, outR)
	if v.Playing() {
		t.Fatalf("expected voice to end after 1 second given a 10ms hold")
	}
}

func TestSynthVoiceFreeDecayEndsEventually(t *testing.T) {
	p := Params{Shape: Sine, Freq: 440, Gain: 1}
	v := NewSynthVoice(p, 48000)
	outL := make([]float64, 48000)
	outR := make([]float64, 48000)
	v.Generate(outL, outR)
	if v.Playing() {
		t.Fatalf("expected free-decay voice to fall below the end threshold within one second")
	}
}

func TestSampleVoicePlaysUntilExhausted(t *testing.T) {
	data := make([]float32, 100)
	for i := range data {
		data[i] = float32(i) / 100
	}
	p := Params{}
	v := NewSampleVoice([][]float32{data}, 48000, 48000, 1, 1, p)
	outL := make([]float64, 200)
	outR := make([]float64, 200)
	v.Generate(outL, outR)
	if v.Playing() {
		t.Fatalf("expected sample voice to stop once position leaves the source")
	}
}

func TestSampleVoiceStereoChannelsPassThrough(t *testing.T) {
	left := []float32{1, 1, 1, 1}
	right := []float32{-1, -1, -1, -1}
	p := Params{}
	v := NewSampleVoice([][]float32{left, right}, 48000, 48000, 1, 1, p)
	outL := make([]float64, 2)
	outR := make([]float64, 2)
	v.Generate(outL, outR)
	// frame 0 is silent: the amplitude envelope's attack starts at 0.
	if outL[1] <= 0 || outR[1] >= 0 {
		t.Fatalf("expected distinct channel signs, got L=%v R=%v", outL[1], outR[1])
	}
}
