package orbit

import (
	"math"
	"testing"
)

func TestDelayEchoesAfterConfiguredTime(t *testing.T) {
	const sr = 1000.0
	d := NewDelay(sr)
	d.SetConfig(DelayConfig{Wet: 1, Time: 0.01, Feedback: 0})

	// impulse at sample 0
	outL, _ := d.Process(sr, 1, 0)
	if outL != 1 {
		t.Fatalf("expected only the dry impulse at sample 0, got %v", outL)
	}
	var echoSample = -1
	for i := 1; i < 50; i++ {
		l, _ := d.Process(sr, 0, 0)
		if l != 0 {
			echoSample = i
			break
		}
	}
	if echoSample != 10 {
		t.Fatalf("expected echo at sample 10 (0.01s @ 1000Hz), got %d", echoSample)
	}
}

func TestDelayFeedbackDecays(t *testing.T) {
	const sr = 1000.0
	d := NewDelay(sr)
	d.SetConfig(DelayConfig{Wet: 1, Time: 0.005, Feedback: 0.5})
	offset := 5

	d.Process(sr, 1, 0)
	var echoes []float64
	for i := 0; i < offset*3; i++ {
		l, _ := d.Process(sr, 0, 0)
		if l != 0 {
			echoes = append(echoes, l)
		}
	}
	if len(echoes) < 2 {
		t.Fatalf("expected at least two echoes, got %v", echoes)
	}
	if echoes[1] >= echoes[0] {
		t.Fatalf("expected feedback echoes to decay: %v", echoes)
	}
}

func TestClampDelayConfigBounds(t *testing.T) {
	cfg := ClampDelayConfig(DelayConfig{Wet: 2, Time: -1, Feedback: 5})
	if cfg.Wet != 1 || cfg.Time != 0 || cfg.Feedback != 0.999 {
		t.Fatalf("unexpected clamp result: %+v", cfg)
	}
}

func TestResolveDelayTimeUsesSyncWhenPresent(t *testing.T) {
	got := ResolveDelayTime(1.0, 2.0, true, 4.0)
	if got != 0.5 {
		t.Fatalf("got %v, want 0.5", got)
	}
	got = ResolveDelayTime(1.0, 2.0, false, 4.0)
	if got != 1.0 {
		t.Fatalf("got %v, want 1.0", got)
	}
}

func TestDuckEnvelopeRampsDownThenUp(t *testing.T) {
	var d DuckEnvelope
	const sr = 1000.0
	d.Trigger(0.5, 0.01, 0.01, sr)

	first := d.Step()
	if first >= 1 {
		t.Fatalf("expected gain to start dropping immediately, got %v", first)
	}
	var min float64 = 1
	for i := 0; i < 9; i++ {
		g := d.Step()
		if g < min {
			min = g
		}
	}
	if math.Abs(min-0.5) > 0.15 {
		t.Fatalf("expected gain to approach 0.5, min=%v", min)
	}
	var last float64
	for i := 0; i < 20; i++ {
		last = d.Step()
	}
	if math.Abs(last-1) > 0.01 {
		t.Fatalf("expected gain to recover to 1, got %v", last)
	}
}

func TestParseOrbitIDs(t *testing.T) {
	cases := []struct {
		in   interface{}
		want []int
	}{
		{1, []int{1}},
		{2.9, []int{2}},
		{"1:2:3", []int{1, 2, 3}},
	}
	for _, c := range cases {
		got := ParseOrbitIDs(c.in)
		if len(got) != len(c.want) {
			t.Fatalf("ParseOrbitIDs(%v) = %v, want %v", c.in, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("ParseOrbitIDs(%v) = %v, want %v", c.in, got, c.want)
			}
		}
	}
}

func TestMapDuckGainCombinesAndPrunes(t *testing.T) {
	m := NewMap(1000)
	env := &DuckEnvelope{}
	env.Trigger(0.5, 0.001, 0.001, 1000)
	m.AddDuck(1, env)

	g := m.DuckGain(1)
	if g >= 1 {
		t.Fatalf("expected gain < 1 right after trigger, got %v", g)
	}
	for i := 0; i < 10; i++ {
		m.DuckGain(1)
	}
	if len(m.Get(1).Ducks) != 0 {
		t.Fatalf("expected finished duck envelope to be pruned")
	}
}
