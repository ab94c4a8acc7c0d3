package control

import (
	"testing"

	"github.com/cellux/cyclist/internal/mininotation"
	"github.com/cellux/cyclist/internal/pattern"
	"github.com/cellux/cyclist/internal/rational"
	"github.com/cellux/cyclist/internal/timespan"
)

func r(n, d int64) rational.Rational { return rational.New(n, d) }

func compile(t *testing.T, src string) pattern.Pattern[pattern.Value] {
	t.Helper()
	p, err := mininotation.Compile("test", src)
	if err != nil {
		t.Fatalf("Compile(%q): %v", src, err)
	}
	return p
}

func TestNScaleMatchesWorkedExample(t *testing.T) {
	degrees := compile(t, "0 2 4")
	c, err := N(degrees).Scale("c:major")
	if err != nil {
		t.Fatal(err)
	}
	haps := c.P.Query(pattern.Query{Span: timespan.New(r(0, 1), r(1, 1))})
	if len(haps) != 3 {
		t.Fatalf("got %d haps, want 3: %v", len(haps), haps)
	}
	want := []float64{60, 64, 67}
	for i, h := range haps {
		cm := h.Value.(pattern.ControlMap)
		if cm["note"] != want[i] {
			t.Fatalf("hap %d note = %v, want %v", i, cm["note"], want[i])
		}
	}
}

func TestSoundAndGainChain(t *testing.T) {
	snd := compile(t, "bd sd")
	c := S(snd).Gain(Const(0.8)).Pan(Const(0.25))
	haps := c.P.Query(pattern.Query{Span: timespan.New(r(0, 1), r(1, 1))})
	if len(haps) != 2 {
		t.Fatalf("got %d haps, want 2: %v", len(haps), haps)
	}
	for _, h := range haps {
		cm := h.Value.(pattern.ControlMap)
		if cm["gain"] != 0.8 {
			t.Fatalf("gain = %v, want 0.8", cm["gain"])
		}
		if cm["pan"] != 0.25 {
			t.Fatalf("pan = %v, want 0.25", cm["pan"])
		}
	}
	if haps[0].Value.(pattern.ControlMap)["s"] != "bd" {
		t.Fatalf("hap 0 s = %v, want bd", haps[0].Value)
	}
}

func TestSampleIndexAtomPreservesNAndS(t *testing.T) {
	snd := compile(t, "bd:3")
	c := S(snd)
	haps := c.P.Query(pattern.Query{Span: timespan.New(r(0, 1), r(1, 1))})
	if len(haps) != 1 {
		t.Fatalf("got %d haps, want 1", len(haps))
	}
	cm := haps[0].Value.(pattern.ControlMap)
	if cm["s"] != "bd" || cm["n"] != 3.0 {
		t.Fatalf("hap = %v, want s=bd n=3", cm)
	}
}
