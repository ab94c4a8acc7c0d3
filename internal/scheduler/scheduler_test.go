package scheduler

import (
	"math"
	"testing"

	"github.com/cellux/cyclist/internal/control"
	"github.com/cellux/cyclist/internal/mininotation"
)

func meanAbs(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += math.Abs(x)
	}
	return sum / float64(len(xs))
}

// TestPanRatioMatchesWorkedExample is spec.md §8 scenario 10: with pattern
// n("0*4").scale("c:major").s("sine").pan(0.25) at cps=1, sr=1000, a
// 200-frame block should yield a mean|L|/mean|R| ratio near
// cos(pi/8)/sin(pi/8).
func TestPanRatioMatchesWorkedExample(t *testing.T) {
	degrees, err := mininotation.Compile("test", "0*4")
	if err != nil {
		t.Fatal(err)
	}
	c, err := control.N(degrees).Scale("c:major")
	if err != nil {
		t.Fatal(err)
	}
	c = c.S(control.Const("sine")).Pan(control.Const(0.25))

	tempo := NewTempo()
	tempo.SetCps(1)
	cy := New(1000, tempo, nil, nil)
	cy.SetPattern(c.P)

	left, right := cy.Generate(200)
	ratio := meanAbs(left) / meanAbs(right)
	want := math.Cos(math.Pi/8) / math.Sin(math.Pi/8)
	if math.Abs(ratio-want) > 0.1 {
		t.Fatalf("got ratio %v, want %v (within 0.1)", ratio, want)
	}
}

func TestResetClearsVoicesAndCursor(t *testing.T) {
	degrees, err := mininotation.Compile("test", "0 1 2 3")
	if err != nil {
		t.Fatal(err)
	}
	c, _ := control.N(degrees).Scale("c:major")
	c = c.S(control.Const("sine"))

	tempo := NewTempo()
	cy := New(1000, tempo, nil, nil)
	cy.SetPattern(c.P)
	cy.Generate(100)
	if cy.cursor.IsZero() {
		t.Fatalf("expected cursor to advance before reset")
	}
	cy.Reset()
	if !cy.cursor.IsZero() {
		t.Fatalf("expected cursor to be zero after reset")
	}
	if len(cy.voices) != 0 {
		t.Fatalf("expected voices cleared after reset")
	}
}

func TestGenerateWithoutPatternProducesSilence(t *testing.T) {
	tempo := NewTempo()
	cy := New(1000, tempo, nil, nil)
	left, right := cy.Generate(50)
	for i := range left {
		if left[i] != 0 || right[i] != 0 {
			t.Fatalf("expected silence with no pattern installed, got L=%v R=%v at %d", left[i], right[i], i)
		}
	}
}

func TestSoftLimitClampsLoudSignal(t *testing.T) {
	if got := softLimit(0.5); got != 0.5 {
		t.Fatalf("expected passthrough below threshold, got %v", got)
	}
	got := softLimit(5)
	if got >= 1 {
		t.Fatalf("expected tanh compression above threshold, got %v", got)
	}
}

func TestTempoDefaultsAndConversions(t *testing.T) {
	tempo := NewTempo()
	if tempo.Cps() != 0.5 {
		t.Fatalf("expected default cps=0.5, got %v", tempo.Cps())
	}
	if tempo.Cpm() != 30 {
		t.Fatalf("expected cpm=30, got %v", tempo.Cpm())
	}
	tempo.SetBpm(120, 4)
	if math.Abs(tempo.Cps()-0.5) > 1e-9 {
		t.Fatalf("expected cps=0.5 from setbpm(120,4), got %v", tempo.Cps())
	}
}
