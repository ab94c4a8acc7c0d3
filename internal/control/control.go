// Package control provides a small fluent builder over pattern.Value
// patterns, turning mini-notation output and scalar patterns into the
// control-map vocabulary the scheduler consumes (§6). It is sugar over
// pattern.SetControl, not a surface DSL for track declarations — that
// remains an external collaborator per spec.md §1's explicit non-goal.
package control

import (
	"fmt"
	"strconv"

	"github.com/cellux/cyclist/internal/pattern"
)

// Controls wraps a pattern whose values are (or are being built up into)
// ControlMaps.
type Controls struct {
	P pattern.Pattern[pattern.Value]
}

// New wraps an existing control pattern, e.g. the direct output of
// mininotation.Compile, without reinterpreting its atoms.
func New(p pattern.Pattern[pattern.Value]) Controls {
	return Controls{P: p}
}

// asControlMap returns a copy of v when it is a ControlMap; any other
// value (a bare string or number atom) yields a fresh, empty ControlMap,
// and the original value is not carried into it.
func asControlMap(v pattern.Value) pattern.ControlMap {
	switch vv := v.(type) {
	case pattern.ControlMap:
		return vv.Clone()
	default:
		return pattern.ControlMap{}
	}
}

// liftKey builds the Controls entry point for a named key: bare string or
// numeric atoms become {key: parsedValue}, atoms already carrying a
// ControlMap (e.g. "bd:3" from mini-notation) pass through unchanged.
func liftKey(key string, p pattern.Pattern[pattern.Value], parse func(string) pattern.Value) Controls {
	return Controls{P: pattern.WithValue(p, func(v pattern.Value) pattern.Value {
		switch vv := v.(type) {
		case pattern.ControlMap:
			return vv.Clone()
		case string:
			cm := pattern.ControlMap{}
			cm[key] = parse(vv)
			return pattern.Value(cm)
		default:
			cm := pattern.ControlMap{}
			cm[key] = v
			return pattern.Value(cm)
		}
	})}
}

func parseFloatOrZero(s string) pattern.Value {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0.0
	}
	return f
}

func parseString(s string) pattern.Value { return s }

// S is the entry point for sound-name patterns, e.g. mini-notation's
// "bd sd hh" or "bd:3 sd:1".
func S(p pattern.Pattern[pattern.Value]) Controls { return liftKey("s", p, parseString) }

// Sound is an alias for S, matching the §6 vocabulary's s/sound synonym.
func Sound(p pattern.Pattern[pattern.Value]) Controls { return liftKey("sound", p, parseString) }

// N is the entry point for scalar/degree patterns, e.g. mini-notation's
// "0 2 4".
func N(p pattern.Pattern[pattern.Value]) Controls { return liftKey("n", p, parseFloatOrZero) }

// Note is the entry point for literal note-number patterns.
func Note(p pattern.Pattern[pattern.Value]) Controls { return liftKey("note", p, parseFloatOrZero) }

// setFloat merges valuePat under key into every hap's control map via
// pattern.SetControl.
func (c Controls) setFloat(key string, valuePat pattern.Pattern[float64]) Controls {
	return Controls{P: pattern.SetControl(c.P, key, valuePat)}
}

func (c Controls) setString(key string, valuePat pattern.Pattern[string]) Controls {
	return Controls{P: pattern.SetControl(c.P, key, valuePat)}
}

// Const lifts a bare Go value to a whole-cycle pattern, for callers who
// want c.Gain(control.Const(0.8)) instead of building a pattern.Pure
// themselves.
func Const[V any](v V) pattern.Pattern[V] { return pattern.Pure(v) }

func (c Controls) S(p pattern.Pattern[string]) Controls    { return c.setString("s", p) }
func (c Controls) SoundName(p pattern.Pattern[string]) Controls { return c.setString("sound", p) }
func (c Controls) N(p pattern.Pattern[float64]) Controls   { return c.setFloat("n", p) }
func (c Controls) Note(p pattern.Pattern[float64]) Controls { return c.setFloat("note", p) }

func (c Controls) Gain(p pattern.Pattern[float64]) Controls     { return c.setFloat("gain", p) }
func (c Controls) Velocity(p pattern.Pattern[float64]) Controls { return c.setFloat("velocity", p) }
func (c Controls) Pan(p pattern.Pattern[float64]) Controls      { return c.setFloat("pan", p) }
func (c Controls) Speed(p pattern.Pattern[float64]) Controls    { return c.setFloat("speed", p) }
func (c Controls) Detune(p pattern.Pattern[float64]) Controls   { return c.setFloat("detune", p) }
func (c Controls) Unison(p pattern.Pattern[float64]) Controls   { return c.setFloat("unison", p) }
func (c Controls) Spread(p pattern.Pattern[float64]) Controls   { return c.setFloat("spread", p) }
func (c Controls) Orbit(p pattern.Pattern[float64]) Controls    { return c.setFloat("orbit", p) }

func (c Controls) Attack(p pattern.Pattern[float64]) Controls  { return c.setFloat("attack", p) }
func (c Controls) Decay(p pattern.Pattern[float64]) Controls   { return c.setFloat("decay", p) }
func (c Controls) Sustain(p pattern.Pattern[float64]) Controls { return c.setFloat("sustain", p) }
func (c Controls) Release(p pattern.Pattern[float64]) Controls { return c.setFloat("release", p) }

func (c Controls) Lpf(p pattern.Pattern[float64]) Controls   { return c.setFloat("lpf", p) }
func (c Controls) Lpq(p pattern.Pattern[float64]) Controls   { return c.setFloat("lpq", p) }
func (c Controls) Lpenv(p pattern.Pattern[float64]) Controls { return c.setFloat("lpenv", p) }
func (c Controls) Lpa(p pattern.Pattern[float64]) Controls   { return c.setFloat("lpa", p) }
func (c Controls) Lpd(p pattern.Pattern[float64]) Controls   { return c.setFloat("lpd", p) }
func (c Controls) Lps(p pattern.Pattern[float64]) Controls   { return c.setFloat("lps", p) }
func (c Controls) Lpr(p pattern.Pattern[float64]) Controls   { return c.setFloat("lpr", p) }
func (c Controls) Hpf(p pattern.Pattern[float64]) Controls   { return c.setFloat("hpf", p) }

func (c Controls) Fmi(p pattern.Pattern[float64]) Controls    { return c.setFloat("fmi", p) }
func (c Controls) Fmh(p pattern.Pattern[float64]) Controls    { return c.setFloat("fmh", p) }
func (c Controls) Fmwave(p pattern.Pattern[string]) Controls  { return c.setString("fmwave", p) }

func (c Controls) Delay(p pattern.Pattern[float64]) Controls         { return c.setFloat("delay", p) }
func (c Controls) DelayTime(p pattern.Pattern[float64]) Controls     { return c.setFloat("delaytime", p) }
func (c Controls) DelayFeedback(p pattern.Pattern[float64]) Controls { return c.setFloat("delayfeedback", p) }
func (c Controls) DelaySync(p pattern.Pattern[float64]) Controls     { return c.setFloat("delaysync", p) }
func (c Controls) DelaySpeed(p pattern.Pattern[float64]) Controls    { return c.setFloat("delayspeed", p) }

func (c Controls) Duck(p pattern.Pattern[float64]) Controls       { return c.setFloat("duck", p) }
func (c Controls) DuckOrbit(p pattern.Pattern[float64]) Controls  { return c.setFloat("duckorbit", p) }
func (c Controls) DuckDepth(p pattern.Pattern[float64]) Controls  { return c.setFloat("duckdepth", p) }
func (c Controls) DuckOnset(p pattern.Pattern[float64]) Controls  { return c.setFloat("duckonset", p) }
func (c Controls) DuckAttack(p pattern.Pattern[float64]) Controls { return c.setFloat("duckattack", p) }

// Every applies f on cycles where cycleIndex mod n == n-1, the control
// layer's pass-through of pattern.Every.
func (c Controls) Every(n int, f func(Controls) Controls) Controls {
	return Controls{P: pattern.Every(n, func(p pattern.Pattern[pattern.Value]) pattern.Pattern[pattern.Value] {
		return f(Controls{P: p}).P
	}, c.P)}
}

// Scale converts the "n" control already present on each hap into a
// {note: base+semitone} mapping via pattern.Scale, merging the result
// back into each hap's existing control map (so earlier-set keys like
// "s" or "gain" survive).
func (c Controls) Scale(name string) (Controls, error) {
	degrees := pattern.WithValue(c.P, func(v pattern.Value) float64 {
		cm := asControlMap(v)
		if n, ok := cm["n"].(float64); ok {
			return n
		}
		return 0
	})
	scaled, err := pattern.Scale(name, degrees)
	if err != nil {
		return Controls{}, err
	}
	merged := pattern.InnerJoin(c.P, scaled, func(l, r pattern.Value) pattern.Value {
		lcm := asControlMap(l)
		rcm, ok := r.(pattern.ControlMap)
		if ok {
			lcm["note"] = rcm["note"]
		}
		return pattern.Value(lcm)
	})
	return Controls{P: merged}, nil
}

// Trans adds a semitone pattern to any existing "note" control.
func (c Controls) Trans(semis pattern.Pattern[float64]) Controls {
	return Controls{P: pattern.Trans(semis, c.P)}
}

// Fit annotates each hap with unit="c" and speed=1/duration.
func (c Controls) Fit() Controls {
	return Controls{P: pattern.Fit(c.P)}
}

// String renders a pattern value for debugging; ControlMaps render their
// keys in map order (unspecified, matching Go's native map formatting).
func String(v pattern.Value) string {
	return fmt.Sprintf("%v", v)
}
