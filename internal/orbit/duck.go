package orbit

import (
	"math"
	"strconv"
	"strings"
)

type duckStage int

const (
	duckIdle duckStage = iota
	duckOnset
	duckAttack
)

// DuckEnvelope is the linear sidechain ramp of spec.md §4.5 step 8: gain
// ramps 1 -> (1-depth) over onset seconds, then (1-depth) -> 1 over attack
// seconds; outside an active ramp gain is 1.
type DuckEnvelope struct {
	depth, onset, attack float64
	sampleRate           float64
	stage                duckStage
	samplesIn            int
}

// Trigger (re)starts the ramp from the beginning of its onset stage.
func (d *DuckEnvelope) Trigger(depth, onsetSeconds, attackSeconds, sampleRate float64) {
	d.depth = clamp(depth, 0, 1)
	d.onset = onsetSeconds
	d.attack = attackSeconds
	d.sampleRate = sampleRate
	d.stage = duckOnset
	d.samplesIn = 0
}

// Step advances the envelope by one sample and returns its current gain.
func (d *DuckEnvelope) Step() float64 {
	switch d.stage {
	case duckIdle:
		return 1
	case duckOnset:
		n := int(d.onset * d.sampleRate)
		if n <= 0 {
			d.stage = duckAttack
			d.samplesIn = 0
			return 1 - d.depth
		}
		d.samplesIn++
		t := float64(d.samplesIn) / float64(n)
		if t >= 1 {
			d.stage = duckAttack
			d.samplesIn = 0
			return 1 - d.depth
		}
		return 1 - d.depth*t
	case duckAttack:
		n := int(d.attack * d.sampleRate)
		if n <= 0 {
			d.stage = duckIdle
			return 1
		}
		t := float64(d.samplesIn) / float64(n)
		if t >= 1 {
			d.stage = duckIdle
			return 1
		}
		d.samplesIn++
		return (1 - d.depth) + d.depth*t
	}
	return 1
}

// ParseOrbitIDs interprets a duckorbit (or orbit) control value, which may
// arrive as an int, a float, or a colon-delimited string of either. A
// fractional float floors to its integer part, per the open question
// spec.md §9 leaves unresolved for fractional duckorbit values.
func ParseOrbitIDs(v interface{}) []int {
	switch x := v.(type) {
	case int:
		return []int{x}
	case float64:
		return []int{int(math.Floor(x))}
	case string:
		parts := strings.Split(x, ":")
		ids := make([]int, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if f, err := strconv.ParseFloat(p, 64); err == nil {
				ids = append(ids, int(math.Floor(f)))
			}
		}
		return ids
	default:
		return nil
	}
}
