package pattern

import (
	"fmt"
	"strconv"
	"strings"
)

// Modes maps a scale's name to its semitone offsets from the root, one
// entry per degree of the scale.
var Modes = map[string][]int{
	"major":            {0, 2, 4, 5, 7, 9, 11},
	"minor":            {0, 2, 3, 5, 7, 8, 10},
	"dorian":           {0, 2, 3, 5, 7, 9, 10},
	"phrygian":         {0, 1, 3, 5, 7, 8, 10},
	"lydian":           {0, 2, 4, 6, 7, 9, 11},
	"mixolydian":       {0, 2, 4, 5, 7, 9, 10},
	"locrian":          {0, 1, 3, 5, 6, 8, 10},
	"chromatic":        {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	"pentatonic":       {0, 2, 4, 7, 9},
	"minor_pentatonic": {0, 3, 5, 7, 10},
	"blues":            {0, 3, 5, 6, 7, 10},
	"wholetone":        {0, 2, 4, 6, 8, 10},
}

var pitchClasses = map[byte]int{
	'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11,
}

// parseRootOctave parses a root spec like "c", "c3", "cs4", "df2" into a
// pitch class (0-11) and an octave, defaulting the octave to 3 when none is
// given.
func parseRootOctave(root string) (pitchClass, octave int, err error) {
	root = strings.ToLower(strings.TrimSpace(root))
	if root == "" {
		return 0, 0, fmt.Errorf("scale: empty root")
	}
	base, ok := pitchClasses[root[0]]
	if !ok {
		return 0, 0, fmt.Errorf("scale: unrecognised root letter %q", root[:1])
	}
	i := 1
	for i < len(root) && (root[i] == 's' || root[i] == '#') {
		base++
		i++
	}
	for i < len(root) && root[i] == 'f' {
		base--
		i++
	}
	octave = 3
	if i < len(root) {
		n, err := strconv.Atoi(root[i:])
		if err != nil {
			return 0, 0, fmt.Errorf("scale: bad octave in root %q: %w", root, err)
		}
		octave = n
	}
	return ((base % 12) + 12) % 12, octave, nil
}

// DegreeToSemitone converts a scalar degree d (which may be negative or
// beyond the mode's span) to a semitone offset, per §4.2: for d>=0 it is
// octave*12 + mode[d mod len(mode)]; for d<0 it mirrors symmetrically.
func DegreeToSemitone(d int, mode []int) int {
	n := len(mode)
	if n == 0 {
		return 0
	}
	if d >= 0 {
		octave := d / n
		idx := d % n
		return octave*12 + mode[idx]
	}
	// Mirror: -1 is the degree just below 0, i.e. one octave down plus the
	// highest degree of the previous octave counted backwards.
	ad := -d
	octave := (ad - 1) / n
	idx := n - 1 - (ad-1)%n
	return -((octave + 1) * 12) + mode[idx]
}

// ParseScaleName splits "root:mode" and resolves the mode's semitone table
// and the root's base note number (octave+2)*12+pitchClass, so that c3
// (the default bare-letter octave) is note 60.
func ParseScaleName(name string) (base int, mode []int, err error) {
	parts := strings.SplitN(name, ":", 2)
	if len(parts) != 2 {
		return 0, nil, fmt.Errorf("scale: expected \"root:mode\", got %q", name)
	}
	pitchClass, octave, err := parseRootOctave(parts[0])
	if err != nil {
		return 0, nil, err
	}
	modeName := strings.ToLower(strings.TrimSpace(parts[1]))
	m, ok := Modes[modeName]
	if !ok {
		return 0, nil, fmt.Errorf("scale: unrecognised mode %q", modeName)
	}
	// base note numbering puts the default bare-letter octave (3) at MIDI
	// note 60 (middle C): base = (octave+2)*12 + pitchClass, so "c:major"
	// with no octave gives degree 0 -> note 60, matching the worked example
	// in n("0 2 4").scale("c:major").
	base = (octave+2)*12 + pitchClass
	return base, m, nil
}

// Scale converts a pattern of integer degrees into a pattern of ControlMaps
// carrying {"note": base + semitone}.
func Scale(name string, degrees Pattern[float64]) (Pattern[Value], error) {
	base, mode, err := ParseScaleName(name)
	if err != nil {
		return nil, err
	}
	return WithValue(degrees, func(d float64) Value {
		semitone := DegreeToSemitone(int(d), mode)
		return Value(ControlMap{"note": float64(base + semitone)})
	}), nil
}

// Trans adds a semitone pattern to any existing "note" control value; a
// value with no "note" key passes through untouched.
func Trans(semis Pattern[float64], values Pattern[Value]) Pattern[Value] {
	return InnerJoin(values, semis, func(v Value, s float64) Value {
		cm, ok := v.(ControlMap)
		if !ok {
			return v
		}
		note, hasNote := cm["note"]
		if !hasNote {
			return v
		}
		n, ok := note.(float64)
		if !ok {
			return v
		}
		out := cm.Clone()
		out["note"] = n + s
		return Value(out)
	})
}
