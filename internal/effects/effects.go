package effects

import (
	"strings"

	"github.com/cbegin/kson-go/internal/timeline"
)

// Type is the kind of an audio effect definition.
type Type int

const (
	TypeUnspecified Type = iota
	TypeRetrigger
	TypeGate
	TypeFlanger
	TypePitchShift
	TypeBitcrusher
	TypePhaser
	TypeWobble
	TypeTapestop
	TypeEcho
	TypeSidechain
	TypeSwitchAudio
	TypeHighPassFilter
	TypeLowPassFilter
	TypePeakingFilter
)

var typeNames = []string{
	TypeUnspecified:    "",
	TypeRetrigger:      "retrigger",
	TypeGate:           "gate",
	TypeFlanger:        "flanger",
	TypePitchShift:     "pitch_shift",
	TypeBitcrusher:     "bitcrusher",
	TypePhaser:         "phaser",
	TypeWobble:         "wobble",
	TypeTapestop:       "tapestop",
	TypeEcho:           "echo",
	TypeSidechain:      "sidechain",
	TypeSwitchAudio:    "switch_audio",
	TypeHighPassFilter: "high_pass_filter",
	TypeLowPassFilter:  "low_pass_filter",
	TypePeakingFilter:  "peaking_filter",
}

// ParseType maps a KSON effect type name to a Type. Unknown names give
// TypeUnspecified.
func ParseType(s string) Type {
	s = strings.TrimSpace(s)
	if s == "" {
		return TypeUnspecified
	}
	for i, name := range typeNames {
		if name == s {
			return Type(i)
		}
	}
	return TypeUnspecified
}

func (t Type) String() string {
	if t <= TypeUnspecified || int(t) >= len(typeNames) {
		return "unspecified"
	}
	return typeNames[t]
}

// Params holds raw parameter strings by parameter name.
type Params map[string]string

// Def is one audio effect definition: its type and default parameters.
type Def struct {
	Type Type
	V    Params
}

// DefKVP is a named definition. Definitions keep their declaration order.
type DefKVP struct {
	Name string
	V    Def
}

// ParamChanges holds the parameter change timelines of each effect, keyed by
// effect name then by parameter name.
type ParamChanges map[string]map[string]*timeline.Map[timeline.Pulse, string]

// FXInfo holds effects driven by FX notes.
type FXInfo struct {
	Def         []DefKVP
	ParamChange ParamChanges
	// LongEvent maps an effect name to per-FX-lane parameter overrides
	// applied while a long FX note starting at the key is held.
	LongEvent map[string][2]*timeline.Map[timeline.Pulse, Params]
}

// LaserInfo holds effects driven by the lasers.
type LaserInfo struct {
	Def         []DefKVP
	ParamChange ParamChanges
	// PulseEvent maps an effect name to the pulses where the laser effect
	// switches to it.
	PulseEvent map[string]*timeline.Map[timeline.Pulse, struct{}]
	// PeakingFilterDelay is in milliseconds, 0 to 160.
	PeakingFilterDelay int32
	LegacyFilterGain   *timeline.Map[timeline.Pulse, float64]
}

type Info struct {
	FX    FXInfo
	Laser LaserInfo
}

// DefByName returns the definition named name. It is a linear search; use
// DefsAsMap when looking up repeatedly.
func DefByName(defs []DefKVP, name string) (Def, bool) {
	for _, kvp := range defs {
		if kvp.Name == name {
			return kvp.V, true
		}
	}
	return Def{}, false
}

// DefsAsMap indexes defs by name. A later duplicate name wins.
func DefsAsMap(defs []DefKVP) map[string]Def {
	out := make(map[string]Def, len(defs))
	for _, kvp := range defs {
		out[kvp.Name] = kvp.V
	}
	return out
}

// ParamAt returns the latest parameter change at or before pulse.
func ParamAt(changes *timeline.Map[timeline.Pulse, string], pulse timeline.Pulse) (string, bool) {
	e, ok := changes.Floor(pulse)
	if !ok {
		return "", false
	}
	return e.Value, true
}

// ParamsAt returns the effective parameters of the effect named name at pulse:
// the definition's defaults overridden by the latest change of each parameter.
// The returned map is a copy.
func ParamsAt(defs []DefKVP, changes ParamChanges, name string, pulse timeline.Pulse) (Params, bool) {
	def, ok := DefByName(defs, name)
	if !ok {
		return nil, false
	}
	out := make(Params, len(def.V))
	for k, v := range def.V {
		out[k] = v
	}
	for param, tl := range changes[name] {
		if v, ok := ParamAt(tl, pulse); ok {
			out[param] = v
		}
	}
	return out, true
}
