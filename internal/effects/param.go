package effects

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit is the unit a parameter value was written in.
type Unit int

const (
	UnitNone    Unit = iota
	UnitRate         // "50%", stored as 0.5
	UnitSeconds      // "100ms" or "0.1s", stored in seconds
	UnitHz           // "500Hz" or "2kHz", stored in Hz
	UnitDB           // "-12dB"
	UnitLength       // "1/8", stored as a fraction of a whole note
	UnitSwitch       // "on" or "off", stored as 1 or 0
)

func (u Unit) String() string {
	switch u {
	case UnitRate:
		return "rate"
	case UnitSeconds:
		return "seconds"
	case UnitHz:
		return "hz"
	case UnitDB:
		return "db"
	case UnitLength:
		return "length"
	case UnitSwitch:
		return "switch"
	default:
		return "none"
	}
}

// Value is one parsed parameter value.
type Value struct {
	Unit Unit
	V    float64
}

// Param is a parsed parameter. A range "off>on" moves from Off to On as the
// effect is driven (by laser position for laser effects); a single value has
// Off == On.
type Param struct {
	Off   Value
	On    Value
	Range bool
}

// At returns the parameter value for drive amount t in [0,1].
func (p Param) At(t float64) float64 {
	if !p.Range {
		return p.On.V
	}
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p.Off.V*(1-t) + p.On.V*t
}

// ParseParam parses a KSON parameter string.
func ParseParam(s string) (Param, error) {
	s = strings.TrimSpace(s)
	if off, on, ok := strings.Cut(s, ">"); ok {
		a, err := parseValue(off)
		if err != nil {
			return Param{}, err
		}
		b, err := parseValue(on)
		if err != nil {
			return Param{}, err
		}
		if a.Unit != b.Unit && !(a.Unit == UnitSwitch || b.Unit == UnitSwitch) {
			return Param{}, fmt.Errorf("param %q: mixed units %s and %s", s, a.Unit, b.Unit)
		}
		return Param{Off: a, On: b, Range: true}, nil
	}
	v, err := parseValue(s)
	if err != nil {
		return Param{}, err
	}
	return Param{Off: v, On: v}, nil
}

func parseValue(s string) (Value, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		return Value{}, fmt.Errorf("empty param value")
	case "on":
		return Value{Unit: UnitSwitch, V: 1}, nil
	case "off":
		return Value{Unit: UnitSwitch, V: 0}, nil
	}

	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return Value{}, fmt.Errorf("param %q: bad numerator: %w", s, err)
		}
		d, err := strconv.ParseFloat(den, 64)
		if err != nil {
			return Value{}, fmt.Errorf("param %q: bad denominator: %w", s, err)
		}
		if d <= 0 {
			return Value{}, fmt.Errorf("param %q: denominator must be positive", s)
		}
		return Value{Unit: UnitLength, V: n / d}, nil
	}

	suffixes := []struct {
		suffix string
		unit   Unit
		scale  float64
	}{
		{"%", UnitRate, 0.01},
		{"ms", UnitSeconds, 0.001},
		{"khz", UnitHz, 1000},
		{"hz", UnitHz, 1},
		{"db", UnitDB, 1},
		{"s", UnitSeconds, 1},
	}
	lower := strings.ToLower(s)
	for _, sfx := range suffixes {
		if strings.HasSuffix(lower, sfx.suffix) {
			f, err := strconv.ParseFloat(strings.TrimSpace(s[:len(s)-len(sfx.suffix)]), 64)
			if err != nil {
				return Value{}, fmt.Errorf("param %q: %w", s, err)
			}
			return Value{Unit: sfx.unit, V: f * sfx.scale}, nil
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("param %q: %w", s, err)
	}
	return Value{Unit: UnitNone, V: f}, nil
}
