package ksonio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/cbegin/kson-go/internal/timeline"
)

// reader collects warnings while converting decoded JSON into chart records.
// Every accessor falls back to a default instead of failing.
type reader struct {
	warnings []string
}

func (r *reader) warnf(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

// sortedKeys returns the keys of obj in order so warnings come out in the
// same order on every load.
func sortedKeys(obj map[string]any) []string {
	return slices.Sorted(maps.Keys(obj))
}

func decodeRaw(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// section decodes a top-level object. A missing or null section is nil, which
// reads as empty.
func (r *reader) section(top map[string]json.RawMessage, key string) map[string]any {
	raw, ok := top[key]
	if !ok {
		return nil
	}
	v, err := decodeRaw(raw)
	if err != nil || v == nil {
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		r.warnf("Invalid %s section: expected object", key)
		return nil
	}
	return obj
}

func asObject(v any) (map[string]any, bool) {
	obj, ok := v.(map[string]any)
	return obj, ok
}

func asArray(v any) ([]any, bool) {
	arr, ok := v.([]any)
	return arr, ok
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asFloat(v any) (float64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

// asInt accepts integers and floats with no fractional part.
func asInt(v any) (int64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return i, true
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64/2 {
		return 0, false
	}
	return int64(f), true
}

// asStrictInt accepts only integer literals.
func asStrictInt(v any) (int64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	return i, err == nil
}

func asPulse(v any) (timeline.Pulse, bool) {
	i, ok := asInt(v)
	return timeline.Pulse(i), ok
}

func asRelPulse(v any) (timeline.RelPulse, bool) {
	i, ok := asInt(v)
	return timeline.RelPulse(i), ok
}

func (r *reader) stringOr(obj map[string]any, key, def string) string {
	v, ok := obj[key]
	if !ok || v == nil {
		return def
	}
	s, ok := asString(v)
	if !ok {
		r.warnf("Invalid value for %q: expected string", key)
		return def
	}
	return s
}

func (r *reader) int32Or(obj map[string]any, key string, def int32) int32 {
	v, ok := obj[key]
	if !ok || v == nil {
		return def
	}
	i, ok := asInt(v)
	if !ok || i < math.MinInt32 || i > math.MaxInt32 {
		r.warnf("Invalid value for %q: expected integer", key)
		return def
	}
	return int32(i)
}

func (r *reader) floatOr(obj map[string]any, key string, def float64) float64 {
	v, ok := obj[key]
	if !ok || v == nil {
		return def
	}
	f, ok := asFloat(v)
	if !ok {
		r.warnf("Invalid value for %q: expected number", key)
		return def
	}
	return f
}

func (r *reader) boolOr(obj map[string]any, key string, def bool) bool {
	v, ok := obj[key]
	if !ok || v == nil {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		r.warnf("Invalid value for %q: expected bool", key)
		return def
	}
	return b
}

// byPulse reads [[y, value], ...]. Entries that are not pairs, or whose
// value does not convert, are skipped with a warning.
func byPulse[T any](r *reader, v any, conv func(any) (T, bool)) *timeline.Map[timeline.Pulse, T] {
	out := timeline.New[timeline.Pulse, T]()
	arr, ok := asArray(v)
	if !ok {
		return out
	}
	for _, item := range arr {
		pair, ok := asArray(item)
		if !ok || len(pair) < 2 {
			r.warnf("Invalid ByPulse entry format")
			continue
		}
		y, ok := asPulse(pair[0])
		if !ok {
			r.warnf("Invalid ByPulse entry format")
			continue
		}
		val, ok := conv(pair[1])
		if !ok {
			r.warnf("Invalid ByPulse entry value at pulse %d", y)
			continue
		}
		out.Set(y, val)
	}
	return out
}

// pulseSet reads a list of pulses, ignoring anything that is not an integer.
func pulseSet(v any) *timeline.Map[timeline.Pulse, struct{}] {
	out := timeline.New[timeline.Pulse, struct{}]()
	arr, _ := asArray(v)
	for _, item := range arr {
		if y, ok := asPulse(item); ok {
			out.Set(y, struct{}{})
		}
	}
	return out
}

func stringParams(v any) map[string]string {
	out := map[string]string{}
	obj, _ := asObject(v)
	for k, val := range obj {
		if s, ok := asString(val); ok {
			out[k] = s
		}
	}
	return out
}
