// Package ksonio reads KSON chart files.
//
// Decoding is lenient: missing fields take their KSON defaults and malformed
// entries are skipped with a message in the chart's Warnings. Only an
// unreadable document or a missing/invalid format_version is an error.
package ksonio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cbegin/kson-go/internal/chart"
)

var (
	ErrMissingFormatVersion = errors.New("kson: missing required field format_version")
	ErrInvalidFormatVersion = errors.New("kson: format_version must be an integer")
)

func LoadFile(path string) (*chart.ChartData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("kson: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a whole chart.
func Load(r io.Reader) (*chart.ChartData, error) {
	top, err := readTop(r)
	if err != nil {
		return nil, err
	}

	rd := &reader{}
	c := chart.New()
	c.Meta = rd.meta(rd.section(top, "meta"))
	c.Beat = rd.beat(rd.section(top, "beat"))
	c.Gauge = rd.gauge(rd.section(top, "gauge"))
	c.Note = rd.note(rd.section(top, "note"))
	c.Audio = rd.audio(rd.section(top, "audio"))
	c.Camera = rd.camera(rd.section(top, "camera"))
	c.BG = rd.bg(rd.section(top, "bg"))
	c.Editor = rd.editor(rd.section(top, "editor"))
	c.Compat = rd.compat(rd.section(top, "compat"))
	if raw, ok := top["impl"]; ok && string(raw) != "null" {
		c.Impl = append(json.RawMessage(nil), raw...)
	}
	c.Warnings = rd.warnings
	return c, nil
}

func LoadMetaFile(path string) (*chart.MetaChartData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("kson: open %s: %w", path, err)
	}
	defer f.Close()
	return LoadMeta(f)
}

// LoadMeta decodes only the meta section and the BGM information.
func LoadMeta(r io.Reader) (*chart.MetaChartData, error) {
	top, err := readTop(r)
	if err != nil {
		return nil, err
	}
	rd := &reader{}
	m := &chart.MetaChartData{
		Meta:  rd.meta(rd.section(top, "meta")),
		Audio: chart.MetaAudioInfo{BGM: rd.metaBGM(rd.section(top, "audio"))},
	}
	m.Warnings = rd.warnings
	return m, nil
}

func readTop(r io.Reader) (map[string]json.RawMessage, error) {
	var top map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&top); err != nil {
		return nil, fmt.Errorf("kson: decode: %w", err)
	}
	raw, ok := top["format_version"]
	if !ok || string(raw) == "null" {
		return nil, ErrMissingFormatVersion
	}
	v, err := decodeRaw(raw)
	if err != nil {
		return nil, ErrInvalidFormatVersion
	}
	if _, ok := asStrictInt(v); !ok {
		return nil, ErrInvalidFormatVersion
	}
	return top, nil
}
