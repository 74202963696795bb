package kson

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cbegin/kson-go/internal/ksonio"
)

var (
	ErrMissingFormatVersion = ksonio.ErrMissingFormatVersion
	ErrInvalidFormatVersion = ksonio.ErrInvalidFormatVersion
	// ErrWarnings is returned by strict loads of a chart that produced
	// warnings.
	ErrWarnings = errors.New("kson: chart has warnings")
)

type LoadOption func(*loadConfig)

type loadConfig struct {
	strict bool
	hook   func(string)
}

func defaultLoadConfig() loadConfig {
	return loadConfig{}
}

// WithStrict makes any loader warning fail the load with ErrWarnings.
func WithStrict(enabled bool) LoadOption {
	return func(cfg *loadConfig) {
		cfg.strict = enabled
	}
}

// WithWarningHook installs a callback invoked once per warning, in order.
func WithWarningHook(hook func(string)) LoadOption {
	return func(cfg *loadConfig) {
		cfg.hook = hook
	}
}

func newLoadConfig(opts []LoadOption) loadConfig {
	cfg := defaultLoadConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (cfg loadConfig) check(warnings []string) error {
	if cfg.hook != nil {
		for _, w := range warnings {
			cfg.hook(w)
		}
	}
	if cfg.strict && len(warnings) > 0 {
		return fmt.Errorf("%w: %s", ErrWarnings, strings.Join(warnings, "; "))
	}
	return nil
}

// Load decodes a chart. Malformed entries are skipped and reported in
// ChartData.Warnings unless WithStrict is given.
func Load(r io.Reader, opts ...LoadOption) (*ChartData, error) {
	cfg := newLoadConfig(opts)
	c, err := ksonio.Load(r)
	if err != nil {
		return nil, err
	}
	if err := cfg.check(c.Warnings); err != nil {
		return nil, err
	}
	return c, nil
}

func LoadFile(path string, opts ...LoadOption) (*ChartData, error) {
	cfg := newLoadConfig(opts)
	c, err := ksonio.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.check(c.Warnings); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// LoadMeta decodes only the meta information and bgm of a chart.
func LoadMeta(r io.Reader, opts ...LoadOption) (*MetaChartData, error) {
	cfg := newLoadConfig(opts)
	c, err := ksonio.LoadMeta(r)
	if err != nil {
		return nil, err
	}
	if err := cfg.check(c.Warnings); err != nil {
		return nil, err
	}
	return c, nil
}

func LoadMetaFile(path string, opts ...LoadOption) (*MetaChartData, error) {
	cfg := newLoadConfig(opts)
	c, err := ksonio.LoadMetaFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.check(c.Warnings); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
