// Package config holds settings shared by the command line tools. Values come
// from an optional yaml file and are then overridden from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cbegin/kson-go/internal/timeline"
)

const (
	EnvSubdivision = "KSON_SUBDIVISION"
	EnvIndexPath   = "KSON_INDEX_PATH"
	EnvStrict      = "KSON_STRICT"
	EnvSampleStep  = "KSON_SAMPLE_STEP"
)

const (
	DefaultSubdivision = timeline.RelPulse(timeline.Resolution / 8)
	DefaultSampleStep  = timeline.RelPulse(timeline.Resolution / 24)
	DefaultIndexPath   = "kson-index.db"
	DefaultWidth       = 960
	DefaultHeight      = 540
)

var (
	ErrInvalidSubdivision = errors.New("config: subdivision must be positive")
	ErrInvalidSampleStep  = errors.New("config: sample_step must be positive")
	ErrInvalidWindow      = errors.New("config: window size must be positive")
)

type Window struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type Config struct {
	// Subdivision is the interval, in pulses, used when expanding curves.
	Subdivision timeline.RelPulse `yaml:"subdivision"`
	// SampleStep is the pulse distance between samples when printing a graph.
	SampleStep timeline.RelPulse `yaml:"sample_step"`
	IndexPath  string            `yaml:"index_path"`
	// Strict turns loader warnings into errors.
	Strict bool   `yaml:"strict"`
	Window Window `yaml:"window"`
}

func Default() Config {
	return Config{
		Subdivision: DefaultSubdivision,
		SampleStep:  DefaultSampleStep,
		IndexPath:   DefaultIndexPath,
		Window:      Window{Width: DefaultWidth, Height: DefaultHeight},
	}
}

// Load reads a yaml config file. Fields left out of the file keep their
// defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) fillDefaults() {
	d := Default()
	if c.Subdivision == 0 {
		c.Subdivision = d.Subdivision
	}
	if c.SampleStep == 0 {
		c.SampleStep = d.SampleStep
	}
	if c.IndexPath == "" {
		c.IndexPath = d.IndexPath
	}
	if c.Window.Width == 0 {
		c.Window.Width = d.Window.Width
	}
	if c.Window.Height == 0 {
		c.Window.Height = d.Window.Height
	}
}

// LoadEnv loads the given .env files (".env" when none are given) into the
// process environment and then applies the overrides. Variables already set
// in the environment win over the files. A missing env file is reported but
// the overrides are still applied.
func (c *Config) LoadEnv(files ...string) error {
	loadErr := godotenv.Load(files...)
	if err := c.ApplyEnv(); err != nil {
		return err
	}
	if loadErr != nil {
		return fmt.Errorf("config: load env: %w", loadErr)
	}
	return nil
}

// ApplyEnv overrides fields from KSON_* environment variables. Empty
// variables are ignored.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvSubdivision); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvSubdivision, err)
		}
		c.Subdivision = timeline.RelPulse(n)
	}
	if v := os.Getenv(EnvSampleStep); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvSampleStep, err)
		}
		c.SampleStep = timeline.RelPulse(n)
	}
	if v := os.Getenv(EnvIndexPath); v != "" {
		c.IndexPath = v
	}
	if v := os.Getenv(EnvStrict); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvStrict, err)
		}
		c.Strict = b
	}
	return nil
}

func (c Config) Validate() error {
	if c.Subdivision <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSubdivision, c.Subdivision)
	}
	if c.SampleStep <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleStep, c.SampleStep)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidWindow, c.Window.Width, c.Window.Height)
	}
	return nil
}
