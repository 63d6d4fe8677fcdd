// Package config loads runtime settings for icestore stores.
//
// Settings come from defaults, then an optional YAML file, then ICESTORE_*
// environment variables, in that order.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "ICESTORE_"

// Config is the full runtime configuration.
type Config struct {
	Scheduler Scheduler `yaml:"scheduler" envPrefix:"SCHEDULER_"`
	Log       Log       `yaml:"log"       envPrefix:"LOG_"`
}

// Scheduler sizes the effect command queue of each mounted model.
type Scheduler struct {
	BufferSize int `yaml:"bufferSize" env:"BUFFER_SIZE"` // default: 16, raised to 1 when <= 0
	NumWorkers int `yaml:"numWorkers" env:"NUM_WORKERS"` // default: 4, raised to 1 when <= 0
}

// Log configures the zap logger behind the log effect handler.
type Log struct {
	Level       string `yaml:"level"       env:"LEVEL"`
	Development bool   `yaml:"development" env:"DEVELOPMENT"`
	BufferSize  int    `yaml:"bufferSize"  env:"BUFFER_SIZE"`
	// Output is a zap sink URL or file path; empty keeps zap's default.
	Output string `yaml:"output" env:"OUTPUT"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Scheduler: Scheduler{BufferSize: 16, NumWorkers: 4},
		Log:       Log{Level: "info", BufferSize: 64},
	}
}

// Load reads path (skipped when empty) over the defaults and applies
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Scheduler = cfg.Scheduler.Normalize()
	if cfg.Log.BufferSize <= 0 {
		cfg.Log.BufferSize = 1
	}
	return cfg, nil
}

// NewScheduler returns a scheduler configuration with non-positive sizes
// raised to 1.
func NewScheduler(bufferSize, numWorkers int) Scheduler {
	return Scheduler{BufferSize: bufferSize, NumWorkers: numWorkers}.Normalize()
}

// Normalize raises non-positive sizes to 1.
func (s Scheduler) Normalize() Scheduler {
	if s.BufferSize <= 0 {
		s.BufferSize = 1
	}
	if s.NumWorkers <= 0 {
		s.NumWorkers = 1
	}
	return s
}

// NewLogger builds a zap logger for these settings.
func (l Log) NewLogger() (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if l.Level != "" {
		parsed, err := zap.ParseAtomicLevel(l.Level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", l.Level, err)
		}
		level = parsed
	}

	zc := zap.NewProductionConfig()
	if l.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	if l.Output != "" {
		zc.OutputPaths = []string{l.Output}
	}
	return zc.Build()
}
