package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type simConfig struct {
	FrameBits    int
	RepeatFactor int
	SampleRateHz float64
	PollInterval time.Duration
	Interval     time.Duration
	Iterations   int

	// FlipEvery corrupts one sample of every Nth readback to exercise the
	// verification path; 0 leaves the loopback clean.
	FlipEvery int
	FlipIndex int
}

// defaultSimConfig shrinks the production geometry so a soak run finishes in
// seconds instead of minutes.
func defaultSimConfig() simConfig {
	return simConfig{
		FrameBits:    68,
		RepeatFactor: 40,
		SampleRateHz: 40000,
		PollInterval: 100 * time.Microsecond,
		Interval:     20 * time.Millisecond,
		Iterations:   200,
		FlipEvery:    0,
		FlipIndex:    5,
	}
}

type fileConfig struct {
	FrameBits    int     `toml:"frame_bits"`
	RepeatFactor int     `toml:"repeat_factor"`
	SampleRateHz float64 `toml:"sample_rate_hz"`
	PollInterval string  `toml:"poll_interval"`
	Interval     string  `toml:"interval"`
	Iterations   int     `toml:"iterations"`
	FlipEvery    int     `toml:"flip_every"`
	FlipIndex    int     `toml:"flip_index"`
}

func loadSimConfig(path string) (simConfig, error) {
	cfg := defaultSimConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return simConfig{}, fmt.Errorf("load pulsesim config: %w", err)
	}

	if meta.IsDefined("frame_bits") {
		cfg.FrameBits = raw.FrameBits
	}
	if meta.IsDefined("repeat_factor") {
		cfg.RepeatFactor = raw.RepeatFactor
	}
	if meta.IsDefined("sample_rate_hz") {
		cfg.SampleRateHz = raw.SampleRateHz
	}
	if meta.IsDefined("poll_interval") {
		d, err := parsePositiveDuration(raw.PollInterval)
		if err != nil {
			return simConfig{}, fmt.Errorf("parse poll_interval: %w", err)
		}
		cfg.PollInterval = d
	}
	if meta.IsDefined("interval") {
		d, err := parsePositiveDuration(raw.Interval)
		if err != nil {
			return simConfig{}, fmt.Errorf("parse interval: %w", err)
		}
		cfg.Interval = d
	}
	if meta.IsDefined("iterations") {
		cfg.Iterations = raw.Iterations
	}
	if meta.IsDefined("flip_every") {
		cfg.FlipEvery = raw.FlipEvery
	}
	if meta.IsDefined("flip_index") {
		cfg.FlipIndex = raw.FlipIndex
	}

	return cfg, nil
}

func parsePositiveDuration(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %v", d)
	}
	return d, nil
}
