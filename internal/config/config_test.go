package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Bitcode.SampleRateHz() != 40000 {
		t.Fatalf("sample rate: got %v, want 40000", cfg.Bitcode.SampleRateHz())
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	doc := `name = "bench-rig"

[bitcode]
frame_bits = 12
repeat_factor = 1
digit_sample_hz = 500

[transmit]
poll_interval = "250us"

[producer]
interval = "100ms"
iterations = 8
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Name != "bench-rig" {
		t.Fatalf("name: got %q", cfg.Name)
	}
	if cfg.Bitcode.FrameBits != 12 || cfg.Bitcode.RepeatFactor != 1 {
		t.Fatalf("bitcode overrides not applied: %+v", cfg.Bitcode)
	}
	if cfg.Bitcode.SampleRateHz() != 500 {
		t.Fatalf("sample rate: got %v, want 500", cfg.Bitcode.SampleRateHz())
	}
	// untouched sections keep their defaults
	if cfg.Device.PayloadOutLine != "port0/line1" {
		t.Fatalf("device default lost: %+v", cfg.Device)
	}
	if cfg.HTTP.Addr != ":9000" {
		t.Fatalf("http default lost: %+v", cfg.HTTP)
	}

	poll, err := cfg.Transmit.PollIntervalDuration()
	if err != nil {
		t.Fatalf("poll interval: %v", err)
	}
	if poll != 250*time.Microsecond {
		t.Fatalf("poll interval: got %v", poll)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidateRejectsBadDocuments(t *testing.T) {
	mutations := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty name", func(c *Config) { c.Name = " " }},
		{"missing line", func(c *Config) { c.Device.PayloadInLine = "" }},
		{"shared line", func(c *Config) { c.Device.PayloadInLine = c.Device.PayloadOutLine }},
		{"no payload symbols", func(c *Config) { c.Bitcode.FrameBits = 4 }},
		{"payload too wide", func(c *Config) { c.Bitcode.FrameBits = 70 }},
		{"zero repeat", func(c *Config) { c.Bitcode.RepeatFactor = 0 }},
		{"zero digit rate", func(c *Config) { c.Bitcode.DigitSampleHz = 0 }},
		{"bad poll interval", func(c *Config) { c.Transmit.PollInterval = "soon" }},
		{"negative poll interval", func(c *Config) { c.Transmit.PollInterval = "-1ms" }},
		{"bad producer interval", func(c *Config) { c.Producer.Interval = "" }},
		{"negative iterations", func(c *Config) { c.Producer.Iterations = -1 }},
		{"missing http addr", func(c *Config) { c.HTTP.Addr = "" }},
	}
	for _, tc := range mutations {
		cfg := Default()
		tc.mutate(&cfg)
		if err := Validate(cfg); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestTemplateRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	if err := WriteTemplate(path, true); err != nil {
		t.Fatalf("overwrite template: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if cfg.Bitcode.FrameBits != 68 || cfg.Bitcode.RepeatFactor != 40 {
		t.Fatalf("template geometry: %+v", cfg.Bitcode)
	}
}

func TestControllerConfigMapping(t *testing.T) {
	cfg := Default()
	tc, err := ControllerConfig(cfg)
	if err != nil {
		t.Fatalf("controller config: %v", err)
	}
	if tc.SampleRateHz != 40000 {
		t.Fatalf("sample rate: got %v", tc.SampleRateHz)
	}
	if tc.PollInterval != 10*time.Microsecond {
		t.Fatalf("poll interval: got %v", tc.PollInterval)
	}
	if tc.PayloadOutLine != cfg.Device.PayloadOutLine || tc.TriggerSource != cfg.Device.TriggerSource {
		t.Fatalf("line mapping: %+v", tc)
	}

	interval, iterations, err := ProducerSettings(cfg)
	if err != nil {
		t.Fatalf("producer settings: %v", err)
	}
	if interval != time.Second || iterations != 25 {
		t.Fatalf("producer settings: %v %d", interval, iterations)
	}
}
