package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Name     string         `toml:"name"`
	Device   DeviceConfig   `toml:"device"`
	Bitcode  BitcodeConfig  `toml:"bitcode"`
	Transmit TransmitConfig `toml:"transmit"`
	Producer ProducerConfig `toml:"producer"`
	HTTP     HTTPConfig     `toml:"http"`
}

type DeviceConfig struct {
	PayloadOutLine string `toml:"payload_out_line"`
	PayloadInLine  string `toml:"payload_in_line"`
	TimingOutLine  string `toml:"timing_out_line"`
	TimingInLine   string `toml:"timing_in_line"`
	TriggerSource  string `toml:"trigger_source"`
}

type BitcodeConfig struct {
	FrameBits    int `toml:"frame_bits"`
	RepeatFactor int `toml:"repeat_factor"`

	// DigitSampleHz is the rate the downstream recorder samples logical
	// symbols at; the board's physical clock runs RepeatFactor times faster.
	DigitSampleHz int `toml:"digit_sample_hz"`
}

type TransmitConfig struct {
	PollInterval string `toml:"poll_interval"`
}

type ProducerConfig struct {
	Interval   string `toml:"interval"`
	Iterations int    `toml:"iterations"`
}

type HTTPConfig struct {
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
}

// SampleRateHz is the physical clock rate of the board tasks.
func (b BitcodeConfig) SampleRateHz() float64 {
	return float64(b.DigitSampleHz * b.RepeatFactor)
}

func Default() Config {
	return Config{
		Name: "pulsectl",
		Device: DeviceConfig{
			PayloadOutLine: "port0/line1",
			PayloadInLine:  "port0/line0",
			TimingOutLine:  "port0/line3",
			TimingInLine:   "port0/line2",
			TriggerSource:  "di/StartTrigger",
		},
		Bitcode: BitcodeConfig{
			FrameBits:     68,
			RepeatFactor:  40,
			DigitSampleHz: 1000,
		},
		Transmit: TransmitConfig{
			PollInterval: "10us",
		},
		Producer: ProducerConfig{
			Interval:   "1s",
			Iterations: 25,
		},
		HTTP: HTTPConfig{
			Addr:        ":9000",
			CorsOrigins: []string{"http://localhost:3000"},
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("config missing name")
	}
	if err := validateDevice(cfg.Device); err != nil {
		return err
	}
	if err := validateBitcode(cfg.Bitcode); err != nil {
		return err
	}
	if _, err := cfg.Transmit.PollIntervalDuration(); err != nil {
		return err
	}
	if _, err := cfg.Producer.IntervalDuration(); err != nil {
		return err
	}
	if cfg.Producer.Iterations < 0 {
		return fmt.Errorf("producer iterations must not be negative")
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		return fmt.Errorf("http config missing addr")
	}
	return nil
}

func validateDevice(cfg DeviceConfig) error {
	lines := map[string]string{
		"payload_out_line": cfg.PayloadOutLine,
		"payload_in_line":  cfg.PayloadInLine,
		"timing_out_line":  cfg.TimingOutLine,
		"timing_in_line":   cfg.TimingInLine,
		"trigger_source":   cfg.TriggerSource,
	}
	for name, v := range lines {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("device config missing %s", name)
		}
	}
	seen := map[string]string{}
	for name, v := range lines {
		if name == "trigger_source" {
			continue
		}
		if prev, dup := seen[v]; dup {
			return fmt.Errorf("device config: %s and %s share line %q", prev, name, v)
		}
		seen[v] = name
	}
	return nil
}

func validateBitcode(cfg BitcodeConfig) error {
	if cfg.FrameBits <= 4 {
		return fmt.Errorf("bitcode frame_bits %d leave no payload symbols", cfg.FrameBits)
	}
	if cfg.FrameBits-4 > 64 {
		return fmt.Errorf("bitcode payload of %d bits exceeds uint64", cfg.FrameBits-4)
	}
	if cfg.RepeatFactor < 1 {
		return fmt.Errorf("bitcode repeat_factor must be at least 1")
	}
	if cfg.DigitSampleHz < 1 {
		return fmt.Errorf("bitcode digit_sample_hz must be positive")
	}
	return nil
}

func (t TransmitConfig) PollIntervalDuration() (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(t.PollInterval))
	if err != nil {
		return 0, fmt.Errorf("parse transmit poll_interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("transmit poll_interval must be positive")
	}
	return d, nil
}

func (p ProducerConfig) IntervalDuration() (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(p.Interval))
	if err != nil {
		return 0, fmt.Errorf("parse producer interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("producer interval must be positive")
	}
	return d, nil
}
