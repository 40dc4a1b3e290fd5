package config

import (
	"time"

	"github.com/danmuck/pulsectl/internal/transmit"
)

// ControllerConfig maps the validated document onto the transmitter's runtime
// config. Call Validate (or Load, which validates) first; parse errors here
// mean the document was never validated.
func ControllerConfig(cfg Config) (transmit.Config, error) {
	poll, err := cfg.Transmit.PollIntervalDuration()
	if err != nil {
		return transmit.Config{}, err
	}
	return transmit.Config{
		PayloadOutLine: cfg.Device.PayloadOutLine,
		PayloadInLine:  cfg.Device.PayloadInLine,
		TimingOutLine:  cfg.Device.TimingOutLine,
		TimingInLine:   cfg.Device.TimingInLine,
		TriggerSource:  cfg.Device.TriggerSource,
		SampleRateHz:   cfg.Bitcode.SampleRateHz(),
		FrameBits:      cfg.Bitcode.FrameBits,
		RepeatFactor:   cfg.Bitcode.RepeatFactor,
		PollInterval:   poll,
	}, nil
}

// ProducerSettings returns the producer tick interval and iteration count.
func ProducerSettings(cfg Config) (time.Duration, int, error) {
	interval, err := cfg.Producer.IntervalDuration()
	if err != nil {
		return 0, 0, err
	}
	return interval, cfg.Producer.Iterations, nil
}
