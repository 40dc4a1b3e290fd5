package transmit

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/danmuck/pulsectl/internal/bitcode"
	"github.com/danmuck/pulsectl/internal/daq"
	"github.com/danmuck/pulsectl/internal/observability"
	"github.com/danmuck/pulsectl/internal/relay"
	"github.com/rs/zerolog"
)

// Config holds the line wiring and timing of one transmitter.
//
// One full cycle occupies roughly (FrameBits*RepeatFactor+1)/SampleRateHz of
// wall time; with the default 68-bit frame repeated 40x at 40 kHz that is
// ~68ms, so timestamp updates arriving faster than ~15 Hz are coalesced and
// only the most recent one is transmitted.
type Config struct {
	PayloadOutLine string
	PayloadInLine  string
	TimingOutLine  string
	TimingInLine   string

	// TriggerSource is the device-level start event of the payload input task;
	// the armed payload write fires on its rising edge.
	TriggerSource string

	SampleRateHz float64
	FrameBits    int
	RepeatFactor int

	// PollInterval paces the idle loop. A busy poll with a short sleep keeps
	// detection latency inside the hardware-pulse latency budget.
	PollInterval time.Duration
}

// DefaultConfig mirrors the production wiring: a 64-bit payload framed to 68
// symbols, 40 samples per symbol, clocked at 40 kHz.
func DefaultConfig() Config {
	return Config{
		PayloadOutLine: "port0/line1",
		PayloadInLine:  "port0/line0",
		TimingOutLine:  "port0/line3",
		TimingInLine:   "port0/line2",
		TriggerSource:  "di/StartTrigger",
		SampleRateHz:   40000,
		FrameBits:      68,
		RepeatFactor:   40,
		PollInterval:   10 * time.Microsecond,
	}
}

// Controller runs the transmission cycle against one device. It owns all four
// task handles for its entire lifetime; nothing else touches them.
type Controller struct {
	cfg   Config
	codec bitcode.Codec
	cell  *relay.Relay
	log   zerolog.Logger

	payloadOut daq.ClockedOutput
	payloadIn  daq.ClockedInput
	timingOut  daq.ImmediateOutput
	timingIn   daq.ImmediateInput

	cycles   atomic.Uint64
	failures atomic.Uint64
	lastSent atomic.Uint64
}

// New creates the device tasks and primes the immediate path. The payload
// input task is created first because its start event is the trigger source
// the armed payload write waits on.
func New(dev daq.Device, cell *relay.Relay, cfg Config, logger zerolog.Logger) (*Controller, error) {
	codec, err := bitcode.New(cfg.FrameBits, cfg.RepeatFactor)
	if err != nil {
		return nil, err
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("transmit: poll interval must be positive, got %v", cfg.PollInterval)
	}

	c := &Controller{cfg: cfg, codec: codec, cell: cell, log: logger}

	c.payloadIn, err = dev.ClockedInput(cfg.PayloadInLine, cfg.SampleRateHz, codec.ReadSampleCount())
	if err != nil {
		return nil, fmt.Errorf("transmit: create payload input: %w", err)
	}
	c.payloadOut, err = dev.ClockedOutput(cfg.PayloadOutLine, cfg.SampleRateHz, codec.SampleCount(),
		&daq.StartTrigger{Source: cfg.TriggerSource, Edge: daq.RisingEdge})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("transmit: create payload output: %w", err)
	}
	c.timingIn, err = dev.ImmediateInput(cfg.TimingInLine)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("transmit: create timing input: %w", err)
	}
	c.timingOut, err = dev.ImmediateOutput(cfg.TimingOutLine)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("transmit: create timing output: %w", err)
	}

	// First immediate write/read pair is slow on real boards; do it now so the
	// timing edge inside a cycle is fast.
	if err := c.timingOut.WriteImmediate(0); err != nil {
		c.log.Warn().Err(err).Msg("timing line warmup write failed")
	}
	if _, err := c.timingIn.ReadImmediate(); err != nil {
		c.log.Warn().Err(err).Msg("timing line warmup read failed")
	}

	return c, nil
}

// Run polls the relay until shutdown is requested, transmitting one cycle per
// observed timestamp change. The timestamp is snapshotted once per cycle; the
// relay is never re-read mid-cycle. Shutdown is only honored between cycles.
func (c *Controller) Run() {
	last := c.cell.Timestamp()
	for c.cell.Running() {
		if ts := c.cell.Timestamp(); ts != last {
			if err := c.cycle(ts); err != nil {
				observability.RecordCycleError()
				c.log.Error().Err(err).Uint64("timestamp", ts).Msg("transmit cycle aborted")
			}
			// No retry either way; a dropped cycle is observed, not repeated.
			last = ts
		}
		time.Sleep(c.cfg.PollInterval)
	}
}

// cycle transmits one snapshotted timestamp and verifies the readback.
func (c *Controller) cycle(ts uint64) error {
	start := time.Now()

	// Timing HIGH first. One immediate write is far cheaper than a clocked
	// sample, so the downstream recorder gets its marker before the payload.
	if err := c.timingOut.WriteImmediate(1); err != nil {
		c.log.Warn().Err(err).Msg("timing line assert failed")
	}

	samples, err := c.codec.Encode(ts)
	if err != nil {
		c.deassertTiming()
		return err
	}

	// Arm the payload write. Nothing is on the line yet; the task waits for
	// the read task's start edge.
	if err := c.payloadOut.WriteClocked(samples); err != nil {
		c.stopClockedTasks()
		c.deassertTiming()
		return fmt.Errorf("arm payload write: %w", err)
	}

	// The read fires the trigger and trails the write by one sample.
	readback, readErr := c.payloadIn.ReadClocked(c.codec.ReadSampleCount())

	// Both clocked tasks must stop every cycle, success or not, or the next
	// arm fails.
	c.stopClockedTasks()

	c.deassertTiming()

	if readErr != nil {
		return fmt.Errorf("payload readback: %w", readErr)
	}

	decoded, err := c.codec.Decode(readback)
	if err != nil {
		return fmt.Errorf("decode readback: %w", err)
	}

	c.cycles.Add(1)
	c.lastSent.Store(ts)
	observability.RecordCycle(time.Since(start))

	if decoded != ts {
		c.failures.Add(1)
		observability.RecordVerificationFailure()
		c.log.Error().
			Uint64("sent", ts).
			Uint64("received", decoded).
			Msg("timestamp verification mismatch")
	}
	return nil
}

// deassertTiming drops the timing line and services its paired input. The
// readback value carries no protocol meaning; the input just has to be read.
func (c *Controller) deassertTiming() {
	if err := c.timingOut.WriteImmediate(0); err != nil {
		c.log.Warn().Err(err).Msg("timing line deassert failed")
	}
	if _, err := c.timingIn.ReadImmediate(); err != nil {
		c.log.Warn().Err(err).Msg("timing line readback failed")
	}
}

func (c *Controller) stopClockedTasks() {
	if err := c.payloadOut.Stop(); err != nil {
		c.log.Warn().Err(err).Msg("stop payload output failed")
	}
	if err := c.payloadIn.Stop(); err != nil {
		c.log.Warn().Err(err).Msg("stop payload input failed")
	}
}

// Cycles counts completed cycles, including ones that failed verification.
func (c *Controller) Cycles() uint64 { return c.cycles.Load() }

// Failures counts completed cycles whose readback decoded to a different value.
func (c *Controller) Failures() uint64 { return c.failures.Load() }

// LastTransmitted returns the value of the most recent completed cycle.
func (c *Controller) LastTransmitted() uint64 { return c.lastSent.Load() }

// Close releases every task the controller created. Safe to call after a
// partial New failure.
func (c *Controller) Close() error {
	var first error
	closeTask := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	if c.payloadOut != nil {
		closeTask(c.payloadOut.Close())
	}
	if c.payloadIn != nil {
		closeTask(c.payloadIn.Close())
	}
	if c.timingOut != nil {
		closeTask(c.timingOut.Close())
	}
	if c.timingIn != nil {
		closeTask(c.timingIn.Close())
	}
	return first
}
