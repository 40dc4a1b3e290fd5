package daq

import "errors"

var (
	ErrTaskClosed     = errors.New("daq: task closed")
	ErrNotStopped     = errors.New("daq: clocked task not stopped since last cycle")
	ErrSampleCount    = errors.New("daq: sample count does not match task configuration")
	ErrDeviceNotBound = errors.New("daq: no physical device driver bound")
)

// Edge selects which transition of a trigger source fires a start trigger.
type Edge int

const (
	RisingEdge Edge = iota
	FallingEdge
)

// StartTrigger configures a clocked task to arm and wait for a digital edge on
// Source instead of free-running from its own start call.
type StartTrigger struct {
	Source string
	Edge   Edge
}

// Device provisions digital line tasks on one physical I/O board and exposes
// the board host's monotonic clock.
type Device interface {
	// ClockedOutput creates a task that clocks sampleCount samples out of line
	// at rateHz. With a non-nil trigger the task arms on write and transmits
	// only once the trigger edge fires.
	ClockedOutput(line string, rateHz float64, sampleCount int, trigger *StartTrigger) (ClockedOutput, error)

	// ClockedInput creates a task that clocks sampleCount samples in from line
	// at rateHz. Starting a read emits this task's start event, which is what
	// a paired armed output triggers on.
	ClockedInput(line string, rateHz float64, sampleCount int) (ClockedInput, error)

	// ImmediateOutput creates an unclocked single-sample write task on line.
	ImmediateOutput(line string) (ImmediateOutput, error)

	// ImmediateInput creates an unclocked single-sample read task on line.
	ImmediateInput(line string) (ImmediateInput, error)

	// NowMicros returns a monotonic microsecond reading.
	NowMicros() uint64
}

// ClockedOutput is a fixed-rate, fixed-length output task. WriteClocked arms
// the task; nothing reaches the line until the start trigger fires. Stop must
// be called after every cycle or the task refuses to re-arm.
type ClockedOutput interface {
	WriteClocked(samples []byte) error
	Stop() error
	Close() error
}

// ClockedInput is a fixed-rate, fixed-length input task. ReadClocked blocks
// until the configured sample count is acquired. Stop must be called after
// every cycle before the next read.
type ClockedInput interface {
	ReadClocked(sampleCount int) ([]byte, error)
	Stop() error
	Close() error
}

// ImmediateOutput writes one sample with no inherent clocking.
type ImmediateOutput interface {
	WriteImmediate(bit byte) error
	Close() error
}

// ImmediateInput reads one sample with no inherent clocking.
type ImmediateInput interface {
	ReadImmediate() (byte, error)
	Close() error
}
