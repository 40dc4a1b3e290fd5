package daq

import (
	"fmt"
	"sync"
	"time"
)

type taskState int

const (
	taskIdle taskState = iota
	taskArmed
	taskFired
)

// Loopback is an in-process Device that wires each output straight back to its
// reader. It reproduces the board behaviors the transmit cycle depends on: an
// armed clocked write fires when the paired clocked read starts, the read
// stream trails the write stream by exactly one sample, and a clocked task
// refuses to re-arm until it has been stopped.
type Loopback struct {
	mu     sync.Mutex
	start  time.Time
	levels map[string]byte
	writes map[string][]byte
	armed  *loopClockedOutput

	flipNext  int // one-shot sample index to corrupt, -1 when unset
	flipEvery int // corrupt every Nth clocked read, 0 when off
	flipIndex int
	reads     int
}

// NewLoopback returns a loopback device with all lines idle low.
func NewLoopback() *Loopback {
	return &Loopback{
		start:    time.Now(),
		levels:   make(map[string]byte),
		writes:   make(map[string][]byte),
		flipNext: -1,
	}
}

// FlipNext corrupts sample index of the next clocked read. One-shot.
func (l *Loopback) FlipNext(index int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.flipNext = index
}

// FlipEvery corrupts sample index of every nth clocked read. n of 0 disables.
func (l *Loopback) FlipEvery(n, index int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.flipEvery = n
	l.flipIndex = index
}

// Level returns the current level of an immediate line.
func (l *Loopback) Level(line string) byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.levels[line]
}

// ImmediateWrites returns the history of immediate writes on line, oldest first.
func (l *Loopback) ImmediateWrites(line string) []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]byte, len(l.writes[line]))
	copy(out, l.writes[line])
	return out
}

func (l *Loopback) ClockedOutput(line string, rateHz float64, sampleCount int, trigger *StartTrigger) (ClockedOutput, error) {
	if rateHz <= 0 || sampleCount <= 0 {
		return nil, fmt.Errorf("daq: invalid clocked output geometry: rate=%v samples=%d", rateHz, sampleCount)
	}
	return &loopClockedOutput{dev: l, line: line, sampleCount: sampleCount, trigger: trigger}, nil
}

func (l *Loopback) ClockedInput(line string, rateHz float64, sampleCount int) (ClockedInput, error) {
	if rateHz <= 0 || sampleCount <= 0 {
		return nil, fmt.Errorf("daq: invalid clocked input geometry: rate=%v samples=%d", rateHz, sampleCount)
	}
	return &loopClockedInput{dev: l, line: line, sampleCount: sampleCount}, nil
}

func (l *Loopback) ImmediateOutput(line string) (ImmediateOutput, error) {
	return &loopImmediateOutput{dev: l, line: line}, nil
}

func (l *Loopback) ImmediateInput(line string) (ImmediateInput, error) {
	return &loopImmediateInput{dev: l, line: line}, nil
}

func (l *Loopback) NowMicros() uint64 {
	return uint64(time.Since(l.start).Microseconds())
}

type loopClockedOutput struct {
	dev         *Loopback
	line        string
	sampleCount int
	trigger     *StartTrigger
	state       taskState
	buf         []byte
	closed      bool
}

func (o *loopClockedOutput) WriteClocked(samples []byte) error {
	o.dev.mu.Lock()
	defer o.dev.mu.Unlock()
	if o.closed {
		return ErrTaskClosed
	}
	if o.state != taskIdle {
		return fmt.Errorf("%w: output %s", ErrNotStopped, o.line)
	}
	if len(samples) != o.sampleCount {
		return fmt.Errorf("%w: got %d, task configured for %d", ErrSampleCount, len(samples), o.sampleCount)
	}
	o.buf = make([]byte, len(samples))
	copy(o.buf, samples)
	o.state = taskArmed
	o.dev.armed = o
	return nil
}

func (o *loopClockedOutput) Stop() error {
	o.dev.mu.Lock()
	defer o.dev.mu.Unlock()
	if o.closed {
		return ErrTaskClosed
	}
	if o.dev.armed == o {
		o.dev.armed = nil
	}
	o.state = taskIdle
	o.buf = nil
	return nil
}

func (o *loopClockedOutput) Close() error {
	o.dev.mu.Lock()
	defer o.dev.mu.Unlock()
	if o.dev.armed == o {
		o.dev.armed = nil
	}
	o.closed = true
	o.state = taskIdle
	return nil
}

type loopClockedInput struct {
	dev         *Loopback
	line        string
	sampleCount int
	state       taskState
	closed      bool
}

// ReadClocked fires the paired armed output's trigger and returns one idle
// artifact sample followed by the armed buffer, padded to sampleCount.
func (i *loopClockedInput) ReadClocked(sampleCount int) ([]byte, error) {
	i.dev.mu.Lock()
	defer i.dev.mu.Unlock()
	if i.closed {
		return nil, ErrTaskClosed
	}
	if i.state != taskIdle {
		return nil, fmt.Errorf("%w: input %s", ErrNotStopped, i.line)
	}
	if sampleCount != i.sampleCount {
		return nil, fmt.Errorf("%w: got %d, task configured for %d", ErrSampleCount, sampleCount, i.sampleCount)
	}

	out := make([]byte, sampleCount)
	if armed := i.dev.armed; armed != nil && armed.state == taskArmed {
		copy(out[1:], armed.buf)
		armed.state = taskFired
		i.dev.armed = nil
	}
	i.state = taskFired
	i.dev.reads++

	if i.dev.flipNext >= 0 {
		if i.dev.flipNext < len(out) {
			out[i.dev.flipNext] ^= 1
		}
		i.dev.flipNext = -1
	} else if i.dev.flipEvery > 0 && i.dev.reads%i.dev.flipEvery == 0 && i.dev.flipIndex < len(out) {
		out[i.dev.flipIndex] ^= 1
	}
	return out, nil
}

func (i *loopClockedInput) Stop() error {
	i.dev.mu.Lock()
	defer i.dev.mu.Unlock()
	if i.closed {
		return ErrTaskClosed
	}
	i.state = taskIdle
	return nil
}

func (i *loopClockedInput) Close() error {
	i.dev.mu.Lock()
	defer i.dev.mu.Unlock()
	i.closed = true
	i.state = taskIdle
	return nil
}

type loopImmediateOutput struct {
	dev    *Loopback
	line   string
	closed bool
}

func (o *loopImmediateOutput) WriteImmediate(bit byte) error {
	o.dev.mu.Lock()
	defer o.dev.mu.Unlock()
	if o.closed {
		return ErrTaskClosed
	}
	if bit != 0 {
		bit = 1
	}
	o.dev.levels[o.line] = bit
	o.dev.writes[o.line] = append(o.dev.writes[o.line], bit)
	return nil
}

func (o *loopImmediateOutput) Close() error {
	o.dev.mu.Lock()
	defer o.dev.mu.Unlock()
	o.closed = true
	return nil
}

type loopImmediateInput struct {
	dev    *Loopback
	line   string
	closed bool
}

func (i *loopImmediateInput) ReadImmediate() (byte, error) {
	i.dev.mu.Lock()
	defer i.dev.mu.Unlock()
	if i.closed {
		return 0, ErrTaskClosed
	}
	return i.dev.levels[i.line], nil
}

func (i *loopImmediateInput) Close() error {
	i.dev.mu.Lock()
	defer i.dev.mu.Unlock()
	i.closed = true
	return nil
}
