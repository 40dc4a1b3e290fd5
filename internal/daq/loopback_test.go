package daq

import (
	"bytes"
	"errors"
	"testing"
)

func TestClockedLoopbackTriggerSkew(t *testing.T) {
	dev := NewLoopback()

	in, err := dev.ClockedInput("port0/line0", 40000, 9)
	if err != nil {
		t.Fatalf("clocked input: %v", err)
	}
	out, err := dev.ClockedOutput("port0/line1", 40000, 8, &StartTrigger{Source: "di/StartTrigger", Edge: RisingEdge})
	if err != nil {
		t.Fatalf("clocked output: %v", err)
	}

	written := []byte{0, 1, 0, 1, 0, 1, 1, 0}
	if err := out.WriteClocked(written); err != nil {
		t.Fatalf("arm write: %v", err)
	}

	read, err := in.ReadClocked(9)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if read[0] != 0 {
		t.Fatalf("artifact sample: got %d, want idle low", read[0])
	}
	if !bytes.Equal(read[1:], written) {
		t.Fatalf("readback trails write: got %v, want %v", read[1:], written)
	}
}

func TestClockedTasksRequireStopBeforeRearm(t *testing.T) {
	dev := NewLoopback()

	in, err := dev.ClockedInput("port0/line0", 40000, 9)
	if err != nil {
		t.Fatalf("clocked input: %v", err)
	}
	out, err := dev.ClockedOutput("port0/line1", 40000, 8, &StartTrigger{Source: "di/StartTrigger", Edge: RisingEdge})
	if err != nil {
		t.Fatalf("clocked output: %v", err)
	}

	samples := make([]byte, 8)
	if err := out.WriteClocked(samples); err != nil {
		t.Fatalf("first arm: %v", err)
	}
	if _, err := in.ReadClocked(9); err != nil {
		t.Fatalf("first read: %v", err)
	}

	if err := out.WriteClocked(samples); !errors.Is(err, ErrNotStopped) {
		t.Fatalf("re-arm without stop: expected ErrNotStopped, got %v", err)
	}
	if _, err := in.ReadClocked(9); !errors.Is(err, ErrNotStopped) {
		t.Fatalf("re-read without stop: expected ErrNotStopped, got %v", err)
	}

	if err := out.Stop(); err != nil {
		t.Fatalf("stop output: %v", err)
	}
	if err := in.Stop(); err != nil {
		t.Fatalf("stop input: %v", err)
	}
	if err := out.WriteClocked(samples); err != nil {
		t.Fatalf("arm after stop: %v", err)
	}
	if _, err := in.ReadClocked(9); err != nil {
		t.Fatalf("read after stop: %v", err)
	}
}

func TestReadWithoutArmedWriteIsIdle(t *testing.T) {
	dev := NewLoopback()
	in, err := dev.ClockedInput("port0/line0", 40000, 5)
	if err != nil {
		t.Fatalf("clocked input: %v", err)
	}
	read, err := in.ReadClocked(5)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for i, s := range read {
		if s != 0 {
			t.Fatalf("idle line sample %d: got %d, want 0", i, s)
		}
	}
}

func TestSampleCountMismatchRejected(t *testing.T) {
	dev := NewLoopback()
	out, err := dev.ClockedOutput("port0/line1", 40000, 8, nil)
	if err != nil {
		t.Fatalf("clocked output: %v", err)
	}
	if err := out.WriteClocked(make([]byte, 7)); !errors.Is(err, ErrSampleCount) {
		t.Fatalf("expected ErrSampleCount, got %v", err)
	}

	in, err := dev.ClockedInput("port0/line0", 40000, 9)
	if err != nil {
		t.Fatalf("clocked input: %v", err)
	}
	if _, err := in.ReadClocked(8); !errors.Is(err, ErrSampleCount) {
		t.Fatalf("expected ErrSampleCount, got %v", err)
	}
}

func TestImmediateLinesRecordWrites(t *testing.T) {
	dev := NewLoopback()
	out, err := dev.ImmediateOutput("port0/line3")
	if err != nil {
		t.Fatalf("immediate output: %v", err)
	}
	in, err := dev.ImmediateInput("port0/line3")
	if err != nil {
		t.Fatalf("immediate input: %v", err)
	}

	if err := out.WriteImmediate(1); err != nil {
		t.Fatalf("write high: %v", err)
	}
	if v, err := in.ReadImmediate(); err != nil || v != 1 {
		t.Fatalf("read high: v=%d err=%v", v, err)
	}
	if err := out.WriteImmediate(0); err != nil {
		t.Fatalf("write low: %v", err)
	}
	if v, err := in.ReadImmediate(); err != nil || v != 0 {
		t.Fatalf("read low: v=%d err=%v", v, err)
	}

	if got := dev.ImmediateWrites("port0/line3"); !bytes.Equal(got, []byte{1, 0}) {
		t.Fatalf("write history: got %v, want [1 0]", got)
	}
}

func TestFlipNextCorruptsOneRead(t *testing.T) {
	dev := NewLoopback()
	in, err := dev.ClockedInput("port0/line0", 40000, 5)
	if err != nil {
		t.Fatalf("clocked input: %v", err)
	}

	dev.FlipNext(2)
	read, err := in.ReadClocked(5)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if read[2] != 1 {
		t.Fatalf("expected corrupted sample, got %v", read)
	}

	if err := in.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	read, err = in.ReadClocked(5)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if read[2] != 0 {
		t.Fatalf("flip should be one-shot, got %v", read)
	}
}

func TestNowMicrosMonotonic(t *testing.T) {
	dev := NewLoopback()
	a := dev.NowMicros()
	b := dev.NowMicros()
	if b < a {
		t.Fatalf("clock went backwards: %d then %d", a, b)
	}
}

func TestClosedTasksReject(t *testing.T) {
	dev := NewLoopback()
	out, err := dev.ClockedOutput("port0/line1", 40000, 4, nil)
	if err != nil {
		t.Fatalf("clocked output: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := out.WriteClocked(make([]byte, 4)); !errors.Is(err, ErrTaskClosed) {
		t.Fatalf("expected ErrTaskClosed, got %v", err)
	}
}
