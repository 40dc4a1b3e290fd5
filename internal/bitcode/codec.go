package bitcode

import (
	"fmt"
	"math/bits"
)

const (
	// Two start symbols ("01") and two end symbols ("10") frame every payload.
	markerBits = 4

	// The payload accumulates into a uint64, so it cannot be wider than one.
	maxPayloadBits = 64
)

// Codec converts a 64-bit timestamp to and from a framed digital pulse train.
//
// One frame is START("01") | payload | END("10"), with the payload rendered
// big-endian and left-padded with zeros to FrameBits-4 symbols. Each symbol is
// expanded into RepeatFactor identical consecutive samples so a receiver that
// is one sample out of step with the sender still lands inside the correct
// symbol when it stride-samples the stream back down.
type Codec struct {
	FrameBits    int
	RepeatFactor int
}

// New validates the frame geometry. FrameBits counts logical symbols including
// the four marker symbols; RepeatFactor is physical samples per symbol.
func New(frameBits, repeatFactor int) (Codec, error) {
	if frameBits <= markerBits {
		return Codec{}, fmt.Errorf("bitcode: frame bits %d leave no payload symbols", frameBits)
	}
	if frameBits-markerBits > maxPayloadBits {
		return Codec{}, fmt.Errorf("bitcode: payload of %d bits exceeds uint64", frameBits-markerBits)
	}
	if repeatFactor < 1 {
		return Codec{}, fmt.Errorf("bitcode: repeat factor must be at least 1, got %d", repeatFactor)
	}
	return Codec{FrameBits: frameBits, RepeatFactor: repeatFactor}, nil
}

// PayloadBits is the number of value-carrying symbols per frame.
func (c Codec) PayloadBits() int { return c.FrameBits - markerBits }

// SampleCount is the number of physical samples one transmitted frame occupies.
func (c Codec) SampleCount() int { return c.FrameBits * c.RepeatFactor }

// ReadSampleCount is SampleCount plus the one trigger-skew sample the receiver
// picks up because its clock starts the sender's trigger and trails it.
func (c Codec) ReadSampleCount() int { return c.SampleCount() + 1 }

// Encode frames v into a sample array of exactly SampleCount bytes, each 0 or 1.
// Values wider than PayloadBits are rejected with ErrOverflow; this codec never
// truncates.
func (c Codec) Encode(v uint64) ([]byte, error) {
	payload := c.PayloadBits()
	if width := bits.Len64(v); width > payload {
		return nil, fmt.Errorf("%w: %d needs %d bits, payload holds %d", ErrOverflow, v, width, payload)
	}

	out := make([]byte, 0, c.SampleCount())
	out = c.appendSymbol(out, 0)
	out = c.appendSymbol(out, 1)
	for i := payload - 1; i >= 0; i-- {
		out = c.appendSymbol(out, byte(v>>uint(i))&1)
	}
	out = c.appendSymbol(out, 1)
	out = c.appendSymbol(out, 0)
	return out, nil
}

// Decode recovers the value from a received sample array. The array must hold
// exactly ReadSampleCount samples; its first sample is the trigger-skew
// artifact and is discarded unconditionally. Nonzero samples count as 1.
func (c Codec) Decode(samples []byte) (uint64, error) {
	if len(samples) != c.ReadSampleCount() {
		return 0, fmt.Errorf("%w: got %d samples, want %d", ErrMalformedFrame, len(samples), c.ReadSampleCount())
	}

	body := samples[1:]
	symbols := make([]byte, c.FrameBits)
	for i := range symbols {
		if body[i*c.RepeatFactor] != 0 {
			symbols[i] = 1
		}
	}

	last := c.FrameBits - 1
	if symbols[0] != 0 || symbols[1] != 1 || symbols[last-1] != 1 || symbols[last] != 0 {
		return 0, fmt.Errorf("%w: start=%d%d end=%d%d", ErrFrameSync,
			symbols[0], symbols[1], symbols[last-1], symbols[last])
	}

	var v uint64
	for _, s := range symbols[2 : last-1] {
		v = v*2 + uint64(s)
	}
	return v, nil
}

func (c Codec) appendSymbol(dst []byte, bit byte) []byte {
	for i := 0; i < c.RepeatFactor; i++ {
		dst = append(dst, bit)
	}
	return dst
}
