// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"math/bits"
)

// SampleFormat discriminates how the bits of one sample are interpreted.
type SampleFormat uint8

const (
	FormatUnknown SampleFormat = iota
	// Int is two's-complement signed.
	Int
	// Uint is unsigned, centred at half scale.
	Uint
	// Float is IEEE 754, 32 or 64 bits.
	Float
)

func (f SampleFormat) String() string {
	switch f {
	case Int:
		return "int"
	case Uint:
		return "uint"
	case Float:
		return "float"
	default:
		return "unknown"
	}
}

// Spec is the immutable descriptor of an audio stream.
type Spec struct {
	// Channels is the interleaved channel count, 1..255.
	Channels uint16

	// ChannelMask assigns each channel a speaker position. Zero means
	// unlabelled, positional by index.
	ChannelMask uint32

	// SampleRate in Hz.
	SampleRate uint32

	// BitsPerSample is one of 8, 16, 24, 32, 64.
	BitsPerSample uint16

	// SampleFormat tells how samples of BitsPerSample bits are read.
	SampleFormat SampleFormat
}

// Validate checks the Spec against the supported element types.
func (s Spec) Validate() error {
	if s.Channels == 0 || s.Channels > 255 {
		return &SpecValidationError{Reason: fmt.Sprintf("invalid channel count %d", s.Channels)}
	}
	if s.SampleRate == 0 {
		return &SpecValidationError{Reason: "zero sample rate"}
	}
	switch s.BitsPerSample {
	case 8, 16, 24, 32, 64:
	default:
		return &SpecValidationError{Reason: fmt.Sprintf("unsupported bit depth %d", s.BitsPerSample)}
	}
	switch s.SampleFormat {
	case Int, Uint:
	case Float:
		if s.BitsPerSample != 32 && s.BitsPerSample != 64 {
			return &SpecValidationError{
				Reason: fmt.Sprintf("float samples must be 32 or 64 bits, not %d", s.BitsPerSample),
			}
		}
	default:
		return &SpecValidationError{Reason: "unknown sample format"}
	}
	if s.ChannelMask != 0 && bits.OnesCount32(s.ChannelMask) > int(s.Channels) {
		return &SpecValidationError{Reason: "channel mask names more speakers than there are channels"}
	}
	return nil
}

// BytesPerSample is the on-disk width of one sample.
func (s Spec) BytesPerSample() uint32 { return uint32(s.BitsPerSample) / 8 }

// BlockAlign is the byte size of one interleaved frame.
func (s Spec) BlockAlign() uint32 { return uint32(s.Channels) * s.BytesPerSample() }

// GuessChannelMask returns the conventional speaker layout for the
// channel count when no mask was declared. Layouts beyond 8 channels
// have no convention and stay unlabelled.
func (s Spec) GuessChannelMask() uint32 {
	if s.ChannelMask != 0 {
		return s.ChannelMask
	}
	switch s.Channels {
	case 1:
		return SpeakerFrontCenter
	case 2:
		return SpeakerFrontLeft | SpeakerFrontRight
	case 3:
		return SpeakerFrontLeft | SpeakerFrontRight | SpeakerFrontCenter
	case 4:
		return SpeakerFrontLeft | SpeakerFrontRight | SpeakerBackLeft | SpeakerBackRight
	case 5:
		return SpeakerFrontLeft | SpeakerFrontRight | SpeakerFrontCenter |
			SpeakerBackLeft | SpeakerBackRight
	case 6:
		return SpeakerFrontLeft | SpeakerFrontRight | SpeakerFrontCenter |
			SpeakerLowFrequency | SpeakerBackLeft | SpeakerBackRight
	case 7:
		return SpeakerFrontLeft | SpeakerFrontRight | SpeakerFrontCenter |
			SpeakerLowFrequency | SpeakerBackCenter | SpeakerSideLeft | SpeakerSideRight
	case 8:
		return SpeakerFrontLeft | SpeakerFrontRight | SpeakerFrontCenter |
			SpeakerLowFrequency | SpeakerBackLeft | SpeakerBackRight |
			SpeakerSideLeft | SpeakerSideRight
	default:
		return 0
	}
}

// SpeakerPositions expands the channel mask into per-channel position
// bits in canonical order. Channels past the mask's population stay 0.
func (s Spec) SpeakerPositions() []uint32 {
	out := make([]uint32, 0, s.Channels)
	for bit := uint32(1); bit != 0 && len(out) < int(s.Channels); bit <<= 1 {
		if s.ChannelMask&bit != 0 {
			out = append(out, bit)
		}
	}
	for len(out) < int(s.Channels) {
		out = append(out, 0)
	}
	return out
}
