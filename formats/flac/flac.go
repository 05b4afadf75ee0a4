// SPDX-License-Identifier: EPL-2.0

// Package flac codes FLAC streams encapsulated in a WAV data chunk:
// the payload is a complete native FLAC file, so the WAV wrapper adds
// the spec without re-coding anything.
//
// The DSP is github.com/mewkiz/flac. Decoding walks frames with
// ParseNext; encoding writes verbatim subframes, trading size for a
// bit-exact round trip.
package flac

import (
	"errors"
	"fmt"
	"io"

	mewflac "github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	flacmeta "github.com/mewkiz/flac/meta"

	"github.com/ik5/riffwave/sample"
)

// ErrBadBitDepth reports a FLAC bit depth the canonical form cannot
// carry losslessly.
var ErrBadBitDepth = errors.New("flac: unsupported bit depth")

// Decoder walks the embedded FLAC stream frame by frame.
type Decoder struct {
	stream   *mewflac.Stream
	channels int
	bps      uint8
	total    uint64

	pending []int32 // canonical samples not yet handed out
	frame   uint64
	seek    bool
}

// NewDecoder parses the FLAC header out of the data chunk section.
// When rs is seekable the FLAC seek table (or a frame-header scan)
// backs random access.
func NewDecoder(rs io.ReadSeeker) (*Decoder, error) {
	stream, err := mewflac.NewSeek(rs)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	info := stream.Info
	return &Decoder{
		stream:   stream,
		channels: int(info.NChannels),
		bps:      info.BitsPerSample,
		total:    info.NSamples,
		seek:     true,
	}, nil
}

func (d *Decoder) Channels() int   { return d.channels }
func (d *Decoder) SampleRate() int { return int(d.stream.Info.SampleRate) }

func (d *Decoder) NumFrames() (uint64, bool) {
	return d.total, d.total != 0
}

func (d *Decoder) Close() error { return nil }

// Seek lands on the FLAC frame containing the target and decodes
// forward to the exact position.
func (d *Decoder) Seek(target uint64) error {
	got, err := d.stream.Seek(target)
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	d.frame = got
	d.pending = nil
	for d.frame < target {
		if err := d.fill(); err != nil {
			return err
		}
		skip := int(target-d.frame) * d.channels
		if skip > len(d.pending) {
			skip = len(d.pending)
		}
		d.pending = d.pending[skip:]
		d.frame += uint64(skip / d.channels)
	}
	return nil
}

// fill decodes the next FLAC frame, interleaving its subframes into
// canonical left-aligned samples.
func (d *Decoder) fill() error {
	f, err := d.stream.ParseNext()
	if err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("%w", err)
	}
	n := int(f.Subframes[0].NSamples)
	for i := 0; i < n; i++ {
		for _, sub := range f.Subframes {
			d.pending = append(d.pending, canonical(sub.Samples[i], d.bps))
		}
	}
	return nil
}

func canonical(v int32, bps uint8) int32 {
	switch bps {
	case 8:
		return sample.Convert[int32](int8(v))
	case 16:
		return sample.Convert[int32](int16(v))
	case 24:
		return sample.Convert[int32](sample.Int24(v))
	default:
		return v
	}
}

func (d *Decoder) ReadSamples(dst []int32) (int, error) {
	got := 0
	for got < len(dst) {
		if len(d.pending) == 0 {
			if err := d.fill(); err != nil {
				if got > 0 {
					return got, nil
				}
				return 0, err
			}
		}
		n := copy(dst[got:], d.pending)
		d.pending = d.pending[n:]
		got += n
		d.frame += uint64(n / d.channels)
	}
	return got, nil
}

// Encoder writes a native FLAC stream with verbatim subframes.
type Encoder struct {
	enc  *mewflac.Encoder
	rate uint32
	bps  uint8
	ch   int

	blockSize int
	pending   []int32 // native-width samples waiting for a block
	frames    uint64
	frameNum  uint64
}

// NewEncoder starts the FLAC stream header on w.
func NewEncoder(w io.Writer, rate uint32, channels int, bps uint8, blockSize int) (*Encoder, error) {
	switch bps {
	case 8, 16, 24, 32:
	default:
		return nil, ErrBadBitDepth
	}
	if blockSize <= 0 {
		blockSize = 4096
	}
	info := &flacmeta.StreamInfo{
		BlockSizeMin:  uint16(blockSize),
		BlockSizeMax:  uint16(blockSize),
		SampleRate:    rate,
		NChannels:     uint8(channels),
		BitsPerSample: bps,
	}
	enc, err := mewflac.NewEncoder(w, info)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return &Encoder{enc: enc, rate: rate, bps: bps, ch: channels, blockSize: blockSize}, nil
}

// NumFrames reports the frames accepted so far.
func (e *Encoder) NumFrames() uint64 { return e.frames }

func (e *Encoder) WriteSamples(src []int32) error {
	for _, v := range src {
		e.pending = append(e.pending, native(v, e.bps))
	}
	e.frames += uint64(len(src) / e.ch)

	full := e.blockSize * e.ch
	for len(e.pending) >= full {
		if err := e.writeFrame(e.pending[:full]); err != nil {
			return err
		}
		e.pending = e.pending[full:]
	}
	return nil
}

func native(v int32, bps uint8) int32 {
	switch bps {
	case 8:
		return int32(sample.Convert[int8](v))
	case 16:
		return int32(sample.Convert[int16](v))
	case 24:
		return int32(sample.Convert[sample.Int24](v))
	default:
		return v
	}
}

func (e *Encoder) writeFrame(interleaved []int32) error {
	n := len(interleaved) / e.ch
	subframes := make([]*frame.Subframe, e.ch)
	for c := 0; c < e.ch; c++ {
		samples := make([]int32, n)
		for i := 0; i < n; i++ {
			samples[i] = interleaved[i*e.ch+c]
		}
		subframes[c] = &frame.Subframe{
			SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
			Samples:   samples,
			NSamples:  n,
		}
	}
	f := &frame.Frame{
		Header: frame.Header{
			HasFixedBlockSize: true,
			BlockSize:         uint16(n),
			SampleRate:        e.rate,
			Channels:          channelLayout(e.ch),
			BitsPerSample:     e.bps,
			Num:               e.frameNum,
		},
		Subframes: subframes,
	}
	if err := e.enc.WriteFrame(f); err != nil {
		return fmt.Errorf("%w", err)
	}
	e.frameNum++
	return nil
}

func channelLayout(ch int) frame.Channels {
	// The independent-channel layouts occupy the first eight values.
	return frame.Channels(ch - 1)
}

// Finish flushes the tail block and closes the FLAC stream.
func (e *Encoder) Finish() error {
	if len(e.pending) > 0 {
		if err := e.writeFrame(e.pending); err != nil {
			return err
		}
		e.pending = nil
	}
	if err := e.enc.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}
