// SPDX-License-Identifier: EPL-2.0

package adpcm

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/riffwave/sample"
)

// ErrBadBlock reports a block too short to hold its preamble.
var ErrBadBlock = errors.New("adpcm: block shorter than its preamble")

// Decoder is the block-framing decoder for all three dialects.
type Decoder struct {
	r        io.ReadSeeker
	dialect  Dialect
	channels int

	blockSize       int
	samplesPerBlock int
	dataLen         uint64
	total           uint64

	coefs [][2]int16 // MS coefficient table from the fmt extension

	raw       []byte
	decoded   []int16 // interleaved frames of the loaded block
	loaded    int64   // block index currently decoded, -1 when none
	pos       int     // frame offset inside the loaded block
	frame     uint64  // absolute frame position
}

// NewDecoder builds a decoder over a seekable view of the data chunk.
// totalFrames comes from the fact chunk; zero derives an upper bound
// from the payload length.
func NewDecoder(r io.ReadSeeker, dialect Dialect, channels, blockSize, samplesPerBlock int, dataLen, totalFrames uint64, coefs [][2]int16) *Decoder {
	if blockSize <= 0 {
		blockSize = dialect.DefaultBlockSize(channels)
	}
	if samplesPerBlock <= 0 {
		samplesPerBlock = dialect.SamplesPerBlock(blockSize, channels)
	}
	if totalFrames == 0 {
		blocks := dataLen / uint64(blockSize)
		totalFrames = blocks * uint64(samplesPerBlock)
		if tail := dataLen % uint64(blockSize); tail > uint64(dialect.PreambleSize()*channels) {
			totalFrames += uint64(dialect.SamplesPerBlock(int(tail), channels))
		}
	}
	if len(coefs) == 0 {
		coefs = DefaultMsCoefs[:]
	}
	return &Decoder{
		r:               r,
		dialect:         dialect,
		channels:        channels,
		blockSize:       blockSize,
		samplesPerBlock: samplesPerBlock,
		dataLen:         dataLen,
		total:           totalFrames,
		coefs:           coefs,
		loaded:          -1,
	}
}

func (d *Decoder) NumFrames() (uint64, bool) { return d.total, true }

func (d *Decoder) Close() error { return nil }

// Seek is block-aligned: it loads the block holding the frame and
// replays from the preamble up to it.
func (d *Decoder) Seek(frame uint64) error {
	if frame > d.total {
		frame = d.total
	}
	block := int64(frame) / int64(d.samplesPerBlock)
	if block != d.loaded {
		if err := d.loadBlock(block); err != nil && err != io.EOF {
			return err
		}
	}
	d.pos = int(frame % uint64(d.samplesPerBlock))
	d.frame = frame
	return nil
}

func (d *Decoder) ReadSamples(dst []int32) (int, error) {
	want := len(dst) / d.channels
	got := 0
	for got < want && d.frame < d.total {
		if d.loaded < 0 || d.pos >= len(d.decoded)/d.channels {
			next := d.loaded + 1
			if d.loaded < 0 {
				next = int64(d.frame) / int64(d.samplesPerBlock)
			}
			if err := d.loadBlock(next); err != nil {
				if err == io.EOF && got > 0 {
					return got * d.channels, nil
				}
				return got * d.channels, err
			}
			d.pos = int(d.frame % uint64(d.samplesPerBlock))
		}
		avail := len(d.decoded)/d.channels - d.pos
		take := want - got
		if take > avail {
			take = avail
		}
		if rem := d.total - d.frame; uint64(take) > rem {
			take = int(rem)
		}
		for i := 0; i < take*d.channels; i++ {
			dst[got*d.channels+i] = sample.Convert[int32](d.decoded[d.pos*d.channels+i])
		}
		got += take
		d.pos += take
		d.frame += uint64(take)
	}
	if got == 0 {
		return 0, io.EOF
	}
	return got * d.channels, nil
}

func (d *Decoder) loadBlock(block int64) error {
	off := uint64(block) * uint64(d.blockSize)
	if off >= d.dataLen {
		return io.EOF
	}
	size := d.blockSize
	if rest := d.dataLen - off; uint64(size) > rest {
		size = int(rest)
	}
	if _, err := d.r.Seek(int64(off), io.SeekStart); err != nil {
		return fmt.Errorf("%w", err)
	}
	if cap(d.raw) < size {
		d.raw = make([]byte, size)
	}
	d.raw = d.raw[:size]
	if _, err := io.ReadFull(d.r, d.raw); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return io.EOF
		}
		return fmt.Errorf("%w", err)
	}

	var err error
	switch d.dialect {
	case Ms:
		d.decoded, err = d.decodeMs(d.raw)
	case Ima:
		d.decoded, err = d.decodeIma(d.raw)
	default:
		d.decoded, err = d.decodeYamaha(d.raw)
	}
	if err != nil {
		return err
	}
	d.loaded = block
	return nil
}

func (d *Decoder) decodeMs(raw []byte) ([]int16, error) {
	ch := d.channels
	if len(raw) < 7*ch {
		return nil, ErrBadBlock
	}
	states := make([]msState, ch)
	pos := 0
	for c := 0; c < ch; c++ {
		idx := int(raw[pos])
		pos++
		if idx >= len(d.coefs) {
			idx = 0
		}
		states[c].coef = d.coefs[idx]
	}
	for c := 0; c < ch; c++ {
		states[c].delta = int32(int16(uint16(raw[pos]) | uint16(raw[pos+1])<<8))
		pos += 2
		if states[c].delta < 16 {
			states[c].delta = 16
		}
	}
	for c := 0; c < ch; c++ {
		states[c].sample1 = int32(int16(uint16(raw[pos]) | uint16(raw[pos+1])<<8))
		pos += 2
	}
	for c := 0; c < ch; c++ {
		states[c].sample2 = int32(int16(uint16(raw[pos]) | uint16(raw[pos+1])<<8))
		pos += 2
	}

	frames := (len(raw)-7*ch)*2/ch + 2
	out := make([]int16, 0, frames*ch)
	// The two preamble samples are the first two frames, oldest first.
	for c := 0; c < ch; c++ {
		out = append(out, int16(states[c].sample2))
	}
	for c := 0; c < ch; c++ {
		out = append(out, int16(states[c].sample1))
	}

	// Nibbles alternate channels, high nibble first.
	c := 0
	for _, b := range raw[pos:] {
		out = append(out, states[c].decode(b>>4))
		c = (c + 1) % ch
		out = append(out, states[c].decode(b&0xF))
		c = (c + 1) % ch
	}
	// For stereo each byte is one frame; for mono two frames per byte.
	return out, nil
}

func (d *Decoder) decodeIma(raw []byte) ([]int16, error) {
	ch := d.channels
	if len(raw) < 4*ch {
		return nil, ErrBadBlock
	}
	states := make([]imaState, ch)
	pos := 0
	for c := 0; c < ch; c++ {
		states[c].predictor = int32(int16(uint16(raw[pos]) | uint16(raw[pos+1])<<8))
		idx := int8(raw[pos+2])
		if idx < 0 {
			idx = 0
		} else if idx > 88 {
			idx = 88
		}
		states[c].index = idx
		pos += 4
	}

	frames := (len(raw)-4*ch)*2/ch + 1
	out := make([]int16, frames*ch)
	// The preamble predictor is the first frame of each channel.
	for c := 0; c < ch; c++ {
		out[c] = int16(states[c].predictor)
	}

	// Data interleaves 4-byte words per channel, 8 samples per word,
	// low nibble first.
	frame := 1
	data := raw[pos:]
	for word := 0; word*4 < len(data) && frame < frames; word += ch {
		for c := 0; c < ch; c++ {
			wordStart := (word + c) * 4
			if wordStart+4 > len(data) {
				break
			}
			f := frame
			for i := 0; i < 4; i++ {
				b := data[wordStart+i]
				if f < frames {
					out[f*ch+c] = states[c].decode(b & 0xF)
					f++
				}
				if f < frames {
					out[f*ch+c] = states[c].decode(b >> 4)
					f++
				}
			}
		}
		frame += 8
	}
	if frame > frames {
		frame = frames
	}
	return out[:frames*ch], nil
}

func (d *Decoder) decodeYamaha(raw []byte) ([]int16, error) {
	ch := d.channels
	states := make([]yamahaState, ch)
	for c := range states {
		states[c] = newYamahaState()
	}
	frames := len(raw) * 2 / ch
	out := make([]int16, 0, frames*ch)
	if ch == 1 {
		for _, b := range raw {
			out = append(out, states[0].decode(b&0xF))
			out = append(out, states[0].decode(b>>4))
		}
	} else {
		// One byte per frame: channel 0 low, channel 1 high.
		for _, b := range raw {
			out = append(out, states[0].decode(b&0xF))
			out = append(out, states[1].decode(b>>4))
		}
	}
	return out, nil
}
