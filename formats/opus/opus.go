// SPDX-License-Identifier: EPL-2.0

// Package opus codes naked Opus streams in a WAV data chunk: no Ogg
// container, one packet per fixed-size block, zero-padded to the block
// size declared in the fmt chunk. The frame capacity of a block rides
// in the fmt extension like the ADPCM dialects do.
//
// The DSP is github.com/thesyncim/gopus, a pure-Go RFC 6716
// implementation.
package opus

import (
	"errors"
	"fmt"
	"io"

	"github.com/thesyncim/gopus"

	"github.com/ik5/riffwave/sample"
)

// DefaultBlockSize holds the largest self-delimited packet the block
// layout accepts; 1275 bytes is the biggest single Opus frame, padded
// up to a round block.
const DefaultBlockSize = 1280

// ErrPacketTooLarge reports a packet that does not fit the block size.
var ErrPacketTooLarge = errors.New("opus: encoded packet exceeds block size")

// SupportedRates are the sample rates Opus operates at.
var SupportedRates = [5]uint32{8000, 12000, 16000, 24000, 48000}

// RoundRate rounds a sample rate up to the nearest supported point.
func RoundRate(rate uint32) uint32 {
	for _, r := range SupportedRates {
		if rate <= r {
			return r
		}
	}
	return 48000
}

// FrameDuration is the packet duration the encoder uses, in frames.
func FrameDuration(rate uint32) int { return int(rate) / 50 } // 20 ms

// Decoder reads one packet per block and decodes through gopus.
type Decoder struct {
	r         io.ReadSeeker
	dec       *gopus.Decoder
	channels  int
	blockSize int
	perBlock  int // frames per block
	dataLen   uint64
	total     uint64

	block     []byte
	decodeBuf []float32 // scratch buffer for one decoded packet
	pending   []float32 // decoded frames not yet handed out
	frame     uint64
	nextBlk   int64
}

func NewDecoder(r io.ReadSeeker, rate uint32, channels, blockSize, samplesPerBlock int, dataLen, totalFrames uint64) (*Decoder, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if samplesPerBlock <= 0 {
		samplesPerBlock = FrameDuration(rate)
	}
	cfg := gopus.DefaultDecoderConfig(int(rate), channels)
	dec, err := gopus.NewDecoder(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	if totalFrames == 0 {
		totalFrames = dataLen / uint64(blockSize) * uint64(samplesPerBlock)
	}
	return &Decoder{
		r:         r,
		dec:       dec,
		channels:  channels,
		blockSize: blockSize,
		perBlock:  samplesPerBlock,
		dataLen:   dataLen,
		total:     totalFrames,
		decodeBuf: make([]float32, cfg.MaxPacketSamples*channels),
	}, nil
}

func (d *Decoder) NumFrames() (uint64, bool) { return d.total, true }

func (d *Decoder) Close() error { return nil }

// Seek is block-aligned. The decoder state is reset, so the first
// packet after a seek decodes without the previous packet's overlap;
// that is the documented resolution loss of seeking a lossy stream.
func (d *Decoder) Seek(frame uint64) error {
	if frame > d.total {
		frame = d.total
	}
	blk := int64(frame) / int64(d.perBlock)
	if _, err := d.r.Seek(blk*int64(d.blockSize), io.SeekStart); err != nil {
		return fmt.Errorf("%w", err)
	}
	d.dec.Reset()
	d.nextBlk = blk
	d.pending = nil
	d.frame = uint64(blk) * uint64(d.perBlock)

	// Decode forward inside the block to the exact frame.
	skip := frame - d.frame
	if skip > 0 {
		if err := d.fill(); err != nil && err != io.EOF {
			return err
		}
		n := int(skip) * d.channels
		if n > len(d.pending) {
			n = len(d.pending)
		}
		d.pending = d.pending[n:]
		d.frame += uint64(n / d.channels)
	}
	return nil
}

func (d *Decoder) fill() error {
	off := d.nextBlk * int64(d.blockSize)
	if uint64(off) >= d.dataLen {
		return io.EOF
	}
	if cap(d.block) < d.blockSize {
		d.block = make([]byte, d.blockSize)
	}
	d.block = d.block[:d.blockSize]
	if _, err := d.r.Seek(off, io.SeekStart); err != nil {
		return fmt.Errorf("%w", err)
	}
	n, err := io.ReadFull(d.r, d.block)
	if n == 0 {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return io.EOF
		}
		return fmt.Errorf("%w", err)
	}
	samples, err := d.dec.Decode(d.block[:n], d.decodeBuf)
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	d.pending = append(d.pending, d.decodeBuf[:samples*d.channels]...)
	d.nextBlk++
	return nil
}

func (d *Decoder) ReadSamples(dst []int32) (int, error) {
	got := 0
	for got < len(dst) && d.frame < d.total {
		if len(d.pending) == 0 {
			if err := d.fill(); err != nil {
				if got > 0 {
					return got, nil
				}
				return 0, err
			}
		}
		n := len(dst) - got
		if n > len(d.pending) {
			n = len(d.pending)
		}
		if rem := int(d.total-d.frame) * d.channels; n > rem {
			n = rem
		}
		for i := 0; i < n; i++ {
			dst[got+i] = sample.Convert[int32](d.pending[i])
		}
		d.pending = d.pending[n:]
		got += n
		d.frame += uint64(n / d.channels)
	}
	if got == 0 {
		return 0, io.EOF
	}
	return got, nil
}
