// SPDX-License-Identifier: EPL-2.0

package adpcm

import (
	"fmt"
	"io"

	"github.com/ik5/riffwave/audio"
	"github.com/ik5/riffwave/sample"
)

// Encoder packs frames into fixed-size blocks. Frames buffer until a
// block fills; Finish encodes the trailing partial block.
type Encoder struct {
	w        io.Writer
	dialect  Dialect
	channels int

	blockSize       int
	samplesPerBlock int

	pending []int16 // interleaved frames waiting for a full block
	frames  uint64

	imaStates []imaState // IMA step indexes persist across blocks
}

func NewEncoder(w io.Writer, dialect Dialect, channels, blockSize int) *Encoder {
	if blockSize <= 0 {
		blockSize = dialect.DefaultBlockSize(channels)
	}
	return &Encoder{
		w:               w,
		dialect:         dialect,
		channels:        channels,
		blockSize:       blockSize,
		samplesPerBlock: dialect.SamplesPerBlock(blockSize, channels),
		imaStates:       make([]imaState, channels),
	}
}

// BlockSize returns the byte size of one full block.
func (e *Encoder) BlockSize() int { return e.blockSize }

// SamplesPerBlock returns the frame capacity of one full block.
func (e *Encoder) SamplesPerBlock() int { return e.samplesPerBlock }

// NumFrames reports the frames accepted so far.
func (e *Encoder) NumFrames() uint64 { return e.frames }

func (e *Encoder) WriteSamples(src []int32) error {
	if len(src)%e.channels != 0 {
		return audio.ErrInvalidDstSize
	}
	for _, v := range src {
		e.pending = append(e.pending, sample.Convert[int16](v))
	}
	e.frames += uint64(len(src) / e.channels)

	full := e.samplesPerBlock * e.channels
	for len(e.pending) >= full {
		if err := e.flushBlock(e.pending[:full]); err != nil {
			return err
		}
		e.pending = e.pending[full:]
	}
	return nil
}

// Finish encodes the trailing partial block.
func (e *Encoder) Finish() error {
	if len(e.pending) == 0 {
		return nil
	}
	err := e.flushBlock(e.pending)
	e.pending = nil
	return err
}

func (e *Encoder) flushBlock(frames []int16) error {
	var block []byte
	switch e.dialect {
	case Ms:
		block = e.encodeMs(frames)
	case Ima:
		block = e.encodeIma(frames)
	default:
		block = e.encodeYamaha(frames)
	}
	if _, err := e.w.Write(block); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// encodeMs picks, per channel, the predictor from the default table
// with the least squared prediction error over the block, stores the
// first two frames raw and nibble-codes the rest.
func (e *Encoder) encodeMs(frames []int16) []byte {
	ch := e.channels
	n := len(frames) / ch
	states := make([]msState, ch)
	coefIdx := make([]byte, ch)

	for c := 0; c < ch; c++ {
		bestIdx, bestErr := 0, int64(-1)
		for idx, coef := range DefaultMsCoefs {
			var errSum int64
			for i := 2; i < n; i++ {
				pred := (int32(frames[(i-1)*ch+c])*int32(coef[0]) +
					int32(frames[(i-2)*ch+c])*int32(coef[1])) >> 8
				d := int64(int32(frames[i*ch+c]) - pred)
				errSum += d * d
			}
			if bestErr < 0 || errSum < bestErr {
				bestIdx, bestErr = idx, errSum
			}
		}
		coefIdx[c] = byte(bestIdx)
		states[c].coef = DefaultMsCoefs[bestIdx]
		if n > 0 {
			states[c].sample2 = int32(frames[c])
		}
		if n > 1 {
			states[c].sample1 = int32(frames[ch+c])
		}
		states[c].delta = initialMsDelta(frames, c, ch, n)
	}

	out := make([]byte, 0, e.blockSize)
	out = append(out, coefIdx...)
	for c := 0; c < ch; c++ {
		out = append(out, byte(uint16(states[c].delta)), byte(uint16(states[c].delta)>>8))
	}
	for c := 0; c < ch; c++ {
		out = append(out, byte(uint16(states[c].sample1)), byte(uint16(states[c].sample1)>>8))
	}
	for c := 0; c < ch; c++ {
		out = append(out, byte(uint16(states[c].sample2)), byte(uint16(states[c].sample2)>>8))
	}

	// Nibbles alternate channels, high nibble first.
	var cur byte
	var have bool
	c := 0
	for i := 2; i < n; i++ {
		for ; c < ch; c++ {
			nib := states[c].encode(frames[i*ch+c])
			if !have {
				cur = nib << 4
				have = true
			} else {
				out = append(out, cur|nib)
				have = false
			}
		}
		c = 0
	}
	if have {
		out = append(out, cur)
	}
	return out
}

// initialMsDelta seeds the step from the mean prediction error, the
// way the reference encoder does, floored at 16.
func initialMsDelta(frames []int16, c, ch, n int) int32 {
	if n <= 2 {
		return 16
	}
	var sum int64
	for i := 2; i < n; i++ {
		d := int64(frames[i*ch+c]) - int64(frames[(i-1)*ch+c])
		if d < 0 {
			d = -d
		}
		sum += d
	}
	delta := int32(sum / int64(n-2) / 4)
	if delta < 16 {
		delta = 16
	}
	return delta
}

// encodeIma stores the first frame raw per channel with the carried
// step index, then packs nibbles into interleaved 4-byte channel words.
func (e *Encoder) encodeIma(frames []int16) []byte {
	ch := e.channels
	n := len(frames) / ch
	out := make([]byte, 0, e.blockSize)

	for c := 0; c < ch; c++ {
		e.imaStates[c].predictor = int32(frames[c])
		out = append(out,
			byte(uint16(frames[c])), byte(uint16(frames[c])>>8),
			byte(e.imaStates[c].index), 0)
	}

	// Gather nibbles per channel, then interleave as 4-byte words.
	nibbles := make([][]uint8, ch)
	for c := 0; c < ch; c++ {
		for i := 1; i < n; i++ {
			nibbles[c] = append(nibbles[c], e.imaStates[c].encode(frames[i*ch+c]))
		}
	}

	words := (n - 1 + 7) / 8
	for w := 0; w < words; w++ {
		for c := 0; c < ch; c++ {
			for i := 0; i < 4; i++ {
				var b byte
				lo := w*8 + i*2
				if lo < len(nibbles[c]) {
					b = nibbles[c][lo]
				}
				if lo+1 < len(nibbles[c]) {
					b |= nibbles[c][lo+1] << 4
				}
				out = append(out, b)
			}
		}
	}
	return out
}

// encodeYamaha resets the predictor and step at the block boundary and
// packs one nibble per sample, channel 0 in the low nibble.
func (e *Encoder) encodeYamaha(frames []int16) []byte {
	ch := e.channels
	n := len(frames) / ch
	states := make([]yamahaState, ch)
	for c := range states {
		states[c] = newYamahaState()
	}
	out := make([]byte, 0, e.blockSize)
	if ch == 1 {
		for i := 0; i+1 < n; i += 2 {
			lo := states[0].encode(frames[i])
			hi := states[0].encode(frames[i+1])
			out = append(out, lo|hi<<4)
		}
		if n%2 == 1 {
			out = append(out, states[0].encode(frames[n-1]))
		}
	} else {
		for i := 0; i < n; i++ {
			lo := states[0].encode(frames[i*ch])
			hi := states[1].encode(frames[i*ch+1])
			out = append(out, lo|hi<<4)
		}
	}
	return out
}
