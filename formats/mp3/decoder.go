// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/riffwave/sample"
)

// mp3Reader is an interface for gomp3.Decoder to allow testing.
type mp3Reader interface {
	Read([]byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
	SampleRate() int
	Length() int64
}

// Decoder adapts a go-mp3 stream to the canonical codec contract.
// go-mp3 always produces 16-bit stereo, 4 bytes per frame.
type Decoder struct {
	dec        mp3Reader
	sampleRate int

	buf []byte
}

const mp3FrameBytes = 4 // 2 channels x int16

// NewDecoder opens the MP3 bitstream held in r.
func NewDecoder(r io.Reader) (*Decoder, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return &Decoder{dec: dec, sampleRate: dec.SampleRate()}, nil
}

func (d *Decoder) SampleRate() int { return d.sampleRate }
func (d *Decoder) Channels() int   { return 2 }

// NumFrames is known once go-mp3 has scanned the stream length.
func (d *Decoder) NumFrames() (uint64, bool) {
	n := d.dec.Length()
	if n < 0 {
		return 0, false
	}
	return uint64(n) / mp3FrameBytes, true
}

// Seek re-positions in decoded-frame space.
func (d *Decoder) Seek(frame uint64) error {
	if _, err := d.dec.Seek(int64(frame)*mp3FrameBytes, io.SeekStart); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (d *Decoder) Close() error { return nil }

// ReadSamples decodes into canonical left-aligned int32 samples.
func (d *Decoder) ReadSamples(dst []int32) (int, error) {
	bytesNeeded := len(dst) * 2
	if cap(d.buf) < bytesNeeded {
		d.buf = make([]byte, bytesNeeded)
	}
	d.buf = d.buf[:bytesNeeded]

	n, err := d.dec.Read(d.buf)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, nil
	}

	samples := n / 2
	for i := 0; i < samples; i++ {
		v := int16(uint16(d.buf[2*i]) | uint16(d.buf[2*i+1])<<8)
		dst[i] = sample.Convert[int32](v)
	}
	return samples, err
}
