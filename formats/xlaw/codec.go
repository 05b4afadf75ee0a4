// SPDX-License-Identifier: EPL-2.0

package xlaw

import (
	"fmt"
	"io"

	"github.com/ik5/riffwave/audio"
	"github.com/ik5/riffwave/sample"
)

// Law selects the compander.
type Law uint8

const (
	ALaw Law = iota
	MuLaw
)

// Decoder expands companded bytes to canonical samples. One byte per
// sample makes random access O(1).
type Decoder struct {
	r        io.ReadSeeker
	law      Law
	channels int
	frame    uint64
	total    uint64

	buf []byte
}

func NewDecoder(r io.ReadSeeker, law Law, channels int, dataLen uint64) *Decoder {
	return &Decoder{
		r:        r,
		law:      law,
		channels: channels,
		total:    dataLen / uint64(channels),
	}
}

func (d *Decoder) NumFrames() (uint64, bool) { return d.total, true }

func (d *Decoder) Seek(frame uint64) error {
	if frame > d.total {
		frame = d.total
	}
	if _, err := d.r.Seek(int64(frame)*int64(d.channels), io.SeekStart); err != nil {
		return fmt.Errorf("%w", err)
	}
	d.frame = frame
	return nil
}

func (d *Decoder) Close() error { return nil }

func (d *Decoder) ReadSamples(dst []int32) (int, error) {
	want := uint64(len(dst)) / uint64(d.channels)
	if remaining := d.total - d.frame; want > remaining {
		want = remaining
	}
	if want == 0 {
		return 0, io.EOF
	}
	n := int(want) * d.channels
	if cap(d.buf) < n {
		d.buf = make([]byte, n)
	}
	d.buf = d.buf[:n]

	read, err := io.ReadFull(d.r, d.buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		if err == io.EOF {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("%w", err)
	}
	frames := read / d.channels
	if frames == 0 {
		return 0, io.EOF
	}

	count := frames * d.channels
	if d.law == ALaw {
		for i := 0; i < count; i++ {
			dst[i] = sample.Convert[int32](DecodeALaw(d.buf[i]))
		}
	} else {
		for i := 0; i < count; i++ {
			dst[i] = sample.Convert[int32](DecodeMuLaw(d.buf[i]))
		}
	}
	d.frame += uint64(frames)
	return count, nil
}

// Encoder compresses canonical samples to companded bytes.
type Encoder struct {
	w        io.Writer
	law      Law
	channels int
	frames   uint64

	buf []byte
}

func NewEncoder(w io.Writer, law Law, channels int) *Encoder {
	return &Encoder{w: w, law: law, channels: channels}
}

func (e *Encoder) NumFrames() uint64 { return e.frames }

func (e *Encoder) WriteSamples(src []int32) error {
	if len(src)%e.channels != 0 {
		return audio.ErrInvalidDstSize
	}
	if cap(e.buf) < len(src) {
		e.buf = make([]byte, len(src))
	}
	e.buf = e.buf[:len(src)]

	if e.law == ALaw {
		for i, v := range src {
			e.buf[i] = EncodeALaw(sample.Convert[int16](v))
		}
	} else {
		for i, v := range src {
			e.buf[i] = EncodeMuLaw(sample.Convert[int16](v))
		}
	}
	if _, err := e.w.Write(e.buf); err != nil {
		return fmt.Errorf("%w", err)
	}
	e.frames += uint64(len(src) / e.channels)
	return nil
}

func (e *Encoder) Finish() error { return nil }
