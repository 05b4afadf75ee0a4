// SPDX-License-Identifier: EPL-2.0

// Package pcm codes uncompressed interleaved little-endian samples.
//
// Frames are byte-addressable, so random access is a single seek:
// byte offset = frame * channels * bytes-per-sample. The typed entry
// points convert directly between disk bytes and the caller's element
// type, so even 64-bit payloads never pass through the canonical int32
// form.
package pcm

import (
	"fmt"
	"io"

	"github.com/ik5/riffwave/audio"
	"github.com/ik5/riffwave/sample"
)

// Decoder reads PCM frames out of a data chunk section.
type Decoder struct {
	r     io.ReadSeeker
	spec  audio.Spec
	frame uint64
	total uint64

	buf []byte
}

// NewDecoder positions a decoder over a seekable view of the data
// payload. dataLen bounds the stream; partial trailing frames are
// ignored.
func NewDecoder(r io.ReadSeeker, spec audio.Spec, dataLen uint64) *Decoder {
	align := uint64(spec.BlockAlign())
	total := uint64(0)
	if align > 0 {
		total = dataLen / align
	}
	return &Decoder{r: r, spec: spec, total: total}
}

func (d *Decoder) Spec() audio.Spec { return d.spec }

// NumFrames is exact for PCM: payload length over block align.
func (d *Decoder) NumFrames() (uint64, bool) { return d.total, true }

// Seek is O(1).
func (d *Decoder) Seek(frame uint64) error {
	if frame > d.total {
		frame = d.total
	}
	off := int64(frame) * int64(d.spec.BlockAlign())
	if _, err := d.r.Seek(off, io.SeekStart); err != nil {
		return fmt.Errorf("%w", err)
	}
	d.frame = frame
	return nil
}

func (d *Decoder) Close() error { return nil }

// ReadSamples decodes into the canonical left-aligned int32 form.
func (d *Decoder) ReadSamples(dst []int32) (int, error) {
	return ReadTyped(d, dst)
}

// ReadTyped decodes interleaved samples directly into the caller's
// element type. The count is in samples; only whole frames are read.
func ReadTyped[T sample.Type](d *Decoder, dst []T) (int, error) {
	channels := uint64(d.spec.Channels)
	want := uint64(len(dst)) / channels // frames
	if remaining := d.total - d.frame; want > remaining {
		want = remaining
	}
	if want == 0 {
		return 0, io.EOF
	}

	bytesNeeded := int(want * uint64(d.spec.BlockAlign()))
	if cap(d.buf) < bytesNeeded {
		d.buf = make([]byte, bytesNeeded)
	}
	d.buf = d.buf[:bytesNeeded]

	n, err := io.ReadFull(d.r, d.buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		if err == io.EOF {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("%w", err)
	}
	frames := uint64(n) / uint64(d.spec.BlockAlign())
	if frames == 0 {
		return 0, io.EOF
	}

	samples := int(frames * channels)
	DecodeInto(d.spec, d.buf[:frames*uint64(d.spec.BlockAlign())], dst[:samples])
	d.frame += frames
	return samples, nil
}

// Encoder writes PCM frames to its sink.
type Encoder struct {
	w      io.Writer
	spec   audio.Spec
	frames uint64

	buf []byte
}

func NewEncoder(w io.Writer, spec audio.Spec) *Encoder {
	return &Encoder{w: w, spec: spec}
}

// NumFrames reports the frames written so far.
func (e *Encoder) NumFrames() uint64 { return e.frames }

// WriteSamples encodes canonical int32 samples.
func (e *Encoder) WriteSamples(src []int32) error {
	return WriteTyped(e, src)
}

func (e *Encoder) Finish() error { return nil }

// WriteTyped encodes interleaved samples of any element type straight
// to disk bytes. len(src) must be a multiple of the channel count.
func WriteTyped[T sample.Type](e *Encoder, src []T) error {
	if len(src)%int(e.spec.Channels) != 0 {
		return audio.ErrInvalidDstSize
	}
	bytesNeeded := len(src) * int(e.spec.BytesPerSample())
	if cap(e.buf) < bytesNeeded {
		e.buf = make([]byte, bytesNeeded)
	}
	e.buf = e.buf[:bytesNeeded]

	EncodeFrom(e.spec, e.buf, src)
	if _, err := e.w.Write(e.buf); err != nil {
		return fmt.Errorf("%w", err)
	}
	e.frames += uint64(len(src)) / uint64(e.spec.Channels)
	return nil
}
