// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ik5/riffwave/audio"
	"github.com/ik5/riffwave/ogg"
	"github.com/ik5/riffwave/sample"
)

// ErrNoPacketEncoder is returned when a writer is created for Vorbis
// data without the external packet encoder collaborator.
var ErrNoPacketEncoder = errors.New("vorbis: no packet encoder provided")

// vorbisSerial is the Ogg stream serial this writer uses. WAV holds a
// single logical stream, so a fixed serial round-trips fine.
const vorbisSerial = 0x57415645

// Encoder encapsulates collaborator packets per the selected mode.
type Encoder struct {
	mode audio.VorbisMode
	enc  audio.VorbisPacketEncoder

	w   io.Writer   // raw sink, used by the naked mode
	ogg *ogg.Writer // page writer for the framed modes

	channels int
	frames   uint64
	buf      []float32

	// headers captured at construction, exposed for the fmt extension
	// in the header-out-of-band modes.
	ident, comment, setup []byte
}

// NewEncoder starts a Vorbis stream on w. For the original-stream mode
// the three headers are paged out immediately; for the other modes
// they are only captured, and ExtensionHeaders hands them to the fmt
// chunk builder.
func NewEncoder(w io.Writer, mode audio.VorbisMode, enc audio.VorbisPacketEncoder, channels int) (*Encoder, error) {
	if enc == nil {
		return nil, ErrNoPacketEncoder
	}
	ident, comment, setup, err := enc.Headers()
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	e := &Encoder{
		mode:     mode,
		enc:      enc,
		w:        w,
		channels: channels,
		ident:    ident,
		comment:  comment,
		setup:    setup,
	}

	if mode != audio.VorbisNaked {
		e.ogg = ogg.NewWriter(w, vorbisSerial)
	}

	if mode == audio.VorbisOriginalStream {
		// Identification header alone on the first page, comment and
		// setup sharing the second, per the Vorbis I spec.
		if err := e.ogg.WritePacket(ident, 0); err != nil {
			return nil, err
		}
		if err := e.ogg.FlushPage(); err != nil {
			return nil, err
		}
		if err := e.ogg.WritePacket(comment, 0); err != nil {
			return nil, err
		}
		if err := e.ogg.WritePacket(setup, 0); err != nil {
			return nil, err
		}
		if err := e.ogg.FlushPage(); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// ExtensionHeaders returns the length-prefixed header block the fmt
// extension carries for this mode: all three headers for the
// independent-header and naked modes, identification and comment only
// when the codebook header is elided, nothing for the original stream.
func (e *Encoder) ExtensionHeaders() []byte {
	var headers [][]byte
	switch e.mode {
	case audio.VorbisIndependentHeader, audio.VorbisNaked:
		headers = [][]byte{e.ident, e.comment, e.setup}
	case audio.VorbisNoCodebookHeader:
		headers = [][]byte{e.ident, e.comment}
	default:
		return nil
	}
	var out []byte
	for _, h := range headers {
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(h)))
		out = append(out, lenBuf[:]...)
		out = append(out, h...)
	}
	return out
}

// NumFrames reports the frames accepted so far.
func (e *Encoder) NumFrames() uint64 { return e.frames }

func (e *Encoder) WriteSamples(src []int32) error {
	if cap(e.buf) < len(src) {
		e.buf = make([]float32, len(src))
	}
	e.buf = e.buf[:len(src)]
	for i, v := range src {
		e.buf[i] = sample.Convert[float32](v)
	}
	packets, granules, err := e.enc.Encode(e.buf)
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	if err := e.emit(packets, granules); err != nil {
		return err
	}
	e.frames += uint64(len(src) / e.channels)
	return nil
}

func (e *Encoder) emit(packets [][]byte, granules []uint64) error {
	for i, pkt := range packets {
		var adv uint64
		if i < len(granules) {
			adv = granules[i]
		}
		if e.mode == audio.VorbisNaked {
			var lenBuf [4]byte
			binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(pkt)))
			if _, err := e.w.Write(lenBuf[:]); err != nil {
				return fmt.Errorf("%w", err)
			}
			if _, err := e.w.Write(pkt); err != nil {
				return fmt.Errorf("%w", err)
			}
			continue
		}
		if err := e.ogg.WritePacket(pkt, adv); err != nil {
			return err
		}
	}
	return nil
}

// Finish drains the collaborator and seals the stream.
func (e *Encoder) Finish() error {
	packets, granules, err := e.enc.Flush()
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	if err := e.emit(packets, granules); err != nil {
		return err
	}
	if e.ogg != nil {
		return e.ogg.Close()
	}
	return nil
}
