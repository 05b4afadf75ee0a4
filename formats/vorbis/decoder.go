// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
	jvorbis "github.com/jfreymuth/vorbis"

	"github.com/ik5/riffwave/audio"
	"github.com/ik5/riffwave/ogg"
	"github.com/ik5/riffwave/sample"
)

// ErrHeaderMissing reports an encapsulation that needs headers from
// the fmt extension but got none.
var ErrHeaderMissing = errors.New("vorbis: setup headers missing")

// oggReader is an interface over oggvorbis.Reader to allow testing.
type oggReader interface {
	SampleRate() int
	Channels() int
	Length() int64
	Position() int64
	SetPosition(int64) error
	Read([]float32) (int, error)
}

// StreamDecoder reads a complete Ogg Vorbis stream (the original-
// stream encapsulation). Random access rides on the Ogg granule
// positions.
type StreamDecoder struct {
	dec      oggReader
	channels int

	buf []float32
}

func NewStreamDecoder(r io.Reader) (*StreamDecoder, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return &StreamDecoder{dec: dec, channels: dec.Channels()}, nil
}

func (d *StreamDecoder) SampleRate() int { return d.dec.SampleRate() }
func (d *StreamDecoder) Channels() int   { return d.channels }

func (d *StreamDecoder) NumFrames() (uint64, bool) {
	n := d.dec.Length()
	return uint64(n), n > 0
}

func (d *StreamDecoder) Seek(frame uint64) error {
	if err := d.dec.SetPosition(int64(frame)); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (d *StreamDecoder) Close() error { return nil }

func (d *StreamDecoder) ReadSamples(dst []int32) (int, error) {
	if cap(d.buf) < len(dst) {
		d.buf = make([]float32, len(dst))
	}
	d.buf = d.buf[:len(dst)]
	n, err := d.dec.Read(d.buf)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, nil
	}
	for i := 0; i < n; i++ {
		dst[i] = sample.Convert[int32](d.buf[i])
	}
	return n, err
}

// packetSource yields raw Vorbis audio packets for the header-in-fmt
// encapsulations.
type packetSource interface {
	next() ([]byte, error)
}

// oggPacketSource pulls packets off an audio-only Ogg page stream.
type oggPacketSource struct{ r *ogg.Reader }

func (s *oggPacketSource) next() ([]byte, error) {
	pkt, _, err := s.r.NextPacket()
	return pkt, err
}

// nakedPacketSource reads u32-length-prefixed packets.
type nakedPacketSource struct{ r io.Reader }

func (s *nakedPacketSource) next() ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(s.r, lenBuf[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	pkt := make([]byte, n)
	if _, err := io.ReadFull(s.r, pkt); err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return pkt, nil
}

// PacketDecoder decodes raw Vorbis packets with headers supplied out
// of band. It has no random access; the Reader materialises a scratch
// stream for seeking.
type PacketDecoder struct {
	dec      jvorbis.Decoder
	source   packetSource
	channels int

	pending []int32
}

// NewPacketDecoder primes the decoder with the setup headers from the
// fmt extension and reads packets from an Ogg page stream.
func NewPacketDecoder(r io.Reader, headers [][]byte) (*PacketDecoder, error) {
	return newPacketDecoder(&oggPacketSource{r: ogg.NewReader(r)}, headers)
}

// NewNakedDecoder reads length-prefixed packets without Ogg framing.
func NewNakedDecoder(r io.Reader, headers [][]byte) (*PacketDecoder, error) {
	return newPacketDecoder(&nakedPacketSource{r: r}, headers)
}

func newPacketDecoder(src packetSource, headers [][]byte) (*PacketDecoder, error) {
	if len(headers) < 3 {
		return nil, ErrHeaderMissing
	}
	d := &PacketDecoder{source: src}
	for _, h := range headers[:3] {
		if err := d.dec.ReadHeader(h); err != nil {
			return nil, fmt.Errorf("%w", err)
		}
	}
	d.channels = d.dec.Channels()
	return d, nil
}

func (d *PacketDecoder) SampleRate() int { return d.dec.SampleRate() }
func (d *PacketDecoder) Channels() int   { return d.channels }

func (d *PacketDecoder) NumFrames() (uint64, bool) { return 0, false }

func (d *PacketDecoder) Seek(uint64) error { return audio.ErrUnseekable }

func (d *PacketDecoder) Close() error { return nil }

func (d *PacketDecoder) ReadSamples(dst []int32) (int, error) {
	got := 0
	for got < len(dst) {
		if len(d.pending) == 0 {
			pkt, err := d.source.next()
			if err != nil {
				if got > 0 {
					return got, nil
				}
				return 0, err
			}
			out, err := d.dec.Decode(pkt)
			if err != nil {
				return got, fmt.Errorf("%w", err)
			}
			for _, v := range out {
				d.pending = append(d.pending, sample.Convert[int32](v))
			}
			continue
		}
		n := copy(dst[got:], d.pending)
		d.pending = d.pending[n:]
		got += n
	}
	return got, nil
}
