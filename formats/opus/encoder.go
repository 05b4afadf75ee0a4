// SPDX-License-Identifier: EPL-2.0

package opus

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/thesyncim/gopus"

	"github.com/ik5/riffwave/sample"
)

// blockSink pads each packet the gopus writer emits to the fixed block
// size and appends it to the data chunk.
type blockSink struct {
	w         io.Writer
	blockSize int
	blocks    uint64
	err       error
}

func (s *blockSink) WritePacket(packet []byte) (int, error) {
	if len(packet) > s.blockSize {
		s.err = ErrPacketTooLarge
		return 0, s.err
	}
	block := make([]byte, s.blockSize)
	copy(block, packet)
	if _, err := s.w.Write(block); err != nil {
		s.err = fmt.Errorf("%w", err)
		return 0, s.err
	}
	s.blocks++
	return len(packet), nil
}

// Encoder converts canonical samples to float32 PCM and streams them
// through the gopus writer, one padded block per packet.
type Encoder struct {
	sink   *blockSink
	writer *gopus.Writer

	channels int
	perBlock int
	frames   uint64

	buf []byte
}

func NewEncoder(w io.Writer, rate uint32, channels, blockSize int) (*Encoder, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	sink := &blockSink{w: w, blockSize: blockSize}
	gw, err := gopus.NewWriter(int(rate), channels, sink, gopus.FormatFloat32LE, gopus.ApplicationAudio)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return &Encoder{
		sink:     sink,
		writer:   gw,
		channels: channels,
		perBlock: FrameDuration(rate),
	}, nil
}

// BlockSize is the byte size of one padded block.
func (e *Encoder) BlockSize() int { return e.sink.blockSize }

// SamplesPerBlock is the frame capacity of one packet.
func (e *Encoder) SamplesPerBlock() int { return e.perBlock }

// NumFrames reports the frames accepted so far.
func (e *Encoder) NumFrames() uint64 { return e.frames }

func (e *Encoder) WriteSamples(src []int32) error {
	bytesNeeded := len(src) * 4
	if cap(e.buf) < bytesNeeded {
		e.buf = make([]byte, bytesNeeded)
	}
	e.buf = e.buf[:bytesNeeded]
	for i, v := range src {
		bits := math.Float32bits(sample.Convert[float32](v))
		binary.LittleEndian.PutUint32(e.buf[i*4:], bits)
	}
	if _, err := e.writer.Write(e.buf); err != nil {
		return fmt.Errorf("%w", err)
	}
	if e.sink.err != nil {
		return e.sink.err
	}
	e.frames += uint64(len(src) / e.channels)
	return nil
}

func (e *Encoder) Finish() error {
	if err := e.writer.Flush(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return e.sink.err
}
