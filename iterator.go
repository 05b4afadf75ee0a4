// SPDX-License-Identifier: EPL-2.0

package riffwave

import (
	"fmt"
	"io"

	"github.com/ik5/riffwave/audio"
	"github.com/ik5/riffwave/formats/pcm"
	"github.com/ik5/riffwave/sample"
)

// convCache is the per-Reader converter cache. The first iterator of a
// type installs its canonical-to-T converter; asking for another type
// evicts and reinstalls.
type convCache struct {
	key string
	fn  any
}

func converterFor[T sample.Type](c *convCache) func(src []int32, dst []T) {
	name := fmt.Sprintf("%T", *new(T))
	if c.key == name {
		if f, ok := c.fn.(func([]int32, []T)); ok {
			return f
		}
	}
	f := func(src []int32, dst []T) {
		for i, v := range src {
			dst[i] = sample.Convert[T](v)
		}
	}
	c.key = name
	c.fn = f
	return f
}

// FrameIter yields frames as vectors of the caller's element type.
// Each iterator owns its position, codec state and read cursor;
// iterators on the same Reader never disturb one another.
type FrameIter[T sample.Type] struct {
	r        *Reader
	channels int

	dec    audio.Decoder
	pcmDec *pcm.Decoder // exact typed path when the payload is PCM
	closer io.Closer

	conv  func([]int32, []T)
	canon []int32

	pos      uint64
	seekable bool
}

// Frames opens a frame iterator over the Reader's decoded stream.
func Frames[T sample.Type](r *Reader) (*FrameIter[T], error) {
	it := &FrameIter[T]{
		r:        r,
		channels: int(r.info.Spec.Channels),
		conv:     converterFor[T](&r.convCache),
	}
	it.canon = make([]int32, it.channels)

	if r.decoded != nil {
		it.useDecodedBacking()
		return it, nil
	}

	section, closer, err := r.dataSection()
	if err != nil {
		return nil, err
	}
	it.closer = closer

	if r.info.Format.IsPcmFamily() && r.info.Format.Kind == audio.Pcm {
		it.pcmDec = pcm.NewDecoder(section, r.info.Spec, r.tree.DataLength)
		it.seekable = true
		return it, nil
	}

	dec, err := r.newDecoder(section)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}
	it.dec = dec
	it.seekable = dec.Seek(0) != audio.ErrUnseekable
	return it, nil
}

// useDecodedBacking points the iterator at the materialised canonical
// PCM scratch.
func (it *FrameIter[T]) useDecodedBacking() {
	it.pcmDec = pcm.NewDecoder(it.r.decodedSection(), it.r.decodedSpec(),
		it.r.decodedFrames*uint64(it.channels)*4)
	it.dec = nil
	it.seekable = true
}

// Len reports the total frame count when known.
func (it *FrameIter[T]) Len() (uint64, bool) {
	if it.pcmDec != nil {
		return it.pcmDec.NumFrames()
	}
	if it.dec != nil {
		return it.dec.NumFrames()
	}
	return it.r.NumFrames()
}

// Pos returns the next frame index Next will yield.
func (it *FrameIter[T]) Pos() uint64 { return it.pos }

// Next yields one frame, io.EOF at the end of the stream.
func (it *FrameIter[T]) Next() ([]T, error) {
	frame := make([]T, it.channels)
	if it.pcmDec != nil {
		n, err := pcm.ReadTyped(it.pcmDec, frame)
		if err != nil {
			return nil, err
		}
		if n < it.channels {
			return nil, io.EOF
		}
		it.pos++
		return frame, nil
	}

	got := 0
	for got < it.channels {
		n, err := it.dec.ReadSamples(it.canon[got:])
		got += n
		if err != nil {
			if err == io.EOF && got == 0 {
				return nil, io.EOF
			}
			if err == io.EOF {
				break
			}
			return nil, err
		}
	}
	if got < it.channels {
		return nil, io.EOF
	}
	it.conv(it.canon, frame)
	it.pos++
	return frame, nil
}

// Seek positions the iterator at an absolute frame. For codecs with no
// random access the Reader materialises a decoded backing store on the
// first seek and every later iterator shares it.
func (it *FrameIter[T]) Seek(frame uint64) error {
	if it.pcmDec != nil {
		if err := it.pcmDec.Seek(frame); err != nil {
			return err
		}
		it.pos = frame
		return nil
	}

	err := it.dec.Seek(frame)
	if err == audio.ErrUnseekable {
		if err := it.r.materialize(); err != nil {
			return err
		}
		if it.closer != nil {
			it.closer.Close()
			it.closer = nil
		}
		it.dec.Close()
		it.useDecodedBacking()
		if err := it.pcmDec.Seek(frame); err != nil {
			return err
		}
		it.pos = frame
		return nil
	}
	if err != nil {
		return err
	}
	it.pos = frame
	return nil
}

// Clone creates an independent iterator at the same position.
func (it *FrameIter[T]) Clone() (*FrameIter[T], error) {
	if !it.seekable {
		// Cloning needs random access; switch to the decoded backing
		// first so both iterators can hold their own cursor.
		if err := it.Seek(it.pos); err != nil {
			return nil, err
		}
	}
	dup, err := Frames[T](it.r)
	if err != nil {
		return nil, err
	}
	if err := dup.Seek(it.pos); err != nil {
		dup.Close()
		return nil, err
	}
	return dup, nil
}

// Close releases the iterator's descriptor and codec state.
func (it *FrameIter[T]) Close() error {
	var first error
	if it.dec != nil {
		first = it.dec.Close()
	}
	if it.closer != nil {
		if err := it.closer.Close(); first == nil {
			first = err
		}
	}
	return first
}

// StereoIter yields (left, right) pairs of a two-channel stream.
type StereoIter[T sample.Type] struct {
	it *FrameIter[T]
}

// StereoFrames opens a stereo iterator; the stream must have exactly
// two channels.
func StereoFrames[T sample.Type](r *Reader) (*StereoIter[T], error) {
	if r.info.Spec.Channels != 2 {
		return nil, ErrWrongChannelCount
	}
	it, err := Frames[T](r)
	if err != nil {
		return nil, err
	}
	return &StereoIter[T]{it: it}, nil
}

func (s *StereoIter[T]) Next() (sample.Stereo[T], error) {
	frame, err := s.it.Next()
	if err != nil {
		return sample.Stereo[T]{}, err
	}
	return sample.Stereo[T]{L: frame[0], R: frame[1]}, nil
}

func (s *StereoIter[T]) Seek(frame uint64) error   { return s.it.Seek(frame) }
func (s *StereoIter[T]) Len() (uint64, bool)       { return s.it.Len() }
func (s *StereoIter[T]) Close() error              { return s.it.Close() }

// MonoIter yields scalar samples of a one-channel stream.
type MonoIter[T sample.Type] struct {
	it *FrameIter[T]
}

// MonoFrames opens a mono iterator; the stream must have exactly one
// channel.
func MonoFrames[T sample.Type](r *Reader) (*MonoIter[T], error) {
	if r.info.Spec.Channels != 1 {
		return nil, ErrWrongChannelCount
	}
	it, err := Frames[T](r)
	if err != nil {
		return nil, err
	}
	return &MonoIter[T]{it: it}, nil
}

func (m *MonoIter[T]) Next() (T, error) {
	frame, err := m.it.Next()
	if err != nil {
		var zero T
		return zero, err
	}
	return frame[0], nil
}

func (m *MonoIter[T]) Seek(frame uint64) error { return m.it.Seek(frame) }
func (m *MonoIter[T]) Len() (uint64, bool)     { return m.it.Len() }
func (m *MonoIter[T]) Close() error            { return m.it.Close() }
