// SPDX-License-Identifier: EPL-2.0

package riffwave

import (
	"io"

	"github.com/ik5/riffwave/audio"
	"github.com/ik5/riffwave/sample"
)

// frameSource adapts a float32 frame iterator to the audio.Source
// contract the downmixer and resampler collaborators consume.
type frameSource struct {
	it       *FrameIter[float32]
	rate     int
	channels int
}

func (s *frameSource) SampleRate() int { return s.rate }
func (s *frameSource) Channels() int   { return s.channels }
func (s *frameSource) BufSize() int    { return 4096 }
func (s *frameSource) Close() error    { return s.it.Close() }

func (s *frameSource) ReadSamples(dst []float32) (int, error) {
	frames := len(dst) / s.channels
	got := 0
	for f := 0; f < frames; f++ {
		frame, err := s.it.Next()
		if err != nil {
			if got > 0 {
				return got * s.channels, nil
			}
			return 0, err
		}
		copy(dst[got*s.channels:], frame)
		got++
	}
	return got * s.channels, nil
}

// Source exposes the Reader's decoded stream as an audio.Source for
// the collaborator pipeline (resampler, downmixer).
func (r *Reader) Source() (audio.Source, error) {
	it, err := Frames[float32](r)
	if err != nil {
		return nil, err
	}
	return &frameSource{
		it:       it,
		rate:     int(r.info.Spec.SampleRate),
		channels: int(r.info.Spec.Channels),
	}, nil
}

// DownmixIter folds a multichannel stream to stereo or mono frames
// through the weighted downmixer.
type DownmixIter[T sample.Type] struct {
	mixer    *audio.Downmixer
	channels int
	buf      []float32
}

func newDownmixIter[T sample.Type](r *Reader, outChannels int) (*DownmixIter[T], error) {
	if r.info.Spec.Channels <= 2 {
		return nil, ErrNotMultichannel
	}
	src, err := r.Source()
	if err != nil {
		return nil, err
	}
	mask := r.info.Spec.GuessChannelMask()
	return &DownmixIter[T]{
		mixer:    audio.NewDownmixer(src, mask, outChannels),
		channels: outChannels,
		buf:      make([]float32, outChannels),
	}, nil
}

// DownmixStereo opens a stereo downmix iterator over a stream with
// more than two channels, weights derived from the channel mask.
func DownmixStereo[T sample.Type](r *Reader) (*DownmixIter[T], error) {
	return newDownmixIter[T](r, 2)
}

// DownmixMono opens a mono downmix iterator.
func DownmixMono[T sample.Type](r *Reader) (*DownmixIter[T], error) {
	return newDownmixIter[T](r, 1)
}

// Next yields one downmixed frame.
func (d *DownmixIter[T]) Next() ([]T, error) {
	n, err := d.mixer.ReadSamples(d.buf)
	if n < d.channels {
		if err == nil {
			err = io.EOF
		}
		return nil, err
	}
	out := make([]T, d.channels)
	for i := 0; i < d.channels; i++ {
		out[i] = sample.Convert[T](d.buf[i])
	}
	return out, nil
}

func (d *DownmixIter[T]) Close() error { return d.mixer.Close() }
