// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/riffwave/audio"
	"github.com/ik5/riffwave/sample"
)

// ErrNoFrameEncoder is returned when a writer is created for MP3 data
// without the external frame encoder collaborator.
var ErrNoFrameEncoder = errors.New("mp3: no frame encoder provided")

// Encoder feeds PCM to the collaborator and writes the MP3 frames it
// emits into the data chunk.
type Encoder struct {
	w     io.Writer
	enc   audio.Mp3FrameEncoder
	pcm   []int16
	count uint64
}

func NewEncoder(w io.Writer, enc audio.Mp3FrameEncoder) (*Encoder, error) {
	if enc == nil {
		return nil, ErrNoFrameEncoder
	}
	return &Encoder{w: w, enc: enc}, nil
}

// NumFrames reports the PCM frames accepted so far (stereo assumed, as
// the decoder side produces).
func (e *Encoder) NumFrames() uint64 { return e.count }

func (e *Encoder) WriteSamples(src []int32) error {
	if cap(e.pcm) < len(src) {
		e.pcm = make([]int16, len(src))
	}
	e.pcm = e.pcm[:len(src)]
	for i, v := range src {
		e.pcm[i] = sample.Convert[int16](v)
	}
	frames, err := e.enc.EncodeSamples(e.pcm)
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	if len(frames) > 0 {
		if _, err := e.w.Write(frames); err != nil {
			return fmt.Errorf("%w", err)
		}
	}
	e.count += uint64(len(src) / 2)
	return nil
}

func (e *Encoder) Finish() error {
	tail, err := e.enc.Flush()
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	if len(tail) > 0 {
		if _, err := e.w.Write(tail); err != nil {
			return fmt.Errorf("%w", err)
		}
	}
	return nil
}
