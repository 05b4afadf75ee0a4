// SPDX-License-Identifier: EPL-2.0

package riffwave

import (
	"fmt"
	"io"

	"github.com/ik5/riffwave/audio"
)

// ReadMono16 is a high-level convenience that decodes the whole
// stream, resamples it to targetRate with cubic interpolation, folds
// it to mono and collects 16-bit PCM samples.
//
// For more control build the pipeline directly from Reader.Source with
// audio.NewResampler and audio.NewDownmixer.
func ReadMono16(r *Reader, targetRate int, bufferSize int) ([]int16, int, error) {
	src, err := r.Source()
	if err != nil {
		return nil, targetRate, err
	}
	defer src.Close()

	var stream audio.Source = src
	if src.SampleRate() != targetRate {
		stream = audio.NewResampler(stream, targetRate)
	}
	if stream.Channels() > 1 {
		stream = audio.NewDownmixer(stream, r.Spec().GuessChannelMask(), 1)
	}

	pcm16 := make([]int16, 0, targetRate*2)
	buf := make([]float32, bufferSize)

	for {
		n, err := stream.ReadSamples(buf)
		if n > 0 {
			if cap(pcm16)-len(pcm16) < n {
				newCap := len(pcm16) + max(n, cap(pcm16))
				grown := make([]int16, len(pcm16), newCap)
				copy(grown, pcm16)
				pcm16 = grown
			}
			start := len(pcm16)
			pcm16 = pcm16[:start+n]
			const scale float32 = 32768.0
			for i := range n {
				x := buf[i]
				if x > 1 {
					x = 1
				} else if x < -1 {
					x = -1
				}
				pcm16[start+i] = int16(x * (scale - 1))
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, targetRate, fmt.Errorf("%w", err)
		}
	}

	return pcm16, targetRate, nil
}
