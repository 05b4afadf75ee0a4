// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"math"
	"testing"

	"github.com/ik5/riffwave/internal/audiotest"
)

func readAllSamples(t *testing.T, src Source, step int) []float32 {
	t.Helper()
	var out []float32
	buf := make([]float32, step)
	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}
}

func TestDownmixer_StereoToMono(t *testing.T) {
	t.Parallel()

	src := audiotest.NewMockSource(8000, 2, 100, func(s, c int) float32 {
		if c == 0 {
			return 0.5
		}
		return -0.5
	})
	mask := SpeakerFrontLeft | SpeakerFrontRight
	d := NewDownmixer(src, mask, 1)

	out := readAllSamples(t, d, 64)
	if len(out) != 100 {
		t.Fatalf("samples = %d, want 100", len(out))
	}
	for i, v := range out {
		if math.Abs(float64(v)) > 1e-6 {
			t.Fatalf("sample %d = %v, want ~0 (L and R cancel)", i, v)
		}
	}
}

func TestDownmixer_CenterFeedsBothSides(t *testing.T) {
	t.Parallel()

	// Three labelled channels: only the center carries signal.
	src := audiotest.NewMockSource(8000, 3, 50, func(s, c int) float32 {
		if c == 2 {
			return 1.0 // front center, third position in canonical order
		}
		return 0
	})
	mask := SpeakerFrontLeft | SpeakerFrontRight | SpeakerFrontCenter
	d := NewDownmixer(src, mask, 2)

	out := readAllSamples(t, d, 64)
	if len(out) != 100 {
		t.Fatalf("samples = %d, want 100", len(out))
	}
	for i := 0; i < len(out); i += 2 {
		l, r := out[i], out[i+1]
		if l <= 0 || r <= 0 {
			t.Fatalf("frame %d = (%v, %v), center must feed both", i/2, l, r)
		}
		if math.Abs(float64(l-r)) > 1e-6 {
			t.Fatalf("frame %d unbalanced: %v vs %v", i/2, l, r)
		}
	}
}

func TestDownmixer_FullScaleDoesNotClip(t *testing.T) {
	t.Parallel()

	src := audiotest.NewMockSource(8000, 6, 50, func(s, c int) float32 { return 1.0 })
	s := Spec{Channels: 6, SampleRate: 8000, BitsPerSample: 16, SampleFormat: Int}
	d := NewDownmixer(src, s.GuessChannelMask(), 2)

	out := readAllSamples(t, d, 60)
	for i, v := range out {
		if v > 1.0001 || v < -1.0001 {
			t.Fatalf("sample %d clipped: %v", i, v)
		}
	}
}

func TestResampler_PreservesChannelCountAndRate(t *testing.T) {
	t.Parallel()

	src := audiotest.NewSineSource(44100, 2, 4410, 440)
	r := NewResampler(src, 22050)
	if r.SampleRate() != 22050 {
		t.Errorf("SampleRate = %d", r.SampleRate())
	}
	if r.Channels() != 2 {
		t.Errorf("Channels = %d", r.Channels())
	}

	out := readAllSamples(t, r, 512)
	frames := len(out) / 2
	// Halving the rate should give about half the frames.
	if frames < 2000 || frames > 2410 {
		t.Errorf("resampled frames = %d, want about 2205", frames)
	}
	for i, v := range out {
		if v > 1.2 || v < -1.2 {
			t.Fatalf("sample %d out of range: %v", i, v)
		}
	}
}
