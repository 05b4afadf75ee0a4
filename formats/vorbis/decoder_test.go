// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"io"
	"testing"

	"github.com/ik5/riffwave/sample"
)

// mockOgg simulates the oggvorbis reader.
type mockOgg struct {
	frames   []float32
	channels int
	pos      int
}

func (m *mockOgg) SampleRate() int { return 44100 }
func (m *mockOgg) Channels() int   { return m.channels }
func (m *mockOgg) Length() int64   { return int64(len(m.frames) / m.channels) }
func (m *mockOgg) Position() int64 { return int64(m.pos / m.channels) }

func (m *mockOgg) SetPosition(p int64) error {
	m.pos = int(p) * m.channels
	return nil
}

func (m *mockOgg) Read(p []float32) (int, error) {
	if m.pos >= len(m.frames) {
		return 0, io.EOF
	}
	n := copy(p, m.frames[m.pos:])
	m.pos += n
	return n, nil
}

func TestStreamDecoder_ReadAndSeek(t *testing.T) {
	t.Parallel()

	frames := []float32{0, 0.5, -0.5, 1, -1, 0.25}
	d := &StreamDecoder{dec: &mockOgg{frames: frames, channels: 2}, channels: 2}

	if n, ok := d.NumFrames(); !ok || n != 3 {
		t.Errorf("NumFrames() = %d, %v", n, ok)
	}

	dst := make([]int32, 6)
	n, err := d.ReadSamples(dst)
	if err != nil && err != io.EOF {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != 6 {
		t.Fatalf("n = %d, want 6", n)
	}
	for i, f := range frames {
		if dst[i] != sample.Convert[int32](f) {
			t.Errorf("sample %d = %d", i, dst[i])
		}
	}

	if err := d.Seek(2); err != nil {
		t.Fatal(err)
	}
	pair := make([]int32, 2)
	if _, err := d.ReadSamples(pair); err != nil && err != io.EOF {
		t.Fatal(err)
	}
	if pair[0] != sample.Convert[int32](float32(-1)) {
		t.Errorf("after seek: %v", pair)
	}
}

func TestPacketDecoder_NeedsThreeHeaders(t *testing.T) {
	t.Parallel()

	_, err := NewNakedDecoder(nil, [][]byte{{1}, {2}})
	if err != ErrHeaderMissing {
		t.Errorf("two headers: %v, want ErrHeaderMissing", err)
	}
}

func TestEncoder_RequiresCollaborator(t *testing.T) {
	t.Parallel()

	if _, err := NewEncoder(nil, 0, nil, 2); err != ErrNoPacketEncoder {
		t.Errorf("NewEncoder(nil) = %v, want ErrNoPacketEncoder", err)
	}
}
