// SPDX-License-Identifier: EPL-2.0

package pcm

import (
	"bytes"
	"io"
	"testing"

	"github.com/ik5/riffwave/audio"
	"github.com/ik5/riffwave/sample"
)

type memSink struct{ bytes.Buffer }

func specFor(bits uint16, format audio.SampleFormat, channels uint16) audio.Spec {
	return audio.Spec{
		Channels:      channels,
		SampleRate:    48000,
		BitsPerSample: bits,
		SampleFormat:  format,
	}
}

func TestRoundTrip_Int16(t *testing.T) {
	t.Parallel()

	spec := specFor(16, audio.Int, 2)
	src := []int16{0, 1, -1, 32767, -32768, 12345, -12345, 100}

	var sink memSink
	enc := NewEncoder(&sink, spec)
	if err := WriteTyped(enc, src); err != nil {
		t.Fatalf("WriteTyped() error = %v", err)
	}
	if enc.NumFrames() != 4 {
		t.Errorf("NumFrames() = %d, want 4", enc.NumFrames())
	}

	dec := NewDecoder(bytes.NewReader(sink.Bytes()), spec, uint64(sink.Len()))
	got := make([]int16, len(src))
	n, err := ReadTyped(dec, got)
	if err != nil {
		t.Fatalf("ReadTyped() error = %v", err)
	}
	if n != len(src) {
		t.Fatalf("ReadTyped() n = %d, want %d", n, len(src))
	}
	for i := range src {
		if got[i] != src[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], src[i])
		}
	}
}

func TestRoundTrip_AllWidths(t *testing.T) {
	t.Parallel()

	// Each element type round-trips exactly through its own on-disk
	// width, including the 64-bit ones that never touch the canonical
	// int32 form.
	checkInt24 := func() {
		spec := specFor(24, audio.Int, 1)
		src := []sample.Int24{0, 1, -1, 8388607, -8388608}
		var sink memSink
		enc := NewEncoder(&sink, spec)
		if err := WriteTyped(enc, src); err != nil {
			t.Fatal(err)
		}
		if sink.Len() != len(src)*3 {
			t.Fatalf("24-bit payload = %d bytes, want %d", sink.Len(), len(src)*3)
		}
		dec := NewDecoder(bytes.NewReader(sink.Bytes()), spec, uint64(sink.Len()))
		got := make([]sample.Int24, len(src))
		if _, err := ReadTyped(dec, got); err != nil {
			t.Fatal(err)
		}
		for i := range src {
			if got[i] != src[i] {
				t.Errorf("i24 sample %d = %d, want %d", i, got[i], src[i])
			}
		}
	}
	checkInt24()

	checkF64 := func() {
		spec := specFor(64, audio.Float, 1)
		src := []float64{0, 0.5, -0.5, 1, -1, 1e-9}
		var sink memSink
		enc := NewEncoder(&sink, spec)
		if err := WriteTyped(enc, src); err != nil {
			t.Fatal(err)
		}
		dec := NewDecoder(bytes.NewReader(sink.Bytes()), spec, uint64(sink.Len()))
		got := make([]float64, len(src))
		if _, err := ReadTyped(dec, got); err != nil {
			t.Fatal(err)
		}
		for i := range src {
			if got[i] != src[i] {
				t.Errorf("f64 sample %d = %v, want %v", i, got[i], src[i])
			}
		}
	}
	checkF64()

	checkI64 := func() {
		spec := specFor(64, audio.Int, 1)
		src := []int64{0, 1, -1, 1<<62 + 12345, -(1 << 62)}
		var sink memSink
		enc := NewEncoder(&sink, spec)
		if err := WriteTyped(enc, src); err != nil {
			t.Fatal(err)
		}
		dec := NewDecoder(bytes.NewReader(sink.Bytes()), spec, uint64(sink.Len()))
		got := make([]int64, len(src))
		if _, err := ReadTyped(dec, got); err != nil {
			t.Fatal(err)
		}
		for i := range src {
			if got[i] != src[i] {
				t.Errorf("i64 sample %d = %d, want %d", i, got[i], src[i])
			}
		}
	}
	checkI64()
}

func TestRoundTrip_CrossType(t *testing.T) {
	t.Parallel()

	// Writing float32 frames into a 16-bit stream and reading them
	// back as float32 quantises to 16-bit resolution.
	spec := specFor(16, audio.Int, 1)
	src := []float32{0, 0.25, -0.25, 1, -1}

	var sink memSink
	enc := NewEncoder(&sink, spec)
	if err := WriteTyped(enc, src); err != nil {
		t.Fatal(err)
	}
	dec := NewDecoder(bytes.NewReader(sink.Bytes()), spec, uint64(sink.Len()))
	got := make([]float32, len(src))
	if _, err := ReadTyped(dec, got); err != nil {
		t.Fatal(err)
	}
	for i := range src {
		diff := float64(got[i] - src[i])
		if diff < 0 {
			diff = -diff
		}
		if diff > 1.0/32768 {
			t.Errorf("sample %d = %v, want %v within one LSB", i, got[i], src[i])
		}
	}
}

func TestDecoder_SeekIsExact(t *testing.T) {
	t.Parallel()

	spec := specFor(16, audio.Int, 2)
	src := make([]int16, 2000)
	for i := range src {
		src[i] = int16(i - 1000)
	}
	var sink memSink
	enc := NewEncoder(&sink, spec)
	if err := WriteTyped(enc, src); err != nil {
		t.Fatal(err)
	}

	dec := NewDecoder(bytes.NewReader(sink.Bytes()), spec, uint64(sink.Len()))
	total, exact := dec.NumFrames()
	if !exact || total != 1000 {
		t.Fatalf("NumFrames() = %d, %v", total, exact)
	}

	if err := dec.Seek(123); err != nil {
		t.Fatal(err)
	}
	frame := make([]int16, 2)
	if _, err := ReadTyped(dec, frame); err != nil {
		t.Fatal(err)
	}
	if frame[0] != src[246] || frame[1] != src[247] {
		t.Errorf("frame 123 = %v, want [%d %d]", frame, src[246], src[247])
	}

	if err := dec.Seek(1000); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadTyped(dec, frame); err != io.EOF {
		t.Errorf("read at end = %v, want io.EOF", err)
	}
}

func TestCanonicalEncoder_WriteSamples(t *testing.T) {
	t.Parallel()

	spec := specFor(8, audio.Uint, 1)
	var sink memSink
	enc := NewEncoder(&sink, spec)
	canon := []int32{0, 1 << 30, -(1 << 31), 1<<31 - 1}
	if err := enc.WriteSamples(canon); err != nil {
		t.Fatal(err)
	}
	want := []byte{
		sample.Convert[uint8](int32(0)),
		sample.Convert[uint8](int32(1 << 30)),
		sample.Convert[uint8](int32(-(1 << 31))),
		sample.Convert[uint8](int32(1<<31 - 1)),
	}
	if !bytes.Equal(sink.Bytes(), want) {
		t.Errorf("encoded bytes = %v, want %v", sink.Bytes(), want)
	}
}
