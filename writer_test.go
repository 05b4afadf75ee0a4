// SPDX-License-Identifier: EPL-2.0

package riffwave

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/ik5/riffwave/audio"
	"github.com/ik5/riffwave/riff"
	"github.com/ik5/riffwave/sample"
)

func pcmStereoSpec() audio.Spec {
	return audio.Spec{Channels: 2, SampleRate: 48000, BitsPerSample: 16, SampleFormat: audio.Int}
}

func TestWriter_SilentStereoScenario(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "silence.wav")
	w, err := Create(path, pcmStereoSpec(), audio.DataFormat{Kind: audio.Pcm}, NeverLargerThan4GB)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	zero := make([]sample.Stereo[int16], 48000)
	for i := 0; i < 10; i++ {
		if err := WriteStereos(w, zero); err != nil {
			t.Fatalf("WriteStereos() error = %v", err)
		}
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != 44+1920000 {
		t.Fatalf("file size = %d, want %d", len(raw), 44+1920000)
	}
	if got := binary.LittleEndian.Uint32(raw[4:8]); got != 1920036 {
		t.Errorf("RIFF size = %d, want 1920036", got)
	}
	for _, b := range raw[44:144] {
		if b != 0 {
			t.Fatal("silence not silent")
		}
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()
	if r.Spec().SampleRate != 48000 {
		t.Errorf("SampleRate = %d", r.Spec().SampleRate)
	}
	if n, ok := r.NumFrames(); !ok || n != 480000 {
		t.Errorf("NumFrames = %d, %v", n, ok)
	}

	it, err := StereoFrames[float32](r)
	if err != nil {
		t.Fatalf("StereoFrames() error = %v", err)
	}
	defer it.Close()
	for i := 0; i < 10; i++ {
		f, err := it.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if f.L != 0 || f.R != 0 {
			t.Errorf("frame %d = %v", i, f)
		}
	}
}

func TestWriter_CrossCheckedByGoAudio(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ramp.wav")
	w, err := Create(path, audio.Spec{Channels: 1, SampleRate: 8000, BitsPerSample: 16, SampleFormat: audio.Int},
		audio.DataFormat{Kind: audio.Pcm}, NeverLargerThan4GB)
	if err != nil {
		t.Fatal(err)
	}
	src := make([]int16, 100)
	for i := range src {
		src[i] = int16(i * 100)
	}
	if err := WriteMono(w, src); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec := gowav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("go-audio rejects the emitted file")
	}
	buf := &goaudio.IntBuffer{Data: make([]int, 200), Format: &goaudio.Format{}}
	n, err := dec.PCMBuffer(buf)
	if err != nil {
		t.Fatalf("go-audio PCMBuffer() error = %v", err)
	}
	if n != 100 {
		t.Fatalf("go-audio decoded %d samples, want 100", n)
	}
	for i := 0; i < 100; i++ {
		if buf.Data[i] != int(src[i]) {
			t.Errorf("sample %d = %d, want %d", i, buf.Data[i], src[i])
		}
	}
}

func TestWriter_ChannelMismatch(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mismatch.wav")
	w, err := Create(path, pcmStereoSpec(), audio.DataFormat{Kind: audio.Pcm}, NeverLargerThan4GB)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	err = WriteFrame(w, []int16{1})
	var mismatch *ChannelMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("WriteFrame() error = %v, want ChannelMismatchError", err)
	}
	if mismatch.Want != 2 || mismatch.Got != 1 {
		t.Errorf("mismatch = %+v", mismatch)
	}

	// The failed call must not have written anything.
	if w.NumFrames() != 0 {
		t.Errorf("NumFrames = %d after rejected frame", w.NumFrames())
	}
}

func TestWriter_ForcedRF64(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "forced.wav")
	w, err := Create(path, pcmStereoSpec(), audio.DataFormat{Kind: audio.Pcm}, ForceUse4GBFormat)
	if err != nil {
		t.Fatal(err)
	}
	frames := make([]sample.Stereo[int16], 1000)
	for i := range frames {
		frames[i] = sample.Stereo[int16]{L: int16(i), R: int16(-i)}
	}
	if err := WriteStereos(w, frames); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw[:4]) != "RF64" {
		t.Fatalf("root = %q, want RF64", raw[:4])
	}
	if got := binary.LittleEndian.Uint32(raw[4:8]); got != 0xFFFFFFFF {
		t.Errorf("riff size field = %X, want sentinel", got)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()
	if n, ok := r.NumFrames(); !ok || n != 1000 {
		t.Errorf("NumFrames = %d, %v, want 1000 from ds64", n, ok)
	}

	it, err := StereoFrames[int16](r)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()
	if err := it.Seek(999); err != nil {
		t.Fatal(err)
	}
	f, err := it.Next()
	if err != nil {
		t.Fatal(err)
	}
	if f.L != 999 || f.R != -999 {
		t.Errorf("last frame = %v", f)
	}
}

func TestWriter_RefusesToOutgrow32Bits(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "big.wav")
	w, err := Create(path, pcmStereoSpec(), audio.DataFormat{Kind: audio.Pcm}, NeverLargerThan4GB)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := WriteFrame(w, []int16{1, 2}); err != nil {
		t.Fatal(err)
	}
	// Pretend 4 GiB of payload already went out; the next write must
	// be refused before emitting a byte.
	w.counting.n = riff.Max32BitRiffSize
	before := w.counting.n
	if err := WriteFrame(w, []int16{3, 4}); err != ErrFileTooLarge {
		t.Fatalf("WriteFrame() error = %v, want ErrFileTooLarge", err)
	}
	if w.counting.n != before {
		t.Error("refused write still emitted bytes")
	}
	w.counting.n = 4
}

func TestWriter_PoisonedAfterSinkFailure(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "poison.wav")
	w, err := Create(path, pcmStereoSpec(), audio.DataFormat{Kind: audio.Pcm}, NeverLargerThan4GB)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteFrame(w, []int16{1, 2}); err != nil {
		t.Fatal(err)
	}
	// Break the sink under the writer.
	w.file.Close()
	if err := WriteFrame(w, []int16{3, 4}); err == nil {
		t.Fatal("write through a closed sink succeeded")
	}
	if err := WriteFrame(w, []int16{5, 6}); err != ErrWriterPoisoned {
		t.Errorf("after failure: %v, want ErrWriterPoisoned", err)
	}
	w.file = nil // nothing left to close
}

func TestWriter_FinalizeIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "idem.wav")
	w, err := Create(path, pcmStereoSpec(), audio.DataFormat{Kind: audio.Pcm}, NeverLargerThan4GB)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteFrame(w, []int16{1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}
	size1 := fileSize(t, path)
	if err := w.Finalize(); err != nil {
		t.Fatalf("second Finalize() error = %v", err)
	}
	if got := fileSize(t, path); got != size1 {
		t.Errorf("second finalize changed the file: %d -> %d", size1, got)
	}
	if err := WriteFrame(w, []int16{1, 2}); err != ErrWriterFinalized {
		t.Errorf("write after finalize = %v, want ErrWriterFinalized", err)
	}
	w.Close()
}

func fileSize(t *testing.T, path string) int64 {
	t.Helper()
	st, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	return st.Size()
}

func TestWriter_MetadataRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tags.wav")
	w, err := Create(path, pcmStereoSpec(), audio.DataFormat{Kind: audio.Pcm}, NeverLargerThan4GB)
	if err != nil {
		t.Fatal(err)
	}
	w.metadata.SetString(riff.Tag("INAM"), "test tone")
	w.metadata.SetString(riff.Tag("IART"), "riffwave")
	w.metadata.SetID3([]byte("ID3\x04\x00\x00\x00\x00\x00\x00"))

	if err := WriteFrame(w, []int16{0, 0}); err != nil {
		t.Fatal(err)
	}
	if err := w.SetMetadata(nil); err != ErrMetadataAfterData {
		t.Errorf("SetMetadata after data = %v, want ErrMetadataAfterData", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if v, ok := r.Metadata().Get(riff.Tag("INAM")); !ok || v != "test tone" {
		t.Errorf("INAM = %q, %v", v, ok)
	}
	if v, ok := r.Metadata().Get(riff.Tag("IART")); !ok || v != "riffwave" {
		t.Errorf("IART = %q, %v", v, ok)
	}
	if len(r.Metadata().ID3Bytes()) == 0 {
		t.Error("ID3 blob lost")
	}

	// Inherit into a second writer without overwriting existing tags.
	path2 := filepath.Join(t.TempDir(), "tags2.wav")
	w2, err := Create(path2, pcmStereoSpec(), audio.DataFormat{Kind: audio.Pcm}, NeverLargerThan4GB)
	if err != nil {
		t.Fatal(err)
	}
	w2.metadata.SetString(riff.Tag("INAM"), "kept")
	if err := w2.InheritMetadata(r, false); err != nil {
		t.Fatal(err)
	}
	if err := WriteFrame(w2, []int16{0, 0}); err != nil {
		t.Fatal(err)
	}
	if err := w2.Close(); err != nil {
		t.Fatal(err)
	}

	r2, err := Open(path2)
	if err != nil {
		t.Fatal(err)
	}
	defer r2.Close()
	if v, _ := r2.Metadata().Get(riff.Tag("INAM")); v != "kept" {
		t.Errorf("INAM = %q, overwrite=false must keep it", v)
	}
	if v, _ := r2.Metadata().Get(riff.Tag("IART")); v != "riffwave" {
		t.Errorf("IART = %q, want inherited", v)
	}
}

func TestWriter_DropTriggersFinalize(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "drop.wav")
	w, err := Create(path, pcmStereoSpec(), audio.DataFormat{Kind: audio.Pcm}, NeverLargerThan4GB)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteFrame(w, []int16{7, 8}); err != nil {
		t.Fatal(err)
	}
	// Close without an explicit Finalize.
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := binary.LittleEndian.Uint32(raw[4:8]); got != uint32(len(raw)-8) {
		t.Errorf("RIFF size not patched at close: %d vs %d", got, len(raw)-8)
	}
}

func TestWriter_UnsupportedPairings(t *testing.T) {
	t.Parallel()

	sink := filepath.Join(t.TempDir(), "x.wav")
	spec := audio.Spec{Channels: 4, SampleRate: 48000, BitsPerSample: 16, SampleFormat: audio.Int}

	if _, err := Create(sink, spec, audio.DataFormat{Kind: audio.AdpcmIma}, NeverLargerThan4GB); err == nil {
		t.Error("four-channel ADPCM accepted")
	}
	var unsupported *UnsupportedSpecError
	_, err := Create(sink, spec, audio.DataFormat{Kind: audio.Opus, Opus: &audio.OpusOptions{}}, NeverLargerThan4GB)
	if !errors.As(err, &unsupported) {
		t.Errorf("four-channel Opus error = %v", err)
	}

	fspec := audio.Spec{Channels: 2, SampleRate: 48000, BitsPerSample: 64, SampleFormat: audio.Float}
	if _, err := Create(sink, fspec, audio.DataFormat{Kind: audio.Flac}, NeverLargerThan4GB); err == nil {
		t.Error("64-bit float FLAC accepted")
	}
}

func TestWriter_OpusRateRoundsUp(t *testing.T) {
	t.Parallel()

	sink := filepath.Join(t.TempDir(), "opus.wav")
	spec := audio.Spec{Channels: 1, SampleRate: 22050, BitsPerSample: 16, SampleFormat: audio.Int}
	w, err := Create(sink, spec, audio.DataFormat{Kind: audio.Opus, Opus: &audio.OpusOptions{}}, NeverLargerThan4GB)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer w.Close()
	if w.Spec().SampleRate != 24000 {
		t.Errorf("rate = %d, want 24000", w.Spec().SampleRate)
	}
	if w.Spec().SampleFormat != audio.Float || w.Spec().BitsPerSample != 32 {
		t.Errorf("spec = %+v", w.Spec())
	}
}
