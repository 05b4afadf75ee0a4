// SPDX-License-Identifier: EPL-2.0

package riff

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// tempSink returns a file-backed WriteSeeker; bytes.Buffer cannot seek.
func tempSink(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "out.wav"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func readAll(t *testing.T, f *os.File) []byte {
	t.Helper()
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	raw, err := io.ReadAll(f)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestChunkWriter_BackfillsAndPads(t *testing.T) {
	t.Parallel()

	f := tempSink(t)
	if err := WriteContainerHeader(f, false); err != nil {
		t.Fatal(err)
	}
	cw, err := BeginChunk(f, Tag("test"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cw.Write([]byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	size, err := cw.End()
	if err != nil {
		t.Fatal(err)
	}
	if size != 3 {
		t.Errorf("payload size = %d, want 3", size)
	}

	raw := readAll(t, f)
	if got := binary.LittleEndian.Uint32(raw[16:20]); got != 3 {
		t.Errorf("declared size = %d, want 3 (pad byte must not count)", got)
	}
	if len(raw) != 12+8+3+1 {
		t.Errorf("file length = %d, want 24 (padded to even)", len(raw))
	}
	if raw[len(raw)-1] != 0 {
		t.Error("pad byte is not zero")
	}
}

func TestFinalizeContainer_32Bit(t *testing.T) {
	t.Parallel()

	f := tempSink(t)
	if err := WriteContainerHeader(f, false); err != nil {
		t.Fatal(err)
	}
	if err := WriteFourCC(f, TagData); err != nil {
		t.Fatal(err)
	}
	dataSizePos, _ := f.Seek(0, io.SeekCurrent)
	WriteU32(f, 0)
	payload := []byte{1, 2, 3, 4}
	f.Write(payload)

	is64, err := FinalizeContainer(f, FinalizeInfo{
		TotalSize:   uint64(12 + 8 + len(payload)),
		DataSizePos: dataSizePos,
		DataSize:    uint64(len(payload)),
		SampleCount: 4,
	})
	if err != nil {
		t.Fatal(err)
	}
	if is64 {
		t.Error("small container written as RF64")
	}

	raw := readAll(t, f)
	if string(raw[:4]) != "RIFF" {
		t.Errorf("root = %q", raw[:4])
	}
	if got := binary.LittleEndian.Uint32(raw[4:8]); got != uint32(len(raw)-8) {
		t.Errorf("riff size = %d, want %d", got, len(raw)-8)
	}
	if got := binary.LittleEndian.Uint32(raw[16:20]); got != 4 {
		t.Errorf("data size = %d, want 4", got)
	}
}

func TestFinalizeContainer_ForcedDs64RoundTrips(t *testing.T) {
	t.Parallel()

	f := tempSink(t)
	if err := WriteContainerHeader(f, true); err != nil {
		t.Fatal(err)
	}
	// fmt chunk so the result parses as a plausible WAVE.
	cw, _ := BeginChunk(f, TagFmt)
	fmtBody := make([]byte, 16)
	binary.LittleEndian.PutUint16(fmtBody[0:2], 1)
	binary.LittleEndian.PutUint16(fmtBody[2:4], 1)
	binary.LittleEndian.PutUint32(fmtBody[4:8], 8000)
	binary.LittleEndian.PutUint32(fmtBody[8:12], 16000)
	binary.LittleEndian.PutUint16(fmtBody[12:14], 2)
	binary.LittleEndian.PutUint16(fmtBody[14:16], 16)
	cw.Write(fmtBody)
	cw.End()

	if err := WriteFourCC(f, TagData); err != nil {
		t.Fatal(err)
	}
	dataSizePos, _ := f.Seek(0, io.SeekCurrent)
	WriteU32(f, 0)
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	f.Write(payload)
	end, _ := f.Seek(0, io.SeekCurrent)

	is64, err := FinalizeContainer(f, FinalizeInfo{
		TotalSize:    uint64(end),
		DataSizePos:  dataSizePos,
		DataSize:     uint64(len(payload)),
		SampleCount:  4,
		Ds64Reserved: true,
		ForceDs64:    true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !is64 {
		t.Fatal("forced ds64 not written")
	}

	raw := readAll(t, f)
	if string(raw[:4]) != "RF64" {
		t.Fatalf("root = %q, want RF64", raw[:4])
	}
	if got := binary.LittleEndian.Uint32(raw[4:8]); got != 0xFFFFFFFF {
		t.Errorf("riff size field = %X, want sentinel", got)
	}

	tree, err := Parse(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("reparse error = %v", err)
	}
	if tree.Ds64 == nil {
		t.Fatal("ds64 chunk missing after rewrite")
	}
	if tree.Ds64.RiffSize != uint64(end-8) {
		t.Errorf("ds64 riffSize = %d, want %d", tree.Ds64.RiffSize, end-8)
	}
	if tree.Ds64.SampleCount != 4 {
		t.Errorf("ds64 sampleCount = %d, want 4", tree.Ds64.SampleCount)
	}
	if tree.DataLength != uint64(len(payload)) {
		t.Errorf("DataLength = %d, want %d", tree.DataLength, len(payload))
	}
}

func TestBinio_RoundTrip(t *testing.T) {
	t.Parallel()

	f := tempSink(t)
	WriteU24(f, 0xABCDEF)
	WriteI24(f, -1)
	WriteF64(f, 0.5)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if v, err := ReadU24(f); err != nil || v != 0xABCDEF {
		t.Errorf("ReadU24 = %X, %v", v, err)
	}
	if v, err := ReadI24(f); err != nil || v != -1 {
		t.Errorf("ReadI24 = %d, %v", v, err)
	}
	if v, err := ReadF64(f); err != nil || v != 0.5 {
		t.Errorf("ReadF64 = %v, %v", v, err)
	}
	if _, err := ReadU8(f); err != ErrUnexpectedEOF {
		t.Errorf("read past end = %v, want ErrUnexpectedEOF", err)
	}
}
