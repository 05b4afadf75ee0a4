// SPDX-License-Identifier: EPL-2.0

package ogg

import (
	"bytes"
	"io"
	"testing"
)

func TestPage_Encode(t *testing.T) {
	t.Parallel()

	p := &Page{HeaderType: FlagBOS, Granule: 1024, Serial: 7, Sequence: 0}
	if n := p.Append([]byte("hello"), true); n != 5 {
		t.Fatalf("Append = %d, want 5", n)
	}
	raw := p.Encode()

	if string(raw[:4]) != "OggS" {
		t.Errorf("capture = %q", raw[:4])
	}
	if raw[4] != 0 {
		t.Errorf("version = %d", raw[4])
	}
	if raw[5] != FlagBOS {
		t.Errorf("header type = %d", raw[5])
	}
	if raw[26] != 1 || raw[27] != 5 {
		t.Errorf("segment table = %v", raw[26:28])
	}
	if string(raw[28:]) != "hello" {
		t.Errorf("data = %q", raw[28:])
	}

	// The checksum field participates as zero; re-computing over the
	// page with the field cleared must reproduce it.
	declared := uint32(raw[22]) | uint32(raw[23])<<8 | uint32(raw[24])<<16 | uint32(raw[25])<<24
	cleared := append([]byte(nil), raw...)
	cleared[22], cleared[23], cleared[24], cleared[25] = 0, 0, 0, 0
	if got := CRC(0, cleared); got != declared {
		t.Errorf("checksum = %08x, want %08x", got, declared)
	}
}

func TestSegmentation_Exact255Multiple(t *testing.T) {
	t.Parallel()

	p := &Page{}
	packet := make([]byte, 510)
	if n := p.Append(packet, true); n != 510 {
		t.Fatalf("Append = %d", n)
	}
	// Two 255-byte segments plus the mandatory empty closing segment.
	if len(p.SegmentTable) != 3 {
		t.Fatalf("segments = %d, want 3", len(p.SegmentTable))
	}
	if p.SegmentTable[0] != 255 || p.SegmentTable[1] != 255 || p.SegmentTable[2] != 0 {
		t.Errorf("segment table = %v", p.SegmentTable)
	}
}

func TestWriterReader_RoundTrip(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	w := NewWriter(buf, 42)

	packets := [][]byte{
		[]byte("first packet"),
		bytes.Repeat([]byte{0xAB}, 300),
		bytes.Repeat([]byte{0xCD}, 70000), // spans pages
		[]byte("tail"),
	}
	for i, pkt := range packets {
		if err := w.WritePacket(pkt, uint64(100*(i+1))); err != nil {
			t.Fatalf("WritePacket(%d) error = %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	r := NewReader(bytes.NewReader(buf.Bytes()))
	for i, want := range packets {
		got, _, err := r.NextPacket()
		if err != nil {
			t.Fatalf("NextPacket(%d) error = %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("packet %d: %d bytes, want %d", i, len(got), len(want))
		}
	}
	if _, _, err := r.NextPacket(); err != io.EOF {
		t.Errorf("after last packet: %v, want io.EOF", err)
	}
}

func TestWriter_GranuleAdvances(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	w := NewWriter(buf, 1)
	if err := w.WritePacket([]byte("a"), 480); err != nil {
		t.Fatal(err)
	}
	if err := w.WritePacket([]byte("b"), 480); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r := NewReader(bytes.NewReader(buf.Bytes()))
	var last uint64
	for {
		_, granule, err := r.NextPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		last = granule
	}
	if last != 960 {
		t.Errorf("final granule = %d, want 960", last)
	}
}

func TestReader_ChecksumMismatch(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	w := NewWriter(buf, 9)
	if err := w.WritePacket([]byte("payload"), 1); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	raw := buf.Bytes()
	raw[len(raw)-1] ^= 0xFF
	r := NewReader(bytes.NewReader(raw))
	if _, _, err := r.NextPacket(); err != ErrBadChecksum {
		t.Errorf("NextPacket() = %v, want ErrBadChecksum", err)
	}
}

func TestPage_DataCap(t *testing.T) {
	t.Parallel()

	p := &Page{}
	huge := make([]byte, MaxPageData+1000)
	n := p.Append(huge, true)
	if n > MaxPageData {
		t.Errorf("page accepted %d bytes, cap is %d", n, MaxPageData)
	}
	if !p.Full() {
		t.Error("page not full after cap")
	}
	if len(p.Data) > MaxPageData {
		t.Errorf("page data = %d bytes", len(p.Data))
	}
}
