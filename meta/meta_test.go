// SPDX-License-Identifier: EPL-2.0

package meta

import (
	"testing"

	"golang.org/x/text/encoding/charmap"

	"github.com/ik5/riffwave/riff"
)

func TestMetadata_OrderPreserved(t *testing.T) {
	t.Parallel()

	m := &Metadata{}
	m.SetString(riff.Tag("ISFT"), "riffwave")
	m.SetString(riff.Tag("IART"), "someone")
	m.SetString(riff.Tag("INAM"), "a name")
	m.SetString(riff.Tag("IART"), "someone else") // replace in place

	entries := m.Entries()
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	want := []string{"ISFT", "IART", "INAM"}
	for i, e := range entries {
		if e.Tag.String() != want[i] {
			t.Errorf("entry %d = %q, want %q", i, e.Tag.String(), want[i])
		}
	}
	if v, _ := m.Get(riff.Tag("IART")); v != "someone else" {
		t.Errorf("IART = %q", v)
	}
}

func TestMetadata_ListBodyRoundTrip(t *testing.T) {
	t.Parallel()

	m := &Metadata{}
	m.SetString(riff.Tag("INAM"), "tone")
	m.SetString(riff.Tag("ICMT"), "odd") // three bytes plus the NUL is even: no pad byte

	body := m.AppendListBody(nil)
	if string(body[:4]) != "INFO" {
		t.Fatalf("list type = %q", body[:4])
	}

	chunk := &riff.Chunk{Tag: riff.TagLIST, Body: body}
	copy(chunk.ListType[:], body[:4])
	children, err := parseChildren(body[4:])
	if err != nil {
		t.Fatal(err)
	}
	chunk.Children = children

	back := FromList(chunk)
	if v, ok := back.Get(riff.Tag("INAM")); !ok || v != "tone" {
		t.Errorf("INAM = %q, %v", v, ok)
	}
	if v, ok := back.Get(riff.Tag("ICMT")); !ok || v != "odd" {
		t.Errorf("ICMT = %q, %v", v, ok)
	}
}

// parseChildren mirrors the riff LIST child walk for the test.
func parseChildren(body []byte) ([]*riff.Chunk, error) {
	var out []*riff.Chunk
	pos := 0
	for pos+8 <= len(body) {
		var tag riff.FourCC
		copy(tag[:], body[pos:pos+4])
		n := int(uint32(body[pos+4]) | uint32(body[pos+5])<<8 |
			uint32(body[pos+6])<<16 | uint32(body[pos+7])<<24)
		pos += 8
		out = append(out, &riff.Chunk{Tag: tag, Body: body[pos : pos+n], Length: uint64(n)})
		pos += n
		if n%2 == 1 {
			pos++
		}
	}
	return out, nil
}

func TestMetadata_CopyFrom(t *testing.T) {
	t.Parallel()

	src := &Metadata{}
	src.SetString(riff.Tag("INAM"), "source")
	src.SetString(riff.Tag("IART"), "artist")
	src.SetID3([]byte{1, 2, 3})

	dst := &Metadata{}
	dst.SetString(riff.Tag("INAM"), "mine")
	dst.CopyFrom(src, false)

	if v, _ := dst.Get(riff.Tag("INAM")); v != "mine" {
		t.Errorf("INAM = %q, overwrite=false must keep it", v)
	}
	if v, _ := dst.Get(riff.Tag("IART")); v != "artist" {
		t.Errorf("IART = %q", v)
	}
	if len(dst.ID3Bytes()) != 3 {
		t.Error("ID3 blob not copied")
	}

	dst.CopyFrom(src, true)
	if v, _ := dst.Get(riff.Tag("INAM")); v != "source" {
		t.Errorf("INAM = %q, overwrite=true must replace", v)
	}
}

func TestMetadata_LegacyEncoding(t *testing.T) {
	t.Parallel()

	m := &Metadata{}
	// "café" in Windows-1252: the é is a single 0xE9 byte.
	m.Set(riff.Tag("ICMT"), []byte{'c', 'a', 'f', 0xE9, 0})

	if v, _ := m.Get(riff.Tag("ICMT")); v == "café" {
		t.Fatal("raw bytes accidentally valid UTF-8")
	}
	m.SetLegacyEncoding(charmap.Windows1252)
	if v, _ := m.Get(riff.Tag("ICMT")); v != "café" {
		t.Errorf("transcoded = %q, want café", v)
	}
}

func TestIsKnownInfoTag(t *testing.T) {
	t.Parallel()

	if !IsKnownInfoTag(riff.Tag("ITRK")) {
		t.Error("ITRK not recognised")
	}
	if IsKnownInfoTag(riff.Tag("XXXX")) {
		t.Error("XXXX recognised")
	}
	if NormalizeTag("inam") != riff.Tag("INAM") {
		t.Error("NormalizeTag failed")
	}
}
