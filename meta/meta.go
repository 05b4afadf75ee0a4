// SPDX-License-Identifier: EPL-2.0

// Package meta models the WAV metadata the container carries: the
// LIST-INFO tag map and an opaque ID3 blob.
//
// INFO tags keep their original byte payload and their on-disk order so
// a file round-trips byte for byte. Payloads decode as UTF-8 unless the
// caller declares a legacy code page, in which case they are transcoded
// through golang.org/x/text. Writing always produces UTF-8.
//
// The ID3 blob is stored and forwarded as raw bytes; ID3 returns a
// parsed view over it for convenience.
package meta

import (
	"fmt"

	"github.com/bogem/id3v2/v2"
	"golang.org/x/text/encoding"

	"github.com/ik5/riffwave/riff"
)

// Recognised LIST-INFO sub-tags.
var KnownInfoTags = []riff.FourCC{
	riff.Tag("IARL"), riff.Tag("IART"), riff.Tag("ICMS"), riff.Tag("ICMT"),
	riff.Tag("ICOP"), riff.Tag("ICRD"), riff.Tag("ICRP"), riff.Tag("IDIM"),
	riff.Tag("IDPI"), riff.Tag("IENG"), riff.Tag("IGNR"), riff.Tag("IKEY"),
	riff.Tag("ILGT"), riff.Tag("IMED"), riff.Tag("INAM"), riff.Tag("IPLT"),
	riff.Tag("IPRD"), riff.Tag("ISBJ"), riff.Tag("ISFT"), riff.Tag("ISHP"),
	riff.Tag("ISRC"), riff.Tag("ISRF"), riff.Tag("ITCH"), riff.Tag("ITRK"),
}

// Entry is one INFO tag with its raw payload in original encoding.
type Entry struct {
	Tag   riff.FourCC
	Value []byte
}

// Metadata is the ordered INFO tag mapping plus the optional ID3 blob.
// The zero value is empty and ready to use.
type Metadata struct {
	entries []Entry
	id3     []byte

	// legacy transcodes tag payloads on Get when the platform declares
	// a non-UTF-8 code page.
	legacy encoding.Encoding
}

// SetLegacyEncoding declares the code page tag payloads were written
// in. Get transcodes through it; nil restores plain UTF-8 reading.
func (m *Metadata) SetLegacyEncoding(enc encoding.Encoding) { m.legacy = enc }

// Set stores a tag value, replacing an existing entry in place so the
// on-disk order stays stable.
func (m *Metadata) Set(tag riff.FourCC, value []byte) {
	for i := range m.entries {
		if m.entries[i].Tag == tag {
			m.entries[i].Value = value
			return
		}
	}
	m.entries = append(m.entries, Entry{Tag: tag, Value: value})
}

// SetString stores a UTF-8 tag value.
func (m *Metadata) SetString(tag riff.FourCC, value string) {
	m.Set(tag, []byte(value))
}

// Get returns the decoded string value of a tag.
func (m *Metadata) Get(tag riff.FourCC) (string, bool) {
	for _, e := range m.entries {
		if e.Tag == tag {
			return m.decode(e.Value), true
		}
	}
	return "", false
}

// Has reports whether a tag is present.
func (m *Metadata) Has(tag riff.FourCC) bool {
	for _, e := range m.entries {
		if e.Tag == tag {
			return true
		}
	}
	return false
}

// Delete removes a tag.
func (m *Metadata) Delete(tag riff.FourCC) {
	for i := range m.entries {
		if m.entries[i].Tag == tag {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return
		}
	}
}

// Entries returns the tags in their stored order.
func (m *Metadata) Entries() []Entry { return m.entries }

// Len reports the number of INFO tags.
func (m *Metadata) Len() int { return len(m.entries) }

func (m *Metadata) decode(raw []byte) string {
	// Payloads are NUL-terminated on disk; strip the terminator.
	for len(raw) > 0 && raw[len(raw)-1] == 0 {
		raw = raw[:len(raw)-1]
	}
	if m.legacy == nil {
		return string(raw)
	}
	out, err := m.legacy.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

// SetID3 stores the raw ID3 blob, replacing any previous one.
func (m *Metadata) SetID3(blob []byte) { m.id3 = blob }

// ID3Bytes returns the raw stored ID3 blob, nil when absent.
func (m *Metadata) ID3Bytes() []byte { return m.id3 }

// ID3 parses the stored blob into an id3v2 tag view.
func (m *Metadata) ID3() (*id3v2.Tag, error) {
	if len(m.id3) == 0 {
		return nil, nil
	}
	tag, err := id3v2.ParseReader(newByteReader(m.id3), id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return tag, nil
}

// CopyFrom merges tags and the ID3 blob from src. With overwrite false,
// tags already present keep their value.
func (m *Metadata) CopyFrom(src *Metadata, overwrite bool) {
	if src == nil {
		return
	}
	for _, e := range src.entries {
		if !overwrite && m.Has(e.Tag) {
			continue
		}
		v := make([]byte, len(e.Value))
		copy(v, e.Value)
		m.Set(e.Tag, v)
	}
	if len(src.id3) > 0 && (overwrite || len(m.id3) == 0) {
		m.id3 = append([]byte(nil), src.id3...)
	}
}
