// SPDX-License-Identifier: EPL-2.0

package meta

import (
	"bytes"
	"io"
	"strings"

	"github.com/ik5/riffwave/riff"
)

// newByteReader adapts a byte slice to the io.Reader the id3v2 parser
// wants without tying it to the Metadata's backing storage.
func newByteReader(b []byte) io.Reader { return bytes.NewReader(b) }

// FromList decodes the children of a LIST-INFO chunk into a Metadata.
// Unknown sub-tags are kept: order is what round-trips, not the tag
// whitelist.
func FromList(list *riff.Chunk) *Metadata {
	m := &Metadata{}
	if list == nil {
		return m
	}
	for _, c := range list.Children {
		v := make([]byte, len(c.Body))
		copy(v, c.Body)
		m.entries = append(m.entries, Entry{Tag: c.Tag, Value: v})
	}
	return m
}

// AppendListBody serialises the INFO tags as a LIST chunk body (the
// "INFO" sub-tag followed by the entries in stored order). Values are
// NUL-terminated and padded to even length, pad excluded from the
// declared size.
func (m *Metadata) AppendListBody(dst []byte) []byte {
	dst = append(dst, 'I', 'N', 'F', 'O')
	for _, e := range m.entries {
		v := e.Value
		if len(v) == 0 || v[len(v)-1] != 0 {
			v = append(append([]byte(nil), v...), 0)
		}
		dst = append(dst, e.Tag[:]...)
		n := uint32(len(v))
		dst = append(dst, byte(n), byte(n>>8), byte(n>>16), byte(n>>24))
		dst = append(dst, v...)
		if n%2 == 1 {
			dst = append(dst, 0)
		}
	}
	return dst
}

// IsKnownInfoTag reports whether the tag is one of the documented INFO
// sub-tags.
func IsKnownInfoTag(tag riff.FourCC) bool {
	for _, t := range KnownInfoTags {
		if t == tag {
			return true
		}
	}
	return false
}

// NormalizeTag upper-cases a tag name given as a string, for callers
// that take tag names from user input.
func NormalizeTag(name string) riff.FourCC {
	return riff.Tag(strings.ToUpper(name))
}
