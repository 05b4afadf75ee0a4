// SPDX-License-Identifier: EPL-2.0

// Package ogg implements the Ogg page layer used to encapsulate Vorbis
// and other packet streams inside a WAV data chunk.
//
// A page carries up to 255 segments of up to 255 bytes (65025 data
// bytes); every segment is exactly 255 bytes except the last of each
// packet. The page checksum uses the CRC-32 polynomial 0x04C11DB7 with
// zero initial value, computed over the whole page with a zeroed
// checksum field. The granule position is updated at each page seal
// through a caller-supplied advance.
package ogg

// Header type flags.
const (
	// FlagContinued marks a page whose first segment continues a packet
	// from the previous page.
	FlagContinued = 0x01
	// FlagBOS marks the first page of a logical stream.
	FlagBOS = 0x02
	// FlagEOS marks the last page of a logical stream.
	FlagEOS = 0x04
)

// MaxPageData is the data capacity of one page: 255 segments of 255
// bytes.
const MaxPageData = 255 * 255

// NoGranule marks a page on which no packet ends.
const NoGranule = ^uint64(0)

var crcTable [256]uint32

func init() {
	for i := range crcTable {
		r := uint32(i) << 24
		for range 8 {
			if r&0x80000000 != 0 {
				r = (r << 1) ^ 0x04C11DB7
			} else {
				r <<= 1
			}
		}
		crcTable[i] = r
	}
}

// CRC updates a running page checksum.
func CRC(crc uint32, data []byte) uint32 {
	for _, b := range data {
		crc = (crc << 8) ^ crcTable[byte(crc>>24)^b]
	}
	return crc
}

// Page is one Ogg page under construction or as parsed.
type Page struct {
	Version    byte
	HeaderType byte
	Granule    uint64
	Serial     uint32
	Sequence   uint32

	SegmentTable []byte
	Data         []byte
}

// Full reports whether the segment table has no room left.
func (p *Page) Full() bool { return len(p.SegmentTable) >= 255 }

// Append laces data into the page, 255-byte segments with a shorter
// (possibly empty) closing segment. It returns the bytes consumed;
// fewer than len(data) when the page fills. final tells whether this
// call carries the end of its packet, so the closing segment is
// emitted.
func (p *Page) Append(data []byte, final bool) int {
	written := 0
	for !p.Full() {
		rest := len(data) - written
		if rest >= 255 {
			if final && rest == 255 && len(p.SegmentTable) == 254 {
				// No slot would be left for the closing segment; the
				// last 255 bytes go to the next page.
				break
			}
			p.SegmentTable = append(p.SegmentTable, 255)
			p.Data = append(p.Data, data[written:written+255]...)
			written += 255
			continue
		}
		if !final {
			break
		}
		p.SegmentTable = append(p.SegmentTable, byte(rest))
		p.Data = append(p.Data, data[written:]...)
		written = len(data)
		break
	}
	return written
}

// Encode serialises the page, computing the checksum in place.
func (p *Page) Encode() []byte {
	out := make([]byte, 0, 27+len(p.SegmentTable)+len(p.Data))
	out = append(out, 'O', 'g', 'g', 'S')
	out = append(out, p.Version, p.HeaderType)
	g := p.Granule
	out = append(out,
		byte(g), byte(g>>8), byte(g>>16), byte(g>>24),
		byte(g>>32), byte(g>>40), byte(g>>48), byte(g>>56))
	out = append(out,
		byte(p.Serial), byte(p.Serial>>8), byte(p.Serial>>16), byte(p.Serial>>24))
	out = append(out,
		byte(p.Sequence), byte(p.Sequence>>8), byte(p.Sequence>>16), byte(p.Sequence>>24))
	out = append(out, 0, 0, 0, 0) // checksum placeholder
	out = append(out, byte(len(p.SegmentTable)))
	out = append(out, p.SegmentTable...)
	out = append(out, p.Data...)

	crc := CRC(0, out)
	out[22] = byte(crc)
	out[23] = byte(crc >> 8)
	out[24] = byte(crc >> 16)
	out[25] = byte(crc >> 24)
	return out
}
