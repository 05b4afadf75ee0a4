// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// WAVE format tags recognised in the fmt chunk.
const (
	FormatTagPcm         uint16 = 0x0001
	FormatTagAdpcmMs     uint16 = 0x0002
	FormatTagIeeeFloat   uint16 = 0x0003
	FormatTagALaw        uint16 = 0x0006
	FormatTagMuLaw       uint16 = 0x0007
	FormatTagAdpcmIma    uint16 = 0x0011
	FormatTagAdpcmYamaha uint16 = 0x0020
	FormatTagMp3         uint16 = 0x0055
	FormatTagOpus        uint16 = 0x704F
	FormatTagFlac        uint16 = 0xF1AC
	FormatTagExtensible  uint16 = 0xFFFE

	// Ogg-Vorbis-in-WAV tags, one per encapsulation variant. Og and og
	// keep every header on the Ogg pages; Pg, Qg, pg and qg carry header
	// packets in the fmt extension, and pg marks naked Vorbis.
	FormatTagOggVorbis1  uint16 = 'O' | 'g'<<8
	FormatTagOggVorbis2  uint16 = 'P' | 'g'<<8
	FormatTagOggVorbis3  uint16 = 'Q' | 'g'<<8
	FormatTagOggVorbis1P uint16 = 'o' | 'g'<<8
	FormatTagOggVorbis2P uint16 = 'p' | 'g'<<8
	FormatTagOggVorbis3P uint16 = 'q' | 'g'<<8
)

// GUID is a Windows GUID in its native mixed-endian layout.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

func (g GUID) String() string {
	return fmt.Sprintf("%08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X",
		g.Data1, g.Data2, g.Data3,
		g.Data4[0], g.Data4[1], g.Data4[2], g.Data4[3],
		g.Data4[4], g.Data4[5], g.Data4[6], g.Data4[7])
}

func ksDataFormat(tag uint16) GUID {
	return GUID{uint32(tag), 0x0000, 0x0010, [8]byte{0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71}}
}

// WAVEFORMATEXTENSIBLE sub-format GUIDs.
var (
	SubTypePcm       = ksDataFormat(FormatTagPcm)
	SubTypeIeeeFloat = ksDataFormat(FormatTagIeeeFloat)
	SubTypeALaw      = ksDataFormat(FormatTagALaw)
	SubTypeMuLaw     = ksDataFormat(FormatTagMuLaw)
	SubTypeAdpcm     = ksDataFormat(FormatTagAdpcmMs)
	SubTypeMp3       = ksDataFormat(FormatTagMp3)
)

// FormatKind names the coding of the data chunk payload.
type FormatKind uint8

const (
	Unspecified FormatKind = iota
	Pcm
	PcmALaw
	PcmMuLaw
	AdpcmMs
	AdpcmIma
	AdpcmYamaha
	Mp3
	Opus
	Flac
	OggVorbis
	NakedVorbis
)

func (k FormatKind) String() string {
	switch k {
	case Pcm:
		return "pcm"
	case PcmALaw:
		return "a-law"
	case PcmMuLaw:
		return "mu-law"
	case AdpcmMs:
		return "adpcm-ms"
	case AdpcmIma:
		return "adpcm-ima"
	case AdpcmYamaha:
		return "adpcm-yamaha"
	case Mp3:
		return "mp3"
	case Opus:
		return "opus"
	case Flac:
		return "flac"
	case OggVorbis:
		return "ogg vorbis"
	case NakedVorbis:
		return "naked vorbis"
	default:
		return "unspecified"
	}
}

// VorbisMode selects where the three Vorbis setup headers live relative
// to the Ogg page stream, and whether the codebook header is written.
type VorbisMode uint8

const (
	// VorbisNaked stores raw Vorbis packets without Ogg framing.
	VorbisNaked VorbisMode = iota
	// VorbisOriginalStream is standard Ogg Vorbis: all three headers on
	// Ogg pages ahead of the audio.
	VorbisOriginalStream
	// VorbisIndependentHeader keeps the headers in the fmt extension so
	// the page stream starts at the audio packets.
	VorbisIndependentHeader
	// VorbisNoCodebookHeader is VorbisIndependentHeader without the
	// setup (codebook) header, for pre-shared codebooks.
	VorbisNoCodebookHeader
)

// VorbisBitrate selects the encoder's rate management strategy.
type VorbisBitrate struct {
	// Vbr is the target bitrate in bits per second; zero selects the
	// encoder default quality mode.
	Vbr uint32
	// Quality is the quality-mode setting in [-0.2, 1.0], used when Vbr
	// is zero.
	Quality float32
}

// Mp3FrameEncoder is the external-collaborator contract for MP3
// encoding: the engine owns the container encapsulation, the DSP lives
// behind this interface (no pure-Go MP3 encoder exists). EncodeSamples
// may return zero bytes until a frame boundary.
type Mp3FrameEncoder interface {
	EncodeSamples(pcm []int16) ([]byte, error)
	Flush() ([]byte, error)
}

// VorbisPacketEncoder is the external-collaborator contract for Vorbis
// encoding. The engine performs the Ogg (or naked) encapsulation of the
// packets this interface yields.
type VorbisPacketEncoder interface {
	// Headers returns the identification, comment and setup packets.
	Headers() (ident, comment, setup []byte, err error)
	// Encode consumes interleaved float32 frames and returns finished
	// packets with the frame count each one adds when decoded.
	Encode(interleaved []float32) (packets [][]byte, granules []uint64, err error)
	// Flush drains the tail packets at end of stream.
	Flush() (packets [][]byte, granules []uint64, err error)
}

// Mp3Options parameterises the MP3 writer.
type Mp3Options struct {
	// Encoder is the mandatory external frame encoder for writing.
	Encoder Mp3FrameEncoder
}

// OpusOptions parameterises the Opus encoder.
type OpusOptions struct {
	// Bitrate in bits per second; zero keeps the encoder default.
	Bitrate int
}

// FlacOptions parameterises the FLAC encoder.
type FlacOptions struct {
	// CompressionLevel 0..8; this engine writes verbatim frames and the
	// encoder does not read the level.
	CompressionLevel uint8
	// BlockSize in frames per FLAC frame; zero means 4096.
	BlockSize uint16
}

// AdpcmOptions parameterises the ADPCM encoders.
type AdpcmOptions struct {
	// BlockSize in bytes; zero picks the dialect default.
	BlockSize uint16
}

// VorbisOptions parameterises the Ogg-Vorbis writer.
type VorbisOptions struct {
	Mode    VorbisMode
	Bitrate VorbisBitrate

	// Encoder is the mandatory external packet encoder for writing.
	Encoder VorbisPacketEncoder
}

// DataFormat is the tagged variant describing the on-disk coding and
// the options of its encoder.
type DataFormat struct {
	Kind FormatKind

	Adpcm  *AdpcmOptions
	Mp3    *Mp3Options
	Opus   *OpusOptions
	Flac   *FlacOptions
	Vorbis *VorbisOptions
}

// IsPcmFamily reports whether frames are byte-addressable on disk.
func (f DataFormat) IsPcmFamily() bool {
	switch f.Kind {
	case Pcm, PcmALaw, PcmMuLaw:
		return true
	default:
		return false
	}
}

// IsStreaming reports whether the coding needs a stateful packet codec.
func (f DataFormat) IsStreaming() bool {
	switch f.Kind {
	case Mp3, Opus, Flac, OggVorbis, NakedVorbis:
		return true
	default:
		return false
	}
}
