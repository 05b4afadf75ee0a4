// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"bytes"
	"fmt"

	"github.com/ik5/riffwave/riff"
)

// FmtInfo is the parsed content of a fmt chunk: the caller-facing Spec,
// the data coding, and the codec fields the extension carried.
type FmtInfo struct {
	Spec   Spec
	Format DataFormat

	FormatTag  uint16
	ByteRate   uint32
	BlockAlign uint16

	// SamplesPerBlock applies to the block codecs (ADPCM, naked Opus).
	SamplesPerBlock uint16

	// VorbisHeaders holds the identification, comment and setup packets
	// when the fmt extension carries them (the independent-header and
	// naked encapsulations).
	VorbisHeaders [][]byte

	// MsAdpcmCoefs is the coefficient table of an ADPCM-MS extension.
	MsAdpcmCoefs [][2]int16
}

// ParseFmt decodes a fmt chunk body in any of the recognised layouts
// (14, 16, 18, 18+cbSize or 40 bytes).
func ParseFmt(body []byte) (*FmtInfo, error) {
	if len(body) < 14 {
		return nil, &FormatError{Reason: fmt.Sprintf("fmt chunk too short: %d bytes", len(body))}
	}
	r := bytes.NewReader(body)

	info := &FmtInfo{}
	var err error
	if info.FormatTag, err = riff.ReadU16(r); err != nil {
		return nil, err
	}
	channels, err := riff.ReadU16(r)
	if err != nil {
		return nil, err
	}
	rate, err := riff.ReadU32(r)
	if err != nil {
		return nil, err
	}
	if info.ByteRate, err = riff.ReadU32(r); err != nil {
		return nil, err
	}
	if info.BlockAlign, err = riff.ReadU16(r); err != nil {
		return nil, err
	}

	bitsPerSample := uint16(8)
	if len(body) >= 16 {
		if bitsPerSample, err = riff.ReadU16(r); err != nil {
			return nil, err
		}
	}

	var ext []byte
	if len(body) >= 18 {
		cbSize, err := riff.ReadU16(r)
		if err != nil {
			return nil, err
		}
		if int(cbSize) > r.Len() {
			return nil, &FormatError{Reason: "fmt extension length exceeds chunk"}
		}
		ext = body[18 : 18+int(cbSize)]
	}

	info.Spec = Spec{
		Channels:      channels,
		SampleRate:    rate,
		BitsPerSample: bitsPerSample,
	}

	tag := info.FormatTag
	if tag == FormatTagExtensible {
		if len(ext) < 22 {
			return nil, &FormatError{Reason: "WAVEFORMATEXTENSIBLE without the 22-byte extension"}
		}
		validBits := uint16(ext[0]) | uint16(ext[1])<<8
		info.Spec.ChannelMask = uint32(ext[2]) | uint32(ext[3])<<8 | uint32(ext[4])<<16 | uint32(ext[5])<<24
		guidTag := uint16(ext[6]) | uint16(ext[7])<<8
		ksTail := []byte{0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71}
		if !bytes.Equal(ext[8:22], ksTail) {
			return nil, &FormatError{Reason: "unrecognised sub-format GUID"}
		}
		if validBits != 0 && validBits != bitsPerSample {
			info.Spec.BitsPerSample = validBits
		}
		tag = guidTag
		ext = ext[22:]
	}

	if err := info.applyTag(tag, ext); err != nil {
		return nil, err
	}
	if err := info.Spec.Validate(); err != nil {
		return nil, err
	}
	return info, nil
}

func (info *FmtInfo) applyTag(tag uint16, ext []byte) error {
	readU16 := func(off int) uint16 { return uint16(ext[off]) | uint16(ext[off+1])<<8 }

	switch tag {
	case FormatTagPcm:
		info.Format = DataFormat{Kind: Pcm}
		if info.Spec.BitsPerSample == 8 {
			info.Spec.SampleFormat = Uint
		} else {
			info.Spec.SampleFormat = Int
		}

	case FormatTagIeeeFloat:
		info.Format = DataFormat{Kind: Pcm}
		info.Spec.SampleFormat = Float

	case FormatTagALaw, FormatTagMuLaw:
		kind := PcmALaw
		if tag == FormatTagMuLaw {
			kind = PcmMuLaw
		}
		info.Format = DataFormat{Kind: kind}
		// One byte per sample on disk, 16-bit samples after decode.
		info.Spec.BitsPerSample = 16
		info.Spec.SampleFormat = Int

	case FormatTagAdpcmMs:
		info.Format = DataFormat{Kind: AdpcmMs, Adpcm: &AdpcmOptions{BlockSize: info.BlockAlign}}
		if len(ext) >= 4 {
			info.SamplesPerBlock = readU16(0)
			numCoef := int(readU16(2))
			if len(ext) >= 4+numCoef*4 {
				for i := 0; i < numCoef; i++ {
					c1 := int16(readU16(4 + i*4))
					c2 := int16(readU16(6 + i*4))
					info.MsAdpcmCoefs = append(info.MsAdpcmCoefs, [2]int16{c1, c2})
				}
			}
		}
		info.Spec.BitsPerSample = 16
		info.Spec.SampleFormat = Int

	case FormatTagAdpcmIma, FormatTagAdpcmYamaha:
		kind := AdpcmIma
		if tag == FormatTagAdpcmYamaha {
			kind = AdpcmYamaha
		}
		info.Format = DataFormat{Kind: kind, Adpcm: &AdpcmOptions{BlockSize: info.BlockAlign}}
		if len(ext) >= 2 {
			info.SamplesPerBlock = readU16(0)
		}
		info.Spec.BitsPerSample = 16
		info.Spec.SampleFormat = Int

	case FormatTagMp3:
		info.Format = DataFormat{Kind: Mp3}
		info.Spec.BitsPerSample = 16
		info.Spec.SampleFormat = Int

	case FormatTagOpus:
		info.Format = DataFormat{Kind: Opus, Opus: &OpusOptions{}}
		if len(ext) >= 2 {
			info.SamplesPerBlock = readU16(0)
		}
		info.Spec.BitsPerSample = 32
		info.Spec.SampleFormat = Float

	case FormatTagFlac:
		info.Format = DataFormat{Kind: Flac, Flac: &FlacOptions{}}
		if info.Spec.BitsPerSample == 0 {
			info.Spec.BitsPerSample = 16
		}
		info.Spec.SampleFormat = Int

	case FormatTagOggVorbis1, FormatTagOggVorbis1P:
		info.Format = DataFormat{Kind: OggVorbis, Vorbis: &VorbisOptions{Mode: VorbisOriginalStream}}
		info.Spec.BitsPerSample = 32
		info.Spec.SampleFormat = Float

	case FormatTagOggVorbis2:
		info.Format = DataFormat{Kind: OggVorbis, Vorbis: &VorbisOptions{Mode: VorbisIndependentHeader}}
		info.parseVorbisHeaders(ext)
		info.Spec.BitsPerSample = 32
		info.Spec.SampleFormat = Float

	case FormatTagOggVorbis2P:
		info.Format = DataFormat{Kind: NakedVorbis, Vorbis: &VorbisOptions{Mode: VorbisNaked}}
		info.parseVorbisHeaders(ext)
		info.Spec.BitsPerSample = 32
		info.Spec.SampleFormat = Float

	case FormatTagOggVorbis3, FormatTagOggVorbis3P:
		info.Format = DataFormat{Kind: OggVorbis, Vorbis: &VorbisOptions{Mode: VorbisNoCodebookHeader}}
		info.parseVorbisHeaders(ext)
		info.Spec.BitsPerSample = 32
		info.Spec.SampleFormat = Float

	default:
		return &UnsupportedFormatTagError{Tag: tag}
	}
	return nil
}

// parseVorbisHeaders reads up to three length-prefixed header packets
// from a fmt extension.
func (info *FmtInfo) parseVorbisHeaders(ext []byte) {
	pos := 0
	for len(info.VorbisHeaders) < 3 && pos+4 <= len(ext) {
		n := int(uint32(ext[pos]) | uint32(ext[pos+1])<<8 | uint32(ext[pos+2])<<16 | uint32(ext[pos+3])<<24)
		pos += 4
		if n == 0 || pos+n > len(ext) {
			return
		}
		info.VorbisHeaders = append(info.VorbisHeaders, ext[pos:pos+n])
		pos += n
	}
}

// BuildFmt encodes a fmt chunk body for the given stream. The variant
// (PCMWAVEFORMAT, WAVEFORMATEX, WAVEFORMATEXTENSIBLE) follows from the
// spec: more than two channels, an explicit mask or more than 16 bits
// force the extensible form for PCM data.
func BuildFmt(spec Spec, format DataFormat, samplesPerBlock uint16, blockAlign uint16, byteRate uint32, ext []byte) []byte {
	buf := &bytes.Buffer{}

	put16 := func(v uint16) { buf.WriteByte(byte(v)); buf.WriteByte(byte(v >> 8)) }
	put32 := func(v uint32) {
		buf.WriteByte(byte(v))
		buf.WriteByte(byte(v >> 8))
		buf.WriteByte(byte(v >> 16))
		buf.WriteByte(byte(v >> 24))
	}

	tag, bits := onDiskTagBits(spec, format)
	extensible := format.Kind == Pcm &&
		(spec.Channels > 2 || spec.ChannelMask != 0 || spec.BitsPerSample > 16)

	if extensible {
		put16(FormatTagExtensible)
	} else {
		put16(tag)
	}
	put16(spec.Channels)
	put32(spec.SampleRate)
	put32(byteRate)
	put16(blockAlign)
	put16(bits)

	switch {
	case extensible:
		put16(22 + uint16(len(ext)))
		put16(bits) // valid bits
		put32(spec.ChannelMask)
		g := ksDataFormat(tag)
		put32(g.Data1)
		put16(g.Data2)
		put16(g.Data3)
		buf.Write(g.Data4[:])
		buf.Write(ext)

	case format.Kind == Pcm:
		// Plain 16-byte PCMWAVEFORMAT, no cbSize.

	case format.Kind == AdpcmMs:
		coefExt := make([]byte, 0, 4+7*4)
		coefExt = append(coefExt, byte(samplesPerBlock), byte(samplesPerBlock>>8), 7, 0)
		for _, c := range msDefaultCoefs {
			coefExt = append(coefExt,
				byte(uint16(c[0])), byte(uint16(c[0])>>8),
				byte(uint16(c[1])), byte(uint16(c[1])>>8))
		}
		put16(uint16(len(coefExt)))
		buf.Write(coefExt)

	case format.Kind == AdpcmIma || format.Kind == AdpcmYamaha || format.Kind == Opus:
		put16(2)
		put16(samplesPerBlock)

	case format.Kind == Mp3:
		// MPEGLAYER3WAVEFORMAT: wID=1, fdwFlags=0, nBlockSize,
		// nFramesPerBlock=1, nCodecDelay=0.
		put16(12)
		put16(1)
		put32(0)
		put16(blockAlign)
		put16(1)
		put16(0)

	default:
		put16(uint16(len(ext)))
		buf.Write(ext)
	}

	return buf.Bytes()
}

// msDefaultCoefs is the standard ADPCM-MS predictor coefficient table.
var msDefaultCoefs = [7][2]int16{
	{256, 0}, {512, -256}, {0, 0}, {192, 64}, {240, 0}, {460, -208}, {392, -232},
}

// onDiskTagBits maps a Spec and DataFormat to the fmt tag and the
// declared bits-per-sample as they appear on disk.
func onDiskTagBits(spec Spec, format DataFormat) (uint16, uint16) {
	switch format.Kind {
	case Pcm:
		if spec.SampleFormat == Float {
			return FormatTagIeeeFloat, spec.BitsPerSample
		}
		return FormatTagPcm, spec.BitsPerSample
	case PcmALaw:
		return FormatTagALaw, 8
	case PcmMuLaw:
		return FormatTagMuLaw, 8
	case AdpcmMs:
		return FormatTagAdpcmMs, 4
	case AdpcmIma:
		return FormatTagAdpcmIma, 4
	case AdpcmYamaha:
		return FormatTagAdpcmYamaha, 4
	case Mp3:
		return FormatTagMp3, 0
	case Opus:
		return FormatTagOpus, 0
	case Flac:
		return FormatTagFlac, spec.BitsPerSample
	case OggVorbis:
		switch mode := vorbisMode(format); mode {
		case VorbisIndependentHeader:
			return FormatTagOggVorbis2, 0
		case VorbisNoCodebookHeader:
			return FormatTagOggVorbis3, 0
		default:
			return FormatTagOggVorbis1, 0
		}
	case NakedVorbis:
		return FormatTagOggVorbis2P, 0
	default:
		return 0, spec.BitsPerSample
	}
}

func vorbisMode(format DataFormat) VorbisMode {
	if format.Vorbis == nil {
		return VorbisOriginalStream
	}
	return format.Vorbis.Mode
}
