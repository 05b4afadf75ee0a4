// SPDX-License-Identifier: EPL-2.0

package riffwave

import (
	"fmt"
	"io"
	"os"

	"github.com/pion/logging"

	"github.com/ik5/riffwave/audio"
	"github.com/ik5/riffwave/formats/adpcm"
	"github.com/ik5/riffwave/formats/flac"
	"github.com/ik5/riffwave/formats/mp3"
	"github.com/ik5/riffwave/formats/opus"
	"github.com/ik5/riffwave/formats/pcm"
	"github.com/ik5/riffwave/formats/vorbis"
	"github.com/ik5/riffwave/formats/xlaw"
	"github.com/ik5/riffwave/internal/scratch"
	"github.com/ik5/riffwave/meta"
	"github.com/ik5/riffwave/riff"
)

// Reader exposes the spec, metadata and frame iterators of one WAV
// container. Iterators created from it progress independently; they
// share the immutable chunk graph and data range, never each other's
// position or codec state.
type Reader struct {
	path string   // non-empty when opened from a file
	file *os.File // kept open for the container's lifetime

	src io.ReadSeeker // non-path source, kept for metadata re-reads

	// dataCopy is the scratch copy of the data payload when the caller
	// handed us an arbitrary source instead of a path.
	dataCopy *scratch.File

	// decoded is the PCM backing store materialised for codecs without
	// random access, canonical int32 interleaved.
	decoded       *scratch.File
	decodedFrames uint64

	tree     *riff.Tree
	info     *audio.FmtInfo
	metadata *meta.Metadata

	numFrames uint64
	haveCount bool

	convCache convCache

	log logging.LeveledLogger

	closed bool
}

// OpenOption adjusts Reader construction.
type OpenOption func(*Reader)

// WithLoggerFactory routes the warn-only paths (container warnings,
// ds64/fact count disagreements) through the given factory.
func WithLoggerFactory(f logging.LoggerFactory) OpenOption {
	return func(r *Reader) { r.log = f.NewLogger("riffwave") }
}

// Open reads a container from a file path. No scratch copy is made;
// every iterator gets its own descriptor.
func Open(path string, opts ...OpenOption) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	r := &Reader{path: path, file: f}
	if err := r.init(f, opts); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// OpenFrom reads a container from any read+seek source. The data
// payload is copied into a delete-on-close scratch file so iterators
// can seek without fighting over the source's cursor.
func OpenFrom(src io.ReadSeeker, opts ...OpenOption) (*Reader, error) {
	r := &Reader{src: src}
	if err := r.init(src, opts); err != nil {
		return nil, err
	}
	if err := r.copyData(src); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) init(src io.ReadSeeker, opts []OpenOption) error {
	r.log = logging.NewDefaultLoggerFactory().NewLogger("riffwave")
	for _, opt := range opts {
		opt(r)
	}

	tree, err := riff.Parse(src)
	if err != nil {
		return err
	}
	r.tree = tree
	for _, w := range tree.Warnings {
		r.log.Warnf("container: %v", w)
	}

	fmtChunk := tree.Find(riff.TagFmt)
	if fmtChunk == nil {
		return &riff.MissingChunkError{Tag: riff.TagFmt}
	}
	info, err := audio.ParseFmt(fmtChunk.Body)
	if err != nil {
		return err
	}
	r.info = info

	r.metadata = meta.FromList(tree.FindList(riff.TagINFO))
	if id3 := tree.Find(riff.TagID3); id3 != nil && id3.Inlined() {
		r.metadata.SetID3(append([]byte(nil), id3.Body...))
	} else if id3 := tree.Find(riff.TagID3U); id3 != nil && id3.Inlined() {
		r.metadata.SetID3(append([]byte(nil), id3.Body...))
	}

	r.resolveFrameCount()
	return nil
}

// resolveFrameCount picks the authoritative frame count: ds64 first,
// then fact, then what the coding can derive from the payload length.
func (r *Reader) resolveFrameCount() {
	var factCount uint64
	haveFact := false
	if fact := r.tree.Find(riff.TagFact); fact != nil && len(fact.Body) >= 4 {
		factCount = uint64(uint32(fact.Body[0]) | uint32(fact.Body[1])<<8 |
			uint32(fact.Body[2])<<16 | uint32(fact.Body[3])<<24)
		haveFact = true
	}

	if ds64 := r.tree.Ds64; ds64 != nil && ds64.SampleCount > 0 {
		if haveFact && factCount != ds64.SampleCount && factCount != 0xFFFFFFFF {
			r.log.Warnf("ds64 sample count %d disagrees with fact %d, preferring ds64",
				ds64.SampleCount, factCount)
		}
		r.numFrames = ds64.SampleCount
		r.haveCount = true
		return
	}
	if haveFact {
		r.numFrames = factCount
		r.haveCount = true
		return
	}
	if r.info.Format.IsPcmFamily() {
		div := uint64(r.info.Spec.BlockAlign())
		if r.info.Format.Kind != audio.Pcm {
			div = uint64(r.info.Spec.Channels) // one byte per sample
		}
		if div > 0 {
			r.numFrames = r.tree.DataLength / div
			r.haveCount = true
		}
	}
}

// copyData materialises the data payload of a non-path source into the
// scratch file.
func (r *Reader) copyData(src io.ReadSeeker) error {
	s, err := scratch.New()
	if err != nil {
		return err
	}
	if _, err := src.Seek(int64(r.tree.DataOffset), io.SeekStart); err != nil {
		s.Close()
		return fmt.Errorf("%w", err)
	}
	if _, err := io.CopyN(s, src, int64(r.tree.DataLength)); err != nil {
		s.Close()
		return fmt.Errorf("%w", err)
	}
	r.dataCopy = s
	return nil
}

// Spec returns the decoded stream descriptor.
func (r *Reader) Spec() audio.Spec { return r.info.Spec }

// DataFormat returns the on-disk coding.
func (r *Reader) DataFormat() audio.DataFormat { return r.info.Format }

// Metadata returns the INFO tags and ID3 blob.
func (r *Reader) Metadata() *meta.Metadata { return r.metadata }

// NumFrames reports the total frame count when known.
func (r *Reader) NumFrames() (uint64, bool) { return r.numFrames, r.haveCount }

// Close releases the descriptor and every scratch file. Iterators
// created from the Reader stop working.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	var first error
	if r.file != nil {
		first = r.file.Close()
	}
	if r.dataCopy != nil {
		if err := r.dataCopy.Close(); first == nil {
			first = err
		}
	}
	if r.decoded != nil {
		if err := r.decoded.Close(); first == nil {
			first = err
		}
	}
	if first != nil {
		return fmt.Errorf("%w", first)
	}
	return nil
}

// dataSection returns an independent seekable view over the data
// payload, plus a closer for the per-iterator descriptor when one was
// opened.
func (r *Reader) dataSection() (io.ReadSeeker, io.Closer, error) {
	if r.dataCopy != nil {
		return io.NewSectionReader(r.dataCopy, 0, int64(r.tree.DataLength)), nil, nil
	}
	f, err := os.Open(r.path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w", err)
	}
	sec := io.NewSectionReader(f, int64(r.tree.DataOffset), int64(r.tree.DataLength))
	return sec, f, nil
}

// newDecoder dispatches the declared coding to its decoder. This is
// the read half of the format dispatcher.
func (r *Reader) newDecoder(section io.ReadSeeker) (audio.Decoder, error) {
	info := r.info
	spec := info.Spec
	dataLen := r.tree.DataLength

	switch info.Format.Kind {
	case audio.Pcm, audio.Unspecified:
		return pcm.NewDecoder(section, spec, dataLen), nil

	case audio.PcmALaw:
		return xlaw.NewDecoder(section, xlaw.ALaw, int(spec.Channels), dataLen), nil

	case audio.PcmMuLaw:
		return xlaw.NewDecoder(section, xlaw.MuLaw, int(spec.Channels), dataLen), nil

	case audio.AdpcmMs, audio.AdpcmIma, audio.AdpcmYamaha:
		dialect := adpcm.Ms
		switch info.Format.Kind {
		case audio.AdpcmIma:
			dialect = adpcm.Ima
		case audio.AdpcmYamaha:
			dialect = adpcm.Yamaha
		}
		return adpcm.NewDecoder(section, dialect, int(spec.Channels),
			int(info.BlockAlign), int(info.SamplesPerBlock),
			dataLen, r.numFrames, info.MsAdpcmCoefs), nil

	case audio.Mp3:
		return mp3.NewDecoder(section)

	case audio.Opus:
		return opus.NewDecoder(section, spec.SampleRate, int(spec.Channels),
			int(info.BlockAlign), int(info.SamplesPerBlock), dataLen, r.numFrames)

	case audio.Flac:
		return flac.NewDecoder(section)

	case audio.OggVorbis:
		if info.Format.Vorbis != nil && info.Format.Vorbis.Mode != audio.VorbisOriginalStream {
			return vorbis.NewPacketDecoder(section, info.VorbisHeaders)
		}
		return vorbis.NewStreamDecoder(section)

	case audio.NakedVorbis:
		return vorbis.NewNakedDecoder(section, info.VorbisHeaders)

	default:
		return nil, &audio.UnsupportedFormatTagError{Tag: info.FormatTag}
	}
}

// materialize decodes the whole stream into a canonical PCM scratch
// file, once, for codecs that cannot seek. All iterators share it.
func (r *Reader) materialize() error {
	if r.decoded != nil {
		return nil
	}
	section, closer, err := r.dataSection()
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	dec, err := r.newDecoder(section)
	if err != nil {
		return err
	}
	defer dec.Close()

	s, err := scratch.New()
	if err != nil {
		return err
	}

	buf := make([]int32, 4096*int(r.info.Spec.Channels))
	raw := make([]byte, len(buf)*4)
	var frames uint64
	for {
		n, err := dec.ReadSamples(buf)
		if n > 0 {
			for i := 0; i < n; i++ {
				v := uint32(buf[i])
				raw[i*4] = byte(v)
				raw[i*4+1] = byte(v >> 8)
				raw[i*4+2] = byte(v >> 16)
				raw[i*4+3] = byte(v >> 24)
			}
			if _, werr := s.Write(raw[:n*4]); werr != nil {
				s.Close()
				return fmt.Errorf("%w", werr)
			}
			frames += uint64(n) / uint64(r.info.Spec.Channels)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			s.Close()
			return err
		}
	}

	r.decoded = s
	r.decodedFrames = frames
	if !r.haveCount {
		r.numFrames = frames
		r.haveCount = true
	}
	return nil
}

// decodedSpec is the spec of the materialised backing store.
func (r *Reader) decodedSpec() audio.Spec {
	return audio.Spec{
		Channels:      r.info.Spec.Channels,
		ChannelMask:   r.info.Spec.ChannelMask,
		SampleRate:    r.info.Spec.SampleRate,
		BitsPerSample: 32,
		SampleFormat:  audio.Int,
	}
}

// decodedSection returns a view over the materialised backing store.
func (r *Reader) decodedSection() io.ReadSeeker {
	return io.NewSectionReader(r.decoded, 0, int64(r.decodedFrames)*int64(r.info.Spec.Channels)*4)
}

// Duration returns the stream length in seconds, when the frame count
// is known.
func (r *Reader) Duration() (float64, bool) {
	if !r.haveCount || r.info.Spec.SampleRate == 0 {
		return 0, false
	}
	return float64(r.numFrames) / float64(r.info.Spec.SampleRate), true
}
