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
	"github.com/ik5/riffwave/meta"
	"github.com/ik5/riffwave/riff"
	"github.com/ik5/riffwave/sample"
)

// FileSizeOption decides how the writer treats the 4 GiB boundary of
// the 32-bit RIFF form.
type FileSizeOption uint8

const (
	// NeverLargerThan4GB refuses writes that would cross the limit.
	NeverLargerThan4GB FileSizeOption = iota
	// AllowLargerThan4GB reserves a ds64 slot and decides at finalize.
	AllowLargerThan4GB
	// ForceUse4GBFormat always emits the RF64/ds64 form.
	ForceUse4GBFormat
)

// countingWriter tracks the data chunk payload size.
type countingWriter struct {
	w io.Writer
	n uint64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += uint64(n)
	return n, err
}

// Writer accepts frames in any element type, converts once through the
// matrix, routes them through the chosen codec and finalizes the
// container on Close.
type Writer struct {
	w    io.WriteSeeker
	file *os.File // owned when created by path

	spec    audio.Spec
	format  audio.DataFormat
	sizeOpt FileSizeOption
	log     logging.LeveledLogger

	metadata meta.Metadata

	headerDone  bool
	factValPos  int64
	dataSizePos int64
	dataStart   int64
	counting    *countingWriter

	enc    audio.Encoder
	pcmEnc *pcm.Encoder

	frames    uint64
	finalized bool
	poisoned  bool
}

// WriterOption adjusts Writer construction.
type WriterOption func(*Writer)

// WithWriterLoggerFactory routes the logged-only failure paths through
// the given factory.
func WithWriterLoggerFactory(f logging.LoggerFactory) WriterOption {
	return func(w *Writer) { w.log = f.NewLogger("riffwave") }
}

// NewWriter starts a container on any write+seek sink.
func NewWriter(sink io.WriteSeeker, spec audio.Spec, format audio.DataFormat, sizeOpt FileSizeOption, opts ...WriterOption) (*Writer, error) {
	w := &Writer{
		w:       sink,
		spec:    spec,
		format:  format,
		sizeOpt: sizeOpt,
		log:     logging.NewDefaultLoggerFactory().NewLogger("riffwave"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := w.fixupSpec(); err != nil {
		return nil, err
	}
	return w, nil
}

// Create starts a container in a new file.
func Create(path string, spec audio.Spec, format audio.DataFormat, sizeOpt FileSizeOption, opts ...WriterOption) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	w, err := NewWriter(f, spec, format, sizeOpt, opts...)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	w.file = f
	return w, nil
}

// fixupSpec validates the pairing and applies the per-codec spec
// adjustments (xlaw decodes to 16-bit, Opus rounds the rate up, ...).
func (w *Writer) fixupSpec() error {
	if w.spec.Channels == 0 || w.spec.SampleRate == 0 {
		return &audio.SpecValidationError{Reason: "zero channels or sample rate"}
	}

	switch w.format.Kind {
	case audio.Pcm, audio.Unspecified:
		w.format.Kind = audio.Pcm
		return w.spec.Validate()

	case audio.PcmALaw, audio.PcmMuLaw:
		if w.spec.Channels > 2 {
			return &UnsupportedSpecError{Reason: "companded formats carry at most two channels"}
		}
		w.spec.BitsPerSample = 16
		w.spec.SampleFormat = audio.Int

	case audio.AdpcmMs, audio.AdpcmIma, audio.AdpcmYamaha:
		if w.spec.Channels > 2 {
			return &UnsupportedSpecError{Reason: "ADPCM carries at most two channels"}
		}
		w.spec.BitsPerSample = 16
		w.spec.SampleFormat = audio.Int

	case audio.Mp3:
		if w.spec.Channels > 2 {
			return &UnsupportedSpecError{Reason: "MP3 carries at most two channels"}
		}
		if w.format.Mp3 == nil || w.format.Mp3.Encoder == nil {
			return mp3.ErrNoFrameEncoder
		}
		w.spec.BitsPerSample = 16
		w.spec.SampleFormat = audio.Int

	case audio.Opus:
		if w.spec.Channels > 2 {
			return &UnsupportedSpecError{Reason: "Opus carries at most two channels"}
		}
		w.spec.SampleRate = opus.RoundRate(w.spec.SampleRate)
		w.spec.BitsPerSample = 32
		w.spec.SampleFormat = audio.Float

	case audio.Flac:
		if w.spec.SampleFormat == audio.Float || w.spec.BitsPerSample == 64 {
			return &UnsupportedSpecError{Reason: "FLAC carries integer samples up to 32 bits"}
		}
		w.spec.SampleFormat = audio.Int

	case audio.OggVorbis, audio.NakedVorbis:
		if w.format.Vorbis == nil || w.format.Vorbis.Encoder == nil {
			return vorbis.ErrNoPacketEncoder
		}
		if w.format.Kind == audio.NakedVorbis {
			if w.format.Vorbis.Mode != audio.VorbisNaked {
				w.format.Vorbis.Mode = audio.VorbisNaked
			}
		}
		w.spec.BitsPerSample = 32
		w.spec.SampleFormat = audio.Float

	default:
		return &UnsupportedSpecError{Reason: "unknown data format"}
	}
	return nil
}

// SetMetadata replaces the tag set. It must happen before the first
// frame: the canonical chunk order puts LIST-INFO ahead of data.
func (w *Writer) SetMetadata(m *meta.Metadata) error {
	if w.headerDone {
		return ErrMetadataAfterData
	}
	w.metadata = meta.Metadata{}
	w.metadata.CopyFrom(m, true)
	return nil
}

// InheritMetadata copies tags and the ID3 blob from a Reader. With
// overwrite false, tags already set keep their value.
func (w *Writer) InheritMetadata(r *Reader, overwrite bool) error {
	if w.headerDone {
		return ErrMetadataAfterData
	}
	w.metadata.CopyFrom(r.Metadata(), overwrite)
	return nil
}

// Spec returns the effective spec after the per-codec adjustments.
func (w *Writer) Spec() audio.Spec { return w.spec }

// NumFrames reports the frames accepted so far.
func (w *Writer) NumFrames() uint64 { return w.frames }

func (w *Writer) reserveDs64() bool { return w.sizeOpt != NeverLargerThan4GB }

// writeHeader emits everything ahead of the data payload in canonical
// order, then opens the data chunk and constructs the encoder over it.
func (w *Writer) writeHeader() error {
	if w.headerDone {
		return nil
	}

	if err := riff.WriteContainerHeader(w.w, w.reserveDs64()); err != nil {
		return err
	}

	blockAlign, byteRate, samplesPerBlock := w.layoutFields()

	var ext []byte
	if w.format.Kind == audio.OggVorbis || w.format.Kind == audio.NakedVorbis {
		ext = w.vorbisExtension()
	}

	fmtBody := audio.BuildFmt(w.spec, w.format, samplesPerBlock, blockAlign, byteRate, ext)
	cw, err := riff.BeginChunk(w.w, riff.TagFmt)
	if err != nil {
		return err
	}
	if _, err := cw.Write(fmtBody); err != nil {
		return err
	}
	if _, err := cw.End(); err != nil {
		return err
	}

	if w.format.Kind != audio.Pcm {
		cw, err := riff.BeginChunk(w.w, riff.TagFact)
		if err != nil {
			return err
		}
		w.factValPos, _ = w.w.Seek(0, io.SeekCurrent)
		if err := riff.WriteU32(w.w, 0); err != nil {
			return err
		}
		if _, err := cw.End(); err != nil {
			return err
		}
	}

	if w.metadata.Len() > 0 {
		cw, err := riff.BeginChunk(w.w, riff.TagLIST)
		if err != nil {
			return err
		}
		if _, err := cw.Write(w.metadata.AppendListBody(nil)); err != nil {
			return err
		}
		if _, err := cw.End(); err != nil {
			return err
		}
	}

	if blob := w.metadata.ID3Bytes(); len(blob) > 0 {
		cw, err := riff.BeginChunk(w.w, riff.TagID3)
		if err != nil {
			return err
		}
		if _, err := cw.Write(blob); err != nil {
			return err
		}
		if _, err := cw.End(); err != nil {
			return err
		}
	}

	// The data chunk stays open until finalize; its size field is
	// patched by FinalizeContainer, which may widen it to ds64.
	if err := riff.WriteFourCC(w.w, riff.TagData); err != nil {
		return err
	}
	w.dataSizePos, _ = w.w.Seek(0, io.SeekCurrent)
	if err := riff.WriteU32(w.w, 0); err != nil {
		return err
	}
	w.dataStart, _ = w.w.Seek(0, io.SeekCurrent)
	w.counting = &countingWriter{w: w.w}

	if err := w.buildEncoder(); err != nil {
		return err
	}
	w.headerDone = true
	return nil
}

// layoutFields derives the fmt chunk's block align and byte rate for
// the chosen coding.
func (w *Writer) layoutFields() (uint16, uint32, uint16) {
	rate := w.spec.SampleRate
	switch w.format.Kind {
	case audio.Pcm:
		ba := uint16(w.spec.BlockAlign())
		return ba, rate * uint32(ba), 0

	case audio.PcmALaw, audio.PcmMuLaw:
		ba := w.spec.Channels
		return ba, rate * uint32(ba), 0

	case audio.AdpcmMs, audio.AdpcmIma, audio.AdpcmYamaha:
		blockSize := 0
		if w.format.Adpcm != nil {
			blockSize = int(w.format.Adpcm.BlockSize)
		}
		dialect := w.adpcmDialect()
		if blockSize <= 0 {
			blockSize = dialect.DefaultBlockSize(int(w.spec.Channels))
		}
		spb := dialect.SamplesPerBlock(blockSize, int(w.spec.Channels))
		return uint16(blockSize), rate * uint32(blockSize) / uint32(spb), uint16(spb)

	case audio.Opus:
		spb := opus.FrameDuration(rate)
		return uint16(opus.DefaultBlockSize), rate * opus.DefaultBlockSize / uint32(spb), uint16(spb)

	case audio.Mp3:
		return 1, 16000, 0

	default: // Flac, OggVorbis, NakedVorbis
		return 1, rate * uint32(w.spec.Channels) * 2, 0
	}
}

func (w *Writer) adpcmDialect() adpcm.Dialect {
	switch w.format.Kind {
	case audio.AdpcmIma:
		return adpcm.Ima
	case audio.AdpcmYamaha:
		return adpcm.Yamaha
	default:
		return adpcm.Ms
	}
}

// vorbisExtension collects the header packets the fmt extension
// carries for the out-of-band encapsulations.
func (w *Writer) vorbisExtension() []byte {
	enc := w.format.Vorbis.Encoder
	ident, comment, setup, err := enc.Headers()
	if err != nil {
		return nil
	}
	var headers [][]byte
	switch w.format.Vorbis.Mode {
	case audio.VorbisIndependentHeader, audio.VorbisNaked:
		headers = [][]byte{ident, comment, setup}
	case audio.VorbisNoCodebookHeader:
		headers = [][]byte{ident, comment}
	default:
		return nil
	}
	var out []byte
	for _, h := range headers {
		n := uint32(len(h))
		out = append(out, byte(n), byte(n>>8), byte(n>>16), byte(n>>24))
		out = append(out, h...)
	}
	return out
}

// buildEncoder is the write half of the format dispatcher.
func (w *Writer) buildEncoder() error {
	sink := w.counting
	switch w.format.Kind {
	case audio.Pcm:
		w.pcmEnc = pcm.NewEncoder(sink, w.spec)

	case audio.PcmALaw:
		w.enc = xlaw.NewEncoder(sink, xlaw.ALaw, int(w.spec.Channels))

	case audio.PcmMuLaw:
		w.enc = xlaw.NewEncoder(sink, xlaw.MuLaw, int(w.spec.Channels))

	case audio.AdpcmMs, audio.AdpcmIma, audio.AdpcmYamaha:
		blockSize := 0
		if w.format.Adpcm != nil {
			blockSize = int(w.format.Adpcm.BlockSize)
		}
		w.enc = adpcm.NewEncoder(sink, w.adpcmDialect(), int(w.spec.Channels), blockSize)

	case audio.Mp3:
		enc, err := mp3.NewEncoder(sink, w.format.Mp3.Encoder)
		if err != nil {
			return err
		}
		w.enc = enc

	case audio.Opus:
		enc, err := opus.NewEncoder(sink, w.spec.SampleRate, int(w.spec.Channels), opus.DefaultBlockSize)
		if err != nil {
			return err
		}
		w.enc = enc

	case audio.Flac:
		blockSize := 0
		if w.format.Flac != nil {
			blockSize = int(w.format.Flac.BlockSize)
		}
		bits := uint8(w.spec.BitsPerSample)
		enc, err := flac.NewEncoder(sink, w.spec.SampleRate, int(w.spec.Channels), bits, blockSize)
		if err != nil {
			return err
		}
		w.enc = enc

	case audio.OggVorbis, audio.NakedVorbis:
		enc, err := vorbis.NewEncoder(sink, w.format.Vorbis.Mode, w.format.Vorbis.Encoder, int(w.spec.Channels))
		if err != nil {
			return err
		}
		w.enc = enc
	}
	return nil
}

// checkRoom refuses writes that would cross the 32-bit limit under
// NeverLargerThan4GB, before any byte goes out.
func (w *Writer) checkRoom(incoming uint64) error {
	if w.sizeOpt != NeverLargerThan4GB {
		return nil
	}
	projected := uint64(w.dataStart) + w.counting.n + incoming
	if projected > riff.Max32BitRiffSize {
		return ErrFileTooLarge
	}
	return nil
}

func (w *Writer) writeGate() error {
	if w.poisoned {
		return ErrWriterPoisoned
	}
	if w.finalized {
		return ErrWriterFinalized
	}
	return w.writeHeader()
}

// WriteFrame writes one frame; len(frame) must be the channel count.
func WriteFrame[T sample.Type](w *Writer, frame []T) error {
	if len(frame) != int(w.spec.Channels) {
		return &ChannelMismatchError{Want: w.spec.Channels, Got: len(frame)}
	}
	return writeSamples(w, frame)
}

// WriteFrames writes a batch of frames.
func WriteFrames[T sample.Type](w *Writer, frames [][]T) error {
	for _, f := range frames {
		if err := WriteFrame(w, f); err != nil {
			return err
		}
	}
	return nil
}

// WriteStereos writes (left, right) pairs to a two-channel stream.
func WriteStereos[T sample.Type](w *Writer, stereos []sample.Stereo[T]) error {
	if w.spec.Channels != 2 {
		return &ChannelMismatchError{Want: w.spec.Channels, Got: 2}
	}
	flat := make([]T, 0, len(stereos)*2)
	for _, s := range stereos {
		flat = append(flat, s.L, s.R)
	}
	return writeSamples(w, flat)
}

// WriteMono writes scalar samples to a one-channel stream.
func WriteMono[T sample.Type](w *Writer, samples []T) error {
	if w.spec.Channels != 1 {
		return &ChannelMismatchError{Want: w.spec.Channels, Got: 1}
	}
	return writeSamples(w, samples)
}

func writeSamples[T sample.Type](w *Writer, samples []T) error {
	if err := w.writeGate(); err != nil {
		return err
	}
	if err := w.checkRoom(uint64(len(samples)) * uint64(w.spec.BytesPerSample())); err != nil {
		return err
	}

	var err error
	if w.pcmEnc != nil {
		err = pcm.WriteTyped(w.pcmEnc, samples)
	} else {
		err = w.enc.WriteSamples(sample.ConvertSlice[int32](samples))
	}
	if err != nil {
		w.poisoned = true
		return err
	}
	w.frames += uint64(len(samples)) / uint64(w.spec.Channels)
	return nil
}

// Finalize flushes the codec tail, patches the fact count and the
// header sizes, and decides the 32-bit or 64-bit form. Idempotent.
func (w *Writer) Finalize() error {
	if w.finalized {
		return nil
	}
	if err := w.writeHeader(); err != nil {
		return err
	}
	w.finalized = true

	if w.enc != nil && !w.poisoned {
		if err := w.enc.Finish(); err != nil {
			return err
		}
	}

	dataSize := w.counting.n
	end := uint64(w.dataStart) + dataSize
	if dataSize%2 == 1 {
		if err := riff.WriteU8(w.w, 0); err != nil {
			return err
		}
		end++
	}

	if w.factValPos != 0 {
		count := w.frames
		if count > 0xFFFFFFFF {
			count = 0xFFFFFFFF
		}
		if _, err := w.w.Seek(w.factValPos, io.SeekStart); err != nil {
			return fmt.Errorf("%w", err)
		}
		if err := riff.WriteU32(w.w, uint32(count)); err != nil {
			return err
		}
	}

	_, err := riff.FinalizeContainer(w.w, riff.FinalizeInfo{
		TotalSize:    end,
		DataSizePos:  w.dataSizePos,
		DataSize:     dataSize,
		SampleCount:  w.frames,
		Ds64Reserved: w.reserveDs64(),
		ForceDs64:    w.sizeOpt == ForceUse4GBFormat,
	})
	if err != nil {
		return err
	}
	if _, err := w.w.Seek(int64(end), io.SeekStart); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// Close finalizes if needed and releases an owned file. A finalize
// failure at Close has no surfacing path left, so it is logged only.
func (w *Writer) Close() error {
	if !w.finalized {
		if err := w.Finalize(); err != nil {
			w.log.Errorf("finalize at close: %v", err)
		}
	}
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return fmt.Errorf("%w", err)
		}
		w.file = nil
	}
	return nil
}
