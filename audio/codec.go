// SPDX-License-Identifier: EPL-2.0

package audio

import "io"

// Decoder yields interleaved samples in the canonical left-aligned
// int32 form. A left-aligned sample keeps full scale at full scale for
// any source width: a 16-bit sample occupies the top 16 bits.
//
// ReadSamples follows the io convention: it may return fewer samples
// than requested, and reports io.EOF together with (or after) the last
// samples. The count is in samples, not frames.
type Decoder interface {
	ReadSamples(dst []int32) (int, error)

	// Seek positions the stream at an absolute frame. Codecs without
	// random access return ErrUnseekable; block codecs round down to a
	// block boundary internally and re-read up to the exact frame.
	Seek(frame uint64) error

	// NumFrames reports the total frame count when it is knowable
	// without decoding the whole stream.
	NumFrames() (uint64, bool)

	io.Closer
}

// Encoder consumes interleaved canonical int32 samples and writes the
// coded form to its sink. Finish flushes any tail block or packet;
// writing after Finish is a caller error.
type Encoder interface {
	WriteSamples(src []int32) error
	Finish() error
}
