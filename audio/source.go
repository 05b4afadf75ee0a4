// SPDX-License-Identifier: EPL-2.0

package audio

// Source is a pull-based stream of interleaved float32 samples in
// [-1, 1]. It is the contract the resampler and downmixer collaborators
// consume; the Reader exposes its decoded frames through it.
type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (e.g., 1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1].
	// Returns number of float32 values written (not frames). When
	// n == 0 with err == io.EOF, the stream is finished.
	ReadSamples(dst []float32) (n int, err error)

	BufSize() int

	// Close releases any resources.
	Close() error
}
