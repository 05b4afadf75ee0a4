// SPDX-License-Identifier: EPL-2.0

package riffwave

import (
	"errors"
	"fmt"
)

var (
	// ErrWrongChannelCount is returned by the stereo and mono iterator
	// constructors when the stream has a different channel count.
	ErrWrongChannelCount = errors.New("stream has the wrong channel count for this iterator")

	// ErrNotMultichannel is returned by the downmix iterators for
	// streams that are already mono or stereo.
	ErrNotMultichannel = errors.New("downmix iterators need more than two channels")

	// ErrWriterPoisoned is returned by every write after one failed;
	// the partial file stays readable up to the failure.
	ErrWriterPoisoned = errors.New("writer poisoned by an earlier error")

	// ErrWriterFinalized is returned by writes after Finalize.
	ErrWriterFinalized = errors.New("writer already finalized")

	// ErrMetadataAfterData is returned when metadata is set after the
	// first frame forced the header chunks out. The canonical chunk
	// order places LIST-INFO ahead of data, so tags must be set first.
	ErrMetadataAfterData = errors.New("metadata must be set before the first frame is written")

	// ErrFileTooLarge is returned when a write would push the
	// container past the 32-bit limit under NeverLargerThan4GB.
	ErrFileTooLarge = errors.New("container would exceed 4 GiB under NeverLargerThan4GB")
)

// ChannelMismatchError reports a frame whose length is not the
// stream's channel count.
type ChannelMismatchError struct {
	Want uint16
	Got  int
}

func (e *ChannelMismatchError) Error() string {
	return fmt.Sprintf("frame has %d samples, stream has %d channels", e.Got, e.Want)
}

// UnsupportedSpecError reports a Spec/DataFormat pairing the engine
// cannot encode (e.g. MP3 with more than two channels).
type UnsupportedSpecError struct {
	Reason string
}

func (e *UnsupportedSpecError) Error() string {
	return fmt.Sprintf("unsupported spec for format: %s", e.Reason)
}

// UnsupportedRateError reports a sample rate outside a codec's set.
type UnsupportedRateError struct {
	Rate  uint32
	Codec string
}

func (e *UnsupportedRateError) Error() string {
	return fmt.Sprintf("sample rate %d not supported by %s", e.Rate, e.Codec)
}
