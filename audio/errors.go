// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDstSize = errors.New("dst size must be multiple of channels")

	// ErrUnseekable is returned by Decoder.Seek when the coding has no
	// random access and the caller must fall back to a decoded backing
	// store.
	ErrUnseekable = errors.New("codec does not support random access")
)

// SpecValidationError reports a Spec that names no supported element
// type or is internally inconsistent.
type SpecValidationError struct {
	Reason string
}

func (e *SpecValidationError) Error() string {
	return fmt.Sprintf("invalid spec: %s", e.Reason)
}

// FormatError reports a malformed or unsupported fmt chunk.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format error: %s", e.Reason)
}

// UnsupportedFormatTagError reports a fmt tag this engine cannot decode.
type UnsupportedFormatTagError struct {
	Tag uint16
}

func (e *UnsupportedFormatTagError) Error() string {
	return fmt.Sprintf("unsupported format tag 0x%04X", e.Tag)
}
