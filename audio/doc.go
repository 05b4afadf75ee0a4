// SPDX-License-Identifier: EPL-2.0

// Package audio holds the stream model shared by the whole engine.
//
// # Spec and DataFormat
//
// A Spec describes one audio stream: channel count and mask, sample
// rate, and the element type samples decode to. A DataFormat names how
// the data chunk payload is coded: uncompressed PCM, the telephony
// companders, the three ADPCM dialects, or one of the encapsulated
// streaming codecs (MP3, Opus, FLAC, Ogg Vorbis).
//
// ParseFmt and BuildFmt translate between this model and the on-disk
// fmt chunk in its PCMWAVEFORMAT, WAVEFORMATEX and WAVEFORMATEXTENSIBLE
// layouts.
//
// # The codec contract
//
// Decoder and Encoder are the interface every format package
// implements: interleaved samples in a canonical left-aligned int32,
// read and written in batches. The element-type conversion matrix in
// the sample package maps the canonical form to whatever the caller
// asked for.
//
// # Collaborator pipeline
//
// Source is the float32 pull stream consumed by the processing stages
// that sit outside the container engine proper: the cubic resampler and
// the channel-mask-weighted Downmixer.
package audio
