// SPDX-License-Identifier: EPL-2.0

// Package vorbis codes Vorbis streams in a WAV data chunk in four
// encapsulations:
//
//   - original stream: a complete Ogg Vorbis file, headers on pages
//   - independent header: the three setup headers ride in the fmt
//     extension and the page stream carries audio packets only
//   - no codebook header: as above but without the setup header, for
//     pre-shared codebooks
//   - naked: no Ogg framing at all, length-prefixed raw packets
//
// The modes differ only in where the headers live; they are a runtime
// configuration of the writer, not separate types.
//
// Decoding wraps github.com/jfreymuth/oggvorbis for paged streams and
// github.com/jfreymuth/vorbis for raw packets. Encoding DSP is the
// caller-supplied audio.VorbisPacketEncoder collaborator; this package
// owns the encapsulation.
package vorbis
