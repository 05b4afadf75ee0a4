// SPDX-License-Identifier: EPL-2.0

// Package mp3 bridges MPEG layer III streams encapsulated in a WAV
// data chunk.
//
// Decoding wraps github.com/hajimehoshi/go-mp3, which yields 16-bit
// stereo PCM and supports seeking by re-synchronising on frame
// boundaries. Encoding has no pure-Go implementation; the Encoder here
// owns only the encapsulation and feeds PCM to the caller-supplied
// audio.Mp3FrameEncoder collaborator.
package mp3
