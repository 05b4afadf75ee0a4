// SPDX-License-Identifier: EPL-2.0

// Package riffwave reads and writes the RIFF/RF64/BW64 WAV container
// family, with sub-format coding for uncompressed PCM, A-law, mu-law,
// three ADPCM dialects, and encapsulated MP3, Opus, FLAC and Vorbis
// streams. Decoded audio is exposed as lazy, seekable frame iterators
// in any of twelve caller-selected numeric element types.
//
// # Reading
//
//	r, err := riffwave.Open("audio.wav")
//	if err != nil {
//	    // handle error
//	}
//	defer r.Close()
//
//	it, _ := riffwave.StereoFrames[float32](r)
//	for {
//	    frame, err := it.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    process(frame.L, frame.R)
//	}
//
// Multiple iterators may run over the same Reader, each with its own
// position and codec state. Codecs without random access (the
// packet-level Vorbis decoders) get a decoded backing store in a
// delete-on-close scratch file the first time an iterator seeks or is
// cloned; MP3 seeks directly.
//
// # Writing
//
//	spec := audio.Spec{Channels: 2, SampleRate: 48000,
//	    BitsPerSample: 16, SampleFormat: audio.Int}
//	w, _ := riffwave.Create("out.wav", spec,
//	    audio.DataFormat{Kind: audio.Pcm}, riffwave.NeverLargerThan4GB)
//	riffwave.WriteStereos(w, frames)
//	w.Close()
//
// The writer converts incoming frames once through the sample matrix,
// routes them through the chosen codec, and finalizes the container on
// Close: the fact count and header sizes are patched, and containers
// past 4 GiB are rewritten to the RF64/ds64 form when the
// FileSizeOption allows it.
//
// # Element types
//
// Frames convert between signed and unsigned 8/16/24/32/64-bit
// integers and 32/64-bit floats through the range-preserving matrix in
// the sample package. Identity conversions are free.
//
// # Subpackages
//
//   - riff: chunk engine and binary primitives
//   - sample: the element-type conversion matrix
//   - audio: Spec, DataFormat, and the collaborator pipeline
//   - meta: INFO tags and the ID3 blob
//   - ogg: Ogg page framing
//   - formats/...: the per-coding codecs
package riffwave
