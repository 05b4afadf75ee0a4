// SPDX-License-Identifier: EPL-2.0

// Package riff implements the RIFF/RF64/BW64 chunk container used by WAVE
// files.
//
// The package has two layers:
//
//   - Binary primitives: little-endian fixed-width readers and writers
//     (including 24-bit integers), the FourCC chunk tag type, and a
//     bounded section reader that limits reads to a declared chunk length.
//
//   - The chunk engine: Parse scans a container into a Tree of Chunk
//     nodes, accepting children in any order and keeping unknown chunks
//     (inlined up to 16 MiB, as opaque byte ranges above that) so they
//     round-trip. ChunkWriter emits chunks
//     with backfilled size fields and even-byte padding.
//
// # 64-bit containers
//
// RIFF size fields are 32 bits. A ds64 chunk lifts the root size, the
// data size and the sample count to 64 bits. When the on-disk RIFF size
// is 0xFFFFFFFF the ds64 values are authoritative; when both are present
// and below that sentinel they are expected to agree, and the parser
// reports a disagreement without failing.
//
// On the write side the engine reserves a JUNK chunk directly after the
// root header. Finalize either leaves the JUNK in place (the container
// fits in 32 bits) or rewrites the root tag to RF64 and the JUNK into a
// populated ds64.
//
// # Padding
//
// Every chunk payload is padded to an even byte boundary with a single
// zero byte. The pad byte is not part of the declared chunk length.
package riff
