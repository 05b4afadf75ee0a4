// SPDX-License-Identifier: EPL-2.0

// Package sample implements range-preserving conversion between the
// twelve element types audio frames can be expressed in: signed and
// unsigned 8/16/24/32/64-bit integers and 32/64-bit floats.
//
// # Conversion semantics
//
// Integer up-conversion replicates the source bit pattern into the wider
// width, so full scale maps to full scale exactly (0xFF becomes 0xFFFF,
// not 0xFF00). Down-conversion keeps the top bits, which for signed
// values is an arithmetic shift. Signed and unsigned values of equal
// width differ only in the sign bit.
//
// Float to integer clamps to [-1, 1], scales by 2^(w-1) and rounds half
// to even. Integer to float centres unsigned input and divides by
// 2^(w-1), landing in [-1, 1].
//
// Identity conversions are a no-op, and the batch helpers return the
// input slice unchanged when source and destination types coincide.
//
// # Round trips
//
// Converting to a wider or equal type and back returns the original
// value. Converting through a narrower type quantises to the narrow
// resolution. Integer round trips through float64 are exact up to 52
// bits of magnitude.
package sample
