// SPDX-License-Identifier: EPL-2.0

package riff

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// The fixed-width helpers read and write little-endian values. A short
// read surfaces as ErrUnexpectedEOF so callers can tell truncation from
// other IO failures.

func readFull(r io.Reader, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrUnexpectedEOF
	}
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func ReadU8(r io.Reader) (uint8, error) {
	var b [1]byte
	if err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func ReadU16(r io.Reader) (uint16, error) {
	var b [2]byte
	if err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

// ReadU24 reads three bytes as an unsigned little-endian integer.
func ReadU24(r io.Reader) (uint32, error) {
	var b [3]byte
	if err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16, nil
}

func ReadU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func ReadU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func ReadI8(r io.Reader) (int8, error) {
	v, err := ReadU8(r)
	return int8(v), err
}

func ReadI16(r io.Reader) (int16, error) {
	v, err := ReadU16(r)
	return int16(v), err
}

// ReadI24 reads three bytes as a sign-extended two's-complement integer.
func ReadI24(r io.Reader) (int32, error) {
	v, err := ReadU24(r)
	if err != nil {
		return 0, err
	}
	return int32(v<<8) >> 8, nil
}

func ReadI32(r io.Reader) (int32, error) {
	v, err := ReadU32(r)
	return int32(v), err
}

func ReadI64(r io.Reader) (int64, error) {
	v, err := ReadU64(r)
	return int64(v), err
}

func ReadF32(r io.Reader) (float32, error) {
	v, err := ReadU32(r)
	return math.Float32frombits(v), err
}

func ReadF64(r io.Reader) (float64, error) {
	v, err := ReadU64(r)
	return math.Float64frombits(v), err
}

// ReadFourCC reads a four-byte chunk tag.
func ReadFourCC(r io.Reader) (FourCC, error) {
	var f FourCC
	if err := readFull(r, f[:]); err != nil {
		return f, err
	}
	return f, nil
}

func WriteU8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func WriteU16(w io.Writer, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// WriteU24 writes the low 24 bits of v, little-endian.
func WriteU24(w io.Writer, v uint32) error {
	b := [3]byte{byte(v), byte(v >> 8), byte(v >> 16)}
	_, err := w.Write(b[:])
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func WriteU32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func WriteU64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func WriteI8(w io.Writer, v int8) error   { return WriteU8(w, uint8(v)) }
func WriteI16(w io.Writer, v int16) error { return WriteU16(w, uint16(v)) }
func WriteI24(w io.Writer, v int32) error { return WriteU24(w, uint32(v)) }
func WriteI32(w io.Writer, v int32) error { return WriteU32(w, uint32(v)) }
func WriteI64(w io.Writer, v int64) error { return WriteU64(w, uint64(v)) }

func WriteF32(w io.Writer, v float32) error { return WriteU32(w, math.Float32bits(v)) }
func WriteF64(w io.Writer, v float64) error { return WriteU64(w, math.Float64bits(v)) }

// WriteFourCC writes a four-byte chunk tag.
func WriteFourCC(w io.Writer, f FourCC) error {
	_, err := w.Write(f[:])
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// LimitedSection returns a reader over a chunk payload that refuses to
// read past the declared length, regardless of how much data the
// underlying source still has.
func LimitedSection(r io.Reader, length uint64) io.Reader {
	return io.LimitReader(r, int64(length))
}

// SectionReader returns a seekable view over [off, off+length) of rs.
func SectionReader(rs io.ReaderAt, off int64, length int64) *io.SectionReader {
	return io.NewSectionReader(rs, off, length)
}
