// SPDX-License-Identifier: EPL-2.0

package pcm

import (
	"math"

	"github.com/ik5/riffwave/audio"
	"github.com/ik5/riffwave/sample"
)

// DecodeInto converts raw little-endian sample bytes to the element
// type T, one conversion per sample through the matrix so the exactness
// guarantees of the matrix apply end to end.
func DecodeInto[T sample.Type](spec audio.Spec, raw []byte, dst []T) {
	w := int(spec.BytesPerSample())
	n := len(raw) / w
	if n > len(dst) {
		n = len(dst)
	}

	switch {
	case spec.SampleFormat == audio.Float && spec.BitsPerSample == 32:
		for i := 0; i < n; i++ {
			bits := uint32(raw[i*4]) | uint32(raw[i*4+1])<<8 |
				uint32(raw[i*4+2])<<16 | uint32(raw[i*4+3])<<24
			dst[i] = sample.Convert[T](math.Float32frombits(bits))
		}
	case spec.SampleFormat == audio.Float:
		for i := 0; i < n; i++ {
			bits := le64(raw[i*8:])
			dst[i] = sample.Convert[T](math.Float64frombits(bits))
		}
	case spec.BitsPerSample == 8 && spec.SampleFormat == audio.Uint:
		for i := 0; i < n; i++ {
			dst[i] = sample.Convert[T](raw[i])
		}
	case spec.BitsPerSample == 8:
		for i := 0; i < n; i++ {
			dst[i] = sample.Convert[T](int8(raw[i]))
		}
	case spec.BitsPerSample == 16 && spec.SampleFormat == audio.Uint:
		for i := 0; i < n; i++ {
			dst[i] = sample.Convert[T](uint16(raw[i*2]) | uint16(raw[i*2+1])<<8)
		}
	case spec.BitsPerSample == 16:
		for i := 0; i < n; i++ {
			dst[i] = sample.Convert[T](int16(uint16(raw[i*2]) | uint16(raw[i*2+1])<<8))
		}
	case spec.BitsPerSample == 24 && spec.SampleFormat == audio.Uint:
		for i := 0; i < n; i++ {
			u := uint32(raw[i*3]) | uint32(raw[i*3+1])<<8 | uint32(raw[i*3+2])<<16
			dst[i] = sample.Convert[T](sample.Uint24(u))
		}
	case spec.BitsPerSample == 24:
		for i := 0; i < n; i++ {
			u := uint32(raw[i*3]) | uint32(raw[i*3+1])<<8 | uint32(raw[i*3+2])<<16
			dst[i] = sample.Convert[T](sample.Int24(int32(u<<8) >> 8))
		}
	case spec.BitsPerSample == 32 && spec.SampleFormat == audio.Uint:
		for i := 0; i < n; i++ {
			u := uint32(raw[i*4]) | uint32(raw[i*4+1])<<8 |
				uint32(raw[i*4+2])<<16 | uint32(raw[i*4+3])<<24
			dst[i] = sample.Convert[T](u)
		}
	case spec.BitsPerSample == 32:
		for i := 0; i < n; i++ {
			u := uint32(raw[i*4]) | uint32(raw[i*4+1])<<8 |
				uint32(raw[i*4+2])<<16 | uint32(raw[i*4+3])<<24
			dst[i] = sample.Convert[T](int32(u))
		}
	case spec.BitsPerSample == 64 && spec.SampleFormat == audio.Uint:
		for i := 0; i < n; i++ {
			dst[i] = sample.Convert[T](le64(raw[i*8:]))
		}
	default: // 64-bit signed
		for i := 0; i < n; i++ {
			dst[i] = sample.Convert[T](int64(le64(raw[i*8:])))
		}
	}
}

// EncodeFrom converts samples of element type T to raw little-endian
// bytes in the spec's native width.
func EncodeFrom[T sample.Type](spec audio.Spec, raw []byte, src []T) {
	switch {
	case spec.SampleFormat == audio.Float && spec.BitsPerSample == 32:
		for i, v := range src {
			put32(raw[i*4:], math.Float32bits(sample.Convert[float32](v)))
		}
	case spec.SampleFormat == audio.Float:
		for i, v := range src {
			put64(raw[i*8:], math.Float64bits(sample.Convert[float64](v)))
		}
	case spec.BitsPerSample == 8 && spec.SampleFormat == audio.Uint:
		for i, v := range src {
			raw[i] = sample.Convert[uint8](v)
		}
	case spec.BitsPerSample == 8:
		for i, v := range src {
			raw[i] = byte(sample.Convert[int8](v))
		}
	case spec.BitsPerSample == 16 && spec.SampleFormat == audio.Uint:
		for i, v := range src {
			u := sample.Convert[uint16](v)
			raw[i*2] = byte(u)
			raw[i*2+1] = byte(u >> 8)
		}
	case spec.BitsPerSample == 16:
		for i, v := range src {
			u := uint16(sample.Convert[int16](v))
			raw[i*2] = byte(u)
			raw[i*2+1] = byte(u >> 8)
		}
	case spec.BitsPerSample == 24 && spec.SampleFormat == audio.Uint:
		for i, v := range src {
			u := uint32(sample.Convert[sample.Uint24](v))
			raw[i*3] = byte(u)
			raw[i*3+1] = byte(u >> 8)
			raw[i*3+2] = byte(u >> 16)
		}
	case spec.BitsPerSample == 24:
		for i, v := range src {
			u := uint32(int32(sample.Convert[sample.Int24](v)))
			raw[i*3] = byte(u)
			raw[i*3+1] = byte(u >> 8)
			raw[i*3+2] = byte(u >> 16)
		}
	case spec.BitsPerSample == 32 && spec.SampleFormat == audio.Uint:
		for i, v := range src {
			put32(raw[i*4:], sample.Convert[uint32](v))
		}
	case spec.BitsPerSample == 32:
		for i, v := range src {
			put32(raw[i*4:], uint32(sample.Convert[int32](v)))
		}
	case spec.BitsPerSample == 64 && spec.SampleFormat == audio.Uint:
		for i, v := range src {
			put64(raw[i*8:], sample.Convert[uint64](v))
		}
	default: // 64-bit signed
		for i, v := range src {
			put64(raw[i*8:], uint64(sample.Convert[int64](v)))
		}
	}
}

func le64(b []byte) uint64 {
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}

func put32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func put64(b []byte, v uint64) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	b[4] = byte(v >> 32)
	b[5] = byte(v >> 40)
	b[6] = byte(v >> 48)
	b[7] = byte(v >> 56)
}
