// SPDX-License-Identifier: EPL-2.0

package sample

import "math"

// Convert maps v from element type S to element type D, preserving the
// numeric range of each type exactly. Identity conversions short-circuit
// without touching the value.
func Convert[D, S Type](v S) D {
	if d, ok := any(v).(D); ok {
		return d
	}
	var dz D
	dk := kindOf(any(dz))
	sk := kindOf(any(v))

	if sk.float || dk.float {
		return fromFloat[D](toFloat(any(v), sk), dk)
	}
	return fromPattern[D](replicate(toPattern(any(v), sk), sk.width), dk)
}

// toPattern returns the w-bit unsigned pattern of an integer sample in
// the low bits: unsigned values unchanged, signed values with the sign
// bit toggled so the pattern orders the same way as the value.
func toPattern(v any, k kind) uint64 {
	sign := uint64(1) << (k.width - 1)
	switch x := v.(type) {
	case int8:
		return uint64(uint8(x)) ^ sign
	case uint8:
		return uint64(x)
	case int16:
		return uint64(uint16(x)) ^ sign
	case uint16:
		return uint64(x)
	case Int24:
		return (uint64(uint32(x)) & 0xFFFFFF) ^ sign
	case Uint24:
		return uint64(x) & 0xFFFFFF
	case int32:
		return uint64(uint32(x)) ^ sign
	case uint32:
		return uint64(x)
	case int64:
		return uint64(x) ^ sign
	case uint64:
		return x
	}
	panic("sample: not an integer type")
}

// replicate left-aligns a w-bit pattern in 64 bits and fills the tail
// with copies of itself, so full scale stays full scale at any width.
func replicate(p uint64, w uint) uint64 {
	r := p << (64 - w)
	for off := w; off < 64; off += w {
		r |= (p << (64 - w)) >> off
	}
	return r
}

// fromPattern takes a left-aligned 64-bit pattern down to the target
// width, untoggling the sign bit for signed targets. Keeping the top
// bits is the arithmetic-shift down-conversion.
func fromPattern[D Type](rep uint64, k kind) D {
	p := rep >> (64 - k.width)
	sign := uint64(1) << (k.width - 1)
	var out any
	switch any(*new(D)).(type) {
	case int8:
		out = int8(uint8(p ^ sign))
	case uint8:
		out = uint8(p)
	case int16:
		out = int16(uint16(p ^ sign))
	case uint16:
		out = uint16(p)
	case Int24:
		out = Int24(int32(uint32(p^sign)<<8) >> 8)
	case Uint24:
		out = Uint24(p)
	case int32:
		out = int32(uint32(p ^ sign))
	case uint32:
		out = uint32(p)
	case int64:
		out = int64(p ^ sign)
	case uint64:
		out = p
	default:
		panic("sample: not an integer type")
	}
	return out.(D)
}

// toFloat normalises a sample to [-1, 1]. Unsigned input is centred
// first, so mid scale maps to zero.
func toFloat(v any, k kind) float64 {
	switch x := v.(type) {
	case float32:
		return float64(x)
	case float64:
		return x
	}
	sign := uint64(1) << (k.width - 1)
	s := int64(toPattern(v, k)) - int64(sign)
	return float64(s) * math.Ldexp(1, -(int(k.width) - 1))
}

// fromFloat materialises a normalised value in the target type. Integer
// targets clamp to [-1, 1], scale by 2^(w-1) and round half to even.
func fromFloat[D Type](f float64, k kind) D {
	var out any
	if k.float {
		switch any(*new(D)).(type) {
		case float32:
			out = float32(f)
		case float64:
			out = f
		}
		return out.(D)
	}

	if f > 1 {
		f = 1
	} else if f < -1 {
		f = -1
	}
	scaled := math.RoundToEven(f * math.Ldexp(1, int(k.width)-1))
	maxI := int64(1)<<(k.width-1) - 1
	minI := -(int64(1) << (k.width - 1))
	var s int64
	switch {
	case scaled >= float64(maxI):
		s = maxI
	case scaled <= float64(minI):
		s = minI
	default:
		s = int64(scaled)
	}

	sign := uint64(1) << (k.width - 1)
	u := (uint64(s) ^ sign) & (sign | (sign - 1))
	switch any(*new(D)).(type) {
	case int8:
		out = int8(s)
	case uint8:
		out = uint8(u)
	case int16:
		out = int16(s)
	case uint16:
		out = uint16(u)
	case Int24:
		out = Int24(s)
	case Uint24:
		out = Uint24(u)
	case int32:
		out = int32(s)
	case uint32:
		out = uint32(u)
	case int64:
		out = s
	case uint64:
		out = u
	default:
		panic("sample: not an integer type")
	}
	return out.(D)
}

// Min returns the smallest representable value of T (-1 for floats).
func Min[T Type]() T {
	var z T
	k := kindOf(any(z))
	if k.float {
		return fromFloat[T](-1, k)
	}
	return fromPattern[T](0, k)
}

// Max returns the largest representable value of T (+1 for floats).
func Max[T Type]() T {
	var z T
	k := kindOf(any(z))
	if k.float {
		return fromFloat[T](1, k)
	}
	return fromPattern[T](^uint64(0), k)
}

// Mid returns the zero point of T: 0 for signed and float types, half
// scale for unsigned types.
func Mid[T Type]() T {
	var z T
	k := kindOf(any(z))
	if k.float {
		return z
	}
	return fromPattern[T](1<<63, k)
}
