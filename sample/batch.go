// SPDX-License-Identifier: EPL-2.0

package sample

// ConvertSlice converts a batch of interleaved samples. When S and D are
// the same type the input slice is returned as-is, without copying.
func ConvertSlice[D, S Type](src []S) []D {
	if d, ok := any(src).([]D); ok {
		return d
	}
	dst := make([]D, len(src))
	for i, v := range src {
		dst[i] = Convert[D](v)
	}
	return dst
}

// ConvertInto converts src into dst, which must be at least as long.
// It returns the number of samples converted. Identity conversions copy.
func ConvertInto[D, S Type](dst []D, src []S) int {
	if same, ok := any(src).([]D); ok {
		return copy(dst, same)
	}
	n := len(src)
	if len(dst) < n {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = Convert[D](src[i])
	}
	return n
}

// ConvertFrame converts one frame (one sample per channel).
func ConvertFrame[D, S Type](frame []S) []D {
	return ConvertSlice[D](frame)
}

// ConvertStereos converts a batch of stereo pairs. Identity is a no-op.
func ConvertStereos[D, S Type](src []Stereo[S]) []Stereo[D] {
	if d, ok := any(src).([]Stereo[D]); ok {
		return d
	}
	dst := make([]Stereo[D], len(src))
	for i, v := range src {
		dst[i] = Stereo[D]{L: Convert[D](v.L), R: Convert[D](v.R)}
	}
	return dst
}
