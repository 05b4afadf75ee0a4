// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// Speaker weights into a stereo bus. Center and low-frequency content
// feeds both sides at reduced gain, surround speakers feed their side.
var downmixWeights = map[uint32][2]float32{
	SpeakerFrontLeft:          {1.0, 0.0},
	SpeakerFrontRight:         {0.0, 1.0},
	SpeakerFrontCenter:        {0.7071, 0.7071},
	SpeakerLowFrequency:       {0.5, 0.5},
	SpeakerBackLeft:           {0.7071, 0.0},
	SpeakerBackRight:          {0.0, 0.7071},
	SpeakerFrontLeftOfCenter:  {0.866, 0.5},
	SpeakerFrontRightOfCenter: {0.5, 0.866},
	SpeakerBackCenter:         {0.5, 0.5},
	SpeakerSideLeft:           {0.7071, 0.0},
	SpeakerSideRight:          {0.0, 0.7071},
	SpeakerTopCenter:          {0.5, 0.5},
	SpeakerTopFrontLeft:       {0.7071, 0.0},
	SpeakerTopFrontCenter:     {0.5, 0.5},
	SpeakerTopFrontRight:      {0.0, 0.7071},
	SpeakerTopBackLeft:        {0.5, 0.0},
	SpeakerTopBackCenter:      {0.354, 0.354},
	SpeakerTopBackRight:       {0.0, 0.5},
}

// Downmixer folds an N-channel Source to stereo or mono with weights
// derived from the channel mask. Unlabelled channels alternate between
// the left and right bus. The output is normalised so a full-scale
// input cannot clip.
type Downmixer struct {
	src      Source
	channels int // output channels, 1 or 2

	weights [][2]float32
	norm    [2]float32

	tmp []float32
}

// NewDownmixer builds a downmix stage over src. mask labels the source
// channels (zero means positional); outChannels must be 1 or 2.
func NewDownmixer(src Source, mask uint32, outChannels int) *Downmixer {
	in := src.Channels()
	weights := make([][2]float32, in)

	ch := 0
	for bit := uint32(1); bit != 0 && ch < in; bit <<= 1 {
		if mask&bit == 0 {
			continue
		}
		if w, ok := downmixWeights[bit]; ok {
			weights[ch] = w
		} else {
			weights[ch] = [2]float32{0.5, 0.5}
		}
		ch++
	}
	for ; ch < in; ch++ {
		// Positional fallback: even channels left, odd channels right;
		// a lone channel feeds both.
		switch {
		case in == 1:
			weights[ch] = [2]float32{1, 1}
		case ch%2 == 0:
			weights[ch] = [2]float32{1, 0}
		default:
			weights[ch] = [2]float32{0, 1}
		}
	}

	var norm [2]float32
	for _, w := range weights {
		norm[0] += w[0]
		norm[1] += w[1]
	}
	for i := range norm {
		if norm[i] < 1 {
			norm[i] = 1
		}
	}

	return &Downmixer{
		src:      src,
		channels: outChannels,
		weights:  weights,
		norm:     norm,
		tmp:      make([]float32, 4096),
	}
}

func (d *Downmixer) SampleRate() int { return d.src.SampleRate() }
func (d *Downmixer) Channels() int   { return d.channels }
func (d *Downmixer) BufSize() int    { return d.src.BufSize() }

func (d *Downmixer) Close() error {
	if err := d.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// ReadSamples fills dst with downmixed interleaved samples.
func (d *Downmixer) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if len(dst)%d.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	in := d.src.Channels()
	frames := len(dst) / d.channels
	needed := frames * in

	if cap(d.tmp) < needed {
		d.tmp = make([]float32, needed)
	}
	d.tmp = d.tmp[:needed]

	n, err := d.src.ReadSamples(d.tmp)
	if n == 0 {
		return 0, err
	}
	got := n / in

	for f := 0; f < got; f++ {
		base := f * in
		var l, r float32
		for c := 0; c < in; c++ {
			s := d.tmp[base+c]
			l += s * d.weights[c][0]
			r += s * d.weights[c][1]
		}
		l /= d.norm[0]
		r /= d.norm[1]
		if d.channels == 1 {
			dst[f] = (l + r) * 0.5
		} else {
			dst[f*2] = l
			dst[f*2+1] = r
		}
	}

	return got * d.channels, err
}
