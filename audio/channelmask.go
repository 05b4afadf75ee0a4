// SPDX-License-Identifier: EPL-2.0

package audio

// Speaker position bits of the WAVEFORMATEXTENSIBLE channel mask, in
// canonical interleave order.
const (
	SpeakerFrontLeft          uint32 = 0x1
	SpeakerFrontRight         uint32 = 0x2
	SpeakerFrontCenter        uint32 = 0x4
	SpeakerLowFrequency       uint32 = 0x8
	SpeakerBackLeft           uint32 = 0x10
	SpeakerBackRight          uint32 = 0x20
	SpeakerFrontLeftOfCenter  uint32 = 0x40
	SpeakerFrontRightOfCenter uint32 = 0x80
	SpeakerBackCenter         uint32 = 0x100
	SpeakerSideLeft           uint32 = 0x200
	SpeakerSideRight          uint32 = 0x400
	SpeakerTopCenter          uint32 = 0x800
	SpeakerTopFrontLeft       uint32 = 0x1000
	SpeakerTopFrontCenter     uint32 = 0x2000
	SpeakerTopFrontRight      uint32 = 0x4000
	SpeakerTopBackLeft        uint32 = 0x8000
	SpeakerTopBackCenter      uint32 = 0x10000
	SpeakerTopBackRight       uint32 = 0x20000
)

var speakerNames = []struct {
	bit  uint32
	name string
}{
	{SpeakerFrontLeft, "front left"},
	{SpeakerFrontRight, "front right"},
	{SpeakerFrontCenter, "front center"},
	{SpeakerLowFrequency, "low frequency"},
	{SpeakerBackLeft, "back left"},
	{SpeakerBackRight, "back right"},
	{SpeakerFrontLeftOfCenter, "front left of center"},
	{SpeakerFrontRightOfCenter, "front right of center"},
	{SpeakerBackCenter, "back center"},
	{SpeakerSideLeft, "side left"},
	{SpeakerSideRight, "side right"},
	{SpeakerTopCenter, "top center"},
	{SpeakerTopFrontLeft, "top front left"},
	{SpeakerTopFrontCenter, "top front center"},
	{SpeakerTopFrontRight, "top front right"},
	{SpeakerTopBackLeft, "top back left"},
	{SpeakerTopBackCenter, "top back center"},
	{SpeakerTopBackRight, "top back right"},
}

// SpeakerName returns a readable name for a single position bit.
func SpeakerName(bit uint32) string {
	for _, s := range speakerNames {
		if s.bit == bit {
			return s.name
		}
	}
	return "unknown"
}

// SpeakerDescriptions names each channel of the mask in canonical order.
func (s Spec) SpeakerDescriptions() []string {
	positions := s.SpeakerPositions()
	out := make([]string, len(positions))
	for i, bit := range positions {
		if bit == 0 {
			out[i] = "unlabelled"
			continue
		}
		out[i] = SpeakerName(bit)
	}
	return out
}
