// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"testing"
)

func validSpec() Spec {
	return Spec{Channels: 2, SampleRate: 48000, BitsPerSample: 16, SampleFormat: Int}
}

func TestSpec_Validate(t *testing.T) {
	t.Parallel()

	if err := validSpec().Validate(); err != nil {
		t.Fatalf("valid spec rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Spec)
	}{
		{"zero channels", func(s *Spec) { s.Channels = 0 }},
		{"zero rate", func(s *Spec) { s.SampleRate = 0 }},
		{"bad bits", func(s *Spec) { s.BitsPerSample = 12 }},
		{"float 16", func(s *Spec) { s.SampleFormat = Float; s.BitsPerSample = 16 }},
		{"unknown format", func(s *Spec) { s.SampleFormat = FormatUnknown }},
		{"mask too wide", func(s *Spec) {
			s.Channels = 1
			s.ChannelMask = SpeakerFrontLeft | SpeakerFrontRight
		}},
	}
	for _, tc := range cases {
		s := validSpec()
		tc.mutate(&s)
		err := s.Validate()
		var verr *SpecValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: Validate() = %v, want SpecValidationError", tc.name, err)
		}
	}
}

func TestSpec_TwelveElementTypes(t *testing.T) {
	t.Parallel()

	count := 0
	for _, bits := range []uint16{8, 16, 24, 32, 64} {
		for _, f := range []SampleFormat{Int, Uint, Float} {
			s := validSpec()
			s.BitsPerSample = bits
			s.SampleFormat = f
			if s.Validate() == nil {
				count++
			}
		}
	}
	if count != 12 {
		t.Errorf("valid (bits, format) combinations = %d, want 12", count)
	}
}

func TestSpec_GuessChannelMask(t *testing.T) {
	t.Parallel()

	s := validSpec()
	if got := s.GuessChannelMask(); got != SpeakerFrontLeft|SpeakerFrontRight {
		t.Errorf("stereo mask = %#x", got)
	}
	s.Channels = 1
	if got := s.GuessChannelMask(); got != SpeakerFrontCenter {
		t.Errorf("mono mask = %#x", got)
	}
	s.Channels = 6
	mask := s.GuessChannelMask()
	if mask&SpeakerLowFrequency == 0 {
		t.Error("5.1 mask lost the LFE channel")
	}
	s.ChannelMask = SpeakerBackCenter
	if got := s.GuessChannelMask(); got != SpeakerBackCenter {
		t.Error("explicit mask must win")
	}
}

func TestSpec_SpeakerPositions(t *testing.T) {
	t.Parallel()

	s := Spec{Channels: 3, ChannelMask: SpeakerFrontLeft | SpeakerFrontCenter,
		SampleRate: 8000, BitsPerSample: 16, SampleFormat: Int}
	got := s.SpeakerPositions()
	if len(got) != 3 {
		t.Fatalf("positions = %v", got)
	}
	if got[0] != SpeakerFrontLeft || got[1] != SpeakerFrontCenter || got[2] != 0 {
		t.Errorf("positions = %v", got)
	}
	descs := s.SpeakerDescriptions()
	if descs[0] != "front left" || descs[2] != "unlabelled" {
		t.Errorf("descriptions = %v", descs)
	}
}
