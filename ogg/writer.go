// SPDX-License-Identifier: EPL-2.0

package ogg

import (
	"fmt"
	"io"
)

// Writer packs packets into pages over an io.Writer. Each packet
// reports how far it advances the granule position; the advance is
// applied when the page carrying the packet's end is sealed.
type Writer struct {
	w      io.Writer
	serial uint32

	page      Page
	seq       uint32
	granule   uint64
	started   bool
	continued bool // the open page starts mid-packet
	closed    bool
}

// NewWriter starts a logical stream with the given serial number.
func NewWriter(w io.Writer, serial uint32) *Writer {
	return &Writer{w: w, serial: serial}
}

// WritePacket laces one whole packet, spilling to continuation pages as
// needed. granuleAdvance is the decoded-frame count this packet adds.
func (ow *Writer) WritePacket(packet []byte, granuleAdvance uint64) error {
	if ow.closed {
		return fmt.Errorf("ogg: stream already closed")
	}
	written := 0
	for {
		n := ow.page.Append(packet[written:], true)
		written += n
		if written < len(packet) {
			// Page filled mid-packet: seal it without a granule; the
			// next page starts with a continuation segment.
			if err := ow.seal(NoGranule, false); err != nil {
				return err
			}
			ow.continued = true
			continue
		}
		break
	}
	ow.granule += granuleAdvance
	if ow.page.Full() {
		return ow.seal(ow.granule, false)
	}
	return nil
}

// FlushPage seals and writes the page under construction, if any.
func (ow *Writer) FlushPage() error {
	if len(ow.page.SegmentTable) == 0 {
		return nil
	}
	return ow.seal(ow.granule, false)
}

// Close seals the final page with the end-of-stream flag.
func (ow *Writer) Close() error {
	if ow.closed {
		return nil
	}
	err := ow.seal(ow.granule, true)
	ow.closed = true
	return err
}

func (ow *Writer) seal(granule uint64, eos bool) error {
	ow.page.Version = 0
	ow.page.Granule = granule
	ow.page.Serial = ow.serial
	ow.page.Sequence = ow.seq

	ow.page.HeaderType = 0
	if !ow.started {
		ow.page.HeaderType |= FlagBOS
	}
	if ow.continued {
		ow.page.HeaderType |= FlagContinued
	}
	if eos {
		ow.page.HeaderType |= FlagEOS
	}

	if _, err := ow.w.Write(ow.page.Encode()); err != nil {
		return fmt.Errorf("%w", err)
	}

	ow.started = true
	ow.continued = false
	ow.seq++
	ow.page = Page{}
	return nil
}
