// SPDX-License-Identifier: EPL-2.0

package riff

import (
	"fmt"
	"io"
)

// Max32BitRiffSize is the largest RIFF size a 32-bit container may
// declare. Past this the container must be rewritten as RF64.
const Max32BitRiffSize = sizeSentinel - 8

// The reserved JUNK payload is exactly the fixed part of a ds64 chunk:
// riffSize + dataSize + sampleCount + an empty table length.
const ds64ReservedSize = 8 + 8 + 8 + 4

// ChunkWriter emits one chunk with a backfilled size field. Begin writes
// the tag and a zero size; End seeks back to patch the real payload
// length and appends the pad byte for odd payloads.
type ChunkWriter struct {
	w       io.WriteSeeker
	tag     FourCC
	sizePos int64
	start   int64
	done    bool
}

// BeginChunk starts a chunk at the current write position.
func BeginChunk(w io.WriteSeeker, tag FourCC) (*ChunkWriter, error) {
	if err := WriteFourCC(w, tag); err != nil {
		return nil, err
	}
	sizePos, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	if err := WriteU32(w, 0); err != nil {
		return nil, err
	}
	return &ChunkWriter{w: w, tag: tag, sizePos: sizePos, start: sizePos + 4}, nil
}

// Write appends payload bytes to the chunk.
func (cw *ChunkWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w", err)
	}
	return n, nil
}

// End patches the declared length and pads the payload to an even byte
// boundary. The pad byte is not counted in the length. End returns the
// payload size. A chunk larger than the 32-bit size field fails with
// ErrChunkTooLarge; only the data chunk may grow past it (its size field
// is patched by FinalizeContainer, not here).
func (cw *ChunkWriter) End() (uint64, error) {
	if cw.done {
		return 0, nil
	}
	cw.done = true

	end, err := cw.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("%w", err)
	}
	size := uint64(end - cw.start)
	if size > sizeSentinel {
		return size, ErrChunkTooLarge
	}
	if _, err := cw.w.Seek(cw.sizePos, io.SeekStart); err != nil {
		return size, fmt.Errorf("%w", err)
	}
	if err := WriteU32(cw.w, uint32(size)); err != nil {
		return size, err
	}
	if _, err := cw.w.Seek(end, io.SeekStart); err != nil {
		return size, fmt.Errorf("%w", err)
	}
	if size%2 == 1 {
		if err := WriteU8(cw.w, 0); err != nil {
			return size, err
		}
	}
	return size, nil
}

// SizePos returns the byte offset of the chunk's 32-bit size field.
func (cw *ChunkWriter) SizePos() int64 { return cw.sizePos }

// WriteContainerHeader writes the 12-byte RIFF/WAVE header with a zero
// size placeholder. With reserveDs64 it also emits a JUNK chunk sized so
// FinalizeContainer can rewrite it into a ds64 in place.
func WriteContainerHeader(w io.WriteSeeker, reserveDs64 bool) error {
	if err := WriteFourCC(w, TagRIFF); err != nil {
		return err
	}
	if err := WriteU32(w, 0); err != nil {
		return err
	}
	if err := WriteFourCC(w, TagWAVE); err != nil {
		return err
	}
	if reserveDs64 {
		if err := WriteFourCC(w, TagJUNK); err != nil {
			return err
		}
		if err := WriteU32(w, ds64ReservedSize); err != nil {
			return err
		}
		zero := make([]byte, ds64ReservedSize)
		if _, err := w.Write(zero); err != nil {
			return fmt.Errorf("%w", err)
		}
	}
	return nil
}

// FinalizeInfo carries everything FinalizeContainer needs to patch the
// header fields once the payload is complete.
type FinalizeInfo struct {
	// TotalSize is the total container size in bytes, header included.
	TotalSize uint64
	// DataSizePos is the offset of the data chunk's 32-bit size field.
	DataSizePos int64
	DataSize    uint64
	SampleCount uint64
	// Ds64Reserved tells whether WriteContainerHeader reserved the JUNK
	// chunk; without it a 64-bit rewrite is impossible.
	Ds64Reserved bool
	// ForceDs64 emits the ds64 unconditionally, even for small files.
	ForceDs64 bool
	// Table lists oversized non-data chunks for the ds64 table. The
	// reserved JUNK has no room for entries, so a non-empty table fails.
	Table []Ds64Entry
}

// FinalizeContainer patches the root header, the data size field and,
// when the container outgrew 32 bits (or ForceDs64 is set), rewrites the
// reserved JUNK into an authoritative ds64 and the root tag into RF64.
// It reports whether the 64-bit form was written.
func FinalizeContainer(w io.WriteSeeker, info FinalizeInfo) (bool, error) {
	riffSize := info.TotalSize - 8
	needs64 := info.ForceDs64 || riffSize > Max32BitRiffSize || info.DataSize >= sizeSentinel

	if needs64 {
		if !info.Ds64Reserved {
			return false, ErrChunkTooLarge
		}
		if len(info.Table) > 0 {
			return false, ErrChunkTooLarge
		}
		if _, err := w.Seek(0, io.SeekStart); err != nil {
			return false, fmt.Errorf("%w", err)
		}
		if err := WriteFourCC(w, TagRF64); err != nil {
			return false, err
		}
		if err := WriteU32(w, sizeSentinel); err != nil {
			return false, err
		}
		if err := WriteFourCC(w, TagWAVE); err != nil {
			return false, err
		}
		// The JUNK chunk sits directly after the 12-byte root header.
		if err := WriteFourCC(w, TagDs64); err != nil {
			return false, err
		}
		if err := WriteU32(w, ds64ReservedSize); err != nil {
			return false, err
		}
		if err := WriteU64(w, riffSize); err != nil {
			return false, err
		}
		if err := WriteU64(w, info.DataSize); err != nil {
			return false, err
		}
		if err := WriteU64(w, info.SampleCount); err != nil {
			return false, err
		}
		if err := WriteU32(w, 0); err != nil {
			return false, err
		}
		if _, err := w.Seek(info.DataSizePos, io.SeekStart); err != nil {
			return false, fmt.Errorf("%w", err)
		}
		if err := WriteU32(w, sizeSentinel); err != nil {
			return false, err
		}
		return true, nil
	}

	if _, err := w.Seek(4, io.SeekStart); err != nil {
		return false, fmt.Errorf("%w", err)
	}
	if err := WriteU32(w, uint32(riffSize)); err != nil {
		return false, err
	}
	if _, err := w.Seek(info.DataSizePos, io.SeekStart); err != nil {
		return false, fmt.Errorf("%w", err)
	}
	if err := WriteU32(w, uint32(info.DataSize)); err != nil {
		return false, err
	}
	return false, nil
}
