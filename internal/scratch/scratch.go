// SPDX-License-Identifier: EPL-2.0

// Package scratch manages the transient on-disk files that back random
// access when a source or a codec cannot provide it.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
)

const namePrefix = "riffwave-scratch-"

// File is a uniquely-named temp file whose lifetime is tied to its
// owner. On systems where an open file can be unlinked the name is
// removed immediately, so the data disappears the moment the handle
// closes; elsewhere Close unlinks it.
type File struct {
	f       *os.File
	path    string
	unlinked bool
}

// New creates a scratch file in the OS temp directory.
func New() (*File, error) {
	path := filepath.Join(os.TempDir(), namePrefix+uuid.NewString())
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	s := &File{f: f, path: path}
	if runtime.GOOS != "windows" {
		if err := os.Remove(path); err == nil {
			s.unlinked = true
		}
	}
	return s, nil
}

// Handle exposes the underlying read/write/seek handle.
func (s *File) Handle() *os.File { return s.f }

func (s *File) Read(p []byte) (int, error)  { return s.f.Read(p) }
func (s *File) Write(p []byte) (int, error) { return s.f.Write(p) }
func (s *File) Seek(off int64, whence int) (int64, error) {
	return s.f.Seek(off, whence)
}
func (s *File) ReadAt(p []byte, off int64) (int, error) { return s.f.ReadAt(p, off) }

// Path returns the scratch file's name; empty once unlinked.
func (s *File) Path() string {
	if s.unlinked {
		return ""
	}
	return s.path
}

// Close releases the handle and removes the file where it still has a
// name.
func (s *File) Close() error {
	err := s.f.Close()
	if !s.unlinked {
		if rmErr := os.Remove(s.path); err == nil && rmErr != nil && !os.IsNotExist(rmErr) {
			err = rmErr
		}
	}
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// Sweep removes orphaned scratch files left by crashed processes.
// Best effort: files still open elsewhere survive on POSIX semantics.
func Sweep() {
	entries, err := os.ReadDir(os.TempDir())
	if err != nil {
		return
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), namePrefix) {
			_ = os.Remove(filepath.Join(os.TempDir(), e.Name()))
		}
	}
}
