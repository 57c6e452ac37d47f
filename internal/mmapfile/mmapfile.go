// Copyright 2024 The Shard Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package mmapfile memory-maps a sealed shard file read-only, the
// optional fast path for Reader described in spec.md §4.5 ("memory
// mapping is an implementation-internal optimization; the contract is
// positioned I/O"). It mirrors the madvise sequence the teacher's
// datafile and indexfile readers run on their mmap'd regions.
package mmapfile

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// File is a read-only memory-mapped view of a file, implementing
// io.ReaderAt so it can stand in anywhere a positioned reader is
// expected.
type File struct {
	data []byte
	f    *os.File
}

// Open mmaps path read-only and advises the kernel the access pattern
// will be random (point lookups scattered across the file), the same
// hint the teacher applies in datafile.NewReader / indexfile.NewTable.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmapfile.Open: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("mmapfile.Open: stat: %w", err)
	}
	size := fi.Size()
	if size == 0 {
		_ = f.Close()
		return nil, errors.New("mmapfile.Open: empty file")
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("mmapfile.Open: mmap: %w", err)
	}

	if err := unix.Madvise(data, syscall.MADV_RANDOM); err != nil {
		_ = unix.Munmap(data)
		_ = f.Close()
		return nil, fmt.Errorf("mmapfile.Open: madvise: %w", err)
	}

	return &File{data: data, f: f}, nil
}

// Data returns the raw mmap'd bytes. Callers must not write to it.
func (m *File) Data() []byte {
	return m.data
}

// Len returns the size of the mapped region.
func (m *File) Len() int {
	return len(m.data)
}

// ReadAt implements io.ReaderAt over the mapped region.
func (m *File) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(m.data)) {
		return 0, fmt.Errorf("mmapfile.ReadAt: offset %d out of range", off)
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, fmt.Errorf("mmapfile.ReadAt: short read at offset %d", off)
	}
	return n, nil
}

// Close unmaps the region and closes the backing file descriptor.
func (m *File) Close() error {
	var errs []error
	if m.data != nil {
		if err := unix.Munmap(m.data); err != nil {
			errs = append(errs, err)
		}
		m.data = nil
	}
	if err := m.f.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("mmapfile.Close: %v", errs)
	}
	return nil
}
