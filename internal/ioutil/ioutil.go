// Copyright 2024 The Shard Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package ioutil provides the thin, error-propagating positioned-I/O
// primitives the shard engine is built on: open/close/seek/tell,
// no-short-reads read/write, and network-byte-order u64 helpers.
package ioutil

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrShortRead is returned by Read and ReadUint64sBE when fewer than the
// requested bytes were available; the engine never tolerates partial reads.
var ErrShortRead = errors.New("ioutil: short read")

// ErrOffsetTooLarge is returned by Seek when offset exceeds what the
// platform's signed 64-bit file offset can represent.
var ErrOffsetTooLarge = errors.New("ioutil: seek offset exceeds int64 max")

// File wraps *os.File with the narrow set of positioned-I/O operations
// the engine needs, matching the style of the teacher's datafile
// Writer/Reader: a handful of named methods instead of a raw handle
// passed around.
type File struct {
	f *os.File
}

// Open opens path with the given flag/perm, the same semantics as os.OpenFile.
func Open(path string, flag int, perm os.FileMode) (*File, error) {
	f, err := os.OpenFile(path, flag, perm)
	if err != nil {
		return nil, fmt.Errorf("ioutil.Open(%s): %w", path, err)
	}
	return &File{f: f}, nil
}

// FromOS wraps an already-open *os.File.
func FromOS(f *os.File) *File {
	return &File{f: f}
}

// OS returns the underlying *os.File, for callers (e.g. mmap) that need it directly.
func (f *File) OS() *os.File {
	return f.f
}

func (f *File) Close() error {
	if f.f == nil {
		return nil
	}
	return f.f.Close()
}

// Sync flushes the file to stable storage.
func (f *File) Sync() error {
	return f.f.Sync()
}

// Seek moves the file position. whence follows io.Seeker (os.SEEK_SET etc).
// Callers convert unsigned on-disk offsets to int64, so a negative
// absolute offset is one that exceeded the int64 maximum; it fails with
// ErrOffsetTooLarge.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekStart && offset < 0 {
		return 0, ErrOffsetTooLarge
	}
	n, err := f.f.Seek(offset, whence)
	if err != nil {
		return 0, fmt.Errorf("ioutil.Seek: %w", err)
	}
	return n, nil
}

// Tell returns the current file position.
func (f *File) Tell() (int64, error) {
	return f.Seek(0, io.SeekCurrent)
}

// Read reads exactly len(buf) bytes, failing with ErrShortRead if fewer
// were available (no short reads tolerated, per the engine's I/O contract).
func (f *File) Read(buf []byte) error {
	n, err := io.ReadFull(f.f, buf)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return fmt.Errorf("ioutil.Read: read %d of %d bytes: %w", n, len(buf), ErrShortRead)
		}
		return fmt.Errorf("ioutil.Read: %w", err)
	}
	return nil
}

// Write writes all of buf, failing if a short write is detected.
func (f *File) Write(buf []byte) error {
	n, err := f.f.Write(buf)
	if err != nil {
		return fmt.Errorf("ioutil.Write: %w", err)
	}
	if n != len(buf) {
		return fmt.Errorf("ioutil.Write: wrote %d of %d bytes: %w", n, len(buf), io.ErrShortWrite)
	}
	return nil
}

// ReadUint64BE reads one 64-bit network-byte-order (big-endian) integer.
func (f *File) ReadUint64BE() (uint64, error) {
	var buf [8]byte
	if err := f.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// WriteUint64BE writes one 64-bit network-byte-order (big-endian) integer.
func (f *File) WriteUint64BE(v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return f.Write(buf[:])
}

// ReadUint64sBE reads n consecutive network-byte-order u64s.
func ReadUint64sBE(r io.Reader, out []uint64) error {
	buf := make([]byte, 8*len(out))
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("ioutil.ReadUint64sBE: %w", ErrShortRead)
	}
	for i := range out {
		out[i] = binary.BigEndian.Uint64(buf[i*8 : i*8+8])
	}
	return nil
}

// WriteUint64sBE writes a slice of u64s in network byte order.
func WriteUint64sBE(w io.Writer, in []uint64) error {
	buf := make([]byte, 8*len(in))
	for i, v := range in {
		binary.BigEndian.PutUint64(buf[i*8:i*8+8], v)
	}
	_, err := w.Write(buf)
	return err
}
