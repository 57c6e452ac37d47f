// Copyright 2024 The Shard Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package header codecs the shard file's fixed 6-byte magic marker and
// fixed 56-byte (7 x u64, network byte order) header, per the on-disk
// format in spec.md §6.1.
package header

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/shardkit/shard/internal/ioutil"
)

// Magic is the fixed byte sequence written at offset 0 of every shard
// file. It is written last during finalize, so its absence is the
// signal that a shard was never sealed.
var Magic = [6]byte{'S', 'H', 'A', 'R', 'D', 0}

// Version is the current on-disk format version.
const Version = uint64(1)

// Size is the on-disk byte size of the header: 7 u64 fields.
const Size = 7 * 8

var ErrBadMagic = errors.New("header: bad magic")
var ErrUnsupportedVersion = errors.New("header: unsupported version")

// Header is the fixed-size metadata block located at offset len(Magic).
type Header struct {
	Version        uint64
	ObjectsCount   uint64
	ObjectsPos     uint64
	ObjectsSize    uint64
	IndexPos       uint64
	IndexSize      uint64
	HashPos        uint64
}

// New returns a zeroed header with Version and ObjectsPos set, matching
// the state right after create() in spec.md §4.3 step 1.
func New() *Header {
	return &Header{
		Version:    Version,
		ObjectsPos: uint64(len(Magic)) + Size,
	}
}

// WriteMagic writes the magic bytes at the file's current position.
func WriteMagic(f *ioutil.File) error {
	return f.Write(Magic[:])
}

// ReadMagic reads len(Magic) bytes at the file's current position and
// validates them, returning ErrBadMagic on mismatch.
func ReadMagic(f *ioutil.File) error {
	var buf [len(Magic)]byte
	if err := f.Read(buf[:]); err != nil {
		return fmt.Errorf("header.ReadMagic: %w", err)
	}
	if buf != Magic {
		return ErrBadMagic
	}
	return nil
}

// Save writes all seven fields at the file's current position. It does
// not validate offset algebra; Save() at the shard layer is responsible
// for that (spec.md §4.2).
func (h *Header) Save(f *ioutil.File) error {
	var buf [Size]byte
	binary.BigEndian.PutUint64(buf[0:8], h.Version)
	binary.BigEndian.PutUint64(buf[8:16], h.ObjectsCount)
	binary.BigEndian.PutUint64(buf[16:24], h.ObjectsPos)
	binary.BigEndian.PutUint64(buf[24:32], h.ObjectsSize)
	binary.BigEndian.PutUint64(buf[32:40], h.IndexPos)
	binary.BigEndian.PutUint64(buf[40:48], h.IndexSize)
	binary.BigEndian.PutUint64(buf[48:56], h.HashPos)
	return f.Write(buf[:])
}

// Load reads and byte-swaps all seven fields from the file's current
// position, failing with ErrUnsupportedVersion if the version field
// doesn't match Version.
func Load(f *ioutil.File) (*Header, error) {
	var buf [Size]byte
	if err := f.Read(buf[:]); err != nil {
		return nil, fmt.Errorf("header.Load: %w", err)
	}
	h := &Header{
		Version:      binary.BigEndian.Uint64(buf[0:8]),
		ObjectsCount: binary.BigEndian.Uint64(buf[8:16]),
		ObjectsPos:   binary.BigEndian.Uint64(buf[16:24]),
		ObjectsSize:  binary.BigEndian.Uint64(buf[24:32]),
		IndexPos:     binary.BigEndian.Uint64(buf[32:40]),
		IndexSize:    binary.BigEndian.Uint64(buf[40:48]),
		HashPos:      binary.BigEndian.Uint64(buf[48:56]),
	}
	if h.Version != Version {
		return nil, ErrUnsupportedVersion
	}
	return h, nil
}

// VerifyAlgebra checks the derived-offset invariants from spec.md §3
// (invariants 2-5), used by Load-time validation in the reader.
func (h *Header) VerifyAlgebra() error {
	wantObjectsPos := uint64(len(Magic)) + Size
	if h.ObjectsPos != wantObjectsPos {
		return fmt.Errorf("header: objects_position %d != %d", h.ObjectsPos, wantObjectsPos)
	}
	wantIndexPos := h.ObjectsPos + h.ObjectsSize
	if h.IndexPos != wantIndexPos {
		return fmt.Errorf("header: index_position %d != %d", h.IndexPos, wantIndexPos)
	}
	wantIndexSize := h.ObjectsCount * 8
	if h.IndexSize != wantIndexSize {
		return fmt.Errorf("header: index_size %d != %d", h.IndexSize, wantIndexSize)
	}
	wantHashPos := h.IndexPos + h.IndexSize
	if h.HashPos != wantHashPos {
		return fmt.Errorf("header: hash_position %d != %d", h.HashPos, wantHashPos)
	}
	return nil
}
