// Copyright 2024 The Shard Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package shard

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/shardkit/shard/internal/header"
	"github.com/shardkit/shard/internal/ioutil"
	"github.com/shardkit/shard/internal/mphf"
)

// Load opens a sealed shard for lookups (spec.md §4.5 step 1). It reads
// and validates the magic and header, verifies the header's offset
// algebra, and loads the MPHF blob into memory; it does not read the
// objects region. Valid only from the initial state.
func (s *Shard) Load() error {
	if s.state != stateNone {
		return newError("Load", KindBadState, nil)
	}

	f, err := ioutil.Open(s.path, os.O_RDONLY, 0)
	if err != nil {
		return newError("Load", KindIO, err)
	}

	if err := header.ReadMagic(f); err != nil {
		_ = f.Close()
		return newError("Load", KindBadMagic, err)
	}
	h, err := header.Load(f)
	if err != nil {
		_ = f.Close()
		if errors.Is(err, header.ErrUnsupportedVersion) {
			return newError("Load", KindUnsupportedVersion, err)
		}
		return newError("Load", KindIO, err)
	}
	if err := h.VerifyAlgebra(); err != nil {
		_ = f.Close()
		return newError("Load", KindBadMagic, err)
	}

	if _, err := f.Seek(int64(h.HashPos), 0); err != nil {
		_ = f.Close()
		return newError("Load", KindIO, err)
	}
	mph, err := mphf.Load(f.OS())
	if err != nil {
		_ = f.Close()
		return newError("Load", KindMphfBuildFailed, err)
	}
	if err := f.Close(); err != nil {
		return newError("Load", KindIO, err)
	}

	src, err := openSource(s.path, s.opts.useMMap)
	if err != nil {
		return newError("Load", KindIO, err)
	}

	s.src = src
	s.hdr2 = h
	s.mph = mph
	s.state = stateReading

	s.opts.logger.Info("shard loaded", "path", s.path, "objects_count", h.ObjectsCount, "mmap", s.opts.useMMap)
	return nil
}

// LookupSize resolves key to its stored object's byte length without
// reading the object itself (spec.md §4.5 step 2, the "split lookup"
// path for zero-copy callers). Like the underlying MPHF, it performs no
// membership check: a key that was never written resolves to some rank
// in range and returns whatever size happens to be stored there.
//
// The result primes a pending-read state consumed by the next
// LookupObject call; callers that only need the size may ignore it.
func (s *Shard) LookupSize(key []byte) (uint64, error) {
	if err := s.requireState("LookupSize", stateReading); err != nil {
		return 0, err
	}

	rank := s.mph.Search(key)
	if uint64(rank) >= s.hdr2.ObjectsCount {
		return 0, newError("LookupSize", KindIO, fmt.Errorf("mphf rank %d out of range for %d objects", rank, s.hdr2.ObjectsCount))
	}

	var offBuf [8]byte
	if _, err := s.src.ReadAt(offBuf[:], int64(s.hdr2.IndexPos)+int64(rank)*8); err != nil {
		return 0, newError("LookupSize", KindShortRead, err)
	}
	offset := binary.BigEndian.Uint64(offBuf[:])

	var sizeBuf [8]byte
	if _, err := s.src.ReadAt(sizeBuf[:], int64(offset)); err != nil {
		return 0, newError("LookupSize", KindShortRead, err)
	}
	size := binary.BigEndian.Uint64(sizeBuf[:])

	s.pendingObjectOffset = offset + 8
	s.pendingObjectSize = size
	s.havePending = true
	return size, nil
}

// LookupObject reads the object primed by the most recent LookupSize
// call into buf, which must be at least that large, and returns the
// number of bytes written (spec.md §4.5 step 3). It consumes the
// pending state; a second call without an intervening LookupSize fails.
func (s *Shard) LookupObject(buf []byte) (int, error) {
	if err := s.requireState("LookupObject", stateReading); err != nil {
		return 0, err
	}
	if !s.havePending {
		return 0, newError("LookupObject", KindBadState, fmt.Errorf("no pending lookup; call LookupSize first"))
	}
	if uint64(len(buf)) < s.pendingObjectSize {
		return 0, newError("LookupObject", KindIO, fmt.Errorf("buffer of %d bytes too small for %d-byte object", len(buf), s.pendingObjectSize))
	}

	n, err := s.src.ReadAt(buf[:s.pendingObjectSize], int64(s.pendingObjectOffset))
	s.havePending = false
	if err != nil {
		return n, newError("LookupObject", KindShortRead, err)
	}
	return n, nil
}

// Lookup fuses LookupSize and LookupObject into a single allocating call
// (spec.md §9 open question: "fuse by default, keep the split path for
// zero-copy callers"). It returns a freshly allocated copy of the
// object, or an error if the shard isn't in reading state.
func (s *Shard) Lookup(key []byte) ([]byte, error) {
	size, err := s.LookupSize(key)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	if _, err := s.LookupObject(buf); err != nil {
		return nil, err
	}
	return buf, nil
}
