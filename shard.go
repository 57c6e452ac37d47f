// Copyright 2024 The Shard Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package shard

import (
	"bufio"
	"fmt"
	"os"

	"github.com/shardkit/shard/internal/header"
	"github.com/shardkit/shard/internal/ioutil"
	"github.com/shardkit/shard/internal/mmapfile"
	"github.com/shardkit/shard/internal/mphf"
)

// writeBufferSize matches the teacher's defaultBufferSize for its
// bufio.Writer-fronted object writes.
const writeBufferSize = 4 * 1024 * 1024

// state tracks a Shard's position in the lifecycle spec.md §4.6 draws:
//
//	(none) --create--> Building --write*--> Building --finalize--> Sealed --close--> (none)
//	(none) --load----> Reading -------------------------------------------close--> (none)
type state int

const (
	stateNone state = iota
	stateBuilding
	stateSealed
	stateReading
	stateClosed
)

// posReader is the minimal interface both *os.File and the mmap-backed
// reader satisfy, letting Reader's lookup path stay agnostic to which
// backend is in play (spec.md §4.5: "memory-mapping is an
// implementation-internal optimization; the contract is positioned I/O").
type posReader interface {
	ReadAt(p []byte, off int64) (int, error)
	Close() error
}

// Shard is a single shard file handle. It exclusively owns the
// underlying file descriptor, the in-memory index (build mode), and the
// MPHF handle (both modes after load/build) — spec.md §3 ownership rules.
type Shard struct {
	path  string
	opts  shardOptions
	state state

	// build-mode fields
	wf   *ioutil.File
	bw   *bufio.Writer
	woff uint64
	idx  *memIndex
	hdr  *header.Header

	// read-mode fields
	src  posReader
	mph  *mphf.Handle
	hdr2 *header.Header // loaded header, read-only after Load

	// set by LookupSize, consumed by LookupObject (spec.md §9 open question)
	pendingObjectOffset uint64
	pendingObjectSize   uint64
	havePending         bool
}

// New returns a Shard handle bound to path but performs no I/O yet,
// matching shard_init in spec.md §6.3. Call Create to start building a
// new shard, or Load to open a sealed one for lookups.
func New(path string, opts ...Option) *Shard {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Shard{path: path, opts: o, state: stateNone}
}

// Create opens path for writing and begins building a shard that will
// hold exactly objectsCount objects (spec.md §4.3 step 1). Valid only
// from the initial state.
func (s *Shard) Create(objectsCount uint64) error {
	if s.state != stateNone {
		return newError("Create", KindBadState, nil)
	}

	f, err := ioutil.Open(s.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return newError("Create", KindIO, err)
	}

	h := header.New()
	h.ObjectsCount = objectsCount

	if _, err := f.Seek(int64(h.ObjectsPos), 0); err != nil {
		_ = f.Close()
		return newError("Create", KindIO, err)
	}

	s.wf = f
	s.bw = bufio.NewWriterSize(f.OS(), writeBufferSize)
	s.woff = h.ObjectsPos
	s.hdr = h
	s.idx = newMemIndex(objectsCount)
	s.state = stateBuilding

	s.opts.logger.Info("shard created", "path", s.path, "objects_count", objectsCount)
	return nil
}

// Close releases, in order, the MPHF handle, the in-memory index, and
// the file handle, matching spec.md §4.6's release ordering. Each
// release is independent and best-effort; the returned error reflects
// the file-close result.
func (s *Shard) Close() error {
	if s.state == stateClosed || s.state == stateNone {
		s.state = stateClosed
		return nil
	}

	s.mph = nil
	s.idx = nil

	var closeErr error
	if s.wf != nil {
		if s.bw != nil {
			if err := s.bw.Flush(); err != nil && closeErr == nil {
				closeErr = err
			}
			s.bw = nil
		}
		if err := s.wf.Sync(); err != nil && closeErr == nil {
			closeErr = err
		}
		if err := s.wf.Close(); err != nil && closeErr == nil {
			closeErr = err
		}
		s.wf = nil
	}
	if s.src != nil {
		if err := s.src.Close(); err != nil && closeErr == nil {
			closeErr = err
		}
		s.src = nil
	}

	s.state = stateClosed
	if closeErr != nil {
		return newError("Close", KindIO, closeErr)
	}
	return nil
}

// CreateShard opens path, creates a shard for objectsCount objects, and
// returns it ready for WriteObject calls.
func CreateShard(path string, objectsCount uint64, opts ...Option) (*Shard, error) {
	s := New(path, opts...)
	if err := s.Create(objectsCount); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenShard opens a sealed shard at path for lookups.
func OpenShard(path string, opts ...Option) (*Shard, error) {
	s := New(path, opts...)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Shard) requireState(op string, want state) error {
	if s.state != want {
		return newError(op, KindBadState, fmt.Errorf("have state %d, want %d", s.state, want))
	}
	return nil
}

// openSource opens the sealed shard's data source for Lookup: a
// memory-mapped view if requested and viable, otherwise plain
// positioned reads.
func openSource(path string, useMMap bool) (posReader, error) {
	if useMMap {
		m, err := mmapfile.Open(path)
		if err == nil {
			return m, nil
		}
		// fall back to positioned reads if mmap isn't available (e.g. empty file)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}
