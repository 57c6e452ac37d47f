// Copyright 2024 The Shard Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package shard

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/shardkit/shard/internal/header"
	"github.com/shardkit/shard/internal/ioutil"
	"github.com/shardkit/shard/internal/mphf"
)

// WriteObject appends object to the objects region under key, recording
// (key, offset) in the in-memory index for the MPHF built at Save time.
// It must be called exactly as many times as the objectsCount passed to
// Create; a further call returns KindIndexOverflow (spec.md §4.3 step 2).
func (s *Shard) WriteObject(key, object []byte) error {
	if err := s.requireState("WriteObject", stateBuilding); err != nil {
		return err
	}
	if uint64(s.idx.Len()) >= s.hdr.ObjectsCount {
		return newError("WriteObject", KindIndexOverflow, nil)
	}

	offset := s.woff
	s.idx.add(key, offset)

	var sizeBuf [8]byte
	binary.BigEndian.PutUint64(sizeBuf[:], uint64(len(object)))
	if _, err := s.bw.Write(sizeBuf[:]); err != nil {
		return newError("WriteObject", KindIO, err)
	}
	if _, err := s.bw.Write(object); err != nil {
		return newError("WriteObject", KindIO, err)
	}

	s.woff += 8 + uint64(len(object))
	return nil
}

// Save finalizes the shard: builds the MPHF over the staged keys, writes
// the offset table, dumps the MPHF blob, and rewrites the header and
// magic, in that strict order (spec.md §4.3 step 3). Magic is written
// last, so a crash at any earlier point leaves the file without a valid
// magic and therefore detectably invalid (spec.md §4.3, §7).
func (s *Shard) Save() error {
	if err := s.requireState("Save", stateBuilding); err != nil {
		return err
	}
	if uint64(s.idx.Len()) != s.hdr.ObjectsCount {
		return newError("Save", KindBadState, fmt.Errorf("wrote %d of %d declared objects", s.idx.Len(), s.hdr.ObjectsCount))
	}

	if err := s.bw.Flush(); err != nil {
		return newError("Save", KindIO, err)
	}

	// step a: objects_size = tell - objects_position
	s.hdr.ObjectsSize = s.woff - s.hdr.ObjectsPos

	// step b: build the MPHF over the in-memory index
	buildStart := time.Now()
	mph, err := mphf.Build(s.idx)
	if err != nil {
		return newError("Save", KindMphfBuildFailed, err)
	}
	s.opts.logger.Info("mphf built", "objects", mph.Size(), "elapsed", time.Since(buildStart))

	// step c: offset table, keyed by MPHF rank
	s.hdr.IndexPos = s.hdr.ObjectsPos + s.hdr.ObjectsSize
	offsets := make([]uint64, s.hdr.ObjectsCount)
	for _, entry := range s.idx.entries {
		rank := mph.Search(entry.key)
		if rank >= uint32(len(offsets)) {
			return newError("Save", KindMphfBuildFailed, fmt.Errorf("mphf returned out-of-range rank %d for %d objects", rank, len(offsets)))
		}
		offsets[rank] = entry.offset
	}

	if _, err := s.wf.Seek(int64(s.hdr.IndexPos), 0); err != nil {
		return newError("Save", KindIO, err)
	}
	if err := ioutil.WriteUint64sBE(s.wf.OS(), offsets); err != nil {
		return newError("Save", KindIO, err)
	}
	s.hdr.IndexSize = s.hdr.ObjectsCount * 8

	// step d: dump the MPHF blob
	s.hdr.HashPos = s.hdr.IndexPos + s.hdr.IndexSize
	if _, err := s.wf.Seek(int64(s.hdr.HashPos), 0); err != nil {
		return newError("Save", KindIO, err)
	}
	if err := mph.Dump(s.wf.OS()); err != nil {
		return newError("Save", KindIO, err)
	}

	// step e: header, then magic last
	if _, err := s.wf.Seek(int64(len(header.Magic)), 0); err != nil {
		return newError("Save", KindIO, err)
	}
	if err := s.hdr.Save(s.wf); err != nil {
		return newError("Save", KindIO, err)
	}
	if _, err := s.wf.Seek(0, 0); err != nil {
		return newError("Save", KindIO, err)
	}
	if err := header.WriteMagic(s.wf); err != nil {
		return newError("Save", KindIO, err)
	}

	s.mph = mph
	s.state = stateSealed
	s.opts.logger.Info("shard sealed", "path", s.path, "objects_count", s.hdr.ObjectsCount)
	return nil
}
