// Copyright 2024 The Shard Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package shard

import "github.com/shardkit/shard/internal/mphf"

// indexEntry is a key staged for hashing, per spec.md §3's in-memory
// IndexEntry entity: one per written object, freed at Close.
type indexEntry struct {
	key    []byte
	offset uint64
}

// memIndex is the in-memory (key, offset) staging vector built up
// during WriteObject calls. It doubles as the MPHF's key source per the
// "key replay for MPHF build" design note in spec.md §9 — no second
// on-disk pass over the objects region is needed.
type memIndex struct {
	entries []indexEntry
	pos     int
}

func newMemIndex(capacity uint64) *memIndex {
	return &memIndex{entries: make([]indexEntry, 0, capacity)}
}

func (idx *memIndex) add(key []byte, offset uint64) {
	// copy the key: the caller retains ownership of the buffer passed to
	// WriteObject (spec.md §3 ownership rules).
	k := make([]byte, len(key))
	copy(k, key)
	idx.entries = append(idx.entries, indexEntry{key: k, offset: offset})
}

func (idx *memIndex) Next() ([]byte, bool) {
	if idx.pos >= len(idx.entries) {
		return nil, false
	}
	k := idx.entries[idx.pos].key
	idx.pos++
	return k, true
}

func (idx *memIndex) Rewind() {
	idx.pos = 0
}

func (idx *memIndex) Len() int {
	return len(idx.entries)
}

var _ mphf.KeyStream = (*memIndex)(nil)
