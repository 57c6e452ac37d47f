// Copyright 2024 The Shard Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package mphf

// KeyStream is a restartable source of keys that Build consumes,
// mirroring the cmph_io_adapter_t contract in spec.md §4.4/§6.2: Next
// advances a cursor and reports end-of-stream by returning ok=false;
// Rewind resets the cursor for a fresh pass. There is no Dispose: the
// keys are owned by whatever backs the stream (the shard's in-memory
// index), not by the stream itself.
type KeyStream interface {
	// Next returns the key at the current cursor position and advances
	// it. ok is false once the cursor reaches the end of the stream.
	Next() (key []byte, ok bool)

	// Rewind resets the cursor to the beginning.
	Rewind()

	// Len reports the total number of keys the stream will yield.
	Len() int
}

// SliceKeyStream adapts an in-memory slice of keys to KeyStream. The
// package's tests build over it; the shard writer passes its own
// in-memory index instead.
type SliceKeyStream struct {
	keys [][]byte
	pos  int
}

func NewSliceKeyStream(keys [][]byte) *SliceKeyStream {
	return &SliceKeyStream{keys: keys}
}

func (s *SliceKeyStream) Next() ([]byte, bool) {
	if s.pos >= len(s.keys) {
		return nil, false
	}
	k := s.keys[s.pos]
	s.pos++
	return k, true
}

func (s *SliceKeyStream) Rewind() {
	s.pos = 0
}

func (s *SliceKeyStream) Len() int {
	return len(s.keys)
}
