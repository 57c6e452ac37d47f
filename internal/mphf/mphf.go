// Copyright 2024 The Shard Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package mphf implements the minimal perfect hash function contract
// spec.md §6.2 names as an external collaborator (algorithm CHD_PH,
// keys_per_bin=1, b=4): build a bijection from a fixed key set onto
// [0, n), search any key (member or not) to a value in that range, and
// dump/load an opaque on-disk blob describing the bijection.
//
// The construction is "hash, displace, and compress" (Belazzougui,
// Botelho, Dietzfelbinger), the same two-level scheme the teacher repo
// hand-rolls over an on-disk key source; this package rebuilds it over
// an in-memory KeyStream since the shard writer already holds every key
// in RAM before Save is called.
package mphf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"sort"

	farm "github.com/dgryski/go-farm"

	"github.com/shardkit/shard/internal/bitset"
	"github.com/shardkit/shard/internal/zero"
)

const (
	// AlgoCHDPH names the algorithm family, part of the on-disk contract
	// per spec.md §4.4: it constrains the blob layout a loader must agree on.
	AlgoCHDPH = "CHD_PH"

	// KeysPerBin is fixed at 1: every level-1 slot holds at most one
	// key's rank. Search returns that rank rather than the slot index,
	// which is what makes the hash minimal rather than merely perfect.
	KeysPerBin = 1

	// BParam is the average bucket occupancy target for the level-0
	// table (bucket count = nextPow2(ceil(n / BParam))).
	BParam = 4

	blobHeaderSize = 12 // nkeys, m0, m1 as u32 each
)

// ErrDuplicateKey is returned by Build when the key stream yields the
// same key twice; per spec.md §6.2 this is the only documented build
// failure mode.
var ErrDuplicateKey = errors.New("mphf: duplicate key in build set")

// ErrSeedSearchFailed guards against runaway seed search; in practice
// this never triggers for real, non-duplicate key sets.
var ErrSeedSearchFailed = errors.New("mphf: seed search exceeded retry budget")

const maxSeedRetries = 1 << 20

// Handle is a built (or loaded) minimal perfect hash function.
type Handle struct {
	nkeys  uint32
	m0     uint32 // level-0 bucket count, power of two
	m1     uint32 // level-1 slot count, power of two
	level0 []uint32
	level1 []uint32
}

// nextPow2 returns the smallest power of two >= n (at least 1).
func nextPow2(n int) uint32 {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// Build constructs the MPHF over every key in stream. stream is rewound
// before use and read exactly once; callers that need to retain the
// underlying keys after Build must do so themselves (Build never copies
// key bytes, only hashes them).
func Build(stream KeyStream) (*Handle, error) {
	n := stream.Len()
	m0 := nextPow2((n + BParam - 1) / BParam)
	m1 := nextPow2(n)

	keys := make([][]byte, n)
	buckets := make([][]int, m0)
	seen := make(map[string]struct{}, n)

	stream.Rewind()
	i := 0
	for {
		key, ok := stream.Next()
		if !ok {
			break
		}
		if i >= n {
			break
		}
		sk := string(key)
		if _, dup := seen[sk]; dup {
			return nil, ErrDuplicateKey
		}
		seen[sk] = struct{}{}

		keys[i] = key
		h0 := uint32(farm.Hash64WithSeed(key, 0)) & (m0 - 1)
		buckets[h0] = append(buckets[h0], i)
		i++
	}
	if i != n {
		return nil, fmt.Errorf("mphf: key stream yielded %d keys, Len() reported %d", i, n)
	}

	order := make([]int, m0)
	for b := range order {
		order[b] = b
	}
	sort.Slice(order, func(a, b int) bool {
		return len(buckets[order[a]]) > len(buckets[order[b]])
	})

	level0 := make([]uint32, m0)
	level1 := make([]uint32, m1)
	occ := bitset.New(int(m1))
	tmpOcc := make([]int, 0, 16)

	for _, bidx := range order {
		bucket := buckets[bidx]
		if len(bucket) == 0 {
			break
		}

		var seed uint64
		retries := 0
	trySeed:
		seed++
		if retries++; retries > maxSeedRetries {
			return nil, ErrSeedSearchFailed
		}
		tmpOcc = tmpOcc[:0]
		for _, rank := range bucket {
			key := keys[rank]
			slot := int(uint32(farm.Hash64WithSeed(key, seed)) & (m1 - 1))
			if occ.IsSet(slot) {
				for _, s := range tmpOcc {
					occ.Clear(s)
				}
				goto trySeed
			}
			occ.Set(slot)
			tmpOcc = append(tmpOcc, slot)
		}
		for j, rank := range bucket {
			level1[tmpOcc[j]] = uint32(rank)
		}
		level0[bidx] = uint32(seed)
	}

	// keys only aliases stream's buffers for the duration of the build;
	// drop the references so the Handle doesn't keep them reachable.
	zero.ByteSlices(keys)

	return &Handle{
		nkeys:  uint32(n),
		m0:     m0,
		m1:     m1,
		level0: level0,
		level1: level1,
	}, nil
}

// Size returns the number of keys the MPHF was built over.
func (h *Handle) Size() uint32 {
	return h.nkeys
}

// Search returns some value in [0, Size()) for any input key. Inputs
// that were not part of the build set get an arbitrary value in range;
// the engine performs no membership verification (spec.md §7).
func (h *Handle) Search(key []byte) uint32 {
	if h.m0 == 0 || h.m1 == 0 {
		return 0
	}
	i0 := uint32(farm.Hash64WithSeed(key, 0)) & (h.m0 - 1)
	seed := uint64(h.level0[i0])
	i1 := uint32(farm.Hash64WithSeed(key, seed)) & (h.m1 - 1)
	return h.level1[i1]
}

// Dump serializes the MPHF to w as an opaque little-endian blob. The
// blob's internal byte order is an implementation detail (spec.md §6.1
// only constrains the shard header/offset-table fields to network byte
// order); Load must agree on the layout Dump chose.
func (h *Handle) Dump(w io.Writer) error {
	var hdr [blobHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], h.nkeys)
	binary.LittleEndian.PutUint32(hdr[4:8], h.m0)
	binary.LittleEndian.PutUint32(hdr[8:12], h.m1)
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("mphf.Dump: header: %w", err)
	}
	if err := writeUint32sLE(w, h.level0); err != nil {
		return fmt.Errorf("mphf.Dump: level0: %w", err)
	}
	if err := writeUint32sLE(w, h.level1); err != nil {
		return fmt.Errorf("mphf.Dump: level1: %w", err)
	}
	return nil
}

// Load reads a blob written by Dump.
func Load(r io.Reader) (*Handle, error) {
	var hdr [blobHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("mphf.Load: header: %w", err)
	}
	h := &Handle{
		nkeys: binary.LittleEndian.Uint32(hdr[0:4]),
		m0:    binary.LittleEndian.Uint32(hdr[4:8]),
		m1:    binary.LittleEndian.Uint32(hdr[8:12]),
	}
	level0, err := readUint32sLE(r, int(h.m0))
	if err != nil {
		return nil, fmt.Errorf("mphf.Load: level0: %w", err)
	}
	level1, err := readUint32sLE(r, int(h.m1))
	if err != nil {
		return nil, fmt.Errorf("mphf.Load: level1: %w", err)
	}
	h.level0 = level0
	h.level1 = level1
	return h, nil
}

func writeUint32sLE(w io.Writer, vs []uint32) error {
	buf := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], v)
	}
	_, err := w.Write(buf)
	return err
}

func readUint32sLE(r io.Reader, n int) ([]uint32, error) {
	buf := make([]byte, 4*n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(buf[i*4 : i*4+4])
	}
	return out, nil
}
