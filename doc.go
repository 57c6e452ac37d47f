// Copyright 2024 The Shard Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package shard implements a single-file, content-addressed object store
// keyed by a fixed-width opaque key (32 bytes by default, matching
// SHA-256) and indexed by a minimal perfect hash function.
//
// A shard is built once, in two phases, and then read many times:
//
//	s := shard.New("blobs.shard")
//	_ = s.Create(uint64(len(pairs)))
//	for _, p := range pairs {
//	    _ = s.WriteObject(p.Key, p.Object)
//	}
//	_ = s.Save()
//	_ = s.Close()
//
//	r := shard.New("blobs.shard")
//	_ = r.Load()
//	defer r.Close()
//	obj, err := r.Lookup(key)
//
// A shard file looks like:
//
//	┌────────────────────┐
//	│ magic               │
//	├────────────────────┤
//	│ header (7 x u64 BE) │
//	├────────────────────┤
//	│ objects region      │
//	│  u64 size, bytes... │
//	│  ...                │
//	├────────────────────┤
//	│ offset table        │
//	│  u64 x objects_count│
//	├────────────────────┤
//	│ MPHF blob           │
//	└────────────────────┘
//
// Looking up a key that was never written returns unspecified bytes
// rather than an error: the minimal perfect hash function has no
// membership test, and this engine performs no re-verification. Callers
// that need to detect misses must re-derive the key from the returned
// object (e.g. by hashing it) and compare.
//
// See internal/mphf for the CHD_PH construction that makes O(1) lookup
// possible, and internal/header / internal/ioutil for the on-disk codec.
package shard
