// Copyright 2024 The Shard Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package zero clears slices of scratch data once the MPHF builder is
// done with them, so a held Handle doesn't keep unrelated key bytes
// reachable.
package zero

func Bytes(b []byte) {
	for i := 0; i < len(b); i++ {
		b[i] = 0
	}
}

func ByteSlices(b [][]byte) {
	for i := 0; i < len(b); i++ {
		b[i] = nil
	}
}

func U32(b []uint32) {
	for i := 0; i < len(b); i++ {
		b[i] = 0
	}
}
