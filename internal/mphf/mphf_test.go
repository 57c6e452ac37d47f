// Copyright 2024 The Shard Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package mphf

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func genKeys(n, width int, seed int64) [][]byte {
	rng := rand.New(rand.NewSource(seed))
	keys := make([][]byte, n)
	for i := range keys {
		k := make([]byte, width)
		_, _ = rng.Read(k)
		keys[i] = k
	}
	return keys
}

func TestBuildSearchIsBijective(t *testing.T) {
	keys := genKeys(500, 32, 1)
	h, err := Build(NewSliceKeyStream(keys))
	require.NoError(t, err)
	require.EqualValues(t, len(keys), h.Size())

	seen := make([]bool, len(keys))
	for _, k := range keys {
		rank := h.Search(k)
		require.Less(t, rank, uint32(len(keys)))
		require.False(t, seen[rank], "rank %d produced by more than one key", rank)
		seen[rank] = true
	}
	for i, s := range seen {
		require.True(t, s, "rank %d never produced", i)
	}
}

func TestBuildDuplicateKeyFails(t *testing.T) {
	k := bytes.Repeat([]byte{0x11}, 32)
	keys := [][]byte{k, bytes.Repeat([]byte{0x22}, 32), k}
	_, err := Build(NewSliceKeyStream(keys))
	require.ErrorIs(t, err, ErrDuplicateKey)
}

func TestDumpLoadRoundTrip(t *testing.T) {
	keys := genKeys(200, 32, 2)
	h, err := Build(NewSliceKeyStream(keys))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, h.Dump(&buf))

	loaded, err := Load(&buf)
	require.NoError(t, err)
	require.Equal(t, h.Size(), loaded.Size())

	for _, k := range keys {
		require.Equal(t, h.Search(k), loaded.Search(k))
	}
}

func TestSearchOnNonMemberKeyStaysInRange(t *testing.T) {
	keys := genKeys(64, 32, 3)
	h, err := Build(NewSliceKeyStream(keys))
	require.NoError(t, err)

	absent := bytes.Repeat([]byte{0xff}, 32)
	rank := h.Search(absent)
	require.Less(t, rank, h.Size())
}

func TestBuildVariousSizes(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7, 16, 17, 1000} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			keys := genKeys(n, 32, int64(n)+100)
			h, err := Build(NewSliceKeyStream(keys))
			require.NoError(t, err)
			seen := make([]bool, n)
			for _, k := range keys {
				rank := h.Search(k)
				require.Less(t, rank, uint32(n))
				require.False(t, seen[rank])
				seen[rank] = true
			}
		})
	}
}
