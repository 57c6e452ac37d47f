// Copyright 2024 The Shard Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zero

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBytes(t *testing.T) {
	for _, input := range [][]byte{
		{},
		{'a', 'b', 'c'},
	} {
		initialLen := len(input)
		initialCap := cap(input)
		expected := make([]byte, len(input))
		Bytes(input)
		require.Equal(t, expected, input)
		require.Equal(t, initialLen, len(input))
		require.Equal(t, initialCap, cap(input))
	}
}

func TestByteSlices(t *testing.T) {
	for _, input := range [][][]byte{
		{},
		{[]byte("a"), []byte("bb")},
	} {
		initialLen := len(input)
		initialCap := cap(input)
		expected := make([][]byte, len(input))
		ByteSlices(input)
		require.Equal(t, expected, input)
		require.Equal(t, initialLen, len(input))
		require.Equal(t, initialCap, cap(input))
	}
}

func TestU32(t *testing.T) {
	for _, input := range [][]uint32{
		{},
		{1, 2, 3},
	} {
		initialLen := len(input)
		initialCap := cap(input)
		expected := make([]uint32, len(input))
		U32(input)
		require.Equal(t, expected, input)
		require.Equal(t, initialLen, len(input))
		require.Equal(t, initialCap, cap(input))
	}
}
