// Copyright 2024 The Shard Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package header

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shardkit/shard/internal/ioutil"
)

func openTemp(t *testing.T) *ioutil.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "header.bin")
	f, err := ioutil.Open(path, os.O_RDWR|os.O_CREATE, 0644)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestNewHeader(t *testing.T) {
	h := New()
	require.Equal(t, Version, h.Version)
	require.Equal(t, uint64(len(Magic))+Size, h.ObjectsPos)
	require.Equal(t, uint64(0), h.ObjectsCount)
}

func TestMagicRoundTrip(t *testing.T) {
	f := openTemp(t)
	require.NoError(t, WriteMagic(f))

	_, err := f.Seek(0, 0)
	require.NoError(t, err)
	require.NoError(t, ReadMagic(f))
}

func TestMagicMismatch(t *testing.T) {
	f := openTemp(t)
	require.NoError(t, f.Write([]byte("XXXXXX")))

	_, err := f.Seek(0, 0)
	require.NoError(t, err)
	require.ErrorIs(t, ReadMagic(f), ErrBadMagic)
}

func TestHeaderRoundTrip(t *testing.T) {
	f := openTemp(t)
	h := &Header{
		Version:      Version,
		ObjectsCount: 3,
		ObjectsPos:   uint64(len(Magic)) + Size,
		ObjectsSize:  2025,
		IndexPos:     uint64(len(Magic)) + Size + 2025,
		IndexSize:    24,
		HashPos:      uint64(len(Magic)) + Size + 2025 + 24,
	}
	require.NoError(t, h.Save(f))

	_, err := f.Seek(0, 0)
	require.NoError(t, err)
	got, err := Load(f)
	require.NoError(t, err)
	require.Equal(t, h, got)
	require.NoError(t, got.VerifyAlgebra())
}

func TestHeaderUnsupportedVersion(t *testing.T) {
	f := openTemp(t)
	h := New()
	h.Version = Version + 1
	require.NoError(t, h.Save(f))

	_, err := f.Seek(0, 0)
	require.NoError(t, err)
	_, err = Load(f)
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestVerifyAlgebraRejectsBadOffsets(t *testing.T) {
	h := New()
	h.ObjectsCount = 3
	h.ObjectsSize = 2025
	h.IndexPos = h.ObjectsPos + h.ObjectsSize
	h.IndexSize = h.ObjectsCount * 8
	h.HashPos = h.IndexPos + h.IndexSize
	require.NoError(t, h.VerifyAlgebra())

	bad := *h
	bad.IndexPos++
	require.Error(t, bad.VerifyAlgebra())

	bad = *h
	bad.HashPos++
	require.Error(t, bad.VerifyAlgebra())

	bad = *h
	bad.IndexSize++
	require.Error(t, bad.VerifyAlgebra())
}
