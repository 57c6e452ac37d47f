// Copyright 2024 The Shard Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package ioutil

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.bin")
	f, err := Open(path, os.O_RDWR|os.O_CREATE, 0644)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.Write([]byte("hello")))
	require.NoError(t, f.WriteUint64BE(0x0102030405060708))

	_, err = f.Seek(0, 0)
	require.NoError(t, err)

	buf := make([]byte, 5)
	require.NoError(t, f.Read(buf))
	require.Equal(t, "hello", string(buf))

	v, err := f.ReadUint64BE()
	require.NoError(t, err)
	require.Equal(t, uint64(0x0102030405060708), v)
}

func TestTell(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.bin")
	f, err := Open(path, os.O_RDWR|os.O_CREATE, 0644)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.Write([]byte("abcdef")))
	pos, err := f.Tell()
	require.NoError(t, err)
	require.EqualValues(t, 6, pos)
}

func TestReadShortReadFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.bin")
	f, err := Open(path, os.O_RDWR|os.O_CREATE, 0644)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.Write([]byte("ab")))
	_, err = f.Seek(0, 0)
	require.NoError(t, err)

	buf := make([]byte, 10)
	err = f.Read(buf)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrShortRead))
}

func TestUint64sBERoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := []uint64{1, 2, 0xffffffffffffffff, 0}
	require.NoError(t, WriteUint64sBE(&buf, in))

	out := make([]uint64, len(in))
	require.NoError(t, ReadUint64sBE(&buf, out))
	require.Equal(t, in, out)
}

func TestReadUint64sBEShort(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0, 0, 0})
	out := make([]uint64, 1)
	err := ReadUint64sBE(buf, out)
	require.Error(t, err)
}
