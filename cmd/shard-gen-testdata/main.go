// Copyright 2024 The Shard Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// shard-gen-testdata builds a shard file full of random fixed-width
// keys and variable-length objects, for exercising S6-scale shards
// (spec.md §8) without hand-crafting a fixture.
package main

import (
	crand "crypto/rand"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/shardkit/shard"
)

func main() {
	var (
		out     = flag.String("out", "testdata.shard", "output shard path")
		count   = flag.Int("count", 10000, "number of objects to write")
		keyLen  = flag.Int("keylen", shard.DefaultKeyLen, "key width in bytes")
		minSize = flag.Int("min-size", 1, "minimum object size in bytes")
		maxSize = flag.Int("max-size", 1024, "maximum object size in bytes")
	)
	flag.Parse()

	if err := run(*out, *count, *keyLen, *minSize, *maxSize); err != nil {
		fmt.Fprintln(os.Stderr, "shard-gen-testdata:", err)
		os.Exit(1)
	}
}

func run(out string, count, keyLen, minSize, maxSize int) error {
	if minSize > maxSize {
		return fmt.Errorf("min-size %d > max-size %d", minSize, maxSize)
	}

	rng := newRand()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s, err := shard.CreateShard(out, uint64(count), shard.WithKeyLen(keyLen), shard.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}

	seen := make(map[string]struct{}, count)
	key := make([]byte, keyLen)
	for i := 0; i < count; i++ {
		for {
			if _, err := rng.Read(key); err != nil {
				return fmt.Errorf("rand key: %w", err)
			}
			if _, dup := seen[string(key)]; !dup {
				seen[string(key)] = struct{}{}
				break
			}
		}

		size := minSize
		if maxSize > minSize {
			size += rng.Intn(maxSize - minSize + 1)
		}
		object := make([]byte, size)
		if _, err := rng.Read(object); err != nil {
			return fmt.Errorf("rand object: %w", err)
		}

		if err := s.WriteObject(key, object); err != nil {
			_ = s.Close()
			return fmt.Errorf("write object %d: %w", i, err)
		}
	}

	if err := s.Save(); err != nil {
		_ = s.Close()
		return fmt.Errorf("save: %w", err)
	}
	if err := s.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	fmt.Printf("wrote %d objects to %s\n", count, out)
	return nil
}

// newRand seeds math/rand from crypto/rand, the same pattern the
// teacher's test-data generator uses to avoid a fixed, guessable seed.
func newRand() *rand.Rand {
	var seedBytes [8]byte
	if _, err := crand.Read(seedBytes[:]); err != nil {
		panic(err)
	}
	seed := int64(0)
	for i, b := range seedBytes {
		seed |= int64(b) << (8 * i)
	}
	return rand.New(rand.NewSource(seed))
}
