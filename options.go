// Copyright 2024 The Shard Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package shard

import (
	"io"
	"log/slog"
)

// DefaultKeyLen is the fixed per-key byte width used when no WithKeyLen
// option is supplied, matching the common SHA-256 content-addressing
// case spec.md §6.1 calls out as the typical choice for SHARD_KEY_LEN.
const DefaultKeyLen = 32

// Option configures a Shard, following the teacher's BuilderOption
// pattern (builder.go's WithBuilderLogger).
type Option func(*shardOptions)

type shardOptions struct {
	keyLen int
	logger *slog.Logger
	useMMap bool
}

func defaultOptions() shardOptions {
	return shardOptions{
		keyLen: DefaultKeyLen,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithKeyLen sets the fixed key width K. It must be the same value the
// shard was created with; the engine has no way to detect a mismatch
// since K is never stored on disk (spec.md §6.1).
func WithKeyLen(n int) Option {
	return func(o *shardOptions) {
		o.keyLen = n
	}
}

// WithLogger attaches a logger for progress updates during Save (MPHF
// build timing, object counts). The default discards all
// output, the same default the teacher's Builder uses.
func WithLogger(logger *slog.Logger) Option {
	return func(o *shardOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMMap backs the reader with a memory-mapped view of the shard file
// instead of positioned pread(2) calls. Memory-mapping is an
// implementation-internal optimization per spec.md §4.5; the lookup
// contract is identical either way.
func WithMMap() Option {
	return func(o *shardOptions) {
		o.useMMap = true
	}
}
