/*
Copyright 2025 The llm-d Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package blockhash derives chunked block keys from token sequences so that
// cached prefixes can be mapped onto the block hashes a serving engine uses
// internally. The chain-hash format follows vLLM's prefix-block hashing.
package blockhash

import (
	"context"
	"crypto/sha256"
	"encoding/binary"

	"github.com/fxamacker/cbor/v2"
	"k8s.io/klog/v2"

	"github.com/llm-d/llm-d-prompt-cache-engine/pkg/utils"
)

// defaultBlockSize is the default number of tokens per block.
// 16 is the default value used by vLLM.
const defaultBlockSize = 16

// Config holds the configuration for the block keyer.
type Config struct {
	BlockSize int `json:"blockSize"`
	// HashSeed prefixes the initial chain hash, similarly to vLLM's
	// NONE_HASH. Deployments that compare block keys across components must
	// align on the same seed value.
	HashSeed string  `json:"hashSeed"`
	initHash *uint64 // cache once
}

// DefaultConfig returns the default configuration for the block keyer.
func DefaultConfig() *Config {
	return &Config{
		BlockSize: defaultBlockSize,
		HashSeed:  "",
	}
}

// BlockKey identifies one fixed-size block of a token sequence within the
// chain of blocks preceding it.
type BlockKey struct {
	ChunkHash uint64
}

// Keyer converts token sequences to block keys.
type Keyer interface {
	// BlockKeys converts tokens into chained block keys. Partial tail
	// blocks are dropped.
	BlockKeys(tokens []int32) []BlockKey
}

// ChunkedBlockKeyer is a concrete implementation of Keyer that chunks the
// sequence and chain-hashes each chunk with its parent.
type ChunkedBlockKeyer struct {
	Config
}

var _ Keyer = &ChunkedBlockKeyer{}

// NewChunkedBlockKeyer creates a new instance with the given config.
func NewChunkedBlockKeyer(config *Config) Keyer {
	if config == nil {
		config = DefaultConfig()
	}

	return &ChunkedBlockKeyer{
		Config: *config,
	}
}

// getInitHash returns the root parent hash.
func (k *ChunkedBlockKeyer) getInitHash() *uint64 {
	if k.initHash != nil {
		return k.initHash
	}

	encMode, err := cbor.CanonicalEncOptions().EncMode() // deterministic
	if err != nil {
		klog.FromContext(context.Background()).Error(err, "failed to create CBOR encoder")
		return nil
	}

	b, err := encMode.Marshal(k.HashSeed)
	if err != nil {
		klog.FromContext(context.Background()).Error(err, "failed to marshal payload to CBOR")
		return nil
	}

	sum := sha256.Sum256(b)
	hashVal := binary.BigEndian.Uint64(sum[24:])
	k.initHash = &hashVal
	return k.initHash
}

// hash computes a uint64 hash (lower 64 bits of SHA256) over the
// CBOR-canonical encoding of (parent, tokens, extra).
func (k *ChunkedBlockKeyer) hash(parent uint64, tokens []int32, extra interface{}) uint64 {
	payload := []interface{}{parent, tokens, extra}

	encMode, err := cbor.CanonicalEncOptions().EncMode() // deterministic
	if err != nil {
		klog.FromContext(context.Background()).Error(err, "failed to create CBOR encoder")
		return 0
	}

	b, err := encMode.Marshal(payload)
	if err != nil {
		klog.FromContext(context.Background()).Error(err, "failed to marshal payload to CBOR")
		return 0
	}

	sum := sha256.Sum256(b)
	return binary.BigEndian.Uint64(sum[24:])
}

// prefixHashes returns the chain of block hashes for the given chunks.
func (k *ChunkedBlockKeyer) prefixHashes(parentHash uint64, tokenChunks [][]int32) []uint64 {
	prefix := parentHash
	hashes := make([]uint64, len(tokenChunks))
	for i, chunk := range tokenChunks {
		prefix = k.hash(prefix, chunk, nil)
		hashes[i] = prefix
	}
	return hashes
}

// chunkTokens splits the input slice of tokens into chunks of BlockSize.
func (k *ChunkedBlockKeyer) chunkTokens(tokens []int32) [][]int32 {
	var chunks [][]int32
	for i := 0; i < len(tokens); i += k.BlockSize {
		end := i + k.BlockSize
		if end > len(tokens) {
			break // no partial blocks
		}

		chunks = append(chunks, tokens[i:end])
	}

	return chunks
}

// BlockKeys converts tokens into chained block keys.
func (k *ChunkedBlockKeyer) BlockKeys(tokens []int32) []BlockKey {
	parentPtr := k.getInitHash()
	if parentPtr == nil {
		return nil
	}

	chunks := k.chunkTokens(tokens)
	hashes := k.prefixHashes(*parentPtr, chunks)
	return utils.SliceMap(hashes, func(hashVal uint64) BlockKey {
		return BlockKey{ChunkHash: hashVal}
	})
}
