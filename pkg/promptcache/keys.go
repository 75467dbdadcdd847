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

package promptcache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// cacheKeyHexLen is the width of a content-address key: 16 hex characters,
// 64 bits of digest. Shortening is for identification, not security.
const cacheKeyHexLen = 16

// groupKeyHexLen is the width of the short prefix identifiers used by the
// batch analyzer.
const groupKeyHexLen = 8

// encodeTokens serializes a token sequence as 4 bytes per token, big-endian
// two's-complement. The format is normative: identical sequences must produce
// bit-identical keys across implementations.
func encodeTokens(tokens []int32) []byte {
	buf := make([]byte, 4*len(tokens))
	for i, token := range tokens {
		binary.BigEndian.PutUint32(buf[i*4:], uint32(token))
	}
	return buf
}

// ComputeCacheKey derives the deterministic content-address key for a token
// sequence: SHA-256 over the big-endian encoding, truncated to 16 lowercase
// hex characters.
func ComputeCacheKey(tokens []int32) string {
	sum := sha256.Sum256(encodeTokens(tokens))
	return hex.EncodeToString(sum[:])[:cacheKeyHexLen]
}
