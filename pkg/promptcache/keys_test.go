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

package promptcache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/llm-d/llm-d-prompt-cache-engine/pkg/promptcache"
)

func TestComputeCacheKeyGoldenValues(t *testing.T) {
	// Fixed values pin the normative encoding: 4 bytes per token, big-endian
	// two's-complement, SHA-256, first 16 hex characters.
	tests := []struct {
		name     string
		tokens   []int32
		expected string
	}{
		{"five tokens", []int32{1, 2, 3, 4, 5}, "de9f9201383c914c"},
		{"four tokens", []int32{1, 2, 3, 4}, "bac02613b6f9456c"},
		{"empty sequence", nil, "e3b0c44298fc1c14"},
		{"negative token", []int32{-1}, "ad95131bc0b799c0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComputeCacheKey(tt.tokens))
		})
	}
}

func TestComputeCacheKeyDeterministic(t *testing.T) {
	tokens := []int32{42, -17, 0, 99999, -2147483648, 2147483647}
	assert.Equal(t, ComputeCacheKey(tokens), ComputeCacheKey(tokens))
	assert.Len(t, ComputeCacheKey(tokens), 16)
}

func TestComputeCacheKeyDistinguishesSequences(t *testing.T) {
	seen := map[string][]int32{}
	sequences := [][]int32{
		{1, 2, 3},
		{3, 2, 1},
		{1, 2, 3, 0},
		{1, 2},
		{-1, -2, -3},
		{0},
		{0, 0},
	}

	for _, seq := range sequences {
		key := ComputeCacheKey(seq)
		other, dup := seen[key]
		assert.False(t, dup, "sequences %v and %v collided on %s", seq, other, key)
		seen[key] = seq
	}
}
