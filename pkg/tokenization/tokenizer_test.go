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

package tokenization_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llm-d/llm-d-prompt-cache-engine/pkg/tokenization"
)

func TestTokenizeDeterministic(t *testing.T) {
	prompt := "You are a helpful assistant"

	first := tokenization.Tokenize(prompt)
	second := tokenization.Tokenize(prompt)

	assert.Equal(t, first, second)
	assert.Len(t, first, 5)
}

func TestTokenizeSharedPrefixAlignment(t *testing.T) {
	a := tokenization.Tokenize("system prompt question one")
	b := tokenization.Tokenize("system prompt question two")

	// Same leading words, same leading token IDs.
	assert.Equal(t, a[:3], b[:3])
	assert.NotEqual(t, a[3], b[3])
}

func TestTokenizeEmptyAndWhitespace(t *testing.T) {
	assert.Empty(t, tokenization.Tokenize(""))
	assert.Empty(t, tokenization.Tokenize("   \t\n  "))
}

func TestTokenizeBatchPreservesOrder(t *testing.T) {
	prompts := []string{
		"first prompt",
		"second prompt goes here",
		"",
		"fourth",
	}

	sequences, err := tokenization.TokenizeBatch(context.Background(), prompts, 2)
	require.NoError(t, err)
	require.Len(t, sequences, len(prompts))

	for i, prompt := range prompts {
		assert.Equal(t, tokenization.Tokenize(prompt), sequences[i])
	}
}

func TestTokenizeBatchDefaultWorkers(t *testing.T) {
	sequences, err := tokenization.TokenizeBatch(context.Background(), []string{"a b c"}, 0)
	require.NoError(t, err)
	require.Len(t, sequences, 1)
	assert.Len(t, sequences[0], 3)
}
