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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/llm-d/llm-d-prompt-cache-engine/pkg/promptcache"
)

func newAnalyzerManager(t *testing.T, minPrefixLength int) *Manager {
	t.Helper()
	config := DefaultConfig()
	config.MinPrefixLength = minPrefixLength

	manager, err := NewManager(context.Background(), config)
	require.NoError(t, err)
	return manager
}

func TestAnalyzeBatchSharedPrefixGroup(t *testing.T) {
	manager := newAnalyzerManager(t, 2)

	sequences := [][]int32{
		{1, 2, 3, 4, 5},
		{1, 2, 3, 4, 6},
		{1, 2, 3, 4, 7},
	}

	analysis := manager.AnalyzeBatch(sequences)

	assert.Equal(t, 3, analysis.BatchSize)
	assert.Equal(t, 15, analysis.TotalTokens)
	assert.GreaterOrEqual(t, analysis.UniquePrefixes, 1)
	assert.Positive(t, analysis.PotentialSavingsTokens)

	// All three sequences share (1,2,3,4) maximally and must land together
	// in exactly one group, keyed by the prefix's short content address.
	group, ok := analysis.SharedPrefixGroups["bac02613"]
	require.True(t, ok, "expected group for prefix (1,2,3,4), got %v", analysis.SharedPrefixGroups)
	assert.ElementsMatch(t, []int{0, 1, 2}, group)
	assert.Equal(t, 1, analysis.UniquePrefixes)

	// Three copies of a 4-token prefix, one still computed: 8 tokens saved.
	assert.Equal(t, 8, analysis.PotentialSavingsTokens)
}

func TestAnalyzeBatchLongerPrefixWins(t *testing.T) {
	manager := newAnalyzerManager(t, 2)

	// Sequences 0 and 1 share 4 tokens; sequence 2 shares only 2 with them.
	sequences := [][]int32{
		{1, 2, 3, 4, 9},
		{1, 2, 3, 4, 8},
		{1, 2, 7, 7, 7},
	}

	analysis := manager.AnalyzeBatch(sequences)

	group, ok := analysis.SharedPrefixGroups["bac02613"]
	require.True(t, ok)
	assert.ElementsMatch(t, []int{0, 1}, group)

	// Sequence 2 has no partner left once 0 and 1 are claimed by the longer
	// prefix; it forms no group.
	assert.Equal(t, 1, analysis.UniquePrefixes)
	assert.Equal(t, 4, analysis.PotentialSavingsTokens)
}

func TestAnalyzeBatchNoSharing(t *testing.T) {
	manager := newAnalyzerManager(t, 2)

	analysis := manager.AnalyzeBatch([][]int32{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 9},
	})

	assert.Equal(t, 3, analysis.BatchSize)
	assert.Zero(t, analysis.UniquePrefixes)
	assert.Empty(t, analysis.SharedPrefixGroups)
	assert.Zero(t, analysis.PotentialSavingsTokens)
	assert.Zero(t, analysis.DedupRatio())
}

func TestAnalyzeBatchEmpty(t *testing.T) {
	manager := newAnalyzerManager(t, 2)

	analysis := manager.AnalyzeBatch(nil)
	assert.Zero(t, analysis.BatchSize)
	assert.Zero(t, analysis.TotalTokens)
	assert.NotNil(t, analysis.SharedPrefixGroups)
	assert.Zero(t, analysis.DedupRatio())
}

func TestAnalyzeBatchIdenticalSequences(t *testing.T) {
	manager := newAnalyzerManager(t, 2)

	analysis := manager.AnalyzeBatch([][]int32{
		{5, 6, 7, 8},
		{5, 6, 7, 8},
	})

	require.Equal(t, 1, analysis.UniquePrefixes)
	// Two identical 4-token sequences: one copy saved.
	assert.Equal(t, 4, analysis.PotentialSavingsTokens)
	assert.Equal(t, 0.5, analysis.DedupRatio())
}

func TestAnalyzeBatchBelowMinimumLength(t *testing.T) {
	manager := newAnalyzerManager(t, 4)

	// The shared head is shorter than the minimum; nothing is reportable.
	analysis := manager.AnalyzeBatch([][]int32{
		{1, 2, 9},
		{1, 2, 8},
	})

	assert.Zero(t, analysis.UniquePrefixes)
	assert.Zero(t, analysis.PotentialSavingsTokens)
}

func TestAnalyzeBatchDoesNotTouchCache(t *testing.T) {
	ctx := context.Background()
	manager := newAnalyzerManager(t, 2)

	_ = manager.AnalyzeBatch([][]int32{
		{1, 2, 3, 4},
		{1, 2, 3, 5},
	})

	assert.Zero(t, manager.Stats().EntriesCount)
	assert.False(t, manager.Lookup(ctx, []int32{1, 2, 3, 4}).Hit)
}
