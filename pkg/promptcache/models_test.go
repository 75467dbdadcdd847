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

func TestSavingsRatio(t *testing.T) {
	assert.Zero(t, PrefixMatch{}.SavingsRatio())
	assert.Equal(t, 0.25, PrefixMatch{MatchedLength: 2, TotalLength: 8}.SavingsRatio())
	assert.Equal(t, 1.0, PrefixMatch{MatchedLength: 8, TotalLength: 8}.SavingsRatio())
}

func TestStatsRatesZeroDenominators(t *testing.T) {
	var stats Stats
	assert.Zero(t, stats.HitRate())
	assert.Zero(t, stats.TokenSavingsRate())
}

func TestDedupRatioZeroDenominator(t *testing.T) {
	assert.Zero(t, BatchAnalysis{}.DedupRatio())
	assert.Equal(t, 0.5, BatchAnalysis{PotentialSavingsTokens: 5, TotalTokens: 10}.DedupRatio())
}
