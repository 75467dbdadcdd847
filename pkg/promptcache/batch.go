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
	"sort"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/llm-d/llm-d-prompt-cache-engine/pkg/utils"
)

// prefixCandidate is one candidate shared prefix and the sequence indices
// it covers.
type prefixCandidate struct {
	prefix  []int32
	indices []int
}

// AnalyzeBatch partitions a batch of token sequences into groups sharing a
// maximal common prefix and estimates the token volume that caching each
// shared prefix once would save. Each sequence is assigned to its longest
// shared prefix, never a shorter one. The analysis is a pure function of the
// batch and the configured minimum prefix length; it does not consult the
// cache contents.
func (m *Manager) AnalyzeBatch(sequences [][]int32) BatchAnalysis {
	return analyzeBatch(sequences, m.config.MinPrefixLength)
}

func analyzeBatch(sequences [][]int32, minPrefixLength int) BatchAnalysis {
	analysis := BatchAnalysis{
		BatchSize:          len(sequences),
		SharedPrefixGroups: make(map[string][]int),
	}
	if len(sequences) == 0 {
		return analysis
	}

	// Record every admissible prefix of every sequence.
	candidates := make(map[string]*prefixCandidate)
	for idx, tokens := range sequences {
		analysis.TotalTokens += len(tokens)
		for length := minPrefixLength; length <= len(tokens); length++ {
			prefix := tokens[:length]
			encoded := string(encodeTokens(prefix))
			candidate, ok := candidates[encoded]
			if !ok {
				candidate = &prefixCandidate{prefix: prefix}
				candidates[encoded] = candidate
			}
			candidate.indices = append(candidate.indices, idx)
		}
	}

	// Longest prefixes claim their sequences first. The byte encoding sorts
	// ties deterministically.
	ordered := make([]string, 0, len(candidates))
	for encoded := range candidates {
		ordered = append(ordered, encoded)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if len(ordered[i]) != len(ordered[j]) {
			return len(ordered[i]) > len(ordered[j])
		}
		return ordered[i] < ordered[j]
	})

	assigned := sets.New[int]()
	assignedLength := make(map[int]int)

	for _, encoded := range ordered {
		candidate := candidates[encoded]
		if len(candidate.indices) < 2 {
			continue
		}

		unassigned := utils.SliceFilter(candidate.indices, func(idx int) bool {
			return !assigned.Has(idx)
		})
		if len(unassigned) < 2 {
			continue
		}

		groupKey := ComputeCacheKey(candidate.prefix)[:groupKeyHexLen]
		analysis.SharedPrefixGroups[groupKey] = unassigned
		for _, idx := range unassigned {
			assigned.Insert(idx)
			assignedLength[idx] = len(candidate.prefix)
		}
	}

	analysis.UniquePrefixes = len(analysis.SharedPrefixGroups)

	// Each group still computes its shared prefix once; only the duplicate
	// copies are saved.
	savings := 0
	for _, length := range assignedLength {
		savings += length
	}
	for _, groupIndices := range analysis.SharedPrefixGroups {
		maxInGroup := 0
		for _, idx := range groupIndices {
			if assignedLength[idx] > maxInGroup {
				maxInGroup = assignedLength[idx]
			}
		}
		savings -= maxInGroup
	}
	if savings < 0 {
		savings = 0
	}
	analysis.PotentialSavingsTokens = savings

	return analysis
}
