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

import "time"

// CacheEntry is a single cached KV state entry. CacheKey, Tokens, MemoryBytes
// and CreatedAt are immutable after admission; LastAccessed and AccessCount
// are updated on every hit.
type CacheEntry struct {
	// CacheKey is the content-address key for Tokens.
	CacheKey string `json:"cacheKey"`
	// Tokens is the exact token sequence this entry covers.
	Tokens []int32 `json:"tokens"`
	// Artifact holds the opaque KV payload when no artifact store is
	// configured; it is never interpreted.
	Artifact []byte `json:"-"`
	// TokenCount is len(Tokens).
	TokenCount int `json:"tokenCount"`
	// MemoryBytes is the entry's byte footprint, caller-supplied or derived
	// from TokenCount.
	MemoryBytes int64 `json:"memoryBytes"`

	CreatedAt    time.Time `json:"createdAt"`
	LastAccessed time.Time `json:"lastAccessed"`
	AccessCount  uint64    `json:"accessCount"`
}

// PrefixMatch is the result of a prefix lookup.
type PrefixMatch struct {
	// MatchedTokens is the prefix of the query covered by the cache.
	MatchedTokens []int32 `json:"matchedTokens,omitempty"`
	// MatchedLength is len(MatchedTokens).
	MatchedLength int `json:"matchedLength"`
	// TotalLength is the length of the query sequence.
	TotalLength int `json:"totalLength"`
	// CacheKey identifies the cached entry backing the match.
	CacheKey string `json:"cacheKey,omitempty"`
	// RemainingTokens is the query suffix the cache cannot serve.
	RemainingTokens []int32 `json:"remainingTokens,omitempty"`
	// Hit reports whether a cached prefix was served.
	Hit bool `json:"hit"`
}

// SavingsRatio is the fraction of the query served from the cache.
func (m PrefixMatch) SavingsRatio() float64 {
	if m.TotalLength == 0 {
		return 0.0
	}
	return float64(m.MatchedLength) / float64(m.TotalLength)
}

// Stats is a snapshot of the cache counters. EntriesCount and MemoryUsedMB
// reflect the live state at snapshot time; the remaining fields accumulate
// over the cache lifetime.
type Stats struct {
	TotalLookups         uint64  `json:"totalLookups"`
	CacheHits            uint64  `json:"cacheHits"`
	CacheMisses          uint64  `json:"cacheMisses"`
	TotalTokensServed    uint64  `json:"totalTokensServed"`
	TotalTokensRequested uint64  `json:"totalTokensRequested"`
	EntriesCount         int     `json:"entriesCount"`
	MemoryUsedMB         float64 `json:"memoryUsedMB"`
	Evictions            uint64  `json:"evictions"`
}

// HitRate is the fraction of lookups that hit.
func (s Stats) HitRate() float64 {
	if s.TotalLookups == 0 {
		return 0.0
	}
	return float64(s.CacheHits) / float64(s.TotalLookups)
}

// TokenSavingsRate is the fraction of requested tokens served from the cache.
func (s Stats) TokenSavingsRate() float64 {
	if s.TotalTokensRequested == 0 {
		return 0.0
	}
	return float64(s.TotalTokensServed) / float64(s.TotalTokensRequested)
}

// BatchAnalysis reports prefix-sharing potential within a batch of prompts.
type BatchAnalysis struct {
	// BatchSize is the number of sequences analyzed.
	BatchSize int `json:"batchSize"`
	// UniquePrefixes is the number of shared-prefix groups found.
	UniquePrefixes int `json:"uniquePrefixes"`
	// SharedPrefixGroups maps a short prefix identifier to the indices of the
	// sequences assigned to that prefix.
	SharedPrefixGroups map[string][]int `json:"sharedPrefixGroups"`
	// PotentialSavingsTokens is the token volume that duplicate prefix
	// computation would cost without the cache.
	PotentialSavingsTokens int `json:"potentialSavingsTokens"`
	// TotalTokens is the token volume of the whole batch.
	TotalTokens int `json:"totalTokens"`
}

// DedupRatio is the fraction of batch tokens that prefix sharing can save.
func (a BatchAnalysis) DedupRatio() float64 {
	if a.TotalTokens == 0 {
		return 0.0
	}
	return float64(a.PotentialSavingsTokens) / float64(a.TotalTokens)
}
