// Copyright 2025 The llm-d Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package promptcache

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/llm-d/llm-d-prompt-cache-engine/pkg/promptcache/metrics"
)

type instrumentedCache struct {
	next PrefixCache
}

// NewInstrumentedCache wraps a PrefixCache and emits metrics for Lookup,
// Store, and Evict. Evictions performed internally (capacity pressure, TTL)
// are visible through Stats rather than the decorator counters.
func NewInstrumentedCache(next PrefixCache) PrefixCache {
	return &instrumentedCache{next: next}
}

// newInstrumentedCache registers the collectors, wraps next, and starts the
// periodic metrics log when an interval is configured.
func newInstrumentedCache(ctx context.Context, next PrefixCache, loggingInterval time.Duration) PrefixCache {
	metrics.Register()
	if loggingInterval > 0 {
		// this is non-blocking
		metrics.StartMetricsLogging(ctx, loggingInterval)
	}
	return NewInstrumentedCache(next)
}

func (c *instrumentedCache) Lookup(ctx context.Context, tokens []int32) PrefixMatch {
	timer := prometheus.NewTimer(metrics.LookupLatency)
	defer timer.ObserveDuration()

	metrics.LookupRequests.Inc()

	match := c.next.Lookup(ctx, tokens)
	if match.Hit {
		metrics.LookupHits.Inc()
		metrics.TokensServed.Add(float64(match.MatchedLength))
	}
	return match
}

func (c *instrumentedCache) Store(ctx context.Context, tokens []int32, artifact []byte, memoryBytes int64) (string, error) {
	key, err := c.next.Store(ctx, tokens, artifact, memoryBytes)
	if err == nil && key != "" {
		metrics.Admissions.Inc()
	}
	return key, err
}

func (c *instrumentedCache) Evict(ctx context.Context, cacheKey string) bool {
	evicted := c.next.Evict(ctx, cacheKey)
	if evicted {
		metrics.Evictions.Inc()
	}
	return evicted
}

func (c *instrumentedCache) Clear(ctx context.Context) {
	c.next.Clear(ctx)
}

func (c *instrumentedCache) Stats() Stats {
	return c.next.Stats()
}

func (c *instrumentedCache) GetEntry(cacheKey string) (*CacheEntry, bool) {
	return c.next.GetEntry(cacheKey)
}

func (c *instrumentedCache) Artifact(ctx context.Context, cacheKey string) ([]byte, bool, error) {
	return c.next.Artifact(ctx, cacheKey)
}

func (c *instrumentedCache) AnalyzeBatch(sequences [][]int32) BatchAnalysis {
	return c.next.AnalyzeBatch(sequences)
}
