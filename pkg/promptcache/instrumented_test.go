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

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/llm-d/llm-d-prompt-cache-engine/pkg/promptcache"
	"github.com/llm-d/llm-d-prompt-cache-engine/pkg/promptcache/metrics"
)

func TestInstrumentedCacheCounters(t *testing.T) {
	ctx := context.Background()
	config := DefaultConfig()
	config.MinPrefixLength = 2

	manager, err := NewManager(ctx, config)
	require.NoError(t, err)
	cache := NewInstrumentedCache(manager)

	admissionsBefore := testutil.ToFloat64(metrics.Admissions)
	lookupsBefore := testutil.ToFloat64(metrics.LookupRequests)
	hitsBefore := testutil.ToFloat64(metrics.LookupHits)
	servedBefore := testutil.ToFloat64(metrics.TokensServed)
	evictionsBefore := testutil.ToFloat64(metrics.Evictions)

	key, err := cache.Store(ctx, []int32{1, 2, 3, 4}, nil, 0)
	require.NoError(t, err)
	require.NotEmpty(t, key)

	require.True(t, cache.Lookup(ctx, []int32{1, 2, 3, 4}).Hit)
	require.False(t, cache.Lookup(ctx, []int32{9, 9}).Hit)
	require.True(t, cache.Evict(ctx, key))
	require.False(t, cache.Evict(ctx, key))

	assert.Equal(t, admissionsBefore+1, testutil.ToFloat64(metrics.Admissions))
	assert.Equal(t, lookupsBefore+2, testutil.ToFloat64(metrics.LookupRequests))
	assert.Equal(t, hitsBefore+1, testutil.ToFloat64(metrics.LookupHits))
	assert.Equal(t, servedBefore+4, testutil.ToFloat64(metrics.TokensServed))
	assert.Equal(t, evictionsBefore+1, testutil.ToFloat64(metrics.Evictions))

	// Refused admissions (below minimum length) are not counted.
	shortKey, err := cache.Store(ctx, []int32{1}, nil, 0)
	require.NoError(t, err)
	require.Empty(t, shortKey)
	assert.Equal(t, admissionsBefore+1, testutil.ToFloat64(metrics.Admissions))
}
