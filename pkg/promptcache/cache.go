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

// Package promptcache implements an engine-agnostic prefix cache for prompt
// token sequences. Given a tokenized prompt it recovers the longest
// previously-computed prefix and the opaque handle to its KV state, so that
// redundant prefix computation can be skipped across requests sharing a
// common head.
package promptcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"k8s.io/klog/v2"

	"github.com/llm-d/llm-d-prompt-cache-engine/pkg/promptcache/artifacts"
	"github.com/llm-d/llm-d-prompt-cache-engine/pkg/promptcache/trie"
	"github.com/llm-d/llm-d-prompt-cache-engine/pkg/utils/logging"
)

// PrefixCache is the public surface of the cache store.
//
// All mutating operations (Lookup included: it updates access bookkeeping and
// may expire entries) are serialized behind an exclusive lock; Stats and
// GetEntry take a shared lock; AnalyzeBatch is a pure function of its input.
type PrefixCache interface {
	// Lookup finds the longest cached prefix of tokens and records the
	// access.
	Lookup(ctx context.Context, tokens []int32) PrefixMatch
	// Store admits a KV entry covering tokens. A sequence shorter than the
	// configured minimum is refused by returning an empty key and no error.
	Store(ctx context.Context, tokens []int32, artifact []byte, memoryBytes int64) (string, error)
	// Evict removes a specific entry, reporting whether it was present.
	Evict(ctx context.Context, cacheKey string) bool
	// Clear drops all entries.
	Clear(ctx context.Context)
	// Stats returns a snapshot of the cache counters.
	Stats() Stats
	// GetEntry returns an entry by key without updating access tracking.
	GetEntry(cacheKey string) (*CacheEntry, bool)
	// Artifact returns the opaque payload for a cached key, inline or from
	// the configured artifact store.
	Artifact(ctx context.Context, cacheKey string) ([]byte, bool, error)
	// AnalyzeBatch reports prefix-sharing potential within a batch of
	// sequences. It does not consult the cache contents.
	AnalyzeBatch(sequences [][]int32) BatchAnalysis
}

// Manager combines the radix index with a recency-ordered entry map and
// byte accounting. The index, the map, and the byte total move together
// under every mutation.
type Manager struct {
	mu     sync.RWMutex
	config *Config

	index   *trie.Tree
	entries *simplelru.LRU[string, *CacheEntry]

	totalMemoryBytes int64
	stats            Stats

	artifactStore artifacts.Store // nil when payloads stay inline

	// now is replaceable in tests; both CreatedAt and LastAccessed come
	// from the same clock.
	now func() time.Time
}

var _ PrefixCache = &Manager{}

// NewManager creates a Manager given a Config. A nil config uses defaults;
// an invalid config is a construction-time error.
func NewManager(ctx context.Context, config *Config) (*Manager, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid cache configuration: %w", err)
	}

	// Capacity enforcement runs before every insert, so the map itself
	// never reaches its size bound and never self-evicts.
	entries, err := simplelru.NewLRU[string, *CacheEntry](config.MaxEntries, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create entry map: %w", err)
	}

	var artifactStore artifacts.Store
	if config.ArtifactStoreConfig != nil {
		artifactStore, err = artifacts.NewStore(ctx, config.ArtifactStoreConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create artifact store: %w", err)
		}
	}

	klog.FromContext(ctx).WithName("promptcache").V(logging.DEFAULT).Info("cache initialized",
		"max-entries", config.MaxEntries,
		"max-memory-mb", config.MaxMemoryMB,
		"policy", config.EvictionPolicy)

	return &Manager{
		config:        config,
		index:         trie.New(),
		entries:       entries,
		artifactStore: artifactStore,
		now:           time.Now,
	}, nil
}

// New creates a PrefixCache given a Config, wrapping it with metrics
// instrumentation when enabled.
func New(ctx context.Context, config *Config) (PrefixCache, error) {
	manager, err := NewManager(ctx, config)
	if err != nil {
		return nil, err
	}

	if manager.config.EnableMetrics {
		return newInstrumentedCache(ctx, manager, manager.config.MetricsLoggingInterval), nil
	}
	return manager, nil
}

// Lookup finds the longest cached prefix of tokens. On a hit it refreshes
// the entry's access bookkeeping and recency position; on TTL expiry it
// evicts the stale entry before reporting the miss.
func (m *Manager) Lookup(ctx context.Context, tokens []int32) PrefixMatch {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalLookups++
	m.stats.TotalTokensRequested += uint64(len(tokens))

	debugLogger := klog.FromContext(ctx).V(logging.DEBUG).WithName("promptcache.Lookup")

	matchedLength, cacheKey := m.index.FindLongestPrefix(tokens)
	if cacheKey == "" || matchedLength < m.config.MinPrefixLength {
		return m.missLocked(len(tokens))
	}

	entry, ok := m.entries.Peek(cacheKey)
	if !ok {
		// The index pointed at a key the map no longer holds. Unreachable
		// while the synchrony invariant holds; tolerated as a miss.
		debugLogger.Info("index references unknown entry", "key", cacheKey)
		return m.missLocked(len(tokens))
	}

	if m.isExpired(entry) {
		m.evictEntryLocked(ctx, cacheKey)
		debugLogger.Info("entry expired on access", "key", cacheKey)
		return m.missLocked(len(tokens))
	}

	entry.LastAccessed = m.now()
	entry.AccessCount++
	m.entries.Get(cacheKey) // move to the MRU position

	m.stats.CacheHits++
	m.stats.TotalTokensServed += uint64(matchedLength)

	return PrefixMatch{
		MatchedTokens:   tokens[:matchedLength],
		MatchedLength:   matchedLength,
		TotalLength:     len(tokens),
		CacheKey:        cacheKey,
		RemainingTokens: tokens[matchedLength:],
		Hit:             true,
	}
}

// missLocked records a miss. Assumes the write lock is held.
func (m *Manager) missLocked(totalLength int) PrefixMatch {
	m.stats.CacheMisses++
	return PrefixMatch{TotalLength: totalLength}
}

// Store admits a KV entry for tokens and returns its content-address key.
// A sequence shorter than the configured minimum returns an empty key.
// Re-storing an existing sequence only refreshes its access bookkeeping.
// The function assumes tokens will not be mutated after the call.
func (m *Manager) Store(ctx context.Context, tokens []int32, artifact []byte, memoryBytes int64) (string, error) {
	debugLogger := klog.FromContext(ctx).V(logging.DEBUG).WithName("promptcache.Store")

	if len(tokens) < m.config.MinPrefixLength {
		debugLogger.Info("skipping store below minimum prefix length",
			"tokens", len(tokens), "min", m.config.MinPrefixLength)
		return "", nil
	}

	cacheKey := ComputeCacheKey(tokens)

	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.entries.Peek(cacheKey); ok {
		entry.LastAccessed = m.now()
		entry.AccessCount++
		m.entries.Get(cacheKey)
		return cacheKey, nil
	}

	if memoryBytes <= 0 {
		memoryBytes = int64(len(tokens)) * DefaultBytesPerToken
	}

	if err := m.ensureCapacityLocked(ctx, memoryBytes); err != nil {
		return "", err
	}

	createdAt := m.now()
	entry := &CacheEntry{
		CacheKey:     cacheKey,
		Tokens:       tokens,
		TokenCount:   len(tokens),
		MemoryBytes:  memoryBytes,
		CreatedAt:    createdAt,
		LastAccessed: createdAt,
	}

	if m.artifactStore != nil && artifact != nil {
		// Payload bytes live in the artifact store; the metadata entry stays
		// lean. A failed payload write fails the admission before the
		// map/index/bytes mutation starts.
		if err := m.artifactStore.Put(ctx, cacheKey, artifact, memoryBytes); err != nil {
			return "", fmt.Errorf("failed to store artifact for key %s: %w", cacheKey, err)
		}
	} else {
		entry.Artifact = artifact
	}

	m.entries.Add(cacheKey, entry)
	m.index.Insert(tokens, cacheKey)
	m.totalMemoryBytes += memoryBytes

	debugLogger.Info("stored entry", "key", cacheKey,
		"tokens", len(tokens), "memory-bytes", memoryBytes)
	return cacheKey, nil
}

// ensureCapacityLocked evicts entries until the new footprint fits under
// both the entry cap and the byte budget. Assumes the write lock is held.
func (m *Manager) ensureCapacityLocked(ctx context.Context, neededBytes int64) error {
	maxMemoryBytes := int64(m.config.MaxMemoryMB * 1024 * 1024)
	attempts := 0
	maxAttempts := m.entries.Len()

	for (m.entries.Len() >= m.config.MaxEntries ||
		m.totalMemoryBytes+neededBytes > maxMemoryBytes) && m.entries.Len() > 0 {
		attempts++
		if attempts > maxAttempts {
			return fmt.Errorf("%w: %d evictions freed too little for %d bytes",
				ErrCacheFull, attempts, neededBytes)
		}
		m.evictOneLocked(ctx)
	}

	return nil
}

// evictOneLocked removes one entry according to the configured policy.
// Assumes the write lock is held and the map is non-empty.
func (m *Manager) evictOneLocked(ctx context.Context) {
	switch m.config.EvictionPolicy {
	case PolicyLFU:
		var victim string
		var minAccess uint64
		found := false
		// Keys are ordered LRU-first, so the first minimum seen breaks
		// frequency ties toward the least recently used entry.
		for _, key := range m.entries.Keys() {
			entry, ok := m.entries.Peek(key)
			if !ok {
				continue
			}
			if !found || entry.AccessCount < minAccess {
				victim = key
				minAccess = entry.AccessCount
				found = true
			}
		}
		if found {
			m.evictEntryLocked(ctx, victim)
		}
	default: // PolicyLRU
		if oldest, _, ok := m.entries.GetOldest(); ok {
			m.evictEntryLocked(ctx, oldest)
		}
	}
}

// evictEntryLocked removes the entry for cacheKey from the map, the index,
// and the byte accounting as one composite operation. Assumes the write lock
// is held.
func (m *Manager) evictEntryLocked(ctx context.Context, cacheKey string) bool {
	entry, ok := m.entries.Peek(cacheKey)
	if !ok {
		return false
	}

	m.entries.Remove(cacheKey)
	m.index.Remove(entry.Tokens)
	m.totalMemoryBytes -= entry.MemoryBytes
	m.stats.Evictions++

	if m.artifactStore != nil {
		if err := m.artifactStore.Delete(ctx, cacheKey); err != nil {
			klog.FromContext(ctx).Error(err, "failed to delete artifact", "key", cacheKey)
		}
	}

	klog.FromContext(ctx).V(logging.DEBUG).WithName("promptcache.evict").
		Info("evicted entry", "key", cacheKey, "tokens", entry.TokenCount)
	return true
}

// Evict removes a specific entry, reporting whether it was present.
func (m *Manager) Evict(ctx context.Context, cacheKey string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evictEntryLocked(ctx, cacheKey)
}

// Clear drops all entries and replaces the index with a fresh tree. The
// accumulated counters are preserved.
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := m.entries.Len()

	if m.artifactStore != nil {
		for _, key := range m.entries.Keys() {
			if err := m.artifactStore.Delete(ctx, key); err != nil {
				klog.FromContext(ctx).Error(err, "failed to delete artifact", "key", key)
			}
		}
	}

	m.entries.Purge()
	m.index = trie.New()
	m.totalMemoryBytes = 0

	klog.FromContext(ctx).WithName("promptcache").V(logging.DEFAULT).
		Info("cache cleared", "entries-removed", count)
}

// Stats returns a snapshot of the cache counters with the live entry count
// and memory usage filled in.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := m.stats
	snapshot.EntriesCount = m.entries.Len()
	snapshot.MemoryUsedMB = float64(m.totalMemoryBytes) / (1024 * 1024)
	return snapshot
}

// GetEntry returns an entry by key without updating access tracking.
func (m *Manager) GetEntry(cacheKey string) (*CacheEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries.Peek(cacheKey)
}

// Artifact returns the opaque payload for a cached key. Payloads are served
// from the artifact store when one is configured, otherwise from the entry.
func (m *Manager) Artifact(ctx context.Context, cacheKey string) ([]byte, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries.Peek(cacheKey)
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	if m.artifactStore != nil {
		return m.artifactStore.Get(ctx, cacheKey)
	}
	return entry.Artifact, entry.Artifact != nil, nil
}

// isExpired reports whether entry has outlived the configured TTL. TTL is
// age since creation; accesses do not reset the window.
func (m *Manager) isExpired(entry *CacheEntry) bool {
	if m.config.DefaultTTLSeconds <= 0 {
		return false
	}
	return m.now().Sub(entry.CreatedAt).Seconds() > m.config.DefaultTTLSeconds
}
