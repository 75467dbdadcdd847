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
	"fmt"
	"time"

	"github.com/llm-d/llm-d-prompt-cache-engine/pkg/promptcache/artifacts"
)

// DefaultBytesPerToken is the byte footprint assumed per cached token when
// the caller supplies none: K + V, fp16, typical hidden dimension.
const DefaultBytesPerToken = 2048

const (
	defaultMaxEntries      = 10000
	defaultMaxMemoryMB     = 1024.0
	defaultMinPrefixLength = 4
)

// EvictionPolicy selects how the cache frees room under pressure.
type EvictionPolicy string

const (
	// PolicyLRU evicts the least recently used entry.
	PolicyLRU EvictionPolicy = "lru"
	// PolicyLFU evicts the least frequently used entry.
	PolicyLFU EvictionPolicy = "lfu"
)

// Config holds the configuration for the prefix cache.
type Config struct {
	// MaxEntries is the hard cap on live entries.
	MaxEntries int `json:"maxEntries"`
	// MaxMemoryMB is the hard cap on the aggregate byte footprint, in MiB.
	MaxMemoryMB float64 `json:"maxMemoryMB"`
	// DefaultTTLSeconds invalidates entries older than this on access.
	// Zero disables TTL.
	DefaultTTLSeconds float64 `json:"defaultTTLSeconds"`
	// EvictionPolicy is "lru" or "lfu".
	EvictionPolicy EvictionPolicy `json:"evictionPolicy"`
	// MinPrefixLength is the minimum token count to admit or report a match.
	MinPrefixLength int `json:"minPrefixLength"`

	// ArtifactStoreConfig, when set, routes KV payload bytes to a pluggable
	// artifact store instead of holding them inline on the entry.
	ArtifactStoreConfig *artifacts.Config `json:"artifactStoreConfig,omitempty"`

	// EnableMetrics toggles whether admissions, evictions, lookups, hits,
	// served tokens and lookup latency are recorded.
	EnableMetrics bool `json:"enableMetrics"`
	// MetricsLoggingInterval defines the interval at which metrics are logged.
	// If zero, metrics logging is disabled.
	// Requires `EnableMetrics` to be true.
	MetricsLoggingInterval time.Duration `json:"metricsLoggingInterval"`
}

// DefaultConfig returns a default configuration for the prefix cache.
func DefaultConfig() *Config {
	return &Config{
		MaxEntries:      defaultMaxEntries,
		MaxMemoryMB:     defaultMaxMemoryMB,
		EvictionPolicy:  PolicyLRU,
		MinPrefixLength: defaultMinPrefixLength,
	}
}

// validate rejects out-of-bounds fields at construction time.
func (c *Config) validate() error {
	if c.MaxEntries < 1 {
		return fmt.Errorf("maxEntries must be >= 1, got %d", c.MaxEntries)
	}
	if c.MaxMemoryMB <= 0 {
		return fmt.Errorf("maxMemoryMB must be > 0, got %g", c.MaxMemoryMB)
	}
	if c.DefaultTTLSeconds < 0 {
		return fmt.Errorf("defaultTTLSeconds must be >= 0, got %g", c.DefaultTTLSeconds)
	}
	if c.EvictionPolicy != PolicyLRU && c.EvictionPolicy != PolicyLFU {
		return fmt.Errorf("evictionPolicy must be %q or %q, got %q", PolicyLRU, PolicyLFU, c.EvictionPolicy)
	}
	if c.MinPrefixLength < 1 {
		return fmt.Errorf("minPrefixLength must be >= 1, got %d", c.MinPrefixLength)
	}
	return nil
}
