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

// Package artifacts provides pluggable stores for the opaque KV payload
// bytes associated with cached prefixes. The cache store keeps metadata and
// routing; an artifact store keeps the payload itself.
package artifacts

import (
	"context"
	"fmt"
)

// Config holds the configuration for the artifact store.
// It may configure several backends such as listed within the struct.
// If multiple backends are configured, only the first one will be used.
type Config struct {
	// InMemoryConfig holds the configuration for the in-memory store.
	InMemoryConfig *InMemoryStoreConfig `json:"inMemoryConfig,omitempty"`
	// CostAwareMemoryConfig holds the configuration for the cost-aware
	// memory store.
	CostAwareMemoryConfig *CostAwareMemoryStoreConfig `json:"costAwareMemoryConfig,omitempty"`
	// RedisConfig holds the configuration for the Redis store.
	RedisConfig *RedisStoreConfig `json:"redisConfig,omitempty"`
}

// DefaultConfig returns a default configuration for the artifact store.
func DefaultConfig() *Config {
	return &Config{
		InMemoryConfig: DefaultInMemoryStoreConfig(),
	}
}

// Store defines the interface for a backend that holds KV payload bytes
// keyed by content-address cache keys. The payload is never interpreted.
type Store interface {
	// Put stores data under key. The cost is the payload's byte footprint
	// and is advisory for backends without cost-based admission.
	Put(ctx context.Context, key string, data []byte, cost int64) error
	// Get retrieves the payload for key. The boolean reports presence.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Delete drops the payload for key. Deleting an absent key is not an
	// error.
	Delete(ctx context.Context, key string) error
}

// NewStore creates a Store instance for the first configured backend.
func NewStore(ctx context.Context, cfg *Config) (Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	switch {
	case cfg.InMemoryConfig != nil:
		store, err := NewInMemoryStore(cfg.InMemoryConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory artifact store: %w", err)
		}
		return store, nil
	case cfg.CostAwareMemoryConfig != nil:
		store, err := NewCostAwareMemoryStore(cfg.CostAwareMemoryConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create cost-aware artifact store: %w", err)
		}
		return store, nil
	case cfg.RedisConfig != nil:
		store, err := NewRedisStore(ctx, cfg.RedisConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis artifact store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("no valid artifact store configuration provided")
	}
}
