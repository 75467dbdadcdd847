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

package artifacts

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/dustin/go-humanize"
	"k8s.io/klog/v2"

	"github.com/llm-d/llm-d-prompt-cache-engine/pkg/utils/logging"
)

const (
	defaultNumCounters = 1e7 // 10M keys
	defaultBufferItems = 64  // default buffer size for ristretto
)

// CostAwareMemoryStoreConfig holds the configuration for the
// CostAwareMemoryStore.
type CostAwareMemoryStoreConfig struct {
	// Size is the maximum memory size that can be used by the store.
	// Supports human-readable formats like "2GiB", "500MiB", "1GB", etc.
	Size string `json:"size,omitempty"`
}

// DefaultCostAwareMemoryStoreConfig returns a default configuration for the
// CostAwareMemoryStore.
func DefaultCostAwareMemoryStoreConfig() *CostAwareMemoryStoreConfig {
	return &CostAwareMemoryStoreConfig{
		Size: "2GiB",
	}
}

// NewCostAwareMemoryStore creates a new CostAwareMemoryStore instance.
func NewCostAwareMemoryStore(cfg *CostAwareMemoryStoreConfig) (*CostAwareMemoryStore, error) {
	if cfg == nil {
		cfg = DefaultCostAwareMemoryStoreConfig()
	}

	sizeBytes, err := humanize.ParseBytes(cfg.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cost-aware artifact store: %w", err)
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: defaultNumCounters,
		MaxCost:     int64(sizeBytes), // #nosec G115
		BufferItems: defaultBufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cost-aware artifact store: %w", err)
	}

	return &CostAwareMemoryStore{data: cache}, nil
}

// CostAwareMemoryStore implements the Store interface using a Ristretto
// cache for cost-aware memory management. Payloads may be dropped by
// Ristretto's admission policy when the configured budget is exhausted;
// callers treat a missing payload as a recomputable miss.
type CostAwareMemoryStore struct {
	data *ristretto.Cache[string, []byte]
}

var _ Store = &CostAwareMemoryStore{}

// Put stores data under key with its byte footprint as the eviction cost.
func (m *CostAwareMemoryStore) Put(ctx context.Context, key string, data []byte, cost int64) error {
	if key == "" {
		return fmt.Errorf("no key provided for artifact put")
	}

	if cost <= 0 {
		cost = int64(len(data))
	}

	m.data.Set(key, data, cost)
	m.data.Wait()

	klog.FromContext(ctx).V(logging.TRACE).WithName("artifacts.CostAwareMemoryStore.Put").
		Info("stored artifact", "key", key, "cost-bytes", cost)
	return nil
}

// Get retrieves the payload for key.
func (m *CostAwareMemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, found := m.data.Get(key)
	return data, found, nil
}

// Delete drops the payload for key.
func (m *CostAwareMemoryStore) Delete(_ context.Context, key string) error {
	m.data.Del(key)
	m.data.Wait()
	return nil
}
