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

	lru "github.com/hashicorp/golang-lru/v2"
	"k8s.io/klog/v2"

	"github.com/llm-d/llm-d-prompt-cache-engine/pkg/utils/logging"
)

// defaultInMemoryStoreSize bounds the number of payloads held; the cache
// store's own capacity limits keep the live set far below this.
const defaultInMemoryStoreSize = 100000

// InMemoryStoreConfig holds the configuration for the InMemoryStore.
type InMemoryStoreConfig struct {
	// Size is the maximum number of payloads the store can hold.
	Size int `json:"size"`
}

// DefaultInMemoryStoreConfig returns a default configuration for the
// InMemoryStore.
func DefaultInMemoryStoreConfig() *InMemoryStoreConfig {
	return &InMemoryStoreConfig{
		Size: defaultInMemoryStoreSize,
	}
}

// NewInMemoryStore creates a new InMemoryStore instance.
func NewInMemoryStore(cfg *InMemoryStoreConfig) (*InMemoryStore, error) {
	if cfg == nil {
		cfg = DefaultInMemoryStoreConfig()
	}

	cache, err := lru.New[string, []byte](cfg.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize in-memory artifact store: %w", err)
	}

	return &InMemoryStore{data: cache}, nil
}

// InMemoryStore is an in-memory implementation of the Store interface backed
// by an LRU cache.
type InMemoryStore struct {
	data *lru.Cache[string, []byte]
}

var _ Store = &InMemoryStore{}

// Put stores data under key.
func (m *InMemoryStore) Put(ctx context.Context, key string, data []byte, _ int64) error {
	if key == "" {
		return fmt.Errorf("no key provided for artifact put")
	}

	m.data.Add(key, data)
	klog.FromContext(ctx).V(logging.TRACE).WithName("artifacts.InMemoryStore.Put").
		Info("stored artifact", "key", key, "bytes", len(data))
	return nil
}

// Get retrieves the payload for key.
func (m *InMemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, found := m.data.Get(key)
	return data, found, nil
}

// Delete drops the payload for key.
func (m *InMemoryStore) Delete(_ context.Context, key string) error {
	m.data.Remove(key)
	return nil
}
