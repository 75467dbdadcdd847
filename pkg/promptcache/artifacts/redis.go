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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// redisKeyPrefix namespaces artifact records within the Redis keyspace.
const redisKeyPrefix = "promptcache:artifact:"

// RedisStoreConfig holds the configuration for the RedisStore.
type RedisStoreConfig struct {
	Address string `json:"address,omitempty"` // Redis server address
}

// DefaultRedisStoreConfig returns a default configuration for the RedisStore.
func DefaultRedisStoreConfig() *RedisStoreConfig {
	return &RedisStoreConfig{
		Address: "redis://127.0.0.1:6379",
	}
}

// artifactRecord is the msgpack-encoded value stored per key.
type artifactRecord struct {
	Data     []byte    `msgpack:"data"`
	Cost     int64     `msgpack:"cost"`
	StoredAt time.Time `msgpack:"storedAt"`
}

// NewRedisStore creates a new RedisStore instance.
func NewRedisStore(ctx context.Context, cfg *RedisStoreConfig) (*RedisStore, error) {
	if cfg == nil {
		cfg = DefaultRedisStoreConfig()
	}

	if !strings.HasPrefix(cfg.Address, "redis://") &&
		!strings.HasPrefix(cfg.Address, "rediss://") &&
		!strings.HasPrefix(cfg.Address, "unix://") {
		cfg.Address = "redis://" + cfg.Address
	}

	redisOpt, err := redis.ParseURL(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redisURL: %w", err)
	}

	redisClient := redis.NewClient(redisOpt)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{RedisClient: redisClient}, nil
}

// RedisStore implements the Store interface using Redis as the backend for
// artifact payloads. The prefix index itself stays process-local; Redis only
// holds the payload bytes this process admitted.
type RedisStore struct {
	RedisClient *redis.Client
}

var _ Store = &RedisStore{}

// Put stores data under key.
func (r *RedisStore) Put(ctx context.Context, key string, data []byte, cost int64) error {
	if key == "" {
		return fmt.Errorf("no key provided for artifact put")
	}

	record := artifactRecord{
		Data:     data,
		Cost:     cost,
		StoredAt: time.Now(),
	}

	encoded, err := msgpack.Marshal(&record)
	if err != nil {
		return fmt.Errorf("failed to encode artifact record: %w", err)
	}

	if err := r.RedisClient.Set(ctx, redisKeyPrefix+key, encoded, 0).Err(); err != nil {
		return fmt.Errorf("failed to store artifact in Redis: %w", err)
	}

	return nil
}

// Get retrieves the payload for key.
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	encoded, err := r.RedisClient.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read artifact from Redis: %w", err)
	}

	var record artifactRecord
	if err := msgpack.Unmarshal(encoded, &record); err != nil {
		return nil, false, fmt.Errorf("failed to decode artifact record: %w", err)
	}

	return record.Data, true, nil
}

// Delete drops the payload for key.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.RedisClient.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete artifact from Redis: %w", err)
	}
	return nil
}
