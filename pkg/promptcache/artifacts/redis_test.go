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

package artifacts_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/llm-d/llm-d-prompt-cache-engine/pkg/promptcache/artifacts"
)

func createRedisStoreForTesting(t *testing.T) artifacts.Store {
	t.Helper()
	server := miniredis.RunT(t)

	store, err := artifacts.NewRedisStore(context.Background(), &artifacts.RedisStoreConfig{
		Address: server.Addr(),
	})
	require.NoError(t, err)
	return store
}

func TestRedisStoreBehavior(t *testing.T) {
	testCommonStoreBehavior(t, createRedisStoreForTesting)
}
