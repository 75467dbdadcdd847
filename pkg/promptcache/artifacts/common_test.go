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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/llm-d/llm-d-prompt-cache-engine/pkg/promptcache/artifacts"
)

// testCommonStoreBehavior runs a shared test suite for any Store
// implementation. storeFactory should return a fresh store per test.
func testCommonStoreBehavior(t *testing.T, storeFactory func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("PutAndGet", func(t *testing.T) {
		store := storeFactory(t)
		testPutAndGet(t, ctx, store)
	})

	t.Run("GetMissing", func(t *testing.T) {
		store := storeFactory(t)
		testGetMissing(t, ctx, store)
	})

	t.Run("Overwrite", func(t *testing.T) {
		store := storeFactory(t)
		testOverwrite(t, ctx, store)
	})

	t.Run("Delete", func(t *testing.T) {
		store := storeFactory(t)
		testDelete(t, ctx, store)
	})

	t.Run("EmptyKeyRejected", func(t *testing.T) {
		store := storeFactory(t)
		err := store.Put(ctx, "", []byte("payload"), 7)
		assert.Error(t, err)
	})
}

func testPutAndGet(t *testing.T, ctx context.Context, store Store) {
	t.Helper()
	payload := []byte("opaque kv state")

	require.NoError(t, store.Put(ctx, "de9f9201383c914c", payload, int64(len(payload))))

	data, found, err := store.Get(ctx, "de9f9201383c914c")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, payload, data)
}

func testGetMissing(t *testing.T, ctx context.Context, store Store) {
	t.Helper()
	data, found, err := store.Get(ctx, "ffffffffffffffff")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, data)
}

func testOverwrite(t *testing.T, ctx context.Context, store Store) {
	t.Helper()
	require.NoError(t, store.Put(ctx, "bac02613b6f9456c", []byte("v1"), 2))
	require.NoError(t, store.Put(ctx, "bac02613b6f9456c", []byte("v2"), 2))

	data, found, err := store.Get(ctx, "bac02613b6f9456c")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("v2"), data)
}

func testDelete(t *testing.T, ctx context.Context, store Store) {
	t.Helper()
	require.NoError(t, store.Put(ctx, "ad95131bc0b799c0", []byte("payload"), 7))
	require.NoError(t, store.Delete(ctx, "ad95131bc0b799c0"))

	_, found, err := store.Get(ctx, "ad95131bc0b799c0")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting an absent key is not an error.
	assert.NoError(t, store.Delete(ctx, "ad95131bc0b799c0"))
}
