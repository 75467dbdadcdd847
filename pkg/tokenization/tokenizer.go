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

// Package tokenization provides the demonstration tokenizer and admission
// helpers used by the command wrapper and examples. Real deployments supply
// token IDs from their own tokenizer; the cache core never tokenizes.
package tokenization

import (
	"context"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/llm-d/llm-d-prompt-cache-engine/pkg/utils"
)

// vocabSize folds word hashes into a small demo ID space.
const vocabSize = 100000

// defaultBatchWorkers bounds the parallelism of TokenizeBatch.
const defaultBatchWorkers = 5

// Tokenize maps text to token IDs by whitespace-splitting and hashing each
// word. Deterministic across runs, demonstration only.
func Tokenize(text string) []int32 {
	return utils.SliceMap(strings.Fields(text), func(word string) int32 {
		return int32(xxhash.Sum64String(word) % vocabSize) // #nosec G115
	})
}

// TokenizeBatch tokenizes prompts with bounded parallelism, preserving
// input order.
func TokenizeBatch(ctx context.Context, prompts []string, workers int) ([][]int32, error) {
	if workers <= 0 {
		workers = defaultBatchWorkers
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	sequences := make([][]int32, len(prompts))
	for i, prompt := range prompts {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sequences[i] = Tokenize(prompt)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return sequences, nil
}
