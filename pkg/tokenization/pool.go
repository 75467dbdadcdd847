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

package tokenization

import (
	"context"
	"sync"

	"k8s.io/client-go/util/workqueue"
	"k8s.io/klog/v2"
)

const defaultWorkers = 5

// PoolConfig holds the configuration for the admission Pool.
type PoolConfig struct {
	// Number of worker goroutines for processing admission tasks.
	WorkersCount int `json:"workersCount"`
}

// DefaultPoolConfig returns a default configuration for the admission Pool.
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		WorkersCount: defaultWorkers,
	}
}

// Admitter stores tokenized prompts. Satisfied by promptcache.PrefixCache.
type Admitter interface {
	Store(ctx context.Context, tokens []int32, artifact []byte, memoryBytes int64) (string, error)
}

// AdmissionResult holds the outcome of an admission task.
type AdmissionResult struct {
	Tokens   []int32
	CacheKey string
}

// Task represents a unit of work for tokenizing and admitting a prompt.
type Task struct {
	Prompt   string
	ResultCh chan<- AdmissionResult // nil => fire-and-forget
}

// Pool encapsulates the queue, the worker pool, and the target cache. It
// lets a serving layer warm the cache asynchronously; workers serialize
// through the cache's own lock.
type Pool struct {
	workers int
	queue   workqueue.TypedRateLimitingInterface[Task]
	wg      sync.WaitGroup
	cache   Admitter
}

// NewPool initializes an admission Pool with the specified number of workers
// and the provided cache.
func NewPool(config *PoolConfig, cache Admitter) *Pool {
	if config == nil {
		config = DefaultPoolConfig()
	}

	return &Pool{
		workers: config.WorkersCount,
		queue:   workqueue.NewTypedRateLimitingQueue(workqueue.DefaultTypedControllerRateLimiter[Task]()),
		cache:   cache,
	}
}

// EnqueueAdmission enqueues a new admission task.
// This method only enqueues the task and does not start processing it.
func (pool *Pool) EnqueueAdmission(prompt string) {
	pool.queue.Add(Task{Prompt: prompt})
}

// Admit queues a task and blocks until the result is available.
func (pool *Pool) Admit(prompt string) AdmissionResult {
	resultCh := make(chan AdmissionResult, 1)
	pool.queue.Add(Task{
		Prompt:   prompt,
		ResultCh: resultCh,
	})

	return <-resultCh
}

// Run launches worker goroutines that process tasks until the context is
// cancelled.
func (pool *Pool) Run(ctx context.Context) {
	for i := 0; i < pool.workers; i++ {
		pool.wg.Add(1)
		go pool.workerLoop(ctx)
	}

	<-ctx.Done()

	pool.queue.ShutDown()
	pool.wg.Wait()
}

// workerLoop is the main processing loop for each worker.
func (pool *Pool) workerLoop(ctx context.Context) {
	defer pool.wg.Done()
	for {
		task, shutdown := pool.queue.Get()
		if shutdown {
			return
		}

		if err := pool.processTask(ctx, task); err == nil {
			pool.queue.Forget(task)
		} else {
			pool.queue.AddRateLimited(task)
		}
		pool.queue.Done(task)
	}
}

// processTask tokenizes the prompt and admits it to the cache.
// It sends exactly one response if ResultCh is provided.
func (pool *Pool) processTask(ctx context.Context, task Task) error {
	tokens := Tokenize(task.Prompt)

	cacheKey, err := pool.cache.Store(ctx, tokens, nil, 0)
	if err != nil {
		klog.FromContext(ctx).Error(err, "failed to admit prompt", "tokens", len(tokens))
		return err
	}

	if task.ResultCh != nil {
		task.ResultCh <- AdmissionResult{
			Tokens:   tokens,
			CacheKey: cacheKey,
		}
		close(task.ResultCh)
	}

	return nil
}
