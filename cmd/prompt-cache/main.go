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

// prompt-cache is a thin command wrapper around the prefix cache engine:
// `analyze` reports prefix-sharing potential across prompts, `demo` runs the
// prompts through a live cache and prints the resulting statistics.
package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"

	"github.com/llm-d/llm-d-prompt-cache-engine/pkg/promptcache"
	"github.com/llm-d/llm-d-prompt-cache-engine/pkg/tokenization"
)

func main() {
	app := &cli.App{
		Name:  "prompt-cache",
		Usage: "KV cache sharing for prompt prefix deduplication",
		Commands: []*cli.Command{
			analyzeCommand(),
			demoCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		klog.Error(err, "command failed")
		os.Exit(1)
	}
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Analyze prefix sharing potential across prompts",
		ArgsUsage: "<prompt>...",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "min-prefix",
				Usage: "Minimum prefix length in tokens",
				Value: 4,
			},
		},
		Action: func(c *cli.Context) error {
			prompts := c.Args().Slice()
			if len(prompts) == 0 {
				return fmt.Errorf("at least one prompt is required")
			}

			config := promptcache.DefaultConfig()
			config.MinPrefixLength = c.Int("min-prefix")

			cache, err := promptcache.New(c.Context, config)
			if err != nil {
				return err
			}

			sequences, err := tokenization.TokenizeBatch(c.Context, prompts, 0)
			if err != nil {
				return err
			}

			printBatchAnalysis(cache.AnalyzeBatch(sequences))
			return nil
		},
	}
}

func demoCommand() *cli.Command {
	return &cli.Command{
		Name:      "demo",
		Usage:     "Run a demo of the cache engine with the given prompts",
		ArgsUsage: "<prompt>...",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "max-entries",
				Usage: "Maximum cache entries",
				Value: 1000,
			},
			&cli.IntFlag{
				Name:  "min-prefix",
				Usage: "Minimum prefix length in tokens",
				Value: 4,
			},
			&cli.StringFlag{
				Name:  "max-memory",
				Usage: "Memory budget, e.g. \"512MiB\" or \"1GiB\"",
				Value: "1GiB",
			},
			&cli.StringFlag{
				Name:  "policy",
				Usage: "Eviction policy: lru or lfu",
				Value: string(promptcache.PolicyLRU),
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "Entry time-to-live (0 disables expiry)",
			},
		},
		Action: runDemo,
	}
}

func runDemo(c *cli.Context) error {
	prompts := c.Args().Slice()
	if len(prompts) == 0 {
		return fmt.Errorf("at least one prompt is required")
	}

	maxMemoryBytes, err := humanize.ParseBytes(c.String("max-memory"))
	if err != nil {
		return fmt.Errorf("invalid --max-memory value: %w", err)
	}

	config := promptcache.DefaultConfig()
	config.MaxEntries = c.Int("max-entries")
	config.MinPrefixLength = c.Int("min-prefix")
	config.MaxMemoryMB = float64(maxMemoryBytes) / (1024 * 1024)
	config.EvictionPolicy = promptcache.EvictionPolicy(c.String("policy"))
	config.DefaultTTLSeconds = c.Duration("ttl").Seconds()

	cache, err := promptcache.New(c.Context, config)
	if err != nil {
		return err
	}

	fmt.Printf("Processing %d prompts...\n\n", len(prompts))

	ctx := c.Context
	for _, prompt := range prompts {
		tokens := tokenization.Tokenize(prompt)
		match := cache.Lookup(ctx, tokens)

		if match.Hit {
			fmt.Printf("HIT:  %q (%d/%d tokens cached)\n",
				truncate(prompt, 50), match.MatchedLength, match.TotalLength)
			continue
		}

		if _, err := cache.Store(ctx, tokens, nil, 0); err != nil {
			return err
		}
		fmt.Printf("MISS: %q (%d tokens stored)\n", truncate(prompt, 50), len(tokens))
	}

	fmt.Println()
	printStatsReport(cache.Stats())
	return nil
}

func printStatsReport(stats promptcache.Stats) {
	fmt.Println("=== Prompt Cache Engine Statistics ===")
	fmt.Printf("Entries:          %d\n", stats.EntriesCount)
	fmt.Printf("Memory Used:      %s\n", humanize.IBytes(uint64(stats.MemoryUsedMB*1024*1024)))
	fmt.Printf("Total Lookups:    %d\n", stats.TotalLookups)
	fmt.Printf("Cache Hits:       %d\n", stats.CacheHits)
	fmt.Printf("Cache Misses:     %d\n", stats.CacheMisses)
	fmt.Printf("Hit Rate:         %.1f%%\n", stats.HitRate()*100)
	fmt.Printf("Tokens Served:    %d\n", stats.TotalTokensServed)
	fmt.Printf("Tokens Requested: %d\n", stats.TotalTokensRequested)
	fmt.Printf("Token Savings:    %.1f%%\n", stats.TokenSavingsRate()*100)
	fmt.Printf("Evictions:        %d\n", stats.Evictions)
	fmt.Println("=====================================")
}

func printBatchAnalysis(analysis promptcache.BatchAnalysis) {
	fmt.Println("=== Batch Prefix Analysis ===")
	fmt.Printf("Batch Size:       %d\n", analysis.BatchSize)
	fmt.Printf("Unique Prefixes:  %d\n", analysis.UniquePrefixes)
	fmt.Printf("Total Tokens:     %d\n", analysis.TotalTokens)
	fmt.Printf("Saveable Tokens:  %d\n", analysis.PotentialSavingsTokens)
	fmt.Printf("Dedup Ratio:      %.1f%%\n", analysis.DedupRatio()*100)

	if len(analysis.SharedPrefixGroups) > 0 {
		fmt.Println("Shared Groups:")
		for key, indices := range analysis.SharedPrefixGroups {
			fmt.Printf("  %s: %d prompts\n", key, len(indices))
		}
	}
	fmt.Println("==============================")
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
