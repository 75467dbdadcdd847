// Copyright 2025 The llm-d Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"k8s.io/klog/v2"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	Admissions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "promptcache", Subsystem: "store", Name: "admissions_total",
		Help: "Total number of cache entry admissions",
	})
	Evictions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "promptcache", Subsystem: "store", Name: "evictions_total",
		Help: "Total number of cache entry evictions",
	})

	// LookupRequests counts how many Lookup() calls have been made.
	LookupRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "promptcache", Subsystem: "store", Name: "lookup_requests_total",
		Help: "Total number of lookup calls",
	})
	// LookupHits counts how many lookups matched a cached prefix.
	LookupHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "promptcache", Subsystem: "store", Name: "lookup_hits_total",
		Help: "Number of lookups that matched a cached prefix",
	})
	// TokensServed counts the tokens served from cached prefixes.
	TokensServed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "promptcache", Subsystem: "store", Name: "tokens_served_total",
		Help: "Total number of tokens served from cached prefixes",
	})
	// LookupLatency logs latency of lookup calls.
	LookupLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "promptcache", Subsystem: "store", Name: "lookup_latency_seconds",
		Help:    "Latency of Lookup calls in seconds",
		Buckets: prometheus.DefBuckets,
	})
)

// Collectors returns a slice of all registered Prometheus collectors.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		Admissions, Evictions,
		LookupRequests, LookupHits, TokensServed, LookupLatency,
	}
}

var registerMetricsOnce = sync.Once{}

// Register registers all metrics with the controller-runtime registry.
func Register() {
	registerMetricsOnce.Do(func() {
		metrics.Registry.MustRegister(Collectors()...)
	})
}

// StartMetricsLogging spawns a goroutine that logs current metric values
// every interval until the context is cancelled.
func StartMetricsLogging(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logMetrics(ctx)
			}
		}
	}()
}

func logMetrics(ctx context.Context) {
	var m dto.Metric

	if err := Admissions.Write(&m); err != nil {
		return
	}
	admissions := m.GetCounter().GetValue()

	if err := Evictions.Write(&m); err != nil {
		return
	}
	evictions := m.GetCounter().GetValue()

	if err := LookupRequests.Write(&m); err != nil {
		return
	}
	lookups := m.GetCounter().GetValue()

	var hitsMetric dto.Metric
	if err := LookupHits.Write(&hitsMetric); err != nil {
		return
	}
	hits := hitsMetric.GetCounter().GetValue()

	var servedMetric dto.Metric
	if err := TokensServed.Write(&servedMetric); err != nil {
		return
	}
	served := servedMetric.GetCounter().GetValue()

	var latencyMetric dto.Metric
	if err := LookupLatency.Write(&latencyMetric); err != nil {
		return
	}
	latencyCount := latencyMetric.GetHistogram().GetSampleCount()
	latencySum := latencyMetric.GetHistogram().GetSampleSum()

	klog.FromContext(ctx).WithName("metrics").Info("metrics beat",
		"admissions", admissions,
		"evictions", evictions,
		"lookups", lookups,
		"hits", hits,
		"tokens_served", served,
		"latency_count", latencyCount,
		"latency_sum", latencySum,
	)
}
