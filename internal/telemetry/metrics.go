// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments scraped from /metrics.
//
// Usage:
//
//	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)
//	metrics.BackendRequests.WithLabelValues("/api/filters/countries", "success").Inc()
type Metrics struct {
	// BackendRequests counts calls to the aggregation API.
	// Labels: endpoint, status (success|error)
	BackendRequests *prometheus.CounterVec

	// BackendDuration measures aggregation API latency in seconds.
	// Labels: endpoint
	BackendDuration *prometheus.HistogramVec

	// Batches counts dispatch batches by outcome.
	// Labels: tab, status (populated|partially-populated|failed|stale)
	Batches *prometheus.CounterVec

	// Suppressed counts dispatches dropped because the tab was already loading.
	// Labels: tab
	Suppressed *prometheus.CounterVec

	// InFlight is the number of tabs currently loading.
	InFlight prometheus.Gauge
}

// NewMetrics creates the instruments and registers them with reg. Tests pass
// a fresh prometheus.NewRegistry() so repeated construction does not collide.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BackendRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "olap_backend_requests_total",
				Help: "Total number of aggregation API requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),
		BackendDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "olap_backend_request_duration_seconds",
				Help:    "Duration of aggregation API requests in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint"},
		),
		Batches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "olap_dispatch_batches_total",
				Help: "Total number of dispatch batches by tab and resulting status",
			},
			[]string{"tab", "status"},
		),
		Suppressed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "olap_dispatch_suppressed_total",
				Help: "Dispatches ignored because a batch for the tab was in flight",
			},
			[]string{"tab"},
		),
		InFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "olap_dispatch_in_flight",
				Help: "Number of tabs with an outstanding batch",
			},
		),
	}
}
