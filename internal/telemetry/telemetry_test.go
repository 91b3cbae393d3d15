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

package telemetry_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/jaycherian/olap-dashboard/internal/telemetry"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, telemetry.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, telemetry.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, telemetry.ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, telemetry.ParseLevel("verbose"))
}

func TestLogHandlerCloudLoggingFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(telemetry.NewLogHandler(&buf, slog.LevelDebug)).With("component", "test")

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "span")
	logger.WarnContext(ctx, "slow backend")
	span.End()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARNING", entry["severity"])
	assert.Equal(t, "slow backend", entry["message"])
	assert.Equal(t, "test", entry["component"])
	assert.Contains(t, entry, "timestamp")
	assert.Equal(t, span.SpanContext().TraceID().String(), entry["logging.googleapis.com/trace"])
	assert.Equal(t, span.SpanContext().SpanID().String(), entry["logging.googleapis.com/spanId"])
}

func TestLogHandlerWithoutSpan(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(telemetry.NewLogHandler(&buf, slog.LevelInfo))
	logger.Debug("hidden")
	logger.Info("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.NotContains(t, entry, "logging.googleapis.com/trace")
}

func TestNewMetricsRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := telemetry.NewMetrics(reg)

	m.BackendRequests.WithLabelValues("/api/filters/countries", "success").Inc()
	m.Batches.WithLabelValues("orders", "populated").Add(2)
	m.InFlight.Set(1)

	assert.Equal(t, 1.0, promtest.ToFloat64(m.BackendRequests.WithLabelValues("/api/filters/countries", "success")))
	assert.Equal(t, 2.0, promtest.ToFloat64(m.Batches.WithLabelValues("orders", "populated")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.InFlight))

	// A second set on a fresh registry must not collide.
	assert.NotPanics(t, func() { telemetry.NewMetrics(prometheus.NewRegistry()) })
}
