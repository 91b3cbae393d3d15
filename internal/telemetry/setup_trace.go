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

// Package telemetry provides utilities for setting up and configuring
// application observability, including logging, tracing, and metrics.
// This file focuses on initializing the OpenTelemetry SDK for capturing and
// exporting trace and metric data to Google Cloud's observability suite.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	mexporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/metric"
	telemetryexporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"go.opentelemetry.io/contrib/detectors/gcp"
	"go.opentelemetry.io/contrib/propagators/autoprop"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"

	"github.com/jaycherian/olap-dashboard/internal/config"
)

// ExporterGCP selects the Cloud Trace and Cloud Monitoring exporters.
const ExporterGCP = "gcp"

// MeterName is the instrumentation scope of the dashboard's own instruments.
const MeterName = "github.com/jaycherian/olap-dashboard"

// SetupOpenTelemetry initializes the trace and meter providers and registers
// them globally. With the "gcp" exporter the providers ship data to Google
// Cloud; with any other value they run without exporters so spans and
// instruments still work in tests and local runs.
//
// Inputs:
//   - ctx: The context for resource detection.
//   - cfg: The loaded application configuration.
//
// Outputs:
//   - shutdown: Flushes and stops every provider that was started.
//   - err: Resource or exporter initialization failure.
func SetupOpenTelemetry(ctx context.Context, cfg *config.Config) (shutdown func(context.Context) error, err error) {
	var shutdownFuncs []func(context.Context) error

	shutdown = func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}

	detectors := []resource.Detector{}
	if cfg.Telemetry.Exporter == ExporterGCP {
		detectors = append(detectors, gcp.NewDetector())
	}
	res, err := resource.New(ctx,
		resource.WithDetectors(detectors...),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.Application.Name),
		),
	)
	if errors.Is(err, resource.ErrPartialResource) || errors.Is(err, resource.ErrSchemaURLConflict) {
		slog.Warn("partial resource detection", "error", err)
	} else if err != nil {
		slog.Error("resource.New failed", "error", err)
		return nil, err
	}

	otel.SetTextMapPropagator(autoprop.NewTextMapPropagator())

	traceOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	meterOpts := []metric.Option{metric.WithResource(res)}

	if cfg.Telemetry.Exporter == ExporterGCP {
		traceExporter, err := telemetryexporter.New(telemetryexporter.WithProjectID(cfg.Application.GoogleProjectId))
		if err != nil {
			return nil, fmt.Errorf("unable to set up trace exporter: %w", err)
		}
		traceOpts = append(traceOpts, sdktrace.WithBatcher(traceExporter))

		mExporter, err := mexporter.New(mexporter.WithProjectID(cfg.Application.GoogleProjectId))
		if err != nil {
			return nil, fmt.Errorf("unable to set up metric exporter: %w", err)
		}
		meterOpts = append(meterOpts, metric.WithReader(metric.NewPeriodicReader(mExporter)))
	}

	tp := sdktrace.NewTracerProvider(traceOpts...)
	shutdownFuncs = append(shutdownFuncs, tp.Shutdown)
	otel.SetTracerProvider(tp)

	mProvider := metric.NewMeterProvider(meterOpts...)
	shutdownFuncs = append(shutdownFuncs, mProvider.Shutdown)
	otel.SetMeterProvider(mProvider)

	slog.Info("telemetry initialized", "exporter", cfg.Telemetry.Exporter, "service", cfg.Application.Name)
	return shutdown, nil
}
