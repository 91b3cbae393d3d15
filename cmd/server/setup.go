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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jaycherian/olap-dashboard/internal/backend"
	"github.com/jaycherian/olap-dashboard/internal/config"
	"github.com/jaycherian/olap-dashboard/internal/core/services"
	"github.com/jaycherian/olap-dashboard/internal/core/store"
	"github.com/jaycherian/olap-dashboard/internal/telemetry"
)

// StateManager holds the shared components of a dashboard process.
type StateManager struct {
	config    *config.Config
	registry  *prometheus.Registry
	metrics   *telemetry.Metrics
	client    *backend.Client
	dashboard *services.Dashboard
}

var state = &StateManager{}

// SetupOS points the configuration loader at the configs directory unless the
// caller already chose one, and defaults the runtime to "local".
func SetupOS() error {
	if _, ok := os.LookupEnv(config.EnvConfigFilePrefix); !ok {
		if err := os.Setenv(config.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if _, ok := os.LookupEnv(config.EnvConfigRuntime); !ok {
		return os.Setenv(config.EnvConfigRuntime, "local")
	}
	return nil
}

// GetConfig loads the configuration once per process.
func GetConfig() (*config.Config, error) {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			return nil, fmt.Errorf("failed to setup os: %w", err)
		}
		cfg := config.NewConfig()
		if err := config.LoadConfig(cfg); err != nil {
			return nil, err
		}
		state.config = cfg
	}
	return state.config, nil
}

// InitState wires the backend client, reference loader, dispatcher and
// filter store into a dashboard session. Metrics are registered on a private
// registry served by /metrics.
func InitState(_ context.Context, cfg *config.Config) *StateManager {
	state.config = cfg
	state.registry = prometheus.NewRegistry()
	state.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	state.metrics = telemetry.NewMetrics(state.registry)
	state.client = backend.NewClient(cfg.Backend, state.metrics)

	reference := services.NewReferenceLoader(state.client, cfg.Backend.MaxParallel)
	dispatcher := services.NewDispatcher(state.client, state.metrics, cfg.Backend.MaxParallel)
	state.dashboard = services.NewDashboard(store.New(cfg.InitialFilters()), reference, dispatcher)
	return state
}
