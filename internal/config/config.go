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

// Package config defines the data structures for application configuration,
// loaded from TOML files.
//
// Structs:
//   - Backend: Connection settings for the aggregation API.
//   - Telemetry: Exporter and logging settings.
//   - Dashboard: Initial filter values for a new dashboard session.
//   - Config: The top-level struct that aggregates all other configuration structs.
//
// Functions:
//   - NewConfig: A constructor that returns a Config populated with defaults.
package config

import (
	"time"

	"github.com/jaycherian/olap-dashboard/internal/core/model"
)

// DefaultBackendURL is used when neither the TOML files nor OLAP_API_BASE_URL
// name an aggregation backend.
const DefaultBackendURL = "http://localhost:5000"

// Backend holds the settings of the HTTP client used to reach the aggregation API.
type Backend struct {
	BaseURL              string `toml:"base_url"`                // Root URL of the aggregation API, without the /api suffix.
	TimeoutSeconds       int    `toml:"timeout_seconds"`         // Per request timeout.
	MaxRequestsPerSecond int    `toml:"max_requests_per_second"` // Outbound rate limit; zero disables limiting.
	Burst                int    `toml:"burst"`                   // Burst size of the outbound limiter.
	MaxParallel          int    `toml:"max_parallel"`            // Maximum concurrent requests of a single batch.
}

// Timeout returns the request timeout as a duration.
func (b Backend) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// Telemetry controls where traces, metrics and logs go.
type Telemetry struct {
	Exporter string `toml:"exporter"`  // "gcp" exports to Cloud Trace / Monitoring, "none" keeps SDK providers local.
	LogFile  string `toml:"log_file"`  // Optional log file mirrored with stdout.
	LogLevel string `toml:"log_level"` // debug, info, warn or error.
}

// Dashboard holds the initial sidebar values of a session.
type Dashboard struct {
	StartDate   string `toml:"start_date"`
	EndDate     string `toml:"end_date"`
	Granularity string `toml:"time_granularity"`
	ActiveTab   string `toml:"active_tab"`
	TopN        int    `toml:"top_n"`
}

// Config represents the overall configuration for the application, loaded from TOML files.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name            string `toml:"name"`              // The name of the application.
		GoogleProjectId string `toml:"google_project_id"` // The Google Cloud project ID used by the exporters.
		ListenAddress   string `toml:"listen_address"`    // Address the dashboard API binds to.
	} `toml:"application"`
	Backend   Backend   `toml:"backend"`
	Telemetry Telemetry `toml:"telemetry"`
	Dashboard Dashboard `toml:"dashboard"`
}

// NewConfig creates a Config populated with the defaults used when no file
// overrides them.
func NewConfig() *Config {
	c := &Config{
		Backend: Backend{
			BaseURL:              DefaultBackendURL,
			TimeoutSeconds:       10,
			MaxRequestsPerSecond: 20,
			Burst:                20,
			MaxParallel:          8,
		},
		Telemetry: Telemetry{Exporter: "none", LogLevel: "info"},
		Dashboard: Dashboard{
			StartDate:   "2025-01-01",
			EndDate:     "2025-01-31",
			Granularity: string(model.Month),
			ActiveTab:   string(model.TabOrders),
			TopN:        model.DefaultTopN,
		},
	}
	c.Application.Name = "olap-dashboard"
	c.Application.ListenAddress = ":8080"
	return c
}

// InitialFilters converts the dashboard section into a filter state. Values
// that do not parse fall back to the defaults.
func (c *Config) InitialFilters() model.FilterState {
	state := model.DefaultFilterState()
	if start, err := model.ParseDate(c.Dashboard.StartDate); err == nil {
		state.DateRange.Start = start
	}
	if end, err := model.ParseDate(c.Dashboard.EndDate); err == nil {
		state.DateRange.End = end
	}
	if !state.DateRange.Valid() {
		state.DateRange.End = state.DateRange.Start
	}
	if g, ok := model.ParseGranularity(c.Dashboard.Granularity); ok {
		state.Granularity = g
	}
	if t, ok := model.ParseTab(c.Dashboard.ActiveTab); ok {
		state.ActiveTab = t
	}
	if c.Dashboard.TopN != 0 {
		state.TopN = model.ClampTopN(c.Dashboard.TopN)
	}
	return state
}
