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

// Package workflow_test contains integration tests for the dashboard
// workflows. This file holds the suite setup: the test configuration and
// telemetry are initialized once in TestMain, and every test builds its own
// session against a fake aggregation backend.
package workflow_test

import (
	"context"
	"os"
	"testing"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"

	"github.com/jaycherian/olap-dashboard/internal/backend"
	"github.com/jaycherian/olap-dashboard/internal/config"
	"github.com/jaycherian/olap-dashboard/internal/core/services"
	"github.com/jaycherian/olap-dashboard/internal/core/store"
	"github.com/jaycherian/olap-dashboard/internal/telemetry"
	test "github.com/jaycherian/olap-dashboard/internal/testutil"
)

var (
	ctx context.Context
	cfg *config.Config
)

const tName = "github.com/jaycherian/olap-dashboard/tests/workflow"

var (
	tracer = otel.Tracer(tName)
	logger = otelslog.NewLogger(tName)
)

func TestMain(m *testing.M) {
	var cancel context.CancelFunc
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	cfg = test.GetConfig()

	closer, err := telemetry.SetupLogging(cfg.Telemetry)
	if err != nil {
		panic(err)
	}
	defer closer.Close()

	shutdown, err := telemetry.SetupOpenTelemetry(ctx, cfg)
	if err != nil {
		panic(err)
	}

	logger.Info("completed test setup")
	exitCode := m.Run()

	if err := shutdown(ctx); err != nil {
		logger.Error("failed to shutdown telemetry", "error", err)
	}
	os.Exit(exitCode)
}

// newSession builds a dashboard from the test configuration pointed at fake.
// The fake serves the Philippines and the United States with a few cities.
func newSession(t *testing.T) (*services.Dashboard, *test.Backend) {
	t.Helper()
	fake := test.NewBackend(t)
	fake.Countries(
		map[string]any{"id": "1", "name": "Philippines"},
		map[string]any{"id": "2", "name": "United States"},
	)
	fake.Cities("Philippines",
		map[string]any{"id": "10", "name": "Manila"},
		map[string]any{"id": "11", "name": "Quezon City"},
	)
	fake.Cities("United States", map[string]any{"id": "20", "name": "Austin"})

	backendCfg := fake.Config()
	client := backend.NewClient(backendCfg, nil)
	dash := services.NewDashboard(
		store.New(cfg.InitialFilters()),
		services.NewReferenceLoader(client, backendCfg.MaxParallel),
		services.NewDispatcher(client, nil, backendCfg.MaxParallel),
	)
	return dash, fake
}
