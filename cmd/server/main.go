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

// Package main is the entry point of the dashboard service.
//
// Usage:
//
//	olap-dashboard serve
//	olap-dashboard charts --tab users --country Philippines --gender Male
//
// Configuration is read from configs/.env.toml and configs/.env.<runtime>.toml
// (OLAP_CONFIG_PREFIX and OLAP_RUNTIME); OLAP_API_BASE_URL overrides the
// aggregation backend address.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jaycherian/olap-dashboard/internal/api"
	"github.com/jaycherian/olap-dashboard/internal/core/model"
	"github.com/jaycherian/olap-dashboard/internal/core/workflow"
	"github.com/jaycherian/olap-dashboard/internal/telemetry"
)

func main() {
	root := &cobra.Command{
		Use:           "olap-dashboard",
		Short:         "Filter-and-fetch session over the OLAP aggregation API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(buildServeCmd(), buildChartsCmd())

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func buildServeCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API",
		Long: `Start the dashboard API.

On startup the country list is loaded and the default tab is fetched, then
the session is served under /api/v1 with /metrics and /healthz alongside.
Graceful shutdown is handled on SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), listen)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address (overrides application.listen_address)")
	return cmd
}

func runServe(ctx context.Context, listen string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Application.ListenAddress = listen
	}

	logCloser, err := telemetry.SetupLogging(cfg.Telemetry)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	slog.Info("Logging initialized")

	shutdown, err := telemetry.SetupOpenTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to setup OpenTelemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()
	slog.Info("Tracing initialized")

	st := InitState(ctx, cfg)
	slog.Info("Initialized State", "backend", st.client.BaseURL())

	outcome := workflow.Bootstrap(ctx, st.dashboard)
	slog.Info("Initial fetch", "tab", outcome.Tab, "status", outcome.Status, "failed", len(outcome.Failed))

	srv := &http.Server{
		Addr:    cfg.Application.ListenAddress,
		Handler: api.NewRouter(cfg.Application.Name, st.dashboard, st.registry),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen", "error", err)
			cancel()
		}
	}()
	slog.Info("Server Ready", "address", cfg.Application.ListenAddress)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	slog.Info("Server exiting")
	return nil
}

// chartsOptions are the flags of the charts command.
type chartsOptions struct {
	tab         string
	start       string
	end         string
	granularity string
	topN        int
	countries   []string
	cities      []string
	genders     []string
	ageGroups   []string
}

func buildChartsCmd() *cobra.Command {
	opts := &chartsOptions{}
	cmd := &cobra.Command{
		Use:   "charts",
		Short: "Fetch one tab and print its charts as JSON",
		Example: `  olap-dashboard charts --tab sales --granularity Day
  olap-dashboard charts --tab users --country Philippines --city 12 --gender Female`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCharts(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.tab, "tab", "", "Tab to fetch (orders, sales, users, products, riders)")
	f.StringVar(&opts.start, "start", "", "Start date, YYYY-MM-DD")
	f.StringVar(&opts.end, "end", "", "End date, YYYY-MM-DD")
	f.StringVar(&opts.granularity, "granularity", "", "Year, Quarter, Month or Day")
	f.IntVar(&opts.topN, "top-n", 0, "Number of ranked items (1-7)")
	f.StringSliceVar(&opts.countries, "country", nil, "Country name or id (repeatable)")
	f.StringSliceVar(&opts.cities, "city", nil, "City id (repeatable)")
	f.StringSliceVar(&opts.genders, "gender", nil, "Male or Female (repeatable)")
	f.StringSliceVar(&opts.ageGroups, "age-group", nil, "Age band such as 18-24 (repeatable)")
	return cmd
}

func runCharts(cmd *cobra.Command, opts *chartsOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	if opts.tab != "" {
		tab, ok := model.ParseTab(opts.tab)
		if !ok {
			return fmt.Errorf("invalid --tab %q", opts.tab)
		}
		cfg.Dashboard.ActiveTab = string(tab)
	}
	// Charts go to stdout, logs to stderr.
	slog.SetDefault(slog.New(telemetry.NewLogHandler(cmd.ErrOrStderr(), telemetry.ParseLevel(cfg.Telemetry.LogLevel))))

	actions, err := opts.actions()
	if err != nil {
		return err
	}
	st := InitState(ctx, cfg)
	report, err := renderCharts(ctx, st, opts, actions)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), report)
}
