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

// Package workflow defines the high-level orchestrations of a dashboard
// session, built as cor chains of the steps in steps.go.
package workflow

import (
	"context"
	"fmt"
	"sort"

	"github.com/jaycherian/olap-dashboard/internal/core/cor"
	"github.com/jaycherian/olap-dashboard/internal/core/model"
	"github.com/jaycherian/olap-dashboard/internal/core/services"
	"github.com/jaycherian/olap-dashboard/internal/core/store"
)

// BootstrapWorkflow runs when a session starts: it loads the country list and
// fetches the default tab.
type BootstrapWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

// NewBootstrapWorkflow builds the bootstrap chain for dashboard.
func NewBootstrapWorkflow(dashboard *services.Dashboard) *BootstrapWorkflow {
	out := &BootstrapWorkflow{BaseCommand: *cor.NewBaseCommand("dashboard-bootstrap")}
	chain := cor.NewBaseChain(out.GetName())
	chain.AddCommand(NewLoadCountries(dashboard))
	chain.AddCommand(NewFetchActiveTab(dashboard))
	out.chain = chain
	return out
}

func (b *BootstrapWorkflow) IsExecutable(context cor.Context) bool {
	return b.chain.IsExecutable(context)
}

// Execute runs the chain.
func (b *BootstrapWorkflow) Execute(context cor.Context) {
	b.chain.Execute(context)
}

// Bootstrap runs the bootstrap workflow and returns the outcome of the first fetch.
func Bootstrap(ctx context.Context, dashboard *services.Dashboard) services.Outcome {
	chCtx := cor.NewBaseContext()
	chCtx.SetContext(ctx)
	NewBootstrapWorkflow(dashboard).Execute(chCtx)
	outcome, _ := chCtx.Get(CtxOutcome).(services.Outcome)
	return outcome
}

// ChartsWorkflow is the one-shot pipeline behind the charts command: load the
// reference data, resolve and apply the requested filters, fetch, present.
type ChartsWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

// NewChartsWorkflow builds the pipeline. resolve may be nil when the session
// filters are used unchanged.
func NewChartsWorkflow(dashboard *services.Dashboard, resolve func([]model.Country) ([]store.Action, error)) *ChartsWorkflow {
	out := &ChartsWorkflow{BaseCommand: *cor.NewBaseCommand("dashboard-charts")}
	chain := cor.NewBaseChain(out.GetName())
	chain.AddCommand(NewLoadCountries(dashboard))
	chain.AddCommand(NewResolveFilters(resolve))
	chain.AddCommand(NewApplyFilters(dashboard))
	chain.AddCommand(NewFetchActiveTab(dashboard))
	chain.AddCommand(NewPresentCharts(dashboard))
	out.chain = chain
	return out
}

func (c *ChartsWorkflow) IsExecutable(context cor.Context) bool {
	return c.chain.IsExecutable(context)
}

// Execute runs the chain.
func (c *ChartsWorkflow) Execute(context cor.Context) {
	c.chain.Execute(context)
}

// RenderCharts runs the charts workflow and returns the fetch outcome and the
// charts of the active tab. The error reports a step that failed (for
// example a filter that could not be resolved); a failed fetch is reported
// in the outcome instead.
func RenderCharts(ctx context.Context, dashboard *services.Dashboard, resolve func([]model.Country) ([]store.Action, error)) (services.Outcome, []model.ChartSpec, error) {
	chCtx := cor.NewBaseContext()
	chCtx.SetContext(ctx)
	NewChartsWorkflow(dashboard, resolve).Execute(chCtx)

	outcome, _ := chCtx.Get(CtxOutcome).(services.Outcome)
	charts, _ := chCtx.Get(CtxCharts).([]model.ChartSpec)

	errs := chCtx.GetErrors()
	if len(errs) == 0 {
		return outcome, charts, nil
	}
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)
	return outcome, charts, fmt.Errorf("%s: %w", names[0], errs[names[0]])
}
