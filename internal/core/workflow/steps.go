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

package workflow

import (
	"fmt"

	"github.com/jaycherian/olap-dashboard/internal/core/cor"
	"github.com/jaycherian/olap-dashboard/internal/core/model"
	"github.com/jaycherian/olap-dashboard/internal/core/services"
	"github.com/jaycherian/olap-dashboard/internal/core/store"
)

// Context keys shared by the dashboard workflows.
const (
	CtxCountries = "countries"
	CtxActions   = "filter_actions"
	CtxFilters   = "filters"
	CtxOutcome   = "outcome"
	CtxCharts    = "charts"
)

// sessionCommand is embedded by the steps that act on a dashboard session.
type sessionCommand struct {
	cor.BaseCommand
	dashboard *services.Dashboard
}

func newSessionCommand(name string, dashboard *services.Dashboard) sessionCommand {
	return sessionCommand{BaseCommand: *cor.NewBaseCommand(name), dashboard: dashboard}
}

func (s *sessionCommand) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil && s.dashboard != nil
}

// LoadCountries populates the country list. An empty list is not an error:
// the dropdown simply has no options.
type LoadCountries struct {
	sessionCommand
}

func NewLoadCountries(dashboard *services.Dashboard) *LoadCountries {
	out := &LoadCountries{sessionCommand: newSessionCommand("load-countries", dashboard)}
	out.OutputParamName = CtxCountries
	return out
}

func (l *LoadCountries) Execute(context cor.Context) {
	countries := l.dashboard.LoadCountries(context.GetContext())
	l.Succeeded(context)
	context.Add(l.GetOutputParam(), countries)
}

// ApplyFilters dispatches the []store.Action found under CtxActions, if any.
type ApplyFilters struct {
	sessionCommand
}

func NewApplyFilters(dashboard *services.Dashboard) *ApplyFilters {
	out := &ApplyFilters{sessionCommand: newSessionCommand("apply-filters", dashboard)}
	out.InputParamName = CtxActions
	out.OutputParamName = CtxFilters
	return out
}

func (a *ApplyFilters) Execute(context cor.Context) {
	var actions []store.Action
	if raw := context.Get(a.GetInputParam()); raw != nil {
		typed, ok := raw.([]store.Action)
		if !ok {
			a.Failed(context, fmt.Errorf("unexpected filter actions of type %T", raw))
			return
		}
		actions = typed
	}
	state := a.dashboard.Update(context.GetContext(), actions...)
	a.Succeeded(context)
	context.Add(a.GetOutputParam(), state)
}

// FetchActiveTab runs the dispatcher for the active tab. A failed batch is
// still a completed step; the outcome carries the failure.
type FetchActiveTab struct {
	sessionCommand
}

func NewFetchActiveTab(dashboard *services.Dashboard) *FetchActiveTab {
	out := &FetchActiveTab{sessionCommand: newSessionCommand("fetch-active-tab", dashboard)}
	out.OutputParamName = CtxOutcome
	return out
}

func (f *FetchActiveTab) Execute(context cor.Context) {
	outcome := f.dashboard.Apply(context.GetContext())
	f.Succeeded(context)
	context.Add(f.GetOutputParam(), outcome)
}

// PresentCharts stores the charts of the active tab.
type PresentCharts struct {
	sessionCommand
}

func NewPresentCharts(dashboard *services.Dashboard) *PresentCharts {
	out := &PresentCharts{sessionCommand: newSessionCommand("present-charts", dashboard)}
	out.OutputParamName = CtxCharts
	return out
}

func (p *PresentCharts) Execute(context cor.Context) {
	p.Succeeded(context)
	context.Add(p.GetOutputParam(), p.dashboard.Charts())
}

// ResolveFilters turns the loaded countries into the filter actions of a
// one-shot run (e.g. country names given on the command line become ids).
type ResolveFilters struct {
	cor.BaseCommand
	resolve func([]model.Country) ([]store.Action, error)
}

func NewResolveFilters(resolve func([]model.Country) ([]store.Action, error)) *ResolveFilters {
	out := &ResolveFilters{BaseCommand: *cor.NewBaseCommand("resolve-filters"), resolve: resolve}
	out.InputParamName = CtxCountries
	out.OutputParamName = CtxActions
	return out
}

func (r *ResolveFilters) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

func (r *ResolveFilters) Execute(context cor.Context) {
	if r.resolve == nil {
		return
	}
	countries, _ := context.Get(r.GetInputParam()).([]model.Country)
	actions, err := r.resolve(countries)
	if err != nil {
		r.Failed(context, err)
		return
	}
	r.Succeeded(context)
	context.Add(r.GetOutputParam(), actions)
}
