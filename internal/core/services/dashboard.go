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

package services

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/jaycherian/olap-dashboard/internal/core/model"
	"github.com/jaycherian/olap-dashboard/internal/core/presenter"
	"github.com/jaycherian/olap-dashboard/internal/core/store"
)

// View is everything a rendering surface needs to draw the dashboard.
type View struct {
	Filters      model.FilterState             `json:"filters"`
	Labels       store.Labels                  `json:"labels"`
	Reference    model.ReferenceSnapshot       `json:"reference"`
	Loading      bool                          `json:"loading"`
	Statuses     map[model.Tab]model.TabStatus `json:"statuses"`
	Summary      model.Summary                 `json:"summary"`
	Error        string                        `json:"error,omitempty"`
	OpenDropdown string                        `json:"open_dropdown,omitempty"`
	Options      Options                       `json:"options"`
}

// Options are the fixed choices offered by the sidebar.
type Options struct {
	Granularities []model.Granularity `json:"time_granularities"`
	Genders       []model.Gender      `json:"genders"`
	AgeGroups     []model.AgeBand     `json:"age_groups"`
	Tabs          []model.Tab         `json:"tabs"`
	MinTopN       int                 `json:"min_top_n"`
	MaxTopN       int                 `json:"max_top_n"`
}

// Dashboard is one analyst session. It applies filter edits, keeps the city
// list in step with the country selection and runs fetches for the active tab.
type Dashboard struct {
	store      *store.Store
	dropdowns  *store.Dropdowns
	reference  *ReferenceLoader
	dispatcher *Dispatcher

	mu             sync.Mutex
	banner         string
	pendingCities  []model.CountryID
	citiesOutdated bool
}

// NewDashboard wires the session together.
func NewDashboard(st *store.Store, reference *ReferenceLoader, dispatcher *Dispatcher) *Dashboard {
	d := &Dashboard{
		store:      st,
		dropdowns:  &store.Dropdowns{},
		reference:  reference,
		dispatcher: dispatcher,
	}
	st.SetCityLookup(reference.CityCountry)
	st.Subscribe(d.onFilterChange)
	return d
}

// onFilterChange records that the city list must follow a new country
// selection, whichever action caused it.
func (d *Dashboard) onFilterChange(prev, next model.FilterState) {
	if slices.Equal(prev.Countries, next.Countries) {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pendingCities = slices.Clone(next.Countries)
	d.citiesOutdated = true
}

// Store returns the filter store of the session.
func (d *Dashboard) Store() *store.Store {
	return d.store
}

// Reference returns the reference data loader of the session.
func (d *Dashboard) Reference() *ReferenceLoader {
	return d.reference
}

// Dispatcher returns the query dispatcher of the session.
func (d *Dashboard) Dispatcher() *Dispatcher {
	return d.dispatcher
}

// Dropdowns returns the dropdown visibility tracker.
func (d *Dashboard) Dropdowns() *store.Dropdowns {
	return d.dropdowns
}

// LoadCountries populates the country dropdown.
func (d *Dashboard) LoadCountries(ctx context.Context) []model.Country {
	return d.reference.LoadCountries(ctx)
}

// Update applies filter edits. When the country selection changed, the city
// list is refreshed and selected cities that no longer exist are dropped.
// Tab changes are ignored here; they go through ActivateTab. A Reset
// discards the batch still loading for the active tab.
func (d *Dashboard) Update(ctx context.Context, actions ...store.Action) model.FilterState {
	filtered := make([]store.Action, 0, len(actions))
	reset := false
	for _, a := range actions {
		switch a.(type) {
		case store.SetActiveTab:
			slog.DebugContext(ctx, "ignoring tab change in filter update")
			continue
		case store.Reset:
			reset = true
		}
		filtered = append(filtered, a)
	}
	state := d.store.Dispatch(filtered...)
	if reset && d.dispatcher.InFlight(state.ActiveTab) {
		slog.InfoContext(ctx, "filters reset while loading, discarding batch", "tab", state.ActiveTab)
		d.dispatcher.Invalidate(state.ActiveTab)
	}
	return d.refreshCities(ctx, state)
}

func (d *Dashboard) refreshCities(ctx context.Context, state model.FilterState) model.FilterState {
	d.mu.Lock()
	if !d.citiesOutdated {
		d.mu.Unlock()
		return state
	}
	selected := d.pendingCities
	d.citiesOutdated = false
	d.pendingCities = nil
	d.mu.Unlock()

	d.reference.LoadCities(ctx, selected)
	return d.store.Dispatch(store.PruneCities{Available: d.reference.Snapshot().CityIDs()})
}

// Loading reports whether a fetch is outstanding. While it is, Apply and
// ActivateTab are no-ops.
func (d *Dashboard) Loading() bool {
	return d.dispatcher.Loading()
}

// Apply is the "Filter Results" action: it fetches the active tab with the
// current filters.
func (d *Dashboard) Apply(ctx context.Context) Outcome {
	state := d.store.State()
	if d.Loading() {
		return Outcome{Tab: state.ActiveTab, Suppressed: true, Status: model.StatusLoading}
	}
	return d.dispatch(ctx, state)
}

// ActivateTab switches to tab and fetches it.
func (d *Dashboard) ActivateTab(ctx context.Context, tab model.Tab) Outcome {
	if !tab.Valid() || d.Loading() {
		return Outcome{Tab: tab, Suppressed: true, Status: d.dispatcher.Result(tab).Status}
	}
	state := d.store.Dispatch(store.SetActiveTab{Tab: tab})
	return d.dispatch(ctx, state)
}

func (d *Dashboard) dispatch(ctx context.Context, state model.FilterState) Outcome {
	out := d.dispatcher.Dispatch(ctx, state, d.reference.Snapshot())
	if out.Suppressed || out.Stale {
		return out
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if out.Status == model.StatusFailed {
		d.banner = out.Error
	} else {
		d.banner = ""
	}
	return out
}

// Charts returns the charts of the active tab.
func (d *Dashboard) Charts() []model.ChartSpec {
	state := d.store.State()
	return presenter.Present(state.ActiveTab, d.dispatcher.Result(state.ActiveTab), state.TopN)
}

// View returns a snapshot of the session.
func (d *Dashboard) View() View {
	state := d.store.State()
	ref := d.reference.Snapshot()
	d.mu.Lock()
	banner := d.banner
	d.mu.Unlock()
	return View{
		Filters:      state,
		Labels:       store.BuildLabels(state, ref),
		Reference:    ref,
		Loading:      d.Loading(),
		Statuses:     d.dispatcher.Statuses(),
		Summary:      presenter.Summarize(state.ActiveTab, d.dispatcher.Result(state.ActiveTab)),
		Error:        banner,
		OpenDropdown: d.dropdowns.Open(),
		Options: Options{
			Granularities: model.Granularities,
			Genders:       model.Genders,
			AgeGroups:     model.AgeBands,
			Tabs:          model.Tabs,
			MinTopN:       model.MinTopN,
			MaxTopN:       model.MaxTopN,
		},
	}
}

// Error returns the banner message, or "".
func (d *Dashboard) Error() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.banner
}

// DismissError hides the error banner.
func (d *Dashboard) DismissError() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.banner = ""
}
