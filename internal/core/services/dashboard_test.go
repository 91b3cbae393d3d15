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

package services_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/olap-dashboard/internal/backend"
	"github.com/jaycherian/olap-dashboard/internal/core/model"
	"github.com/jaycherian/olap-dashboard/internal/core/services"
	"github.com/jaycherian/olap-dashboard/internal/core/store"
	test "github.com/jaycherian/olap-dashboard/internal/testutil"
)

// newSession wires a dashboard to a fake backend serving two countries.
func newSession(t *testing.T) (*services.Dashboard, *test.Backend) {
	t.Helper()
	fake := test.NewBackend(t)
	fake.Countries(
		map[string]any{"id": "1", "name": "Philippines"},
		map[string]any{"id": "2", "name": "United States"},
	)
	fake.Cities("Philippines",
		map[string]any{"id": "10", "name": "Manila"},
		map[string]any{"id": "11", "name": "Cebu"},
		map[string]any{"id": "12", "name": "Manila"},
	)
	fake.Cities("United States",
		map[string]any{"id": "20", "name": "Manila"},
		map[string]any{"id": "21", "name": "Austin"},
	)

	client := backend.NewClient(fake.Config(), nil)
	dash := services.NewDashboard(
		store.New(model.DefaultFilterState()),
		services.NewReferenceLoader(client, 4),
		services.NewDispatcher(client, nil, 4),
	)
	return dash, fake
}

func TestLoadCitiesMergesAndDeduplicates(t *testing.T) {
	dash, fake := newSession(t)
	ctx := context.Background()
	require.Len(t, dash.LoadCountries(ctx), 2)

	cities := dash.Reference().LoadCities(ctx, []model.CountryID{"1", "2"})
	var labels []string
	for _, c := range cities {
		labels = append(labels, c.Name+"/"+c.Country)
	}
	assert.Equal(t, []string{"Manila/Philippines", "Cebu/Philippines", "Manila/United States", "Austin/United States"}, labels,
		"selection order is kept and (name, country) duplicates dropped")
	assert.Equal(t, 2, fake.Calls(test.CitiesPath), "one request per selected country")

	owner, ok := dash.Reference().CityCountry("21")
	assert.True(t, ok)
	assert.Equal(t, model.CountryID("2"), owner)
}

func TestLoadCitiesEmptySelectionMakesNoRequest(t *testing.T) {
	dash, fake := newSession(t)
	ctx := context.Background()
	dash.LoadCountries(ctx)

	cities := dash.Reference().LoadCities(ctx, nil)
	assert.NotNil(t, cities)
	assert.Empty(t, cities)
	assert.Equal(t, 0, fake.Calls(test.CitiesPath))
}

func TestLoadCitiesSkipsFailedCountry(t *testing.T) {
	dash, fake := newSession(t)
	ctx := context.Background()
	dash.LoadCountries(ctx)
	fake.Fail(test.CitiesPath, http.StatusInternalServerError, "boom")

	assert.Empty(t, dash.Reference().LoadCities(ctx, []model.CountryID{"1"}))
}

func TestCountryFailureLeavesEmptyList(t *testing.T) {
	dash, fake := newSession(t)
	fake.Fail(test.CountriesPath, http.StatusServiceUnavailable, "down")

	assert.Empty(t, dash.LoadCountries(context.Background()))
	assert.Empty(t, dash.View().Reference.Countries)
}

func TestUpdateRefreshesCitiesAndPrunesSelection(t *testing.T) {
	dash, fake := newSession(t)
	ctx := context.Background()
	dash.LoadCountries(ctx)

	state := dash.Update(ctx, store.SetCountries{IDs: []model.CountryID{"1", "2"}}, store.SetCities{IDs: []model.CityID{"11", "21"}})
	assert.Equal(t, []model.CityID{"11", "21"}, state.Cities)
	assert.Equal(t, 2, fake.Calls(test.CitiesPath))
	assert.Len(t, dash.Reference().Snapshot().Cities, 4)

	state = dash.Update(ctx, store.ToggleCountry{ID: "2"})
	assert.Equal(t, []model.CityID{"11"}, state.Cities, "cities of the removed country are dropped")
	assert.Len(t, dash.Reference().Snapshot().Cities, 2)

	calls := fake.Calls(test.CitiesPath)
	dash.Update(ctx, store.SetGranularity{Granularity: model.Day})
	assert.Equal(t, calls, fake.Calls(test.CitiesPath), "no refresh when the countries did not change")

	state = dash.Update(ctx, store.SetCountries{})
	assert.Nil(t, state.Cities)
	assert.Empty(t, dash.Reference().Snapshot().Cities)

	view := dash.View()
	assert.Equal(t, store.Placeholder, view.Labels.Countries)
	assert.Equal(t, "Day", view.Labels.Granularity)
}

func TestUpdateIgnoresTabChanges(t *testing.T) {
	dash, _ := newSession(t)
	state := dash.Update(context.Background(), store.SetActiveTab{Tab: model.TabRiders}, store.SetTopN{N: 2})
	assert.Equal(t, model.TabOrders, state.ActiveTab)
	assert.Equal(t, 2, state.TopN)
}

func TestApplyAllFailedShowsBanner(t *testing.T) {
	dash, _ := newSession(t)

	out := dash.Apply(context.Background())
	assert.Equal(t, model.StatusFailed, out.Status)
	assert.Equal(t, services.FetchErrorMessage, dash.Error())
	assert.Equal(t, services.FetchErrorMessage, dash.View().Error)

	dash.DismissError()
	assert.Empty(t, dash.Error())
}

func TestApplyPopulatesAndClearsBanner(t *testing.T) {
	dash, fake := newSession(t)
	ctx := context.Background()
	dash.Apply(ctx)
	require.NotEmpty(t, dash.Error())

	fake.Rows(services.EndpointOrdersOverTime, []map[string]any{
		{"period": "2025-01", "total_orders": 5, "unique_customers": 3, "total_items": 9},
		{"period": "2025-02", "total_orders": 7, "unique_customers": 4, "total_items": 11},
	})
	fake.Rows(services.EndpointOrdersByCategory, []map[string]any{{"category": "Books", "total_orders": 12}})

	out := dash.Apply(ctx)
	assert.Equal(t, model.StatusPopulated, out.Status)
	assert.Empty(t, dash.Error(), "a successful batch clears the banner")

	view := dash.View()
	assert.Equal(t, 12.0, view.Summary.TotalOrders)
	assert.Equal(t, model.StatusPopulated, view.Statuses[model.TabOrders])
	assert.NotEmpty(t, dash.Charts())

	q := fake.LastQuery(services.EndpointOrdersOverTime)
	assert.Equal(t, "month", q.Get(services.ParamTimeGranularity))
}

func TestApplyWhileLoadingIsNoOp(t *testing.T) {
	dash, fake := newSession(t)
	release := fake.Block(services.EndpointOrdersOverTime)
	defer release()

	done := make(chan services.Outcome, 1)
	go func() { done <- dash.Apply(context.Background()) }()
	require.Eventually(t, func() bool { return fake.Calls(services.EndpointOrdersOverTime) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, dash.Loading())
	assert.True(t, dash.View().Loading)

	second := dash.Apply(context.Background())
	assert.True(t, second.Suppressed)
	tab := dash.ActivateTab(context.Background(), model.TabSales)
	assert.True(t, tab.Suppressed)
	assert.Equal(t, model.TabOrders, dash.Store().State().ActiveTab, "tab does not change while loading")
	assert.Equal(t, 1, fake.Calls(services.EndpointOrdersOverTime), "exactly one request per query")

	release()
	<-done
	assert.False(t, dash.Loading())
}

func TestActivateTabFetchesThatTab(t *testing.T) {
	dash, fake := newSession(t)
	fake.Rows(services.EndpointTopProducts, []map[string]any{{"name": "Widget", "total_revenue": "1200.50"}})

	out := dash.ActivateTab(context.Background(), model.TabProducts)
	assert.Equal(t, model.TabProducts, out.Tab)
	assert.Equal(t, model.TabProducts, dash.Store().State().ActiveTab)
	assert.Equal(t, 1, fake.Calls(services.EndpointTopProducts))
	assert.Equal(t, 0, fake.Calls(services.EndpointOrdersOverTime))
	assert.Equal(t, model.StatusPartiallyPopulated, out.Status)

	invalid := dash.ActivateTab(context.Background(), "inventory")
	assert.True(t, invalid.Suppressed)
	assert.Equal(t, model.TabProducts, dash.Store().State().ActiveTab)
}

func TestResetKeepsTabAndRefreshesCities(t *testing.T) {
	dash, _ := newSession(t)
	ctx := context.Background()
	dash.LoadCountries(ctx)
	dash.ActivateTab(ctx, model.TabUsers)
	dash.Update(ctx, store.SetCountries{IDs: []model.CountryID{"1"}}, store.SetTopN{N: 2})
	require.NotEmpty(t, dash.Reference().Snapshot().Cities)

	state := dash.Update(ctx, store.Reset{})
	assert.Equal(t, model.TabUsers, state.ActiveTab)
	assert.Nil(t, state.Countries)
	assert.Equal(t, model.DefaultTopN, state.TopN)
	assert.Empty(t, dash.Reference().Snapshot().Cities)
}

func TestClearingCountriesRemovesLocationChart(t *testing.T) {
	dash, fake := newSession(t)
	ctx := context.Background()
	fake.Rows(services.EndpointOrdersOverTime, []map[string]any{{"period": "2025-01", "total_orders": 7}})
	fake.Rows(services.EndpointOrdersByCategory, []map[string]any{{"category": "Books", "total_orders": 7}})
	fake.Rows(services.EndpointOrdersByLocation, []map[string]any{{"location": "Philippines", "total_orders": 7}})
	dash.LoadCountries(ctx)

	dash.Update(ctx, store.SetCountries{IDs: []model.CountryID{"1"}})
	require.Equal(t, model.StatusPopulated, dash.Apply(ctx).Status)
	require.Len(t, dash.Charts(), 3)

	dash.Update(ctx, store.SetCountries{IDs: nil})
	out := dash.Apply(ctx)
	assert.Equal(t, model.StatusPopulated, out.Status)
	assert.Equal(t, 1, fake.Calls(services.EndpointOrdersByLocation))
	assert.Empty(t, dash.Dispatcher().Result(model.TabOrders).Rows(model.QryOrdersByLocation))
	for _, chart := range dash.Charts() {
		assert.NotEqual(t, "Orders by Location", chart.Title)
	}
	assert.Len(t, dash.Charts(), 2)
}

func TestResetWhileLoadingDiscardsBatch(t *testing.T) {
	dash, fake := newSession(t)
	ctx := context.Background()
	release := fake.Block(services.EndpointOrdersOverTime)
	defer release()

	done := make(chan services.Outcome, 1)
	go func() { done <- dash.Apply(ctx) }()
	require.Eventually(t, func() bool { return fake.Calls(services.EndpointOrdersOverTime) == 1 }, 2*time.Second, 5*time.Millisecond)

	dash.Update(ctx, store.SetTopN{N: 3}, store.Reset{})
	release()
	out := <-done

	assert.True(t, out.Stale)
	assert.Equal(t, model.StatusIdle, dash.View().Statuses[model.TabOrders])
	assert.Empty(t, dash.Error(), "a discarded batch raises no banner")
	assert.False(t, dash.Loading())

	fake.Rows(services.EndpointOrdersOverTime, []map[string]any{{"period": "2025-01", "total_orders": 2}})
	fake.Rows(services.EndpointOrdersByCategory, []map[string]any{{"category": "Books", "total_orders": 2}})
	assert.Equal(t, model.StatusPopulated, dash.Apply(ctx).Status)
}

func TestOlderCityRefreshDoesNotOverwriteNewer(t *testing.T) {
	dash, fake := newSession(t)
	ctx := context.Background()
	loader := dash.Reference()
	loader.LoadCountries(ctx)
	release := fake.BlockCities("Philippines")
	defer release()

	older := make(chan []model.City, 1)
	go func() { older <- loader.LoadCities(ctx, []model.CountryID{"1"}) }()
	require.Eventually(t, func() bool { return fake.Calls(test.CitiesPath) == 1 }, 2*time.Second, 5*time.Millisecond)

	newer := loader.LoadCities(ctx, []model.CountryID{"2"})
	require.Len(t, newer, 2)

	release()
	stale := <-older
	assert.Equal(t, newer, stale, "the slower refresh returns the newer list")
	assert.Equal(t, newer, loader.Snapshot().Cities)
	assert.Equal(t, []string{"Manila", "Austin"}, loader.ResolveCityNames([]model.CityID{"20", "21"}))
	_, ok := loader.CityCountry("10")
	assert.False(t, ok, "cities of the discarded refresh are unknown")
}
