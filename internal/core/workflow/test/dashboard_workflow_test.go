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

package workflow_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"

	"github.com/jaycherian/olap-dashboard/internal/core/model"
	"github.com/jaycherian/olap-dashboard/internal/core/services"
	"github.com/jaycherian/olap-dashboard/internal/core/store"
	"github.com/jaycherian/olap-dashboard/internal/core/workflow"
)

// TestBootstrap loads the countries and fetches the default tab, the way a
// session starts.
func TestBootstrap(t *testing.T) {
	traceCtx, span := tracer.Start(ctx, "bootstrap-test")
	defer span.End()

	dash, fake := newSession(t)
	fake.Rows(services.EndpointOrdersOverTime, []map[string]any{
		{"period": "2025-01", "total_orders": 30, "unique_customers": 21, "total_items": 44},
	})
	fake.Rows(services.EndpointOrdersByCategory, []map[string]any{{"category": "Groceries", "total_orders": 30}})

	outcome := workflow.Bootstrap(traceCtx, dash)

	assert.Equal(t, model.TabOrders, outcome.Tab)
	assert.Equal(t, model.StatusPopulated, outcome.Status)
	assert.Len(t, dash.View().Reference.Countries, 2)
	assert.Equal(t, 1, fake.Calls(services.EndpointOrdersOverTime))
	assert.Equal(t, 30.0, dash.View().Summary.TotalOrders)
	span.SetStatus(codes.Ok, "")
}

// TestBootstrapWithBackendDown still completes: the country list is empty
// and the banner reports the failed fetch.
func TestBootstrapWithBackendDown(t *testing.T) {
	dash, fake := newSession(t)
	fake.Server.Close()

	outcome := workflow.Bootstrap(ctx, dash)
	assert.Equal(t, model.StatusFailed, outcome.Status)
	assert.Empty(t, dash.View().Reference.Countries)
	assert.Equal(t, services.FetchErrorMessage, dash.Error())
}

// TestRenderCharts resolves country names, applies the filters and returns
// the charts of the active tab.
func TestRenderCharts(t *testing.T) {
	dash, fake := newSession(t)
	fake.Rows(services.EndpointOrdersByLocation, []map[string]any{{"location": "Manila", "total_orders": 8}})

	resolve := func(countries []model.Country) ([]store.Action, error) {
		for _, c := range countries {
			if c.Name == "Philippines" {
				return []store.Action{
					store.SetCountries{IDs: []model.CountryID{c.ID}},
					store.SetCities{IDs: []model.CityID{"10"}},
					store.SetGenders{Genders: []model.Gender{model.Female}},
				}, nil
			}
		}
		return nil, errors.New("missing country")
	}

	outcome, charts, err := workflow.RenderCharts(ctx, dash, resolve)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPartiallyPopulated, outcome.Status)
	require.Len(t, charts, 3, "the location chart appears once it has rows")
	assert.Equal(t, "Orders by Location", charts[2].Title)

	q := fake.LastQuery(services.EndpointOrdersByLocation)
	assert.Equal(t, "Philippines", q.Get(services.ParamCountries))
	assert.Equal(t, "Manila", q.Get(services.ParamCities))
	assert.Equal(t, services.LocationCity, q.Get(services.ParamType))
	assert.Equal(t, "Female", q.Get(services.ParamGender))
}

// TestRenderChartsResolveFailure stops before any fetch.
func TestRenderChartsResolveFailure(t *testing.T) {
	dash, fake := newSession(t)
	resolve := func([]model.Country) ([]store.Action, error) {
		return nil, errors.New("unknown country \"Atlantis\"")
	}

	_, charts, err := workflow.RenderCharts(ctx, dash, resolve)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve-filters")
	assert.Nil(t, charts)
	assert.Equal(t, 0, fake.Calls(services.EndpointOrdersOverTime))
}
