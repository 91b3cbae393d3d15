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

// Package services contains the dashboard's business logic: the reference
// data loader, the query dispatcher and the session that ties them to the
// filter store.
// This file, `queries.go`, centralizes the aggregation API endpoints and the
// query plan of every tab. A plan is a list of named queries; the names are
// the keys of model.TabResult.Queries and of the charts built from them.
package services

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/jaycherian/olap-dashboard/internal/core/model"
)

// Aggregation API endpoints.
const (
	EndpointOrdersOverTime   = "/api/orders/total-orders-over-time"
	EndpointOrdersByLocation = "/api/orders/total-orders-by-location"
	EndpointOrdersByCategory = "/api/orders/total-orders-by-product-category"

	EndpointSalesOverTime   = "/api/sales/total-sales-over-time"
	EndpointSalesByLocation = "/api/sales/total-sales-by-location"
	EndpointSalesByCategory = "/api/sales/total-sales-by-product-category"

	EndpointOrdersByDemographics = "/api/customers/orders-by-demographics"
	EndpointSegmentsRevenue      = "/api/customers/segments-revenue"

	EndpointTopProducts            = "/api/products/top-performing"
	EndpointTopProductsPerCategory = "/api/products/top-performing-per-category"
	EndpointCategoryPerformance    = "/api/products/category-performance"

	EndpointOrdersPerRider      = "/api/riders/orders-per-rider"
	EndpointDeliveryPerformance = "/api/riders/delivery-performance"
)

// Query parameter names.
const (
	ParamStartDate       = "start_date"
	ParamEndDate         = "end_date"
	ParamTimeGranularity = "time_granularity"
	ParamCountries       = "countries"
	ParamCities          = "cities"
	ParamGender          = "gender"
	ParamAgeGroup        = "age_group"
	ParamTopN            = "top_n"
	ParamLimit           = "limit"
	ParamType            = "type"
	ParamSegment         = "segment"
	ParamMetric          = "metric"
	ParamOrder           = "order"
	ParamLocationType    = "location_type"
)

// Location grouping values for the type and location_type parameters.
const (
	LocationCountry = "country"
	LocationCity    = "city"
)

// Query is one request of a tab's batch.
type Query struct {
	Name     string
	Endpoint string
	Params   url.Values
}

// scope carries what every plan needs: the filter state and the names of the
// selected countries and cities resolved through the reference snapshot.
type scope struct {
	state     model.FilterState
	countries []string
	cities    []string
}

func newScope(state model.FilterState, ref model.ReferenceSnapshot) scope {
	return scope{
		state:     state,
		countries: ref.CountryNames(state.Countries),
		cities:    ref.CityNames(state.Cities),
	}
}

// dates returns the date range parameters.
func (s scope) dates() url.Values {
	v := url.Values{}
	v.Set(ParamStartDate, s.state.DateRange.Start.Format(model.DateLayout))
	v.Set(ParamEndDate, s.state.DateRange.End.Format(model.DateLayout))
	return v
}

// located returns the date range plus the country and city filters.
func (s scope) located() url.Values {
	v := s.dates()
	setList(v, ParamCountries, s.countries)
	setList(v, ParamCities, s.cities)
	return v
}

// hasLocation reports whether a geographic filter is active.
func (s scope) hasLocation() bool {
	return len(s.countries) > 0 || len(s.cities) > 0
}

// locationType groups by city when cities are selected, by country otherwise.
func (s scope) locationType() string {
	if len(s.cities) > 0 {
		return LocationCity
	}
	return LocationCountry
}

func (s scope) genders() []string {
	out := make([]string, len(s.state.Genders))
	for i, g := range s.state.Genders {
		out[i] = string(g)
	}
	return out
}

func (s scope) ageGroups() []string {
	out := make([]string, len(s.state.AgeGroups))
	for i, a := range s.state.AgeGroups {
		out[i] = string(a)
	}
	return out
}

// setList stores a comma-joined list, omitting empty lists.
func setList(v url.Values, key string, items []string) {
	if len(items) == 0 {
		return
	}
	v.Set(key, strings.Join(items, ","))
}

func with(v url.Values, kv ...string) url.Values {
	for i := 0; i+1 < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	return v
}

// PlanQueries returns the queries needed to populate the charts of the
// active tab of state. Country and city ids are resolved to names through ref;
// ids missing from ref are left out of the request.
func PlanQueries(state model.FilterState, ref model.ReferenceSnapshot) []Query {
	s := newScope(state, ref)
	switch state.ActiveTab {
	case model.TabSales:
		return s.volumePlan(model.QrySalesOverTime, EndpointSalesOverTime,
			model.QrySalesByCategory, EndpointSalesByCategory,
			model.QrySalesByLocation, EndpointSalesByLocation)
	case model.TabUsers:
		return s.usersPlan()
	case model.TabProducts:
		return s.productsPlan()
	case model.TabRiders:
		return s.ridersPlan()
	default:
		return s.volumePlan(model.QryOrdersOverTime, EndpointOrdersOverTime,
			model.QryOrdersByCategory, EndpointOrdersByCategory,
			model.QryOrdersByLocation, EndpointOrdersByLocation)
	}
}

// volumePlan is shared by the orders and sales tabs. The by-location query is
// only issued when a country or city filter exists.
func (s scope) volumePlan(overTime, overTimeEP, byCategory, byCategoryEP, byLocation, byLocationEP string) []Query {
	granularity := s.state.Granularity.Param()

	overTimeParams := with(s.located(), ParamTimeGranularity, granularity)
	setList(overTimeParams, ParamGender, s.genders())

	categoryParams := with(s.located(), ParamType, s.locationType())
	setList(categoryParams, ParamGender, s.genders())

	plan := []Query{
		{Name: overTime, Endpoint: overTimeEP, Params: overTimeParams},
		{Name: byCategory, Endpoint: byCategoryEP, Params: categoryParams},
	}
	if s.hasLocation() {
		locationParams := with(s.located(), ParamType, s.locationType())
		setList(locationParams, ParamGender, s.genders())
		plan = append(plan, Query{Name: byLocation, Endpoint: byLocationEP, Params: locationParams})
	}
	return plan
}

func (s scope) usersPlan() []Query {
	demographics := with(s.located(), ParamType, s.locationType())
	setList(demographics, ParamGender, s.genders())
	setList(demographics, ParamAgeGroup, s.ageGroups())

	segment := func(name string) url.Values {
		return with(s.located(), ParamSegment, name, ParamType, s.locationType())
	}
	return []Query{
		{Name: model.QryOrdersByDemographics, Endpoint: EndpointOrdersByDemographics, Params: demographics},
		{Name: model.QrySegmentsAge, Endpoint: EndpointSegmentsRevenue, Params: segment("age")},
		{Name: model.QrySegmentsGender, Endpoint: EndpointSegmentsRevenue, Params: segment("gender")},
		{Name: model.QrySegmentsLocation, Endpoint: EndpointSegmentsRevenue, Params: segment("location")},
	}
}

func (s scope) productsPlan() []Query {
	topN := strconv.Itoa(model.ClampTopN(s.state.TopN))
	return []Query{
		{Name: model.QryTopProducts, Endpoint: EndpointTopProducts,
			Params: with(s.located(), ParamMetric, "revenue", ParamOrder, "desc")},
		{Name: model.QryTopPerCategory, Endpoint: EndpointTopProductsPerCategory,
			Params: with(s.located(), ParamMetric, "revenue", ParamTopN, topN)},
		{Name: model.QryCategoryPerformance, Endpoint: EndpointCategoryPerformance,
			Params: with(s.located(), ParamTimeGranularity, s.state.Granularity.Param(), ParamLimit, topN)},
	}
}

func (s scope) ridersPlan() []Query {
	granularity := s.state.Granularity.Param()
	return []Query{
		{Name: model.QryOrdersPerRider, Endpoint: EndpointOrdersPerRider,
			Params: with(s.located(), ParamTimeGranularity, granularity)},
		{Name: model.QryDeliveryPerformance, Endpoint: EndpointDeliveryPerformance,
			Params: with(s.located(), ParamTimeGranularity, granularity, ParamLocationType, s.locationType())},
	}
}
