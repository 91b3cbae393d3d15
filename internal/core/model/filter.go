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

// Package model defines the core data structures of the dashboard.
// This file, `filter.go`, holds the filter state an analyst edits in the
// sidebar (date range, granularity, demographic and geographic selections,
// active tab and the top-N control) together with the enumerations it uses.
package model

import (
	"slices"
	"strings"
	"time"
)

// DateLayout is the wire format for dates sent to the aggregation backend.
const DateLayout = "2006-01-02"

// Top-N bounds for ranked charts.
const (
	MinTopN     = 1
	MaxTopN     = 7
	DefaultTopN = 5
)

// Granularity is the bucketing unit used to group time-series aggregates.
type Granularity string

const (
	Year    Granularity = "Year"
	Quarter Granularity = "Quarter"
	Month   Granularity = "Month"
	Day     Granularity = "Day"
)

// Granularities lists the options offered by the time granularity dropdown.
var Granularities = []Granularity{Year, Quarter, Month, Day}

// Valid reports whether g is one of the known granularities.
func (g Granularity) Valid() bool {
	return slices.Contains(Granularities, g)
}

// Param returns the lower case value the backend expects for time_granularity.
func (g Granularity) Param() string {
	if !g.Valid() {
		return strings.ToLower(string(Month))
	}
	return strings.ToLower(string(g))
}

// ParseGranularity accepts either the display or the wire spelling.
func ParseGranularity(in string) (Granularity, bool) {
	for _, g := range Granularities {
		if strings.EqualFold(string(g), strings.TrimSpace(in)) {
			return g, true
		}
	}
	return "", false
}

// Tab identifies one of the analytic views.
type Tab string

const (
	TabOrders   Tab = "orders"
	TabSales    Tab = "sales"
	TabUsers    Tab = "users"
	TabProducts Tab = "products"
	TabRiders   Tab = "riders"
)

// Tabs lists every tab in display order.
var Tabs = []Tab{TabOrders, TabSales, TabUsers, TabProducts, TabRiders}

// Valid reports whether t is a known tab.
func (t Tab) Valid() bool {
	return slices.Contains(Tabs, t)
}

// ParseTab resolves a tab name case-insensitively. "customers" is accepted as
// an alias of the users tab since the backend groups those reports under
// /api/customers.
func ParseTab(in string) (Tab, bool) {
	in = strings.ToLower(strings.TrimSpace(in))
	if in == "customers" {
		return TabUsers, true
	}
	t := Tab(in)
	return t, t.Valid()
}

// Gender is a customer gender as stored by the backend.
type Gender string

const (
	Male   Gender = "Male"
	Female Gender = "Female"
)

// Genders lists the options offered by the gender dropdown.
var Genders = []Gender{Male, Female}

// AgeBand is a customer age bracket.
type AgeBand string

// AgeBands lists the brackets the backend groups customers into.
var AgeBands = []AgeBand{"18-24", "25-34", "35-44", "45-54", "55-64", "65+"}

// CountryID and CityID are the opaque identifiers handed out by the filter endpoints.
type (
	CountryID string
	CityID    string
)

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether the range is ordered.
func (r DateRange) Valid() bool {
	return !r.Start.After(r.End)
}

// FilterState holds every query parameter the analyst controls.
type FilterState struct {
	DateRange   DateRange   `json:"date_range"`
	Granularity Granularity `json:"time_granularity"`
	Countries   []CountryID `json:"selected_countries"`
	Cities      []CityID    `json:"selected_cities"`
	Genders     []Gender    `json:"selected_genders"`
	AgeGroups   []AgeBand   `json:"selected_age_groups"`
	ActiveTab   Tab         `json:"active_tab"`
	TopN        int         `json:"top_n"`
}

// DefaultFilterState mirrors the initial sidebar of the dashboard: January 2025,
// monthly buckets, no demographic or location filter, orders tab.
func DefaultFilterState() FilterState {
	return FilterState{
		DateRange: DateRange{
			Start: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC),
		},
		Granularity: Month,
		ActiveTab:   TabOrders,
		TopN:        DefaultTopN,
	}
}

// Clone returns a deep copy so callers never share slices with the store.
func (f FilterState) Clone() FilterState {
	out := f
	out.Countries = slices.Clone(f.Countries)
	out.Cities = slices.Clone(f.Cities)
	out.Genders = slices.Clone(f.Genders)
	out.AgeGroups = slices.Clone(f.AgeGroups)
	return out
}

// ClampTopN bounds n to the range accepted by the top-N control.
func ClampTopN(n int) int {
	return min(max(n, MinTopN), MaxTopN)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(in string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(in))
}

// Equal reports whether two states hold the same values.
func (f FilterState) Equal(o FilterState) bool {
	return f.DateRange.Start.Equal(o.DateRange.Start) &&
		f.DateRange.End.Equal(o.DateRange.End) &&
		f.Granularity == o.Granularity &&
		slices.Equal(f.Countries, o.Countries) &&
		slices.Equal(f.Cities, o.Cities) &&
		slices.Equal(f.Genders, o.Genders) &&
		slices.Equal(f.AgeGroups, o.AgeGroups) &&
		f.ActiveTab == o.ActiveTab &&
		f.TopN == o.TopN
}

// Valid reports whether g is one of the known genders.
func (g Gender) Valid() bool {
	return slices.Contains(Genders, g)
}

// Valid reports whether a is one of the known age bands.
func (a AgeBand) Valid() bool {
	return slices.Contains(AgeBands, a)
}
