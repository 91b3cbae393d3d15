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

package store

import (
	"slices"
	"time"

	"github.com/jaycherian/olap-dashboard/internal/core/model"
)

// Action is a typed state transition. The set of actions is closed: only the
// types in this file implement it.
type Action interface {
	// Name identifies the action in logs.
	Name() string
	reduce(state model.FilterState, env env) model.FilterState
}

type env struct {
	lookup  CityCountryLookup
	initial model.FilterState
}

// SetDateRange replaces both ends. An end before the start is clamped to the start.
type SetDateRange struct {
	Start, End time.Time
}

// SetStartDate moves the start. A start after the end is clamped to the end.
type SetStartDate struct {
	Date time.Time
}

// SetEndDate moves the end. An end before the start is clamped to the start.
type SetEndDate struct {
	Date time.Time
}

// SetGranularity changes the time bucket. Unknown values are ignored.
type SetGranularity struct {
	Granularity model.Granularity
}

// SetCountries replaces the country selection. An empty selection clears the cities.
type SetCountries struct {
	IDs []model.CountryID
}

// ToggleCountry adds or removes one country.
type ToggleCountry struct {
	ID model.CountryID
}

// SetCities replaces the city selection. Ignored while no country is selected.
type SetCities struct {
	IDs []model.CityID
}

// ToggleCity adds or removes one city. Ignored while no country is selected.
type ToggleCity struct {
	ID model.CityID
}

// PruneCities drops selected cities that are not in Available. The dashboard
// dispatches it after every city refresh.
type PruneCities struct {
	Available map[model.CityID]struct{}
}

// SetGenders replaces the gender selection.
type SetGenders struct {
	Genders []model.Gender
}

// ToggleGender adds or removes one gender.
type ToggleGender struct {
	Gender model.Gender
}

// SetAgeGroups replaces the age band selection.
type SetAgeGroups struct {
	AgeGroups []model.AgeBand
}

// ToggleAgeGroup adds or removes one age band.
type ToggleAgeGroup struct {
	AgeGroup model.AgeBand
}

// SetActiveTab switches the tab. Unknown tabs are ignored.
type SetActiveTab struct {
	Tab model.Tab
}

// SetTopN sets the top-N control, clamped to its bounds.
type SetTopN struct {
	N int
}

// Reset restores the initial filters of the session, keeping the active tab.
type Reset struct{}

func (SetDateRange) Name() string   { return "set_date_range" }
func (SetStartDate) Name() string   { return "set_start_date" }
func (SetEndDate) Name() string     { return "set_end_date" }
func (SetGranularity) Name() string { return "set_granularity" }
func (SetCountries) Name() string   { return "set_countries" }
func (ToggleCountry) Name() string  { return "toggle_country" }
func (SetCities) Name() string      { return "set_cities" }
func (ToggleCity) Name() string     { return "toggle_city" }
func (PruneCities) Name() string    { return "prune_cities" }
func (SetGenders) Name() string     { return "set_genders" }
func (ToggleGender) Name() string   { return "toggle_gender" }
func (SetAgeGroups) Name() string   { return "set_age_groups" }
func (ToggleAgeGroup) Name() string { return "toggle_age_group" }
func (SetActiveTab) Name() string   { return "set_active_tab" }
func (SetTopN) Name() string        { return "set_top_n" }
func (Reset) Name() string          { return "reset" }

func (a SetDateRange) reduce(s model.FilterState, _ env) model.FilterState {
	if a.Start.IsZero() || a.End.IsZero() {
		return s
	}
	s.DateRange.Start = a.Start
	s.DateRange.End = a.End
	if s.DateRange.End.Before(s.DateRange.Start) {
		s.DateRange.End = s.DateRange.Start
	}
	return s
}

func (a SetStartDate) reduce(s model.FilterState, _ env) model.FilterState {
	if a.Date.IsZero() {
		return s
	}
	s.DateRange.Start = a.Date
	if s.DateRange.Start.After(s.DateRange.End) {
		s.DateRange.Start = s.DateRange.End
	}
	return s
}

func (a SetEndDate) reduce(s model.FilterState, _ env) model.FilterState {
	if a.Date.IsZero() {
		return s
	}
	s.DateRange.End = a.Date
	if s.DateRange.End.Before(s.DateRange.Start) {
		s.DateRange.End = s.DateRange.Start
	}
	return s
}

func (a SetGranularity) reduce(s model.FilterState, _ env) model.FilterState {
	if a.Granularity.Valid() {
		s.Granularity = a.Granularity
	}
	return s
}

func (a SetCountries) reduce(s model.FilterState, e env) model.FilterState {
	s.Countries = unique(filter(a.IDs, func(id model.CountryID) bool { return id != "" }))
	return dropOrphanCities(s, e)
}

func (a ToggleCountry) reduce(s model.FilterState, e env) model.FilterState {
	if a.ID == "" {
		return s
	}
	s.Countries = toggle(s.Countries, a.ID)
	return dropOrphanCities(s, e)
}

func (a SetCities) reduce(s model.FilterState, e env) model.FilterState {
	if len(s.Countries) == 0 {
		return s
	}
	s.Cities = unique(filter(a.IDs, func(id model.CityID) bool { return id != "" }))
	return dropOrphanCities(s, e)
}

func (a ToggleCity) reduce(s model.FilterState, e env) model.FilterState {
	if len(s.Countries) == 0 || a.ID == "" {
		return s
	}
	s.Cities = toggle(s.Cities, a.ID)
	return dropOrphanCities(s, e)
}

func (a PruneCities) reduce(s model.FilterState, _ env) model.FilterState {
	s.Cities = filter(s.Cities, func(id model.CityID) bool {
		_, ok := a.Available[id]
		return ok
	})
	if len(s.Countries) == 0 {
		s.Cities = nil
	}
	return s
}

func (a SetGenders) reduce(s model.FilterState, _ env) model.FilterState {
	s.Genders = unique(filter(a.Genders, model.Gender.Valid))
	return s
}

func (a ToggleGender) reduce(s model.FilterState, _ env) model.FilterState {
	if a.Gender.Valid() {
		s.Genders = toggle(s.Genders, a.Gender)
	}
	return s
}

func (a SetAgeGroups) reduce(s model.FilterState, _ env) model.FilterState {
	s.AgeGroups = unique(filter(a.AgeGroups, model.AgeBand.Valid))
	return s
}

func (a ToggleAgeGroup) reduce(s model.FilterState, _ env) model.FilterState {
	if a.AgeGroup.Valid() {
		s.AgeGroups = toggle(s.AgeGroups, a.AgeGroup)
	}
	return s
}

func (a SetActiveTab) reduce(s model.FilterState, _ env) model.FilterState {
	if a.Tab.Valid() {
		s.ActiveTab = a.Tab
	}
	return s
}

func (a SetTopN) reduce(s model.FilterState, _ env) model.FilterState {
	s.TopN = model.ClampTopN(a.N)
	return s
}

func (Reset) reduce(s model.FilterState, e env) model.FilterState {
	out := e.initial.Clone()
	out.ActiveTab = s.ActiveTab
	return out
}

// dropOrphanCities enforces the city/country invariant. Cities whose country
// is unknown to the lookup are kept; the next city refresh prunes them.
func dropOrphanCities(s model.FilterState, e env) model.FilterState {
	if len(s.Countries) == 0 {
		s.Cities = nil
		return s
	}
	if e.lookup == nil {
		return s
	}
	s.Cities = filter(s.Cities, func(id model.CityID) bool {
		country, ok := e.lookup(id)
		return !ok || slices.Contains(s.Countries, country)
	})
	return s
}

func unique[T comparable](in []T) []T {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[T]struct{}, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func filter[T any](in []T, keep func(T) bool) []T {
	if len(in) == 0 {
		return nil
	}
	out := make([]T, 0, len(in))
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func toggle[T comparable](in []T, v T) []T {
	if i := slices.Index(in, v); i >= 0 {
		out := slices.Delete(slices.Clone(in), i, i+1)
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return append(slices.Clone(in), v)
}
