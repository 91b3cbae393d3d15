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
	"fmt"
	"strings"

	"github.com/jaycherian/olap-dashboard/internal/core/model"
)

// Placeholder is shown by a dropdown with nothing selected.
const Placeholder = "Select..."

// maxListedItems is the number of selections listed by name before the
// label switches to a count.
const maxListedItems = 2

// Labels are the dropdown header texts of the sidebar.
type Labels struct {
	Granularity string `json:"time_granularity"`
	Countries   string `json:"countries"`
	Cities      string `json:"cities"`
	Genders     string `json:"genders"`
	AgeGroups   string `json:"age_groups"`
}

// BuildLabels renders the header text of every dropdown. Ids missing from ref
// are shown verbatim.
func BuildLabels(state model.FilterState, ref model.ReferenceSnapshot) Labels {
	countryNames := make(map[model.CountryID]string, len(ref.Countries))
	for _, c := range ref.Countries {
		countryNames[c.ID] = c.Name
	}
	cities := make(map[model.CityID]model.City, len(ref.Cities))
	for _, c := range ref.Cities {
		cities[c.ID] = c
	}

	granularity := string(state.Granularity)
	if granularity == "" {
		granularity = Placeholder
	}

	return Labels{
		Granularity: granularity,
		Countries: label(state.Countries, "countries", func(id model.CountryID) string {
			if name, ok := countryNames[id]; ok {
				return name
			}
			return string(id)
		}),
		Cities: label(state.Cities, "cities", func(id model.CityID) string {
			if c, ok := cities[id]; ok {
				return fmt.Sprintf("%s (%s)", c.Name, c.Country)
			}
			return string(id)
		}),
		Genders: label(state.Genders, "genders", func(g model.Gender) string { return string(g) }),
		AgeGroups: label(state.AgeGroups, "groups", func(a model.AgeBand) string {
			return string(a)
		}),
	}
}

func label[T any](items []T, noun string, name func(T) string) string {
	switch {
	case len(items) == 0:
		return Placeholder
	case len(items) <= maxListedItems:
		names := make([]string, len(items))
		for i, it := range items {
			names[i] = name(it)
		}
		return strings.Join(names, ", ")
	default:
		return fmt.Sprintf("%d %s selected", len(items), noun)
	}
}
