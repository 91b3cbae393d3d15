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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jaycherian/olap-dashboard/internal/core/model"
	"github.com/jaycherian/olap-dashboard/internal/core/services"
	"github.com/jaycherian/olap-dashboard/internal/core/store"
	"github.com/jaycherian/olap-dashboard/internal/core/workflow"
)

// chartsReport is the JSON document printed by the charts command.
type chartsReport struct {
	Tab     model.Tab         `json:"tab"`
	Filters model.FilterState `json:"filters"`
	Outcome services.Outcome  `json:"outcome"`
	Summary model.Summary     `json:"summary"`
	Charts  []model.ChartSpec `json:"charts"`
}

// actions converts the flags that need no reference data into store actions.
func (o *chartsOptions) actions() ([]store.Action, error) {
	var out []store.Action
	if o.start != "" || o.end != "" {
		initial := model.DefaultFilterState().DateRange
		start, end := initial.Start, initial.End
		var err error
		if o.start != "" {
			if start, err = model.ParseDate(o.start); err != nil {
				return nil, fmt.Errorf("invalid --start: %w", err)
			}
		}
		if o.end != "" {
			if end, err = model.ParseDate(o.end); err != nil {
				return nil, fmt.Errorf("invalid --end: %w", err)
			}
		}
		switch {
		case o.start == "":
			out = append(out, store.SetEndDate{Date: end})
		case o.end == "":
			out = append(out, store.SetStartDate{Date: start})
		default:
			out = append(out, store.SetDateRange{Start: start, End: end})
		}
	}
	if o.granularity != "" {
		g, ok := model.ParseGranularity(o.granularity)
		if !ok {
			return nil, fmt.Errorf("invalid --granularity %q", o.granularity)
		}
		out = append(out, store.SetGranularity{Granularity: g})
	}
	if o.topN != 0 {
		out = append(out, store.SetTopN{N: o.topN})
	}
	if len(o.genders) > 0 {
		genders := make([]model.Gender, 0, len(o.genders))
		for _, g := range o.genders {
			gender, ok := parseGender(g)
			if !ok {
				return nil, fmt.Errorf("invalid --gender %q", g)
			}
			genders = append(genders, gender)
		}
		out = append(out, store.SetGenders{Genders: genders})
	}
	if len(o.ageGroups) > 0 {
		bands := make([]model.AgeBand, 0, len(o.ageGroups))
		for _, a := range o.ageGroups {
			band := model.AgeBand(strings.TrimSpace(a))
			if !band.Valid() {
				return nil, fmt.Errorf("invalid --age-group %q", a)
			}
			bands = append(bands, band)
		}
		out = append(out, store.SetAgeGroups{AgeGroups: bands})
	}
	return out, nil
}

func parseGender(in string) (model.Gender, bool) {
	for _, g := range model.Genders {
		if strings.EqualFold(string(g), strings.TrimSpace(in)) {
			return g, true
		}
	}
	return "", false
}

// resolveCountries maps names or ids to the ids of the loaded countries.
func resolveCountries(wanted []string, countries []model.Country) ([]model.CountryID, error) {
	out := make([]model.CountryID, 0, len(wanted))
	for _, w := range wanted {
		w = strings.TrimSpace(w)
		found := false
		for _, c := range countries {
			if string(c.ID) == w || strings.EqualFold(c.Name, w) {
				out = append(out, c.ID)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown country %q", w)
		}
	}
	return out, nil
}

// resolver returns the workflow hook that appends the location selection to
// the flag actions once the country list is known.
func (o *chartsOptions) resolver(actions []store.Action) func([]model.Country) ([]store.Action, error) {
	return func(countries []model.Country) ([]store.Action, error) {
		out := append([]store.Action(nil), actions...)
		if len(o.countries) == 0 {
			if len(o.cities) > 0 {
				return nil, fmt.Errorf("--city requires --country")
			}
			return out, nil
		}
		ids, err := resolveCountries(o.countries, countries)
		if err != nil {
			return nil, err
		}
		out = append(out, store.SetCountries{IDs: ids})
		if len(o.cities) > 0 {
			cities := make([]model.CityID, len(o.cities))
			for i, c := range o.cities {
				cities[i] = model.CityID(strings.TrimSpace(c))
			}
			out = append(out, store.SetCities{IDs: cities})
		}
		return out, nil
	}
}

func renderCharts(ctx context.Context, st *StateManager, opts *chartsOptions, actions []store.Action) (*chartsReport, error) {
	outcome, charts, err := workflow.RenderCharts(ctx, st.dashboard, opts.resolver(actions))
	if err != nil {
		return nil, err
	}
	view := st.dashboard.View()
	if outcome.Status == model.StatusFailed {
		return nil, fmt.Errorf("%s", view.Error)
	}
	return &chartsReport{
		Tab:     view.Filters.ActiveTab,
		Filters: view.Filters,
		Outcome: outcome,
		Summary: view.Summary,
		Charts:  charts,
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
