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

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jaycherian/olap-dashboard/internal/core/cor"
	"github.com/jaycherian/olap-dashboard/internal/core/model"
)

// CitySource loads the cities of a single country.
type CitySource interface {
	Cities(ctx context.Context, country string) ([]model.City, error)
}

// FetchCities loads the cities of one selected country. The reference loader
// runs one per country in a cor.ParallelChain and merges the outputs in
// selection order.
type FetchCities struct {
	cor.BaseCommand
	source  CitySource
	country model.Country
}

// CitiesKey is the context key the cities of country id are stored under.
func CitiesKey(id model.CountryID) string {
	return "cities." + string(id)
}

// NewFetchCities creates the command for country.
func NewFetchCities(source CitySource, country model.Country) *FetchCities {
	out := &FetchCities{
		BaseCommand: *cor.NewBaseCommand(CitiesKey(country.ID)),
		source:      source,
		country:     country,
	}
	out.OutputParamName = CitiesKey(country.ID)
	return out
}

func (f *FetchCities) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

// Execute fetches the cities. A failure leaves the output key unset so the
// country contributes nothing to the merged list.
func (f *FetchCities) Execute(context cor.Context) {
	cities, err := f.source.Cities(context.GetContext(), f.country.Name)
	if err != nil {
		slog.WarnContext(context.GetContext(), "failed to load cities", "country", f.country.Name, "error", err)
		f.Failed(context, fmt.Errorf("cities of %s: %w", f.country.Name, err))
		return
	}
	f.Succeeded(context)
	context.Add(f.GetOutputParam(), cities)
}
