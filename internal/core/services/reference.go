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
	"sync"

	"github.com/jaycherian/olap-dashboard/internal/core/commands"
	"github.com/jaycherian/olap-dashboard/internal/core/cor"
	"github.com/jaycherian/olap-dashboard/internal/core/model"
)

// ReferenceSource provides the enumerations behind the filter dropdowns.
type ReferenceSource interface {
	Countries(ctx context.Context) ([]model.Country, error)
	commands.CitySource
}

// ReferenceLoader owns the country list and the cities of the selected
// countries. Failures never surface as errors: they leave the lists empty
// and are logged.
type ReferenceLoader struct {
	source      ReferenceSource
	maxParallel int

	mu          sync.RWMutex
	countries   []model.Country
	cities      []model.City
	cityCountry map[model.CityID]model.CountryID
	generation  uint64
}

// NewReferenceLoader creates a loader. maxParallel bounds the per-country
// city requests; zero means unbounded.
func NewReferenceLoader(source ReferenceSource, maxParallel int) *ReferenceLoader {
	return &ReferenceLoader{
		source:      source,
		maxParallel: maxParallel,
		cityCountry: make(map[model.CityID]model.CountryID),
	}
}

// LoadCountries fetches the country list. On failure the list is emptied.
func (r *ReferenceLoader) LoadCountries(ctx context.Context) []model.Country {
	countries, err := r.source.Countries(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to load countries", "error", err)
		countries = nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.countries = countries
	return cloneSlice(r.countries)
}

// LoadCities refreshes the cities of the selected countries. An empty
// selection clears the list without any request. Otherwise one request per
// country runs in parallel; the results are merged in selection order and
// deduplicated by (name, country), first occurrence winning. A country whose
// request fails contributes nothing.
//
// When a newer refresh starts before this one finishes, this one's result is
// discarded and the newer state is returned.
func (r *ReferenceLoader) LoadCities(ctx context.Context, selected []model.CountryID) []model.City {
	r.mu.Lock()
	r.generation++
	gen := r.generation
	if len(selected) == 0 {
		r.cities = nil
		r.cityCountry = make(map[model.CityID]model.CountryID)
		r.mu.Unlock()
		return []model.City{}
	}
	names := make(map[model.CountryID]string, len(r.countries))
	for _, c := range r.countries {
		names[c.ID] = c.Name
	}
	r.mu.Unlock()

	chain := cor.NewParallelChain("load-cities", r.maxParallel)
	targets := make([]model.Country, 0, len(selected))
	for _, id := range selected {
		name, ok := names[id]
		if !ok {
			slog.WarnContext(ctx, "selected country is not in the reference list", "country", id)
			continue
		}
		country := model.Country{ID: id, Name: name}
		targets = append(targets, country)
		chain.AddCommand(commands.NewFetchCities(r.source, country))
	}

	chCtx := cor.NewBaseContext()
	chCtx.SetContext(ctx)
	chain.Execute(chCtx)

	type key struct{ name, country string }
	seen := make(map[key]struct{})
	merged := []model.City{}
	owners := make(map[model.CityID]model.CountryID)
	for _, country := range targets {
		cities, _ := chCtx.Get(commands.CitiesKey(country.ID)).([]model.City)
		for _, city := range cities {
			k := key{city.Name, city.Country}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			merged = append(merged, city)
			if _, ok := owners[city.ID]; !ok {
				owners[city.ID] = country.ID
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation {
		slog.DebugContext(ctx, "discarding stale city refresh", "generation", gen, "current", r.generation)
		return cloneSlice(r.cities)
	}
	r.cities = merged
	r.cityCountry = owners
	return cloneSlice(merged)
}

// Snapshot returns a copy of the loaded reference data.
func (r *ReferenceLoader) Snapshot() model.ReferenceSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return model.ReferenceSnapshot{
		Countries: cloneSlice(r.countries),
		Cities:    cloneSlice(r.cities),
	}
}

// CityCountry returns the selected country a loaded city was fetched for.
func (r *ReferenceLoader) CityCountry(id model.CityID) (model.CountryID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	country, ok := r.cityCountry[id]
	return country, ok
}

// ResolveCountryNames maps ids to names, dropping unknown ids.
func (r *ReferenceLoader) ResolveCountryNames(ids []model.CountryID) []string {
	return r.Snapshot().CountryNames(ids)
}

// ResolveCityNames maps ids to names, dropping unknown ids.
func (r *ReferenceLoader) ResolveCityNames(ids []model.CityID) []string {
	return r.Snapshot().CityNames(ids)
}

func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
