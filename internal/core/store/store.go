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

// Package store holds the filter state of a dashboard session. State changes
// only through typed actions dispatched to the Store, which keeps the
// invariants of model.FilterState:
//   - the date range is ordered (out of order edits are clamped);
//   - selected cities belong to selected countries, and there are none when
//     no country is selected;
//   - top-N stays within [model.MinTopN, model.MaxTopN].
//
// The store does no I/O.
package store

import (
	"log/slog"
	"sync"

	"github.com/jaycherian/olap-dashboard/internal/core/model"
)

// CityCountryLookup returns the country a city belongs to. ok is false for
// cities that are not in the loaded reference data.
type CityCountryLookup func(id model.CityID) (country model.CountryID, ok bool)

// Listener is notified after a dispatch that changed the state.
type Listener func(prev, next model.FilterState)

// Store is the single owner of a session's filter state.
type Store struct {
	mu        sync.Mutex
	state     model.FilterState
	initial   model.FilterState
	lookup    CityCountryLookup
	listeners map[int]Listener
	nextID    int
}

// New creates a store. initial is normalized through the same rules as the
// actions so an inconsistent configuration cannot leak into the session.
func New(initial model.FilterState) *Store {
	initial = normalize(initial)
	return &Store{
		state:     initial.Clone(),
		initial:   initial,
		listeners: make(map[int]Listener),
	}
}

// SetCityLookup installs the function used to find the country of a city.
func (s *Store) SetCityLookup(lookup CityCountryLookup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookup = lookup
}

// State returns a copy of the current filter state.
func (s *Store) State() model.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Dispatch applies actions in order as one transition and returns the
// resulting state. Listeners run after the lock is released, once per call,
// and only if the state changed.
func (s *Store) Dispatch(actions ...Action) model.FilterState {
	s.mu.Lock()
	prev := s.state.Clone()
	next := s.state.Clone()
	env := env{lookup: s.lookup, initial: s.initial}
	for _, a := range actions {
		if a == nil {
			continue
		}
		next = a.reduce(next, env)
		slog.Debug("filter action applied", "action", a.Name())
	}
	s.state = next
	listeners := make([]Listener, 0, len(s.listeners))
	for i := 0; i < s.nextID; i++ {
		if l, ok := s.listeners[i]; ok {
			listeners = append(listeners, l)
		}
	}
	s.mu.Unlock()

	if !prev.Equal(next) {
		for _, l := range listeners {
			l(prev.Clone(), next.Clone())
		}
	}
	return next.Clone()
}

// Subscribe registers l and returns a function removing it. Listeners are
// called in subscription order.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func normalize(f model.FilterState) model.FilterState {
	def := model.DefaultFilterState()
	if f.DateRange.Start.IsZero() {
		f.DateRange.Start = def.DateRange.Start
	}
	if f.DateRange.End.IsZero() {
		f.DateRange.End = def.DateRange.End
	}
	if !f.DateRange.Valid() {
		f.DateRange.End = f.DateRange.Start
	}
	if !f.Granularity.Valid() {
		f.Granularity = def.Granularity
	}
	if !f.ActiveTab.Valid() {
		f.ActiveTab = def.ActiveTab
	}
	if f.TopN == 0 {
		f.TopN = def.TopN
	}
	f.TopN = model.ClampTopN(f.TopN)
	f.Countries = unique(f.Countries)
	if len(f.Countries) == 0 {
		f.Cities = nil
	}
	f.Cities = unique(f.Cities)
	f.Genders = unique(filter(f.Genders, model.Gender.Valid))
	f.AgeGroups = unique(filter(f.AgeGroups, model.AgeBand.Valid))
	return f
}
