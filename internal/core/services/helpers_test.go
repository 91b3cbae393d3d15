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
	"net/url"
	"sync"
	"time"

	"github.com/jaycherian/olap-dashboard/internal/core/model"
)

// fakeFetcher answers FetchRows from memory. Endpoints without canned rows
// succeed with no rows; a closed-over gate holds every call until released.
type fakeFetcher struct {
	mu     sync.Mutex
	rows   map[string][]model.Row
	errs   map[string]error
	calls  map[string]int
	params map[string]url.Values
	gate   chan struct{}
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		rows:   make(map[string][]model.Row),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
		params: make(map[string]url.Values),
	}
}

func (f *fakeFetcher) FetchRows(ctx context.Context, endpoint string, params url.Values) ([]model.Row, error) {
	f.mu.Lock()
	f.calls[endpoint]++
	f.params[endpoint] = params
	gate := f.gate
	rows, err := f.rows[endpoint], f.errs[endpoint]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return model.CloneRows(rows), nil
}

func (f *fakeFetcher) set(endpoint string, rows []model.Row, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[endpoint] = rows
	if err != nil {
		f.errs[endpoint] = err
	} else {
		delete(f.errs, endpoint)
	}
}

// block holds every call until the returned function runs.
func (f *fakeFetcher) block() (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gate = gate
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			f.gate = nil
			f.mu.Unlock()
			close(gate)
		})
	}
}

func (f *fakeFetcher) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeFetcher) callCount(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[endpoint]
}

func (f *fakeFetcher) lastParams(endpoint string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.params[endpoint]
}

func day(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// reference is a small snapshot: two countries with one city each.
func reference() model.ReferenceSnapshot {
	return model.ReferenceSnapshot{
		Countries: []model.Country{{ID: "1", Name: "Philippines"}, {ID: "2", Name: "United States"}},
		Cities: []model.City{
			{ID: "10", Name: "Manila", Country: "Philippines"},
			{ID: "20", Name: "Austin", Country: "United States"},
		},
	}
}

func stateFor(tab model.Tab) model.FilterState {
	s := model.DefaultFilterState()
	s.ActiveTab = tab
	return s
}
