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

package test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/jaycherian/olap-dashboard/internal/config"
)

// Reference data paths served by every fake backend.
const (
	CountriesPath = "/api/filters/countries"
	CitiesPath    = "/api/filters/cities"
)

// Backend is a fake aggregation API. Routes answer with canned envelopes,
// every request is counted and its query recorded, and a route can be held
// open until the test releases it.
type Backend struct {
	Server *httptest.Server

	mu      sync.Mutex
	routes  map[string]http.HandlerFunc
	cities  map[string][]map[string]any
	calls   map[string]int
	queries map[string][]url.Values
	gates   map[string]chan struct{}
}

// NewBackend starts a fake backend that is closed when the test ends.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		routes:  make(map[string]http.HandlerFunc),
		cities:  make(map[string][]map[string]any),
		calls:   make(map[string]int),
		queries: make(map[string][]url.Values),
		gates:   make(map[string]chan struct{}),
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(func() {
		b.releaseAll()
		b.Server.Close()
	})
	return b
}

// URL is the base URL of the fake.
func (b *Backend) URL() string {
	return b.Server.URL
}

// Config returns backend settings pointing at the fake with rate limiting off.
func (b *Backend) Config() config.Backend {
	return config.Backend{
		BaseURL:        b.URL(),
		TimeoutSeconds: 5,
		MaxParallel:    4,
	}
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.calls[r.URL.Path]++
	b.queries[r.URL.Path] = append(b.queries[r.URL.Path], r.URL.Query())
	handler := b.routes[r.URL.Path]
	gate := b.gates[r.URL.Path]
	var cities []map[string]any
	citiesKnown := false
	if r.URL.Path == CitiesPath {
		country := r.URL.Query().Get("country")
		cities, citiesKnown = b.cities[country]
		if gate == nil {
			gate = b.gates[citiesGate(country)]
		}
	}
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	switch {
	case handler != nil:
		handler(w, r)
	case citiesKnown:
		WriteEnvelope(w, http.StatusOK, cities, "")
	default:
		WriteEnvelope(w, http.StatusNotFound, nil, "not found: "+r.URL.Path)
	}
}

// WriteEnvelope writes a response envelope. An empty errMsg means success.
func WriteEnvelope(w http.ResponseWriter, status int, data any, errMsg string) {
	body := map[string]any{"success": errMsg == ""}
	if errMsg == "" {
		body["data"] = data
	} else {
		body["error"] = errMsg
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Handle installs a custom handler for path.
func (b *Backend) Handle(path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[path] = h
}

// Rows makes path answer successfully with data.
func (b *Backend) Rows(path string, data any) {
	b.Handle(path, func(w http.ResponseWriter, _ *http.Request) {
		WriteEnvelope(w, http.StatusOK, data, "")
	})
}

// Fail makes path answer with an HTTP error status.
func (b *Backend) Fail(path string, status int, message string) {
	b.Handle(path, func(w http.ResponseWriter, _ *http.Request) {
		WriteEnvelope(w, status, nil, message)
	})
}

// Unsuccessful makes path answer 200 with success=false.
func (b *Backend) Unsuccessful(path string, message string) {
	b.Handle(path, func(w http.ResponseWriter, _ *http.Request) {
		WriteEnvelope(w, http.StatusOK, nil, message)
	})
}

// Countries serves the country reference list.
func (b *Backend) Countries(countries ...map[string]any) {
	b.Rows(CountriesPath, countries)
}

// Cities serves the cities of the country named country.
func (b *Backend) Cities(country string, cities ...map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cities[country] = cities
}

// Block holds every request to path until the returned function is called.
func (b *Backend) Block(path string) (release func()) {
	return b.block(path)
}

// BlockCities holds the city requests of one country until released. The
// other countries keep answering.
func (b *Backend) BlockCities(country string) (release func()) {
	return b.block(citiesGate(country))
}

func citiesGate(country string) string {
	return CitiesPath + "?country=" + country
}

func (b *Backend) block(key string) (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.gates[key] = gate
	b.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if b.gates[key] == gate {
				delete(b.gates, key)
				close(gate)
			}
		})
	}
}

func (b *Backend) releaseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for path, gate := range b.gates {
		close(gate)
		delete(b.gates, path)
	}
}

// Calls returns how many requests reached path.
func (b *Backend) Calls(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

// TotalCalls returns the number of requests across all paths.
func (b *Backend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

// Queries returns the query strings received on path, oldest first.
func (b *Backend) Queries(path string) []url.Values {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]url.Values(nil), b.queries[path]...)
}

// LastQuery returns the most recent query string received on path.
func (b *Backend) LastQuery(path string) url.Values {
	q := b.Queries(path)
	if len(q) == 0 {
		return nil
	}
	return q[len(q)-1]
}
