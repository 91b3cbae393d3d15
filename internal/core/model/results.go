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

package model

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"
)

// Row is one aggregate row returned by the backend. Its shape depends on the
// query (period+metric, category+metric, location+metric, segment+revenue...).
type Row map[string]any

// String returns the column as text. Numbers are formatted without a
// trailing ".0" so they can serve as chart categories (e.g. a year period).
func (r Row) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Number returns the column as a float. Numeric strings are accepted because
// DECIMAL aggregates are serialised as strings by the backend.
func (r Row) Number(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Clone copies the row so presenters can decorate it freely.
func (r Row) Clone() Row {
	return maps.Clone(r)
}

// CloneRows copies every row of a slice.
func CloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}

// TabStatus is the per-tab fetch state: idle -> loading -> populated or
// partially-populated (or failed when every query of the batch failed).
type TabStatus string

const (
	StatusIdle               TabStatus = "idle"
	StatusLoading            TabStatus = "loading"
	StatusPopulated          TabStatus = "populated"
	StatusPartiallyPopulated TabStatus = "partially-populated"
	StatusFailed             TabStatus = "failed"
)

// TabResult maps each named query of a tab to its rows.
type TabResult struct {
	Tab        Tab              `json:"tab"`
	Queries    map[string][]Row `json:"queries"`
	Status     TabStatus        `json:"status"`
	Generation uint64           `json:"generation"`
	UpdatedAt  time.Time        `json:"updated_at,omitempty"`
}

// NewTabResult returns an idle, empty result for tab.
func NewTabResult(tab Tab) *TabResult {
	return &TabResult{Tab: tab, Queries: make(map[string][]Row), Status: StatusIdle}
}

// Rows returns the rows of a named query, or nil.
func (t *TabResult) Rows(query string) []Row {
	if t == nil {
		return nil
	}
	return t.Queries[query]
}

// Clone deep copies the result.
func (t *TabResult) Clone() *TabResult {
	if t == nil {
		return nil
	}
	out := *t
	out.Queries = make(map[string][]Row, len(t.Queries))
	for k, v := range t.Queries {
		out.Queries[k] = CloneRows(v)
	}
	return &out
}

// Summary holds the headline numbers shown above the charts.
type Summary struct {
	TotalOrders     float64 `json:"total_orders"`
	UniqueCustomers float64 `json:"unique_customers"`
	TotalItems      float64 `json:"total_items"`
	TotalSales      float64 `json:"total_sales"`
}
