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

package presenter

import (
	"sort"
	"strings"

	"github.com/jaycherian/olap-dashboard/internal/core/model"
)

// ColumnSeparator joins the values of the column keys of a pivot.
const ColumnSeparator = "_"

// Pivot turns long rows into wide rows. Rows are grouped by the index column
// in first-seen order; each group gets one column per distinct combination
// of the columns keys (joined with "_") holding the numeric value. Repeated
// combinations are summed. The returned column names are in first-seen order.
// The input rows are not modified.
//
// Example: rows keyed by (location, gender, age_group, total_orders) with
// index "location", columns ["gender", "age_group"] and value "total_orders"
// yield {location: "NCR", "Male_18-24": 10, "Female_18-24": 12}.
func Pivot(rows []model.Row, index string, columns []string, value string) ([]model.Row, []string) {
	out := []model.Row{}
	series := []string{}
	byIndex := make(map[string]model.Row)
	seenSeries := make(map[string]struct{})

	for _, r := range rows {
		idx := r.String(index)
		parts := make([]string, len(columns))
		for i, c := range columns {
			parts[i] = r.String(c)
		}
		col := strings.Join(parts, ColumnSeparator)

		wide, ok := byIndex[idx]
		if !ok {
			wide = model.Row{index: idx}
			byIndex[idx] = wide
			out = append(out, wide)
		}
		if _, ok := seenSeries[col]; !ok {
			seenSeries[col] = struct{}{}
			series = append(series, col)
		}
		prev, _ := wide[col].(float64)
		wide[col] = prev + r.Number(value)
	}
	return out, series
}

// TopN returns the n rows with the largest value, ties kept in input order.
// The input is not modified.
func TopN(rows []model.Row, value string, n int) []model.Row {
	out := model.CloneRows(rows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Number(value) > out[j].Number(value)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
