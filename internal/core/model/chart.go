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

// ChartType is the kind of chart the rendering surface draws.
type ChartType string

const (
	ChartLine ChartType = "line"
	ChartBar  ChartType = "bar"
	ChartPie  ChartType = "pie"
)

// ChartSpec is a derived chart configuration. It is rebuilt whenever the tab
// result or the filters change and is never mutated after construction.
type ChartSpec struct {
	Type            ChartType         `json:"type"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	DataKey         string            `json:"data_key"`
	XAxisKey        string            `json:"x_axis_key"`
	Data            []Row             `json:"data"`
	Series          []string          `json:"series,omitempty"`
	Stacked         bool              `json:"stacked,omitempty"`
	ColorByCategory bool              `json:"color_by_category,omitempty"`
	CategoryKey     string            `json:"category_key,omitempty"`
	Colors          map[string]string `json:"colors,omitempty"`
}

// Empty reports whether the chart has nothing to draw ("no data").
func (c ChartSpec) Empty() bool {
	return len(c.Data) == 0
}
