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

import "github.com/jaycherian/olap-dashboard/internal/core/model"

// Palette is the fixed set of chart colors.
var Palette = []string{
	"#3b82f6", "#10b981", "#8b5cf6", "#f59e0b",
	"#ef4444", "#06b6d4", "#ec4899", "#84cc16",
}

// AssignColors gives every distinct value of key a palette color, in
// first-seen order and wrapping around the palette.
func AssignColors(rows []model.Row, key string) map[string]string {
	out := make(map[string]string)
	for _, r := range rows {
		v := r.String(key)
		if _, ok := out[v]; ok {
			continue
		}
		out[v] = Palette[len(out)%len(Palette)]
	}
	return out
}

// colorsForSeries assigns palette colors to series names in order.
func colorsForSeries(series []string) map[string]string {
	out := make(map[string]string, len(series))
	for i, s := range series {
		out[s] = Palette[i%len(Palette)]
	}
	return out
}
