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

package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jaycherian/olap-dashboard/internal/core/model"
)

func TestRowNumber(t *testing.T) {
	row := model.Row{
		"json":    json.Number("42"),
		"float":   12.5,
		"int":     7,
		"decimal": " 1234.50 ",
		"bad":     "n/a",
		"bool":    true,
	}
	assert.Equal(t, 42.0, row.Number("json"))
	assert.Equal(t, 12.5, row.Number("float"))
	assert.Equal(t, 7.0, row.Number("int"))
	assert.Equal(t, 1234.5, row.Number("decimal"))
	assert.Equal(t, 0.0, row.Number("bad"))
	assert.Equal(t, 0.0, row.Number("bool"))
	assert.Equal(t, 0.0, row.Number("missing"))
}

func TestRowString(t *testing.T) {
	row := model.Row{"period": json.Number("2025"), "year": 2025.0, "name": "NCR", "n": nil}
	assert.Equal(t, "2025", row.String("period"))
	assert.Equal(t, "2025", row.String("year"))
	assert.Equal(t, "NCR", row.String("name"))
	assert.Equal(t, "", row.String("n"))
	assert.Equal(t, "", row.String("missing"))
}

func TestTabResultClone(t *testing.T) {
	res := model.NewTabResult(model.TabOrders)
	assert.Equal(t, model.StatusIdle, res.Status)

	res.Queries[model.QryOrdersOverTime] = []model.Row{{"period": "2025-01", "total_orders": 3.0}}
	clone := res.Clone()
	clone.Queries[model.QryOrdersOverTime][0]["total_orders"] = 9.0

	assert.Equal(t, 3.0, res.Rows(model.QryOrdersOverTime)[0]["total_orders"])
	assert.Nil(t, res.Rows(model.QryOrdersByLocation))

	var nilResult *model.TabResult
	assert.Nil(t, nilResult.Rows(model.QryOrdersOverTime))
	assert.Nil(t, nilResult.Clone())
}
