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

package presenter_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/olap-dashboard/internal/core/model"
	"github.com/jaycherian/olap-dashboard/internal/core/presenter"
)

func TestPivotDemographics(t *testing.T) {
	rows := []model.Row{
		{"location": "NCR", "gender": "Male", "age_group": "18-24", "total_orders": json.Number("10")},
		{"location": "NCR", "gender": "Female", "age_group": "18-24", "total_orders": json.Number("12")},
	}
	wide, series := presenter.Pivot(rows, model.ColLocation, []string{model.ColGender, model.ColAgeGroup}, model.ColTotalOrders)

	assert.Equal(t, []model.Row{{"location": "NCR", "Male_18-24": 10.0, "Female_18-24": 12.0}}, wide)
	assert.Equal(t, []string{"Male_18-24", "Female_18-24"}, series)
	assert.Len(t, rows[0], 4, "input rows are untouched")
}

func TestPivotSumsRepeatsAndKeepsOrder(t *testing.T) {
	rows := []model.Row{
		{"period": "2025-02", "courier_name": "Ana", "total_orders": 3},
		{"period": "2025-01", "courier_name": "Ben", "total_orders": 1},
		{"period": "2025-02", "courier_name": "Ana", "total_orders": "2"},
	}
	wide, series := presenter.Pivot(rows, model.ColPeriod, []string{model.ColCourier}, model.ColTotalOrders)

	require.Len(t, wide, 2)
	assert.Equal(t, "2025-02", wide[0]["period"])
	assert.Equal(t, 5.0, wide[0]["Ana"])
	assert.Equal(t, 1.0, wide[1]["Ben"])
	assert.Equal(t, []string{"Ana", "Ben"}, series)

	empty, none := presenter.Pivot(nil, model.ColPeriod, []string{model.ColCourier}, model.ColTotalOrders)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
	assert.Empty(t, none)
}

func TestTopN(t *testing.T) {
	rows := []model.Row{
		{"name": "a", "total": 5.0},
		{"name": "b", "total": 9.0},
		{"name": "c", "total": 5.0},
		{"name": "d", "total": 1.0},
	}
	top := presenter.TopN(rows, "total", 3)
	require.Len(t, top, 3)
	assert.Equal(t, "b", top[0]["name"])
	assert.Equal(t, "a", top[1]["name"], "ties keep input order")
	assert.Equal(t, "c", top[2]["name"])
	assert.Equal(t, "a", rows[0]["name"], "input order is untouched")
}

func TestAssignColors(t *testing.T) {
	var rows []model.Row
	for i := 0; i < 10; i++ {
		rows = append(rows, model.Row{"category": fmt.Sprintf("c%d", i)})
	}
	rows = append(rows, model.Row{"category": "c0"})

	colors := presenter.AssignColors(rows, model.ColCategory)
	assert.Len(t, colors, 10)
	assert.Equal(t, "#3b82f6", colors["c0"])
	assert.Equal(t, "#10b981", colors["c1"])
	assert.Equal(t, "#84cc16", colors["c7"])
	assert.Equal(t, "#3b82f6", colors["c8"], "the palette wraps around")
}

func TestPresentOrders(t *testing.T) {
	result := model.NewTabResult(model.TabOrders)
	result.Queries[model.QryOrdersOverTime] = []model.Row{{"period": "2025-01", "total_orders": 4.0}}
	var categories []model.Row
	for i := 0; i < 9; i++ {
		categories = append(categories, model.Row{"category": fmt.Sprintf("c%d", i), "total_orders": float64(i)})
	}
	result.Queries[model.QryOrdersByCategory] = categories

	charts := presenter.Present(model.TabOrders, result, 3)
	require.Len(t, charts, 2, "no location chart without location rows")

	assert.Equal(t, model.ChartLine, charts[0].Type)
	assert.Equal(t, model.ColPeriod, charts[0].XAxisKey)
	assert.Len(t, charts[0].Data, 1)

	bar := charts[1]
	assert.Equal(t, model.ChartBar, bar.Type)
	assert.True(t, bar.ColorByCategory)
	require.Len(t, bar.Data, 3)
	assert.Equal(t, "c8", bar.Data[0]["category"])
	assert.Equal(t, "#3b82f6", bar.Colors["c8"])

	result.Queries[model.QryOrdersByLocation] = []model.Row{{"location": "Philippines", "total_orders": 4.0}}
	assert.Len(t, presenter.Present(model.TabOrders, result, 3), 3)
}

func TestPresentEmptyTabsShowNoData(t *testing.T) {
	for _, tab := range []model.Tab{model.TabSales, model.TabUsers, model.TabProducts, model.TabRiders} {
		charts := presenter.Present(tab, model.NewTabResult(tab), model.DefaultTopN)
		require.NotEmpty(t, charts, tab)
		for _, c := range charts {
			assert.True(t, c.Empty(), "%s: %s", tab, c.Title)
		}
	}
	assert.Empty(t, presenter.Present("inventory", nil, 5))
}

func TestPresentUsersStacksDemographics(t *testing.T) {
	result := model.NewTabResult(model.TabUsers)
	result.Queries[model.QryOrdersByDemographics] = []model.Row{
		{"location": "NCR", "gender": "Male", "age_group": "18-24", "total_orders": 10},
	}
	result.Queries[model.QrySegmentsGender] = []model.Row{
		{"segment": "Male", "total_revenue": 100.0},
		{"segment": "Female", "total_revenue": 140.0},
	}

	charts := presenter.Present(model.TabUsers, result, 5)
	require.Len(t, charts, 4)
	assert.True(t, charts[0].Stacked)
	assert.Equal(t, []string{"Male_18-24"}, charts[0].Series)
	assert.Equal(t, model.ChartPie, charts[2].Type)
	assert.Equal(t, "#10b981", charts[2].Colors["Female"])
}

func TestSummarize(t *testing.T) {
	result := model.NewTabResult(model.TabSales)
	result.Queries[model.QrySalesOverTime] = []model.Row{
		{"period": "2025-01", "total_sales": "100.25", "total_orders": 2, "unique_customers": 2, "total_items": 3},
		{"period": "2025-02", "total_sales": 50.0, "total_orders": 1, "unique_customers": 1, "total_items": 1},
	}

	s := presenter.Summarize(model.TabSales, result)
	assert.Equal(t, 150.25, s.TotalSales)
	assert.Equal(t, 3.0, s.TotalOrders)
	assert.Equal(t, 4.0, s.TotalItems)
	assert.Equal(t, 2.0, s.UniqueCustomers)

	assert.Equal(t, model.Summary{}, presenter.Summarize(model.TabRiders, result))
	assert.Equal(t, model.Summary{}, presenter.Summarize(model.TabOrders, nil))
}
