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

// Package presenter maps a tab's query results to chart configurations. It is
// a pure package: no I/O, and the results it is given are never modified.
package presenter

import (
	"github.com/jaycherian/olap-dashboard/internal/core/model"
)

// Present builds the charts of tab from its result. topN caps the ranked
// charts (categories, products). Charts whose query has no rows are still
// returned, with empty data, so the surface can show "no data"; the only
// exception is the by-location chart, which only exists when rows exist.
func Present(tab model.Tab, result *model.TabResult, topN int) []model.ChartSpec {
	topN = model.ClampTopN(topN)
	switch tab {
	case model.TabOrders:
		return volumeCharts(result, topN, volume{
			noun: "Orders", metric: model.ColTotalOrders,
			overTime: model.QryOrdersOverTime, byCategory: model.QryOrdersByCategory, byLocation: model.QryOrdersByLocation,
			series: []string{model.ColTotalOrders, model.ColUniqueCustomers},
		})
	case model.TabSales:
		return volumeCharts(result, topN, volume{
			noun: "Sales", metric: model.ColTotalSales,
			overTime: model.QrySalesOverTime, byCategory: model.QrySalesByCategory, byLocation: model.QrySalesByLocation,
			series: []string{model.ColTotalSales},
		})
	case model.TabUsers:
		return userCharts(result)
	case model.TabProducts:
		return productCharts(result, topN)
	case model.TabRiders:
		return riderCharts(result)
	default:
		return []model.ChartSpec{}
	}
}

type volume struct {
	noun                             string
	metric                           string
	overTime, byCategory, byLocation string
	series                           []string
}

func volumeCharts(result *model.TabResult, topN int, v volume) []model.ChartSpec {
	charts := []model.ChartSpec{
		{
			Type:        model.ChartLine,
			Title:       "Total " + v.noun + " Over Time",
			Description: v.noun + " per period for the selected date range",
			DataKey:     v.metric,
			XAxisKey:    model.ColPeriod,
			Data:        model.CloneRows(result.Rows(v.overTime)),
			Series:      v.series,
		},
		categoryBar(
			v.noun+" by Product Category",
			"Top product categories by "+v.metric,
			TopN(result.Rows(v.byCategory), v.metric, topN),
			v.metric,
		),
	}
	if rows := result.Rows(v.byLocation); len(rows) > 0 {
		charts = append(charts, model.ChartSpec{
			Type:        model.ChartBar,
			Title:       v.noun + " by Location",
			Description: v.noun + " for the selected locations",
			DataKey:     v.metric,
			XAxisKey:    model.ColLocation,
			Data:        model.CloneRows(rows),
		})
	}
	return charts
}

func categoryBar(title, description string, rows []model.Row, metric string) model.ChartSpec {
	return model.ChartSpec{
		Type:            model.ChartBar,
		Title:           title,
		Description:     description,
		DataKey:         metric,
		XAxisKey:        model.ColCategory,
		Data:            rows,
		ColorByCategory: true,
		CategoryKey:     model.ColCategory,
		Colors:          AssignColors(rows, model.ColCategory),
	}
}

func userCharts(result *model.TabResult) []model.ChartSpec {
	wide, series := Pivot(result.Rows(model.QryOrdersByDemographics),
		model.ColLocation, []string{model.ColGender, model.ColAgeGroup}, model.ColTotalOrders)
	charts := []model.ChartSpec{{
		Type:        model.ChartBar,
		Title:       "Orders by Demographics",
		Description: "Orders per location split by gender and age group",
		DataKey:     model.ColTotalOrders,
		XAxisKey:    model.ColLocation,
		Data:        wide,
		Series:      series,
		Stacked:     true,
		Colors:      colorsForSeries(series),
	}}
	for _, seg := range []struct{ query, title string }{
		{model.QrySegmentsAge, "Revenue by Age Group"},
		{model.QrySegmentsGender, "Revenue by Gender"},
		{model.QrySegmentsLocation, "Revenue by Location"},
	} {
		rows := model.CloneRows(result.Rows(seg.query))
		charts = append(charts, model.ChartSpec{
			Type:            model.ChartPie,
			Title:           seg.title,
			Description:     "Share of total revenue per segment",
			DataKey:         model.ColTotalRevenue,
			XAxisKey:        model.ColSegment,
			Data:            rows,
			ColorByCategory: true,
			CategoryKey:     model.ColSegment,
			Colors:          AssignColors(rows, model.ColSegment),
		})
	}
	return charts
}

func productCharts(result *model.TabResult, topN int) []model.ChartSpec {
	perCategory := model.CloneRows(result.Rows(model.QryTopPerCategory))
	performance, categories := Pivot(result.Rows(model.QryCategoryPerformance),
		model.ColPeriod, []string{model.ColCategory}, model.ColAvgOrderValue)
	return []model.ChartSpec{
		{
			Type:        model.ChartBar,
			Title:       "Top Products by Revenue",
			Description: "Best performing products in the selected range",
			DataKey:     model.ColTotal,
			XAxisKey:    model.ColName,
			Data:        TopN(result.Rows(model.QryTopProducts), model.ColTotal, topN),
		},
		{
			Type:            model.ChartBar,
			Title:           "Top Products per Category",
			Description:     "Best performing products of each category",
			DataKey:         model.ColTotalRevenue,
			XAxisKey:        model.ColName,
			Data:            perCategory,
			ColorByCategory: true,
			CategoryKey:     model.ColCategory,
			Colors:          AssignColors(perCategory, model.ColCategory),
		},
		{
			Type:        model.ChartLine,
			Title:       "Category Performance",
			Description: "Average order value per category over time",
			DataKey:     model.ColAvgOrderValue,
			XAxisKey:    model.ColPeriod,
			Data:        performance,
			Series:      categories,
			Colors:      colorsForSeries(categories),
		},
	}
}

func riderCharts(result *model.TabResult) []model.ChartSpec {
	orders, couriers := Pivot(result.Rows(model.QryOrdersPerRider),
		model.ColPeriod, []string{model.ColCourier}, model.ColTotalOrders)
	delivery, deliveryCouriers := Pivot(result.Rows(model.QryDeliveryPerformance),
		model.ColPeriod, []string{model.ColCourier}, model.ColAvgDeliveryDays)
	return []model.ChartSpec{
		{
			Type:        model.ChartBar,
			Title:       "Orders per Rider",
			Description: "Orders handled by each courier per period",
			DataKey:     model.ColTotalOrders,
			XAxisKey:    model.ColPeriod,
			Data:        orders,
			Series:      couriers,
			Colors:      colorsForSeries(couriers),
		},
		{
			Type:        model.ChartLine,
			Title:       "Delivery Performance",
			Description: "Average delivery days per courier",
			DataKey:     model.ColAvgDeliveryDays,
			XAxisKey:    model.ColPeriod,
			Data:        delivery,
			Series:      deliveryCouriers,
			Colors:      colorsForSeries(deliveryCouriers),
		},
	}
}

// Summarize computes the headline numbers of the orders and sales tabs from
// their over-time rows: totals are summed, unique customers come from the
// first period. Other tabs have no summary.
func Summarize(tab model.Tab, result *model.TabResult) model.Summary {
	var rows []model.Row
	switch tab {
	case model.TabOrders:
		rows = result.Rows(model.QryOrdersOverTime)
	case model.TabSales:
		rows = result.Rows(model.QrySalesOverTime)
	default:
		return model.Summary{}
	}
	var s model.Summary
	for _, r := range rows {
		s.TotalOrders += r.Number(model.ColTotalOrders)
		s.TotalItems += r.Number(model.ColTotalItems)
		s.TotalSales += r.Number(model.ColTotalSales)
	}
	if len(rows) > 0 {
		s.UniqueCustomers = rows[0].Number(model.ColUniqueCustomers)
	}
	return s
}
