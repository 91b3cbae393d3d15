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

// Query names, grouped by tab. They key TabResult.Queries.
const (
	QryOrdersOverTime   = "orders-over-time"
	QryOrdersByCategory = "orders-by-category"
	QryOrdersByLocation = "orders-by-location"

	QrySalesOverTime   = "sales-over-time"
	QrySalesByCategory = "sales-by-category"
	QrySalesByLocation = "sales-by-location"

	QryOrdersByDemographics = "orders-by-demographics"
	QrySegmentsAge          = "segments-age"
	QrySegmentsGender       = "segments-gender"
	QrySegmentsLocation     = "segments-location"

	QryTopProducts         = "top-products"
	QryTopPerCategory      = "top-per-category"
	QryCategoryPerformance = "category-performance"

	QryOrdersPerRider      = "orders-per-rider"
	QryDeliveryPerformance = "delivery-performance"
)

// Column names of the aggregate rows.
const (
	ColPeriod          = "period"
	ColCategory        = "category"
	ColLocation        = "location"
	ColGender          = "gender"
	ColAgeGroup        = "age_group"
	ColSegment         = "segment"
	ColName            = "name"
	ColCourier         = "courier_name"
	ColTotalOrders     = "total_orders"
	ColTotalSales      = "total_sales"
	ColUniqueCustomers = "unique_customers"
	ColTotalItems      = "total_items"
	ColTotalRevenue    = "total_revenue"
	ColTotal           = "total"
	ColAvgOrderValue   = "avg_order_value"
	ColAvgDeliveryDays = "avg_delivery_days"
)
