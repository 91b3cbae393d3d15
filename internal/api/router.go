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

// Package api contains the HTTP route definitions of the dashboard service.
//
// Functions:
//   - NewRouter: Builds the gin engine with telemetry, CORS, metrics and health routes.
//   - Dashboard: Registers the session routes under /dashboard.
//   - Reference: Registers the reference data routes under /reference.
package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/olap-dashboard/internal/core/services"
)

// NewRouter creates the engine serving dash. gatherer backs /metrics and may
// be nil to use the default Prometheus registry.
func NewRouter(serviceName string, dash *services.Dashboard, gatherer prometheus.Gatherer) *gin.Engine {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(cors.Default())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	apiV1 := r.Group("/api/v1")
	{
		Dashboard(apiV1, dash)
		Reference(apiV1, dash)
	}
	return r
}
