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

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/olap-dashboard/internal/core/services"
)

// Reference registers read-only routes over the loaded reference data.
// Cities are those of the currently selected countries.
func Reference(r *gin.RouterGroup, dash *services.Dashboard) {
	reference := r.Group("/reference")
	{
		reference.GET("/countries", func(c *gin.Context) {
			c.JSON(http.StatusOK, dash.Reference().Snapshot().Countries)
		})
		reference.GET("/cities", func(c *gin.Context) {
			c.JSON(http.StatusOK, dash.Reference().Snapshot().Cities)
		})
	}
}
