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
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/olap-dashboard/internal/core/model"
	"github.com/jaycherian/olap-dashboard/internal/core/services"
	"github.com/jaycherian/olap-dashboard/internal/core/store"
)

// FilterPatch is the body of PATCH /dashboard/filters. Absent fields are left
// unchanged; list fields replace the selection, toggle fields flip one item.
type FilterPatch struct {
	StartDate      *string   `json:"start_date"`
	EndDate        *string   `json:"end_date"`
	Granularity    *string   `json:"time_granularity"`
	Countries      *[]string `json:"countries"`
	Cities         *[]string `json:"cities"`
	Genders        *[]string `json:"genders"`
	AgeGroups      *[]string `json:"age_groups"`
	TopN           *int      `json:"top_n"`
	ToggleCountry  string    `json:"toggle_country"`
	ToggleCity     string    `json:"toggle_city"`
	ToggleGender   string    `json:"toggle_gender"`
	ToggleAgeGroup string    `json:"toggle_age_group"`
	Reset          bool      `json:"reset"`
}

// Actions converts the patch into store actions. Reset comes first so the
// remaining fields apply on top of the initial filters.
func (p FilterPatch) Actions() ([]store.Action, error) {
	var out []store.Action
	if p.Reset {
		out = append(out, store.Reset{})
	}
	if p.StartDate != nil && p.EndDate != nil {
		start, err := model.ParseDate(*p.StartDate)
		if err != nil {
			return nil, fmt.Errorf("start_date: %w", err)
		}
		end, err := model.ParseDate(*p.EndDate)
		if err != nil {
			return nil, fmt.Errorf("end_date: %w", err)
		}
		out = append(out, store.SetDateRange{Start: start, End: end})
	} else if p.StartDate != nil {
		start, err := model.ParseDate(*p.StartDate)
		if err != nil {
			return nil, fmt.Errorf("start_date: %w", err)
		}
		out = append(out, store.SetStartDate{Date: start})
	} else if p.EndDate != nil {
		end, err := model.ParseDate(*p.EndDate)
		if err != nil {
			return nil, fmt.Errorf("end_date: %w", err)
		}
		out = append(out, store.SetEndDate{Date: end})
	}
	if p.Granularity != nil {
		g, ok := model.ParseGranularity(*p.Granularity)
		if !ok {
			return nil, fmt.Errorf("time_granularity: unknown value %q", *p.Granularity)
		}
		out = append(out, store.SetGranularity{Granularity: g})
	}
	if p.Countries != nil {
		out = append(out, store.SetCountries{IDs: convert[model.CountryID](*p.Countries)})
	}
	if p.ToggleCountry != "" {
		out = append(out, store.ToggleCountry{ID: model.CountryID(p.ToggleCountry)})
	}
	if p.Cities != nil {
		out = append(out, store.SetCities{IDs: convert[model.CityID](*p.Cities)})
	}
	if p.ToggleCity != "" {
		out = append(out, store.ToggleCity{ID: model.CityID(p.ToggleCity)})
	}
	if p.Genders != nil {
		out = append(out, store.SetGenders{Genders: convert[model.Gender](*p.Genders)})
	}
	if p.ToggleGender != "" {
		out = append(out, store.ToggleGender{Gender: model.Gender(p.ToggleGender)})
	}
	if p.AgeGroups != nil {
		out = append(out, store.SetAgeGroups{AgeGroups: convert[model.AgeBand](*p.AgeGroups)})
	}
	if p.ToggleAgeGroup != "" {
		out = append(out, store.ToggleAgeGroup{AgeGroup: model.AgeBand(p.ToggleAgeGroup)})
	}
	if p.TopN != nil {
		out = append(out, store.SetTopN{N: *p.TopN})
	}
	return out, nil
}

func convert[T ~string](in []string) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = T(v)
	}
	return out
}

// ChartsResponse is the body of GET /dashboard/charts.
type ChartsResponse struct {
	Tab     model.Tab         `json:"tab"`
	Status  model.TabStatus   `json:"status"`
	Summary model.Summary     `json:"summary"`
	Charts  []model.ChartSpec `json:"charts"`
}

// FetchResponse is returned by the apply and tab routes.
type FetchResponse struct {
	Outcome services.Outcome `json:"outcome"`
	View    services.View    `json:"view"`
}

// Dashboard registers the routes of the dashboard session.
//
// Routes:
//   - GET    /dashboard                         the current view
//   - PATCH  /dashboard/filters                 apply a FilterPatch
//   - POST   /dashboard/apply                   "Filter Results"
//   - POST   /dashboard/tabs/:tab               switch tab and fetch it
//   - GET    /dashboard/charts                  charts of the active tab
//   - DELETE /dashboard/error                   dismiss the error banner
//   - POST   /dashboard/dropdowns/:name/toggle  open or close a dropdown
//   - POST   /dashboard/dropdowns/close         close every dropdown
//
// A fetch that is suppressed because another one is in flight answers 409.
func Dashboard(r *gin.RouterGroup, dash *services.Dashboard) {
	dashboard := r.Group("/dashboard")
	{
		dashboard.GET("", func(c *gin.Context) {
			c.JSON(http.StatusOK, dash.View())
		})

		dashboard.PATCH("/filters", func(c *gin.Context) {
			var patch FilterPatch
			if err := c.ShouldBindJSON(&patch); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			actions, err := patch.Actions()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			dash.Update(detached(c), actions...)
			c.JSON(http.StatusOK, dash.View())
		})

		dashboard.POST("/apply", func(c *gin.Context) {
			outcome := dash.Apply(detached(c))
			c.JSON(fetchStatus(outcome), FetchResponse{Outcome: outcome, View: dash.View()})
		})

		dashboard.POST("/tabs/:tab", func(c *gin.Context) {
			tab, ok := model.ParseTab(c.Param("tab"))
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown tab %q", c.Param("tab"))})
				return
			}
			outcome := dash.ActivateTab(detached(c), tab)
			c.JSON(fetchStatus(outcome), FetchResponse{Outcome: outcome, View: dash.View()})
		})

		dashboard.GET("/charts", func(c *gin.Context) {
			view := dash.View()
			tab := view.Filters.ActiveTab
			c.JSON(http.StatusOK, ChartsResponse{
				Tab:     tab,
				Status:  view.Statuses[tab],
				Summary: view.Summary,
				Charts:  dash.Charts(),
			})
		})

		dashboard.DELETE("/error", func(c *gin.Context) {
			dash.DismissError()
			c.Status(http.StatusNoContent)
		})

		dashboard.POST("/dropdowns/:name/toggle", func(c *gin.Context) {
			if !dash.Dropdowns().Toggle(c.Param("name")) {
				c.JSON(http.StatusNotFound, gin.H{"error": errUnknownDropdown.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"open": dash.Dropdowns().Open()})
		})

		dashboard.POST("/dropdowns/close", func(c *gin.Context) {
			dash.Dropdowns().CloseAll()
			c.JSON(http.StatusOK, gin.H{"open": ""})
		})
	}
}

var errUnknownDropdown = errors.New("unknown dropdown")

// detached keeps the request's values (trace context) but not its
// cancellation: a batch started by a client that disconnects still settles
// and releases the in-flight guard normally.
func detached(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func fetchStatus(outcome services.Outcome) int {
	if outcome.Suppressed {
		return http.StatusConflict
	}
	return http.StatusOK
}
