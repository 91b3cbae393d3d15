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

package services

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jaycherian/olap-dashboard/internal/core/commands"
	"github.com/jaycherian/olap-dashboard/internal/core/cor"
	"github.com/jaycherian/olap-dashboard/internal/core/model"
	"github.com/jaycherian/olap-dashboard/internal/telemetry"
)

// FetchErrorMessage is the banner text shown when every query of a batch failed.
const FetchErrorMessage = "Failed to fetch data. Check if backend is running."

// Outcome describes what a call to Dispatch did.
type Outcome struct {
	Tab        model.Tab       `json:"tab"`
	BatchID    string          `json:"batch_id,omitempty"`
	Generation uint64          `json:"generation"`
	Suppressed bool            `json:"suppressed"`
	Stale      bool            `json:"stale"`
	Status     model.TabStatus `json:"status"`
	Succeeded  []string        `json:"succeeded,omitempty"`
	Failed     []string        `json:"failed,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Dispatcher turns the filter state into backend queries for one tab and
// merges the answers into that tab's result.
//
// Rules:
//   - at most one batch per tab is in flight; a dispatch for a loading tab is
//     suppressed without any request;
//   - every batch carries a generation token and is only applied while its
//     generation is still the tab's current one;
//   - a failed query keeps its previous rows, a successful one replaces them.
type Dispatcher struct {
	fetcher     commands.RowFetcher
	metrics     *telemetry.Metrics
	maxParallel int
	tracer      trace.Tracer

	mu         sync.Mutex
	results    map[model.Tab]*model.TabResult
	inFlight   map[model.Tab]bool
	generation map[model.Tab]uint64
}

// NewDispatcher creates a dispatcher. metrics may be nil.
func NewDispatcher(fetcher commands.RowFetcher, metrics *telemetry.Metrics, maxParallel int) *Dispatcher {
	results := make(map[model.Tab]*model.TabResult, len(model.Tabs))
	for _, tab := range model.Tabs {
		results[tab] = model.NewTabResult(tab)
	}
	return &Dispatcher{
		fetcher:     fetcher,
		metrics:     metrics,
		maxParallel: maxParallel,
		tracer:      otel.Tracer("github.com/jaycherian/olap-dashboard/dispatcher"),
		results:     results,
		inFlight:    make(map[model.Tab]bool),
		generation:  make(map[model.Tab]uint64),
	}
}

// Dispatch runs the query plan of state.ActiveTab and waits until every
// query has settled. It never returns an error; failures are reported in the
// Outcome and reflected in the tab status.
//
// Inputs:
//   - ctx: The request context. Cancelling it fails the outstanding queries.
//   - state: The filter state to query with.
//   - ref: The reference data used to resolve ids to names.
//
// Outputs:
//   - Outcome: What happened to the batch.
func (d *Dispatcher) Dispatch(ctx context.Context, state model.FilterState, ref model.ReferenceSnapshot) Outcome {
	tab := state.ActiveTab
	if !tab.Valid() {
		return Outcome{Tab: tab, Suppressed: true}
	}

	d.mu.Lock()
	if d.inFlight[tab] {
		d.mu.Unlock()
		slog.InfoContext(ctx, "dispatch suppressed, batch already in flight", "tab", tab)
		if d.metrics != nil {
			d.metrics.Suppressed.WithLabelValues(string(tab)).Inc()
		}
		return Outcome{Tab: tab, Suppressed: true, Status: model.StatusLoading}
	}
	d.generation[tab]++
	gen := d.generation[tab]
	d.inFlight[tab] = true
	previousStatus := d.results[tab].Status
	d.results[tab].Status = model.StatusLoading
	d.mu.Unlock()
	if d.metrics != nil {
		d.metrics.InFlight.Inc()
	}

	batchID := uuid.NewString()
	ctx, span := d.tracer.Start(ctx, "dispatch", trace.WithAttributes(
		attribute.String("tab", string(tab)),
		attribute.String("batch_id", batchID),
		attribute.Int64("generation", int64(gen)),
	))
	defer span.End()

	plan := PlanQueries(state, ref)
	chain := cor.NewParallelChain("dispatch-"+string(tab), d.maxParallel)
	for _, q := range plan {
		chain.AddCommand(commands.NewFetchRows(q.Name, d.fetcher, q.Endpoint, q.Params))
	}
	slog.InfoContext(ctx, "dispatching batch", "tab", tab, "batch_id", batchID, "queries", len(plan))

	chCtx := cor.NewBaseContext()
	chCtx.SetContext(ctx)
	chain.Execute(chCtx)

	out := Outcome{Tab: tab, BatchID: batchID, Generation: gen}
	fresh := make(map[string][]model.Row, len(plan))
	for _, q := range plan {
		if rows, ok := chCtx.Get(q.Name).([]model.Row); ok {
			fresh[q.Name] = rows
			out.Succeeded = append(out.Succeeded, q.Name)
		} else {
			out.Failed = append(out.Failed, q.Name)
		}
	}
	sort.Strings(out.Succeeded)
	sort.Strings(out.Failed)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.inFlight[tab] = false
	if d.metrics != nil {
		d.metrics.InFlight.Dec()
	}

	result := d.results[tab]
	if gen != d.generation[tab] {
		result.Status = previousStatus
		out.Stale = true
		out.Status = previousStatus
		slog.InfoContext(ctx, "discarding stale batch", "tab", tab, "batch_id", batchID, "generation", gen, "current", d.generation[tab])
		d.countBatch(tab, "stale")
		return out
	}

	queries := make(map[string][]model.Row, len(plan))
	for _, q := range plan {
		if rows, ok := fresh[q.Name]; ok {
			queries[q.Name] = rows
		} else if prev, ok := result.Queries[q.Name]; ok {
			queries[q.Name] = prev
		}
	}
	result.Queries = queries
	result.Generation = gen
	result.UpdatedAt = time.Now()
	switch {
	case len(out.Failed) == 0:
		result.Status = model.StatusPopulated
	case len(out.Succeeded) == 0:
		result.Status = model.StatusFailed
		out.Error = FetchErrorMessage
	default:
		result.Status = model.StatusPartiallyPopulated
	}
	out.Status = result.Status
	span.SetAttributes(attribute.String("status", string(result.Status)))
	slog.InfoContext(ctx, "batch settled", "tab", tab, "batch_id", batchID,
		"status", result.Status, "succeeded", len(out.Succeeded), "failed", len(out.Failed))
	d.countBatch(tab, string(result.Status))
	return out
}

func (d *Dispatcher) countBatch(tab model.Tab, status string) {
	if d.metrics != nil {
		d.metrics.Batches.WithLabelValues(string(tab), status).Inc()
	}
}

// Invalidate bumps the generation of tab so an outstanding batch is discarded
// when it settles. The dashboard calls it when a Reset makes the loading
// batch's filters obsolete.
func (d *Dispatcher) Invalidate(tab model.Tab) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.generation[tab]++
}

// InFlight reports whether tab has an outstanding batch.
func (d *Dispatcher) InFlight(tab model.Tab) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inFlight[tab]
}

// Loading reports whether any tab has an outstanding batch.
func (d *Dispatcher) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, v := range d.inFlight {
		if v {
			return true
		}
	}
	return false
}

// Result returns a copy of the tab's current result.
func (d *Dispatcher) Result(tab model.Tab) *model.TabResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r, ok := d.results[tab]; ok {
		return r.Clone()
	}
	return model.NewTabResult(tab)
}

// Statuses returns the status of every tab.
func (d *Dispatcher) Statuses() map[model.Tab]model.TabStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[model.Tab]model.TabStatus, len(d.results))
	for tab, r := range d.results {
		out[tab] = r.Status
	}
	return out
}
