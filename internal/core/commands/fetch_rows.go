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

// Package commands provides the concrete cor.Command implementations used by
// the dashboard. This file defines the command behind every chart query: one
// GET against the aggregation API whose rows are stored in the context under
// the query name.
//
// Logic Flow:
//  1. The dispatcher builds one FetchRows per query of the active tab and adds
//     them to a cor.ParallelChain.
//  2. Each command calls the backend with its endpoint and parameters.
//  3. On success the rows are stored under the command's output key.
//  4. On failure the error is recorded under the command name and nothing is
//     stored, so the caller keeps the previous rows for that query.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/jaycherian/olap-dashboard/internal/core/cor"
	"github.com/jaycherian/olap-dashboard/internal/core/model"
)

// RowFetcher is the part of the backend client FetchRows depends on.
type RowFetcher interface {
	FetchRows(ctx context.Context, endpoint string, params url.Values) ([]model.Row, error)
}

// FetchRows issues one aggregation query.
type FetchRows struct {
	cor.BaseCommand
	fetcher  RowFetcher
	endpoint string
	params   url.Values
}

// NewFetchRows is the constructor for the FetchRows command.
//
// Inputs:
//   - name: The query name (e.g. "orders-over-time"); also the output key.
//   - fetcher: The backend client.
//   - endpoint: The API path.
//   - params: The query string parameters.
//
// Outputs:
//   - *FetchRows: The command.
func NewFetchRows(name string, fetcher RowFetcher, endpoint string, params url.Values) *FetchRows {
	out := &FetchRows{
		BaseCommand: *cor.NewBaseCommand(name),
		fetcher:     fetcher,
		endpoint:    endpoint,
		params:      params,
	}
	out.OutputParamName = name
	return out
}

// Endpoint returns the API path the command calls.
func (f *FetchRows) Endpoint() string {
	return f.endpoint
}

// Params returns the query parameters the command sends.
func (f *FetchRows) Params() url.Values {
	return f.params
}

// IsExecutable only requires a Go context; the request is fully described by
// the command itself.
func (f *FetchRows) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

// Execute performs the request.
func (f *FetchRows) Execute(context cor.Context) {
	rows, err := f.fetcher.FetchRows(context.GetContext(), f.endpoint, f.params)
	if err != nil {
		slog.WarnContext(context.GetContext(), "query failed", "query", f.GetName(), "endpoint", f.endpoint, "error", err)
		f.Failed(context, fmt.Errorf("query %s: %w", f.GetName(), err))
		return
	}
	f.Succeeded(context)
	context.Add(f.GetOutputParam(), rows)
}
