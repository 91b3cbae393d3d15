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

// Package backend provides the HTTP client for the aggregation API. Every
// endpoint answers with the envelope {success, data, error}; this package
// decodes it and hands back the data rows, leaving the "failure means empty
// data" policy to its callers.
//
// Structs:
//   - Client: A rate-limited, instrumented client for the aggregation API.
//
// Functions:
//   - NewClient: Builds a client from the backend configuration.
//   - FetchRows: Issues one GET and returns the decoded rows.
//   - Countries, Cities: Typed wrappers around the filter endpoints.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jaycherian/olap-dashboard/internal/config"
	"github.com/jaycherian/olap-dashboard/internal/core/model"
	"github.com/jaycherian/olap-dashboard/internal/telemetry"
)

// Filter endpoints used to populate the reference dropdowns.
const (
	EndpointCountries = "/api/filters/countries"
	EndpointCities    = "/api/filters/cities"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 16 << 20

var (
	// ErrUnsuccessful is returned when the envelope reports success=false.
	ErrUnsuccessful = errors.New("backend reported failure")
	// ErrStatus is returned for any non-2xx response.
	ErrStatus = errors.New("unexpected backend status")
)

// Fetcher is the read side of the aggregation API used by the loaders and
// the dispatcher. Tests substitute their own implementation.
type Fetcher interface {
	FetchRows(ctx context.Context, endpoint string, params url.Values) ([]model.Row, error)
}

// Client talks to the aggregation API.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *QuotaAwareLimiter
	metrics *telemetry.Metrics
}

// NewClient creates a client for cfg. The transport is wrapped with otelhttp
// so each request becomes a child span of the caller. metrics may be nil.
func NewClient(cfg config.Backend, metrics *telemetry.Metrics) *Client {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = config.DefaultBackendURL
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout:   cfg.Timeout(),
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: NewQuotaAwareLimiter(cfg.MaxRequestsPerSecond, cfg.Burst),
		metrics: metrics,
	}
}

// BaseURL returns the root the client sends requests to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchRows issues GET endpoint?params and returns the data array of the
// envelope. Transport errors, non-2xx statuses, undecodable bodies and
// success=false envelopes are all returned as errors.
//
// Inputs:
//   - ctx: Request context; its deadline applies on top of the client timeout.
//   - endpoint: The API path, e.g. "/api/orders/total-orders-over-time".
//   - params: Query parameters. Empty values are dropped.
//
// Outputs:
//   - []model.Row: The rows of the data array (never nil on success).
//   - error: The failure, wrapped with the endpoint name.
func (c *Client) FetchRows(ctx context.Context, endpoint string, params url.Values) ([]model.Row, error) {
	var rows []model.Row
	err := c.get(ctx, endpoint, params, func(body []byte) (err error) {
		rows, err = decodeRows(body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Countries loads the country reference list.
func (c *Client) Countries(ctx context.Context) ([]model.Country, error) {
	out := []model.Country{}
	err := c.get(ctx, EndpointCountries, nil, func(body []byte) error {
		return decodeData(body, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Cities loads the cities of a single country, addressed by name.
func (c *Client) Cities(ctx context.Context, country string) ([]model.City, error) {
	params := url.Values{}
	params.Set("country", country)
	out := []model.City{}
	err := c.get(ctx, EndpointCities, params, func(body []byte) error {
		return decodeData(body, &out)
	})
	if err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Country == "" {
			out[i].Country = country
		}
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, decode func([]byte) error) (err error) {
	start := time.Now()
	defer func() {
		c.observe(endpoint, start, err)
	}()

	if err = c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limiter: %w", endpoint, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(endpoint, params), nil)
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%s: reading body: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: %w %d: %s", endpoint, ErrStatus, resp.StatusCode, errorMessage(body))
	}
	if err = decode(body); err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) buildURL(endpoint string, params url.Values) string {
	u := c.baseURL + "/" + strings.TrimPrefix(endpoint, "/")
	clean := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			if v != "" {
				clean.Add(k, v)
			}
		}
	}
	if len(clean) > 0 {
		u += "?" + clean.Encode()
	}
	return u
}

func (c *Client) observe(endpoint string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
		slog.Debug("backend request failed", "endpoint", endpoint, "error", err)
	}
	if c.metrics == nil {
		return
	}
	c.metrics.BackendRequests.WithLabelValues(endpoint, status).Inc()
	c.metrics.BackendDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
