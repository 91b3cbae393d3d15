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

package backend

import (
	"context"

	"golang.org/x/time/rate"
)

// QuotaAwareLimiter decorates outbound requests with a token bucket so a burst
// of dashboard batches cannot overwhelm the aggregation API.
type QuotaAwareLimiter struct {
	limiter *rate.Limiter
}

// NewQuotaAwareLimiter allows requestsPerSecond requests per second with the
// given burst. A non-positive rate disables limiting.
func NewQuotaAwareLimiter(requestsPerSecond int, burst int) *QuotaAwareLimiter {
	if requestsPerSecond <= 0 {
		return &QuotaAwareLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst <= 0 {
		burst = requestsPerSecond
	}
	return &QuotaAwareLimiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Wait blocks until a token is available or ctx is done.
func (q *QuotaAwareLimiter) Wait(ctx context.Context) error {
	return q.limiter.Wait(ctx)
}
