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

package cor

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// MeterName is the instrumentation scope used for command counters.
const MeterName = "github.com/jaycherian/olap-dashboard/cor"

// BaseCommand is embedded by every command. It carries the name, the
// input/output keys used for piping and the OpenTelemetry instruments.
type BaseCommand struct {
	Name            string              // A unique name for the command, used for tracing and metrics.
	InputParamName  string              // The key to look up this command's primary input in the context.
	OutputParamName string              // The key to store this command's primary output in the context.
	Tracer          trace.Tracer        // An OpenTelemetry tracer for creating spans.
	Meter           metric.Meter        // An OpenTelemetry meter for creating metrics.
	SuccessCounter  metric.Int64Counter // A metric counter that increments on successful execution.
	ErrorCounter    metric.Int64Counter // A metric counter that increments when an error occurs.
}

// NewBaseCommand creates a command named name with a tracer and a pair of
// success/error counters taken from the global providers.
//
// Inputs:
//   - name: The string name for this command.
//
// Outputs:
//   - *BaseCommand: A pointer to the newly instantiated command.
func NewBaseCommand(name string) *BaseCommand {
	meter := otel.Meter(MeterName)

	successCounter, err := meter.Int64Counter(fmt.Sprintf("%s.counter.success", name))
	if err != nil {
		slog.Warn("failed to create success counter", "command", name, "error", err)
	}
	errorCounter, err := meter.Int64Counter(fmt.Sprintf("%s.counter.error", name))
	if err != nil {
		slog.Warn("failed to create error counter", "command", name, "error", err)
	}

	return &BaseCommand{
		Name:           name,
		Tracer:         otel.Tracer(name),
		Meter:          meter,
		SuccessCounter: successCounter,
		ErrorCounter:   errorCounter,
	}
}

// GetName returns the name of the command.
func (c *BaseCommand) GetName() string {
	return c.Name
}

// IsExecutable requires a Go context and a value under the input key.
func (c *BaseCommand) IsExecutable(context Context) bool {
	return context != nil && context.Get(c.GetInputParam()) != nil && context.GetContext() != nil
}

// GetInputParam returns InputParamName, defaulting to CtxIn.
func (c *BaseCommand) GetInputParam() string {
	if len(c.InputParamName) == 0 {
		return CtxIn
	}
	return c.InputParamName
}

// GetOutputParam returns OutputParamName, defaulting to CtxOut.
func (c *BaseCommand) GetOutputParam() string {
	if len(c.OutputParamName) == 0 {
		return CtxOut
	}
	return c.OutputParamName
}

func (c *BaseCommand) GetTracer() trace.Tracer {
	return c.Tracer
}

func (c *BaseCommand) GetMeter() metric.Meter {
	return c.Meter
}

func (c *BaseCommand) GetSuccessCounter() metric.Int64Counter {
	return c.SuccessCounter
}

func (c *BaseCommand) GetErrorCounter() metric.Int64Counter {
	return c.ErrorCounter
}

// Succeeded increments the success counter.
func (c *BaseCommand) Succeeded(ctx Context) {
	if c.SuccessCounter != nil {
		c.SuccessCounter.Add(ctx.GetContext(), 1)
	}
}

// Failed records err under the command name and increments the error counter.
func (c *BaseCommand) Failed(ctx Context, err error) {
	ctx.AddError(c.GetName(), err)
	if c.ErrorCounter != nil {
		c.ErrorCounter.Add(ctx.GetContext(), 1)
	}
}
