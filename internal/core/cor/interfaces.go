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

// Package cor (Chain of Responsibility) provides the building blocks the
// dashboard uses to run backend work: a command per query, a sequential chain
// for bootstrap steps and a parallel chain for fan-out batches.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the default keys used by BaseChain to pipe the output
// of one command into the input of the next.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the property bag shared by the commands of one execution. It
// carries data, errors and the Go context holding the current span.
// Implementations must be safe for concurrent use since a ParallelChain runs
// its commands on separate goroutines.
type Context interface {
	// SetContext replaces the Go context (cancellation and trace propagation).
	SetContext(context context.Context)

	// GetContext returns the Go context.
	GetContext() context.Context

	// Fork returns a Context that shares data and errors with the receiver
	// but carries its own Go context. Parallel branches each get a fork so
	// their spans do not overwrite one another.
	Fork(context context.Context) Context

	// Add stores a value and returns the Context for chaining.
	Add(key string, value any) Context

	// AddError records the error produced by the named command.
	AddError(key string, err error)

	// GetErrors returns a copy of the recorded errors.
	GetErrors() map[string]error

	// Get returns the stored value or nil.
	Get(key string) any

	// Remove deletes a value.
	Remove(key string)

	// HasErrors reports whether any error was recorded.
	HasErrors() bool
}

// Executable is anything with an Execute step.
type Executable interface {
	Execute(context Context)
}

// Command is an atomic unit of work.
type Command interface {
	Executable

	// GetName returns the unique name of the command, used for logging and telemetry.
	GetName() string

	// GetInputParam returns the key of the command's primary input.
	GetInputParam() string

	// GetOutputParam returns the key the command stores its output under.
	GetOutputParam() string

	// IsExecutable is the precondition check run before Execute.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is a Command made of other commands (Composite Pattern).
type Chain interface {
	Command

	// ContinueOnFailure controls whether remaining commands run after one
	// of them records an error.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command.
	AddCommand(command Command) Chain
}
