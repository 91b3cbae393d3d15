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
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// ParallelChain runs its commands concurrently and returns once every one of
// them has settled. A failing command never cancels its siblings: commands
// report failure through AddError, and the chain only joins.
//
// Commands write their results under their own output keys; there is no
// CtxIn/CtxOut piping between parallel branches.
type ParallelChain struct {
	BaseCommand
	limit    int
	commands []Command
}

// NewParallelChain creates a chain running at most limit commands at once.
// A non-positive limit means no bound.
func NewParallelChain(name string, limit int) *ParallelChain {
	return &ParallelChain{BaseCommand: *NewBaseCommand(name), limit: limit}
}

// ContinueOnFailure is accepted for interface compatibility. A parallel batch
// always runs every command.
func (c *ParallelChain) ContinueOnFailure(bool) Chain {
	return c
}

// AddCommand adds a branch.
func (c *ParallelChain) AddCommand(command Command) Chain {
	c.commands = append(c.commands, command)
	return c
}

// Len returns the number of branches.
func (c *ParallelChain) Len() int {
	return len(c.commands)
}

// IsExecutable only requires a Go context.
func (c *ParallelChain) IsExecutable(context Context) bool {
	return context != nil && context.GetContext() != nil
}

// Execute fans out one goroutine per command (bounded by the limit) and waits
// for all of them. Each branch gets a fork of chCtx carrying its own span.
func (c *ParallelChain) Execute(chCtx Context) {
	parentCtx := chCtx.GetContext()
	outerCtx, chainSpan := c.Tracer.Start(parentCtx, fmt.Sprintf("%s_execute", c.GetName()))
	defer chainSpan.End()
	chainSpan.SetAttributes(attribute.Int("branches", len(c.commands)))

	// A plain Group (not WithContext) so one failure does not cancel the rest.
	var g errgroup.Group
	if c.limit > 0 {
		g.SetLimit(c.limit)
	}
	for _, command := range c.commands {
		g.Go(func() error {
			c.runBranch(outerCtx, chCtx, command)
			return nil
		})
	}
	_ = g.Wait()

	errs := chCtx.GetErrors()
	failed := 0
	for _, command := range c.commands {
		if _, ok := errs[command.GetName()]; ok {
			failed++
		}
	}
	chainSpan.SetAttributes(attribute.Int("failed", failed))
	switch {
	case failed == 0:
		chainSpan.SetStatus(codes.Ok, "")
	case failed == len(c.commands):
		chainSpan.SetStatus(codes.Error, "every branch failed")
	default:
		chainSpan.SetStatus(codes.Error, fmt.Sprintf("%d of %d branches failed", failed, len(c.commands)))
	}
}

func (c *ParallelChain) runBranch(outerCtx context.Context, chCtx Context, command Command) {
	branchCtx, span := c.Tracer.Start(outerCtx, command.GetName())
	defer span.End()

	fork := chCtx.Fork(branchCtx)
	if !command.IsExecutable(fork) {
		fork.AddError(command.GetName(), fmt.Errorf("command not executable: %s", command.GetName()))
		span.SetStatus(codes.Error, "command not executable")
		return
	}
	command.Execute(fork)
	if err, ok := fork.GetErrors()[command.GetName()]; ok {
		span.RecordError(err)
		span.SetStatus(codes.Error, "command failed")
		return
	}
	span.SetStatus(codes.Ok, "")
}
