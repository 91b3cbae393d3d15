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

	"go.opentelemetry.io/otel/codes"
)

// BaseChain runs its commands one after another. After each command the value
// stored under CtxOut is moved to CtxIn so the next command consumes it.
//
// Each command runs inside a child span of the chain span. When a command
// records an error the chain stops unless ContinueOnFailure(true) was set.
type BaseChain struct {
	BaseCommand
	continueOnFailure bool
	commands          []Command
}

// NewBaseChain creates an empty sequential chain.
func NewBaseChain(name string) *BaseChain {
	return &BaseChain{BaseCommand: *NewBaseCommand(name)}
}

// ContinueOnFailure sets whether later commands run after an error.
func (c *BaseChain) ContinueOnFailure(continueOnFailure bool) Chain {
	c.continueOnFailure = continueOnFailure
	return c
}

// AddCommand appends a command to the sequence.
func (c *BaseChain) AddCommand(command Command) Chain {
	c.commands = append(c.commands, command)
	return c
}

// IsExecutable only requires a Go context; chains have no input of their own.
func (c *BaseChain) IsExecutable(context Context) bool {
	return context != nil && context.GetContext() != nil
}

// Execute runs the commands in order.
//
// Inputs:
//   - chCtx: The shared Context for the execution.
func (c *BaseChain) Execute(chCtx Context) {
	parentCtx := chCtx.GetContext()
	outerCtx, chainSpan := c.Tracer.Start(parentCtx, fmt.Sprintf("%s_execute", c.GetName()))
	defer chainSpan.End()
	defer chCtx.SetContext(parentCtx)

	for _, command := range c.commands {
		if chCtx.HasErrors() && !c.continueOnFailure {
			break
		}
		if err := outerCtx.Err(); err != nil {
			chCtx.AddError(c.GetName(), err)
			break
		}

		commandContext, commandSpan := c.Tracer.Start(outerCtx, command.GetName())
		if command.IsExecutable(chCtx) {
			chCtx.SetContext(commandContext)
			command.Execute(chCtx)
			chCtx.SetContext(outerCtx)
		} else {
			commandSpan.SetStatus(codes.Error, fmt.Sprintf("command not executable: %s", command.GetName()))
		}

		if _, failed := chCtx.GetErrors()[command.GetName()]; failed {
			commandSpan.SetStatus(codes.Error, "command failed")
		} else {
			commandSpan.SetStatus(codes.Ok, "")
		}
		commandSpan.End()

		outputValue := chCtx.Get(CtxOut)
		chCtx.Remove(CtxIn)
		if outputValue != nil {
			chCtx.Add(CtxIn, outputValue)
		}
		chCtx.Remove(CtxOut)
	}

	if chCtx.HasErrors() {
		chainSpan.SetStatus(codes.Error, "chain failed to execute")
	} else {
		chainSpan.SetStatus(codes.Ok, "")
	}
}
