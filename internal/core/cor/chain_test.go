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

package cor_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/olap-dashboard/internal/core/cor"
)

// stepCommand appends its name to the piped input, or fails with err.
type stepCommand struct {
	cor.BaseCommand
	err error
}

func newStep(name string, err error) *stepCommand {
	return &stepCommand{BaseCommand: *cor.NewBaseCommand(name), err: err}
}

func (s *stepCommand) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

func (s *stepCommand) Execute(context cor.Context) {
	if s.err != nil {
		s.Failed(context, s.err)
		return
	}
	in, _ := context.Get(cor.CtxIn).(string)
	context.Add(s.GetOutputParam(), in+s.GetName())
	s.Succeeded(context)
}

func TestBaseChainPipesOutputToInput(t *testing.T) {
	chain := cor.NewBaseChain("pipe")
	chain.AddCommand(newStep("a", nil)).AddCommand(newStep("b", nil)).AddCommand(newStep("c", nil))

	chCtx := cor.NewBaseContext()
	chCtx.SetContext(context.Background())
	require.True(t, chain.IsExecutable(chCtx))
	chain.Execute(chCtx)

	assert.False(t, chCtx.HasErrors())
	assert.Equal(t, "abc", chCtx.Get(cor.CtxIn))
	assert.Nil(t, chCtx.Get(cor.CtxOut))
}

func TestBaseChainStopsOnFailure(t *testing.T) {
	boom := errors.New("boom")
	chain := cor.NewBaseChain("stop")
	chain.AddCommand(newStep("a", nil)).AddCommand(newStep("b", boom)).AddCommand(newStep("c", nil))

	chCtx := cor.NewBaseContext()
	chain.Execute(chCtx)

	assert.ErrorIs(t, chCtx.GetErrors()["b"], boom)
	assert.Nil(t, chCtx.Get(cor.CtxIn), "c must not run after b failed")
}

func TestBaseChainContinueOnFailure(t *testing.T) {
	chain := cor.NewBaseChain("continue")
	chain.ContinueOnFailure(true)
	chain.AddCommand(newStep("a", nil)).AddCommand(newStep("b", errors.New("boom"))).AddCommand(newStep("c", nil))

	chCtx := cor.NewBaseContext()
	chain.Execute(chCtx)

	assert.Len(t, chCtx.GetErrors(), 1)
	// b produced nothing, so c starts from an empty input.
	assert.Equal(t, "c", chCtx.Get(cor.CtxIn))
}

func TestBaseChainHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chain := cor.NewBaseChain("cancelled")
	chain.AddCommand(newStep("a", nil))

	chCtx := cor.NewBaseContext()
	chCtx.SetContext(ctx)
	chain.Execute(chCtx)

	assert.ErrorIs(t, chCtx.GetErrors()["cancelled"], context.Canceled)
	assert.Nil(t, chCtx.Get(cor.CtxIn))
	assert.Equal(t, ctx, chCtx.GetContext(), "the caller's context is restored")
}

// sleepyCommand tracks how many instances run at once.
type sleepyCommand struct {
	cor.BaseCommand
	running *atomic.Int32
	peak    *atomic.Int32
	err     error
}

func (s *sleepyCommand) IsExecutable(context cor.Context) bool {
	return context.GetContext() != nil
}

func (s *sleepyCommand) Execute(context cor.Context) {
	n := s.running.Add(1)
	defer s.running.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	if s.err != nil {
		s.Failed(context, s.err)
		return
	}
	context.Add(s.GetOutputParam(), s.GetName())
}

func TestParallelChainSettlesEveryBranch(t *testing.T) {
	var running, peak atomic.Int32
	chain := cor.NewParallelChain("batch", 2)
	for i := 0; i < 5; i++ {
		cmd := &sleepyCommand{BaseCommand: *cor.NewBaseCommand(fmt.Sprintf("q%d", i)), running: &running, peak: &peak}
		cmd.OutputParamName = cmd.GetName()
		if i == 1 || i == 3 {
			cmd.err = fmt.Errorf("q%d failed", i)
		}
		chain.AddCommand(cmd)
	}
	assert.Equal(t, 5, chain.Len())

	chCtx := cor.NewBaseContext()
	chain.Execute(chCtx)

	errs := chCtx.GetErrors()
	assert.Len(t, errs, 2)
	assert.Contains(t, errs, "q1")
	assert.Contains(t, errs, "q3")
	for _, name := range []string{"q0", "q2", "q4"} {
		assert.Equal(t, name, chCtx.Get(name), "a failed sibling must not cancel %s", name)
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, int32(0), running.Load())
}

func TestForkSharesDataButNotGoContext(t *testing.T) {
	type key struct{}
	root := cor.NewBaseContext()
	root.SetContext(context.Background())

	branchCtx := context.WithValue(context.Background(), key{}, "branch")
	fork := root.Fork(branchCtx)
	fork.Add("k", 1)
	fork.AddError("cmd", errors.New("failed"))

	assert.Equal(t, 1, root.Get("k"))
	assert.True(t, root.HasErrors())
	assert.Nil(t, root.GetContext().Value(key{}))
	assert.Equal(t, "branch", fork.GetContext().Value(key{}))
}

func TestContextIsSafeForConcurrentUse(t *testing.T) {
	root := cor.NewBaseContext()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fork := root.Fork(context.Background())
			fork.Add(fmt.Sprintf("k%d", i), i)
			_ = fork.GetErrors()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 49, root.Get("k49"))

	errs := root.GetErrors()
	errs["x"] = errors.New("x")
	assert.False(t, root.HasErrors(), "GetErrors returns a copy")
}
