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
	"maps"
	"sync"
)

// bag is the state shared by a BaseContext and all of its forks.
type bag struct {
	mu     sync.RWMutex
	data   map[string]any
	errors map[string]error
}

// BaseContext is the default implementation of the Context interface.
type BaseContext struct {
	shared  *bag
	context context.Context
}

// NewBaseContext returns an empty context bound to context.Background().
func NewBaseContext() Context {
	return &BaseContext{
		shared: &bag{
			data:   make(map[string]any),
			errors: make(map[string]error),
		},
		context: context.Background(),
	}
}

// SetContext sets the underlying Go context. Only the goroutine that owns
// this BaseContext may call it; parallel branches use Fork instead.
func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

// GetContext retrieves the underlying Go context.
func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Fork returns a view over the same data and errors with its own Go context.
func (c *BaseContext) Fork(context context.Context) Context {
	return &BaseContext{shared: c.shared, context: context}
}

// Add stores a key-value pair.
func (c *BaseContext) Add(key string, value any) Context {
	c.shared.mu.Lock()
	defer c.shared.mu.Unlock()
	c.shared.data[key] = value
	return c
}

// AddError records an error keyed by the command name. A later error for the
// same key replaces the earlier one.
func (c *BaseContext) AddError(key string, err error) {
	c.shared.mu.Lock()
	defer c.shared.mu.Unlock()
	c.shared.errors[key] = err
}

// GetErrors returns a snapshot of the error map.
func (c *BaseContext) GetErrors() map[string]error {
	c.shared.mu.RLock()
	defer c.shared.mu.RUnlock()
	return maps.Clone(c.shared.errors)
}

// Get retrieves a value by key, or nil.
func (c *BaseContext) Get(key string) any {
	c.shared.mu.RLock()
	defer c.shared.mu.RUnlock()
	return c.shared.data[key]
}

// Remove deletes a key.
func (c *BaseContext) Remove(key string) {
	c.shared.mu.Lock()
	defer c.shared.mu.Unlock()
	delete(c.shared.data, key)
}

// HasErrors reports whether any command recorded an error.
func (c *BaseContext) HasErrors() bool {
	c.shared.mu.RLock()
	defer c.shared.mu.RUnlock()
	return len(c.shared.errors) > 0
}
