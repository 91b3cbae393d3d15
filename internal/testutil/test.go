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

// Package test provides helpers shared by the test suites: loading the test
// configuration from the repository's configs directory and a fake
// aggregation backend that speaks the {success, data, error} envelope.
package test

import (
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/olap-dashboard/internal/config"
)

// StateManager caches the test configuration so files are read once per run.
type StateManager struct {
	config *config.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is not nil.
func HandleErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// ModuleRoot walks up from the working directory to the directory holding go.mod.
func ModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// SetupOS points the loader at <module>/configs with the "test" runtime, so
// .env.test.toml overrides the base file.
func SetupOS() error {
	root, err := ModuleRoot()
	if err != nil {
		return err
	}
	if err := os.Setenv(config.EnvConfigFilePrefix, filepath.Join(root, "configs")); err != nil {
		return err
	}
	return os.Setenv(config.EnvConfigRuntime, "test")
}

// GetConfig returns the cached test configuration, loading it on first use.
// Callers get a copy they may modify.
func GetConfig() *config.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		cfg := config.NewConfig()
		if err := config.LoadConfig(cfg); err != nil {
			log.Fatalf("failed to load test configuration: %v\n", err)
		}
		state.config = cfg
	}
	out := *state.config
	return &out
}
