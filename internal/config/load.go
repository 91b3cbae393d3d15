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

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Configuration constants define the file naming scheme and the environment
// variables that drive hierarchical loading.
const (
	ConfigFileBaseName  = ".env"               // The base name for configuration files (e.g., ".env.toml").
	ConfigFileExtension = ".toml"              // The file extension for configuration files.
	ConfigSeparator     = "."                  // The separator used in config file names (e.g., ".env.local.toml").
	EnvConfigFilePrefix = "OLAP_CONFIG_PREFIX" // The environment variable for specifying the config directory.
	EnvConfigRuntime    = "OLAP_RUNTIME"       // The runtime context (e.g., "local", "test", "prod").
	EnvBackendURL       = "OLAP_API_BASE_URL"  // Overrides backend.base_url.
)

func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// LoadConfig provides a hierarchical configuration loading mechanism. It first loads a
// base configuration file and then overwrites its values with an environment-specific
// configuration file. Missing files are skipped; a file that fails to decode is an error.
//
// Inputs:
//   - baseConfig: A pointer to the target configuration struct.
//
// Outputs:
//   - error: The decode error of the first malformed file.
func LoadConfig(baseConfig *Config) error {
	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	if len(configurationFilePrefix) > 0 && !strings.HasSuffix(configurationFilePrefix, string(os.PathSeparator)) {
		configurationFilePrefix = configurationFilePrefix + string(os.PathSeparator)
	}

	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}

	baseConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigFileExtension
	envConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension
	slog.Debug("loading configuration", "base", baseConfigFileName, "runtime", envConfigFileName)

	for _, name := range []string{baseConfigFileName, envConfigFileName} {
		if !fileExists(name) {
			continue
		}
		if _, err := toml.DecodeFile(name, baseConfig); err != nil {
			return fmt.Errorf("failed to decode configuration file %s: %w", name, err)
		}
	}

	if url := strings.TrimSpace(os.Getenv(EnvBackendURL)); url != "" {
		baseConfig.Backend.BaseURL = url
	}
	baseConfig.Backend.BaseURL = strings.TrimSuffix(baseConfig.Backend.BaseURL, "/")
	return nil
}
