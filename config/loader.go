// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
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
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// EnvPrefix marks environment variables that override any config key.
	EnvPrefix = "PEDAGOGUE_"

	// DefaultDotEnv is loaded by Load when no other .env path is given.
	DefaultDotEnv = ".env"
)

// envAliases maps the conventional variable names to config keys.
var envAliases = map[string]string{
	"ANTHROPIC_API_KEY":     "providers.anthropic_api_key",
	"ANTHROPIC_MODEL":       "providers.anthropic_model",
	"GEMINI_API_KEY":        "providers.gemini_api_key",
	"GEMINI_MODEL":          "providers.gemini_model",
	"OPENAI_API_KEY":        "providers.openai_api_key",
	"OPENAI_MODEL":          "providers.openai_model",
	"OPENAI_BASE_URL":       "providers.openai_base_url",
	"PEDAGOGUE_DB":          "db",
	"PEDAGOGUE_COURSES_DIR": "courses_dir",
	"PEDAGOGUE_OUTPUT_DIR":  "output_dir",
	"PEDAGOGUE_MAX_CHARS":   "segment.max_chars",
}

// Load builds the configuration from defaults, an optional YAML file and
// the environment.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables
//  2. Variables from the .env file at dotenvPath (never overriding the real environment)
//  3. YAML config file at configPath
//  4. Default()
//
// An empty configPath skips the YAML file; a non-empty one must exist.
// An empty dotenvPath loads DefaultDotEnv; a missing .env file is ignored.
//
// # Environment Variable Mapping
//
// The provider credentials and a few paths use their conventional names
// (ANTHROPIC_API_KEY, GEMINI_MODEL, PEDAGOGUE_DB, PEDAGOGUE_MAX_CHARS, ...).
// Any other key is reachable through the PEDAGOGUE_ prefix, with a double
// underscore between sections:
//
//	PEDAGOGUE_LOG_LEVEL                -> log_level
//	PEDAGOGUE_EVALUATION__CONCURRENCY  -> evaluation.concurrency
//	PEDAGOGUE_PROVIDERS__ORDER         -> providers.order (comma separated)
func Load(configPath, dotenvPath string) (*Config, error) {
	if err := loadDotEnv(dotenvPath); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if configPath != "" {
		content, err := readConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if k.Exists("providers.order") {
		cfg.Providers.Order = nil
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// envKey maps an environment variable to a config key, or to "" for
// variables that are not configuration.
func envKey(name string) string {
	if key, ok := envAliases[name]; ok {
		return key
	}
	if !strings.HasPrefix(name, EnvPrefix) {
		return ""
	}
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

func loadDotEnv(path string) error {
	if path == "" {
		path = DefaultDotEnv
	}
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("config file %s is not a regular file", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	return io.ReadAll(f)
}
