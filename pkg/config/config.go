// Copyright 2025 walteh LLC
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
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/constify/pkg/commit"
)

// Defaults matching the CLI flag surface.
const (
	DefaultEndpoint  = "http://localhost:8000/v1/chat/completions"
	DefaultModel     = "gpt-4"
	DefaultExtension = ".java"
	DefaultWorkers   = 4
	DefaultTimeout   = 300 * time.Second
	DefaultRetries   = 3
	DefaultBackoff   = time.Second
)

// DefaultExcludeDirs are directory names skipped during the walk.
var DefaultExcludeDirs = []string{".git", "target", "build", ".idea"}

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Config represents the complete configuration
type Config struct {
	// Root is the codebase root to walk
	Root string `json:"root" yaml:"root"`
	// Endpoint is the chat completions URL of the rewrite oracle
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	// Model is the model identifier to request
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
	// APIKey is the bearer token; empty falls back to the API_KEY env var
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	// Extension selects candidate files
	Extension string `json:"extension,omitempty" yaml:"extension,omitempty"`
	// ExcludeDirs are directory names to skip during the walk
	ExcludeDirs []string `json:"exclude_dirs,omitempty" yaml:"exclude_dirs,omitempty"`
	// ExcludeGlobs are doublestar patterns to skip, relative to Root
	ExcludeGlobs []string `json:"exclude_globs,omitempty" yaml:"exclude_globs,omitempty"`
	// DryRun writes ".new" siblings instead of touching originals
	DryRun bool `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	// Backup copies originals to ".bak" siblings before overwriting
	Backup bool `json:"backup,omitempty" yaml:"backup,omitempty"`
	// Workers bounds pipeline concurrency
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`
	// TimeoutSeconds bounds each oracle attempt
	TimeoutSeconds float64 `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
	// Retries is the total number of oracle attempts on transient errors
	Retries int `json:"retries,omitempty" yaml:"retries,omitempty"`
	// BackoffSeconds is the base retry delay; doubles per attempt
	BackoffSeconds float64 `json:"backoff_seconds,omitempty" yaml:"backoff_seconds,omitempty"`
	// StrictValidation fails files whose rewrite still contains literals
	StrictValidation bool `json:"strict_validation,omitempty" yaml:"strict_validation,omitempty"`
}

// 🏭 Default returns a config carrying only defaults
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued fields with the documented defaults.
func (cfg *Config) ApplyDefaults() {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Extension == "" {
		cfg.Extension = DefaultExtension
	}
	if cfg.ExcludeDirs == nil {
		cfg.ExcludeDirs = append([]string(nil), DefaultExcludeDirs...)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("API_KEY")
	}
	if cfg.Workers == 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.TimeoutSeconds == 0 {
		cfg.TimeoutSeconds = DefaultTimeout.Seconds()
	}
	if cfg.Retries == 0 {
		cfg.Retries = DefaultRetries
	}
	if cfg.BackoffSeconds == 0 {
		cfg.BackoffSeconds = DefaultBackoff.Seconds()
	}
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Parse config
	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	cfg.ApplyDefaults()

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔍 Validate checks if the configuration is valid
func (cfg *Config) Validate() error {
	if cfg.Root == "" {
		return errors.Errorf("root is required")
	}
	if cfg.Endpoint == "" {
		return errors.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return errors.Errorf("model is required")
	}
	if cfg.Workers < 1 {
		return errors.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	if cfg.Retries < 1 {
		return errors.Errorf("retries must be at least 1, got %d", cfg.Retries)
	}
	if cfg.TimeoutSeconds < 0 {
		return errors.Errorf("timeout_seconds must not be negative")
	}
	if cfg.BackoffSeconds < 0 {
		return errors.Errorf("backoff_seconds must not be negative")
	}
	if cfg.DryRun && cfg.Backup {
		return errors.Errorf("dry_run and backup are mutually exclusive")
	}
	return nil
}

// 🛡️ CommitPolicy maps the dry-run/backup switches to a write policy
func (cfg *Config) CommitPolicy() commit.Policy {
	switch {
	case cfg.DryRun:
		return commit.DryRun
	case cfg.Backup:
		return commit.OverwriteWithBackup
	default:
		return commit.Overwrite
	}
}

// Timeout returns the per-attempt oracle timeout.
func (cfg *Config) Timeout() time.Duration {
	return time.Duration(cfg.TimeoutSeconds * float64(time.Second))
}

// Backoff returns the base retry delay.
func (cfg *Config) Backoff() time.Duration {
	return time.Duration(cfg.BackoffSeconds * float64(time.Second))
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("%s (%s @ %s, %d workers, policy %s)",
		cfg.Root, cfg.Model, cfg.Endpoint, cfg.Workers, cfg.CommitPolicy())
}
