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

package main

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/constify/pkg/commit"
	"github.com/walteh/constify/pkg/config"
	"github.com/walteh/constify/pkg/oracle"
	"github.com/walteh/constify/pkg/pipeline"
	"github.com/walteh/constify/pkg/status"
	"github.com/walteh/constify/pkg/walker"
)

// rootFlags holds the flag surface of the root command
type rootFlags struct {
	configFile string
	root       string
	endpoint   string
	model      string
	apiKey     string
	extension  string
	exclude    []string
	dryRun     bool
	backup     bool
	workers    int
	timeout    float64
	retries    int
	backoff    float64
	strict     bool
	quiet      bool
	debug      bool
}

// newRootCmd creates the constify root command
func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "constify",
		Short: "Refactor string literals into constants via an LLM",
		Long: `constify scans source files for string and character literals outside
comments, asks a chat-completions endpoint to extract them into named
constants, and commits the rewritten files under a configurable safety
policy (dry-run, backup, or plain overwrite).`,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefactor(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.configFile, "config", "c", "", "config file path (.yaml, .json, or .hcl)")
	cmd.Flags().StringVar(&flags.root, "root", "", "codebase root to scan")
	cmd.Flags().StringVar(&flags.endpoint, "endpoint", config.DefaultEndpoint, "chat completions endpoint")
	cmd.Flags().StringVar(&flags.model, "model", config.DefaultModel, "model name to use")
	cmd.Flags().StringVar(&flags.apiKey, "api-key", "", "bearer token (defaults to API_KEY env var)")
	cmd.Flags().StringVar(&flags.extension, "extension", config.DefaultExtension, "source file extension")
	cmd.Flags().StringSliceVar(&flags.exclude, "exclude", config.DefaultExcludeDirs, "directory names to skip")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "write .new siblings, leave originals untouched")
	cmd.Flags().BoolVar(&flags.backup, "backup", false, "back up originals as .bak before overwriting")
	cmd.Flags().IntVar(&flags.workers, "workers", config.DefaultWorkers, "number of parallel workers")
	cmd.Flags().Float64Var(&flags.timeout, "timeout", config.DefaultTimeout.Seconds(), "per-request timeout (seconds)")
	cmd.Flags().IntVar(&flags.retries, "retries", config.DefaultRetries, "total attempts on transient errors")
	cmd.Flags().Float64Var(&flags.backoff, "backoff", config.DefaultBackoff.Seconds(), "retry backoff base (seconds)")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "fail files whose rewrite still contains literals")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "suppress per-file output")
	cmd.Flags().BoolVarP(&flags.debug, "debug", "d", false, "enable debug logging")

	return cmd
}

// buildConfig merges the optional config file with explicit flag values.
// A flag the user set always wins over the file.
func buildConfig(cmd *cobra.Command, flags *rootFlags) (*config.Config, error) {
	ctx := cmd.Context()

	cfg := config.Default()
	if flags.configFile != "" {
		loaded, err := config.Load(ctx, flags.configFile)
		if err != nil {
			return nil, errors.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	set := cmd.Flags().Changed
	if set("root") || cfg.Root == "" {
		cfg.Root = flags.root
	}
	if set("endpoint") {
		cfg.Endpoint = flags.endpoint
	}
	if set("model") {
		cfg.Model = flags.model
	}
	if set("api-key") {
		cfg.APIKey = flags.apiKey
	}
	if set("extension") {
		cfg.Extension = flags.extension
	}
	if set("exclude") {
		cfg.ExcludeDirs = flags.exclude
	}
	if set("dry-run") {
		cfg.DryRun = flags.dryRun
	}
	if set("backup") {
		cfg.Backup = flags.backup
	}
	if set("workers") {
		cfg.Workers = flags.workers
	}
	if set("timeout") {
		cfg.TimeoutSeconds = flags.timeout
	}
	if set("retries") {
		cfg.Retries = flags.retries
	}
	if set("backoff") {
		cfg.BackoffSeconds = flags.backoff
	}
	if set("strict") {
		cfg.StrictValidation = flags.strict
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// runRefactor wires the walker, oracle, pipeline, and reporter together
func runRefactor(cmd *cobra.Command, flags *rootFlags) error {
	// Set up logger
	logLevel := zerolog.InfoLevel
	if flags.debug {
		logLevel = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).Level(logLevel).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := buildConfig(cmd, flags)
	if err != nil {
		return err
	}

	absRoot, err := filepath.Abs(cfg.Root)
	if err != nil {
		return errors.Errorf("resolving root path: %w", err)
	}
	cfg.Root = absRoot

	// Gather candidate files
	files, err := walker.Walk(ctx, walker.Options{
		Root:         cfg.Root,
		Extension:    cfg.Extension,
		ExcludeDirs:  cfg.ExcludeDirs,
		ExcludeGlobs: cfg.ExcludeGlobs,
	})
	if err != nil {
		return errors.Errorf("collecting files: %w", err)
	}
	logger.Info().Int("files", len(files)).Str("root", cfg.Root).Msg("collected candidate files")

	// Create the rewrite oracle
	orc, err := oracle.NewChatClient(oracle.ChatOptions{
		Endpoint: cfg.Endpoint,
		APIKey:   cfg.APIKey,
		Timeout:  cfg.Timeout(),
	})
	if err != nil {
		return errors.Errorf("creating oracle client: %w", err)
	}

	validation := pipeline.ValidateWarn
	if cfg.StrictValidation {
		validation = pipeline.ValidateStrict
	}

	reporter := status.NewConsoleReporter(flags.quiet)
	reporter.Start(ctx, len(files))

	p, err := pipeline.New(pipeline.Options{
		Oracle:     orc,
		Writer:     commit.NewWriter(cfg.CommitPolicy()),
		Model:      cfg.Model,
		Workers:    cfg.Workers,
		Retries:    cfg.Retries,
		Backoff:    cfg.Backoff(),
		Validation: validation,
		Reporter:   reporter,
	})
	if err != nil {
		return errors.Errorf("creating pipeline: %w", err)
	}

	results := p.Run(ctx, files)
	summary := pipeline.Summarize(results)
	reporter.Finish(ctx, summary)

	if !summary.Succeeded() {
		return errors.Errorf("%d of %d files failed", summary.Failed, summary.Total)
	}
	return nil
}
