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

// Package pipeline drives files through read → scan → oracle → commit on
// a bounded worker pool. Failures are file-scoped: one file's error never
// aborts its siblings.
package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/constify/pkg/commit"
	"github.com/walteh/constify/pkg/oracle"
	"github.com/walteh/constify/pkg/scanner"
)

// 🔬 ValidationPolicy governs what happens when the rewritten output,
// re-scanned, still contains literals outside comments.
type ValidationPolicy int

const (
	// ValidateWarn logs the leftover literals and accepts the rewrite
	ValidateWarn ValidationPolicy = iota
	// ValidateStrict treats leftover literals as a fatal rewrite failure
	ValidateStrict
)

// 📈 Reporter receives one callback per finished file. Implementations
// must be safe for concurrent use.
type Reporter interface {
	FileDone(ctx context.Context, result Result)
}

// nopReporter is used when no reporter is configured.
type nopReporter struct{}

func (nopReporter) FileDone(ctx context.Context, result Result) {}

// 🔧 Options configures a pipeline run
type Options struct {
	// Oracle performs the rewrite; required
	Oracle oracle.Oracle
	// Writer commits rewritten content; required
	Writer *commit.Writer
	// Model is the model identifier passed to the oracle
	Model string
	// Workers bounds pipeline concurrency; values < 1 become 1
	Workers int
	// Retries is the total number of oracle attempts per file on
	// transient failures; values < 1 become 1
	Retries int
	// Backoff is the base delay before the second attempt; doubles on
	// each subsequent attempt
	Backoff time.Duration
	// Validation selects handling of rewrites that still carry literals
	Validation ValidationPolicy
	// Reporter is notified after each file finishes; optional
	Reporter Reporter
}

// 🏗️ Pipeline processes a set of candidate files
type Pipeline struct {
	oracle     oracle.Oracle
	writer     *commit.Writer
	model      string
	workers    int
	retries    int
	backoff    time.Duration
	validation ValidationPolicy
	reporter   Reporter

	// sleep is swapped out in tests to avoid real backoff waits
	sleep func(ctx context.Context, d time.Duration) error
}

// 🏭 New creates a pipeline
func New(opts Options) (*Pipeline, error) {
	if opts.Oracle == nil {
		return nil, errors.Errorf("oracle is required")
	}
	if opts.Writer == nil {
		return nil, errors.Errorf("writer is required")
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Retries < 1 {
		opts.Retries = 1
	}
	if opts.Reporter == nil {
		opts.Reporter = nopReporter{}
	}
	return &Pipeline{
		oracle:     opts.Oracle,
		writer:     opts.Writer,
		model:      opts.Model,
		workers:    opts.Workers,
		retries:    opts.Retries,
		backoff:    opts.Backoff,
		validation: opts.Validation,
		reporter:   opts.Reporter,
		sleep:      sleepCtx,
	}, nil
}

// 🏃 Run processes every path and returns exactly one Result per path.
// Context cancellation stops new files from being dispatched; files
// already in flight finish on their own timeouts.
func (p *Pipeline) Run(ctx context.Context, paths []string) []Result {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Int("files", len(paths)).Int("workers", p.workers).Msg("starting pipeline")

	coll := &collector{}

	g := &errgroup.Group{}
	g.SetLimit(p.workers)

	for _, path := range paths {
		select {
		case <-ctx.Done():
			// record the undispatched file instead of dropping it, so
			// the aggregate stays one-to-one with the input
			result := Result{Path: path, Outcome: Failed, Err: errors.Errorf("run cancelled: %w", ctx.Err())}
			coll.add(result)
			p.reporter.FileDone(ctx, result)
			continue
		default:
		}

		path := path
		g.Go(func() error {
			result := p.processFile(ctx, path)
			coll.add(result)
			p.reporter.FileDone(ctx, result)
			return nil
		})
	}

	g.Wait()
	return coll.all()
}

// 📄 processFile runs one file end-to-end and never returns an error;
// every failure is folded into the Result.
func (p *Pipeline) processFile(ctx context.Context, path string) Result {
	logger := zerolog.Ctx(ctx)

	content, err := os.ReadFile(path)
	if err != nil {
		return Result{Path: path, Outcome: Failed, Err: errors.Errorf("reading file: %w", err)}
	}
	source := string(content)

	if !scanner.HasLiteral(source) {
		logger.Debug().Str("path", path).Msg("no literals outside comments, skipping")
		return Result{Path: path, Outcome: Skipped}
	}

	rewritten, attempts, err := p.callWithRetry(ctx, path, source)
	if err != nil {
		return Result{Path: path, Outcome: Failed, Attempts: attempts, Err: err}
	}

	if scanner.HasLiteral(rewritten) {
		if p.validation == ValidateStrict {
			return Result{
				Path:     path,
				Outcome:  Failed,
				Attempts: attempts,
				Err:      errors.Errorf("rewritten output still contains %d literals", scanner.Count(rewritten)),
			}
		}
		logger.Warn().Str("path", path).Int("literals", scanner.Count(rewritten)).Msg("rewritten output still contains literals")
	}

	writtenPath, err := p.writer.Commit(ctx, path, []byte(rewritten))
	if err != nil {
		return Result{Path: path, Outcome: Failed, Attempts: attempts, Err: errors.Errorf("committing rewrite: %w", err)}
	}

	return Result{Path: path, Outcome: Written, Attempts: attempts, WrittenPath: writtenPath}
}

// 🔁 callWithRetry invokes the oracle up to p.retries times, backing off
// exponentially between transient failures. Fatal failures short-circuit.
func (p *Pipeline) callWithRetry(ctx context.Context, path, source string) (string, int, error) {
	logger := zerolog.Ctx(ctx)

	req := oracle.Request{Path: path, Source: source, Model: p.model}

	var lastErr error
	for attempt := 1; attempt <= p.retries; attempt++ {
		rewritten, err := p.oracle.Rewrite(ctx, req)
		if err == nil {
			if rewritten == "" {
				return "", attempt, errors.Errorf("oracle returned empty rewrite")
			}
			return rewritten, attempt, nil
		}

		if !oracle.IsTransient(err) {
			return "", attempt, errors.Errorf("rewriting %s: %w", path, err)
		}

		lastErr = err
		if attempt == p.retries {
			break
		}

		delay := p.backoff << (attempt - 1)
		logger.Debug().Str("path", path).Int("attempt", attempt).Dur("delay", delay).Msg("transient oracle failure, backing off")
		if err := p.sleep(ctx, delay); err != nil {
			return "", attempt, errors.Errorf("backoff interrupted: %w", err)
		}
	}

	return "", p.retries, errors.Errorf("retries exhausted for %s: %w", path, lastErr)
}

// sleepCtx waits for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
