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

package status

import (
	"context"
	"sync"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"

	"github.com/walteh/constify/pkg/pipeline"
)

// 📢 ConsoleReporter prints per-file outcomes and drives a progress bar.
// It is safe for concurrent use by pipeline workers.
type ConsoleReporter struct {
	mu    sync.Mutex
	bar   *pterm.ProgressbarPrinter
	quiet bool
}

// 🏭 NewConsoleReporter creates a reporter. When quiet is true, per-file
// lines are suppressed and only the zerolog mirror remains.
func NewConsoleReporter(quiet bool) *ConsoleReporter {
	return &ConsoleReporter{quiet: quiet}
}

// ▶️ Start begins progress display over total candidate files
func (c *ConsoleReporter) Start(ctx context.Context, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.quiet || total == 0 {
		return
	}
	bar, err := pterm.DefaultProgressbar.WithTotal(total).WithTitle("Refactoring").Start()
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("progress bar unavailable")
		return
	}
	c.bar = bar
}

// FileDone implements pipeline.Reporter.
func (c *ConsoleReporter) FileDone(ctx context.Context, r pipeline.Result) {
	logger := zerolog.Ctx(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.quiet {
		pterm.Println(FormatResult(r))
	}
	if c.bar != nil {
		c.bar.Increment()
	}

	evt := logger.Info()
	if r.Outcome == pipeline.Failed {
		evt = logger.Error().Err(r.Err)
	}
	evt.Str("path", r.Path).Str("outcome", r.Outcome.String()).Int("attempts", r.Attempts).Msg("file done")
}

// ⏹️ Finish stops the progress bar and prints the summary
func (c *ConsoleReporter) Finish(ctx context.Context, summary pipeline.Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bar != nil {
		c.bar.Stop()
		c.bar = nil
	}
	if !c.quiet {
		pterm.Println(FormatSummary(summary))
	}

	zerolog.Ctx(ctx).Info().
		Int("total", summary.Total).
		Int("written", summary.Written).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("run complete")
}
