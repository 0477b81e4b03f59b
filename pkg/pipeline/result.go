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

package pipeline

import "sync"

// 📊 Outcome is the terminal state of one file's pipeline
type Outcome int

const (
	// Skipped means the scanner gate found no literal; no oracle call
	Skipped Outcome = iota
	// Written means the rewrite was committed to disk
	Written
	// Failed means scan, oracle, or commit ended in an error
	Failed
)

// String returns a string representation of Outcome
func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Written:
		return "written"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// 📋 Result records what happened to a single file. Every enumerated file
// produces exactly one Result, regardless of success or failure.
type Result struct {
	// Path is the source file path
	Path string
	// Outcome is the terminal state
	Outcome Outcome
	// Attempts counts oracle invocations made for this file
	Attempts int
	// Written is the path the commit writer produced, when Outcome is Written
	WrittenPath string
	// Err carries the failure reason, when Outcome is Failed
	Err error
}

// collector is a concurrency-safe append-only result sink.
type collector struct {
	mu      sync.Mutex
	results []Result
}

func (c *collector) add(r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

func (c *collector) all() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Result, len(c.results))
	copy(out, c.results)
	return out
}

// 🧮 Summary aggregates outcome counts across a run
type Summary struct {
	Total   int
	Written int
	Skipped int
	Failed  int
}

// Summarize tallies results into a Summary.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Outcome {
		case Written:
			s.Written++
		case Skipped:
			s.Skipped++
		case Failed:
			s.Failed++
		}
	}
	return s
}

// Succeeded reports whether the run should exit zero.
func (s Summary) Succeeded() bool {
	return s.Failed == 0
}
