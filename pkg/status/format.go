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
	"fmt"

	"github.com/fatih/color"

	"github.com/walteh/constify/pkg/pipeline"
)

// 🎨 Display configuration
const (
	nameWidth = 45 // base width for the file path column
)

// 🎯 FormatResult formats one file outcome for display
func FormatResult(r pipeline.Result) string {
	var prefix, verb string
	switch r.Outcome {
	case pipeline.Written:
		prefix = color.GreenString("✓")
		verb = "written"
	case pipeline.Skipped:
		prefix = color.HiBlackString("-")
		verb = "skipped"
	case pipeline.Failed:
		prefix = color.RedString("✗")
		verb = "failed"
	default:
		prefix = "?"
		verb = "unknown"
	}

	line := fmt.Sprintf("%s %-*s %s", prefix, nameWidth, r.Path, verb)
	if r.Attempts > 1 {
		line += fmt.Sprintf(" (%d attempts)", r.Attempts)
	}
	if r.Err != nil {
		line += fmt.Sprintf(": %v", r.Err)
	}
	return line
}

// 📊 FormatSummary formats the end-of-run tally
func FormatSummary(s pipeline.Summary) string {
	failed := fmt.Sprintf("%d failed", s.Failed)
	if s.Failed > 0 {
		failed = color.RedString(failed)
	}
	return fmt.Sprintf("%d files: %s written, %d skipped, %s",
		s.Total, color.GreenString("%d", s.Written), s.Skipped, failed)
}
