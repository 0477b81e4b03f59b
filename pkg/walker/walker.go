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

// Package walker enumerates candidate source files under a root,
// filtering by extension and exclusion rules before the pipeline ever
// sees a path.
package walker

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🔧 Options configures a walk
type Options struct {
	// Root is the directory to walk; required
	Root string
	// Extension selects files, e.g. ".java"
	Extension string
	// ExcludeDirs are directory names skipped wherever they appear,
	// e.g. ".git", "target", "build"
	ExcludeDirs []string
	// ExcludeGlobs are doublestar patterns matched against the path
	// relative to Root
	ExcludeGlobs []string
}

// 🚶 Walk returns every file under Root with the configured extension,
// sorted for a deterministic order, minus exclusions.
func Walk(ctx context.Context, opts Options) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	if opts.Root == "" {
		return nil, errors.Errorf("root is required")
	}
	if opts.Extension == "" {
		opts.Extension = ".java"
	}

	excluded := make(map[string]bool, len(opts.ExcludeDirs))
	for _, d := range opts.ExcludeDirs {
		excluded[d] = true
	}

	var files []string
	err := filepath.WalkDir(opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != opts.Root && excluded[d.Name()] {
				logger.Debug().Str("dir", path).Msg("skipping excluded directory")
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), opts.Extension) {
			return nil
		}

		rel, err := filepath.Rel(opts.Root, path)
		if err != nil {
			return errors.Errorf("computing relative path: %w", err)
		}
		if matchesAny(logger, opts.ExcludeGlobs, filepath.ToSlash(rel)) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walking %s: %w", opts.Root, err)
	}

	sort.Strings(files)
	return files, nil
}

// 🔍 matchesAny checks rel against each exclusion pattern; a broken
// pattern is logged and skipped rather than failing the walk
func matchesAny(logger *zerolog.Logger, patterns []string, rel string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			logger.Debug().Str("pattern", pattern).Str("path", rel).Err(err).Msg("error matching pattern")
			continue
		}
		if matched {
			logger.Debug().Str("file", rel).Str("pattern", pattern).Msg("file ignored by pattern")
			return true
		}
	}
	return false
}
