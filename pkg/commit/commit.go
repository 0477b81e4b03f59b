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

// Package commit persists rewritten source under one of three safety
// policies. Every policy leaves the filesystem in a well-defined state on
// failure: either the original is intact or the new content is fully in
// place, never a truncated mix.
package commit

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🛡️ Policy selects the write-safety mode for a run
type Policy int

const (
	// DryRun writes to a ".new" sibling, leaving the original untouched
	DryRun Policy = iota
	// Overwrite replaces the original via temp-write and atomic rename
	Overwrite
	// OverwriteWithBackup copies the original to a ".bak" sibling first
	OverwriteWithBackup
)

// String returns a string representation of Policy
func (p Policy) String() string {
	switch p {
	case DryRun:
		return "dry-run"
	case Overwrite:
		return "overwrite"
	case OverwriteWithBackup:
		return "overwrite-with-backup"
	default:
		return "unknown"
	}
}

const (
	newSuffix    = ".new"
	backupSuffix = ".bak"
)

// 💾 Writer commits rewritten content to disk
type Writer struct {
	policy Policy
}

// 🏭 NewWriter creates a writer for the given policy
func NewWriter(policy Policy) *Writer {
	return &Writer{policy: policy}
}

// Policy returns the writer's policy.
func (w *Writer) Policy() Policy {
	return w.policy
}

// 📝 Commit persists content for path according to the writer's policy.
// It returns the path that was actually written.
func (w *Writer) Commit(ctx context.Context, path string, content []byte) (string, error) {
	logger := zerolog.Ctx(ctx)

	switch w.policy {
	case DryRun:
		outPath := path + newSuffix
		if err := writeFileAtomic(outPath, content); err != nil {
			return "", errors.Errorf("writing dry-run sibling: %w", err)
		}
		logger.Debug().Str("path", outPath).Msg("dry run wrote sibling file")
		return outPath, nil

	case OverwriteWithBackup:
		// backup failure must abort before the original is touched
		if err := backupFile(path); err != nil {
			return "", errors.Errorf("backing up original: %w", err)
		}
		logger.Debug().Str("path", path+backupSuffix).Msg("backed up original")
		fallthrough

	case Overwrite:
		if err := writeFileAtomic(path, content); err != nil {
			return "", errors.Errorf("writing file: %w", err)
		}
		logger.Debug().Str("path", path).Msg("committed rewritten file")
		return path, nil

	default:
		return "", errors.Errorf("unknown commit policy: %d", w.policy)
	}
}

// writeFileAtomic writes to a temp file in the same directory and renames
// it over the target, so a crash mid-write never leaves a partial file.
func writeFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// backupFile copies path to its ".bak" sibling. Missing originals are not
// an error; there is nothing to protect.
func backupFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return errors.Errorf("checking file existence: %w", err)
	}

	if err := copyFile(path, path+backupSuffix); err != nil {
		return errors.Errorf("creating backup: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return errors.Errorf("statting source: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return errors.Errorf("opening destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errors.Errorf("copying content: %w", err)
	}
	return nil
}
