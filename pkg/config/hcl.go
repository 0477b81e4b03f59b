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
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	// Define HCL schema
	type hclConfig struct {
		Root             string   `hcl:"root"`
		Endpoint         string   `hcl:"endpoint,optional"`
		Model            string   `hcl:"model,optional"`
		APIKey           string   `hcl:"api_key,optional"`
		Extension        string   `hcl:"extension,optional"`
		ExcludeDirs      []string `hcl:"exclude_dirs,optional"`
		ExcludeGlobs     []string `hcl:"exclude_globs,optional"`
		DryRun           bool     `hcl:"dry_run,optional"`
		Backup           bool     `hcl:"backup,optional"`
		Workers          int      `hcl:"workers,optional"`
		TimeoutSeconds   float64  `hcl:"timeout_seconds,optional"`
		Retries          int      `hcl:"retries,optional"`
		BackoffSeconds   float64  `hcl:"backoff_seconds,optional"`
		StrictValidation bool     `hcl:"strict_validation,optional"`
	}

	// Decode HCL
	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	cfg := &Config{
		Root:             hclCfg.Root,
		Endpoint:         hclCfg.Endpoint,
		Model:            hclCfg.Model,
		APIKey:           hclCfg.APIKey,
		Extension:        hclCfg.Extension,
		ExcludeDirs:      hclCfg.ExcludeDirs,
		ExcludeGlobs:     hclCfg.ExcludeGlobs,
		DryRun:           hclCfg.DryRun,
		Backup:           hclCfg.Backup,
		Workers:          hclCfg.Workers,
		TimeoutSeconds:   hclCfg.TimeoutSeconds,
		Retries:          hclCfg.Retries,
		BackoffSeconds:   hclCfg.BackoffSeconds,
		StrictValidation: hclCfg.StrictValidation,
	}

	return cfg, nil
}
