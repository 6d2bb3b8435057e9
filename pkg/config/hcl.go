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
	return strings.HasSuffix(strings.ToLower(filename), ".hcl")
}

// 📝 Parse parses the config from HCL. Expressions can read the host
// environment through env.<NAME>.
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "npmbuild.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": envObject(),
		},
	}

	type hclScript struct {
		Name string   `hcl:"name,label"`
		Args []string `hcl:"args,optional"`
	}

	type hclConfig struct {
		ProjectDirectory string            `hcl:"project_directory,optional"`
		TargetDirectory  string            `hcl:"target_directory,optional"`
		Tool             string            `hcl:"tool,optional"`
		NodeEnv          string            `hcl:"node_env,optional"`
		Release          bool              `hcl:"release,optional"`
		CopyAll          bool              `hcl:"copy_all,optional"`
		Copy             []string          `hcl:"copy,optional"`
		Exclude          []string          `hcl:"exclude,optional"`
		Install          bool              `hcl:"install,optional"`
		Env              map[string]string `hcl:"env,optional"`
		EnvFile          string            `hcl:"env_file,optional"`
		Scripts          []hclScript       `hcl:"script,block"`
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	cfg := &Config{
		ProjectDirectory: hclCfg.ProjectDirectory,
		TargetDirectory:  hclCfg.TargetDirectory,
		Tool:             hclCfg.Tool,
		NodeEnv:          hclCfg.NodeEnv,
		Release:          hclCfg.Release,
		CopyAll:          hclCfg.CopyAll,
		Copy:             hclCfg.Copy,
		Exclude:          hclCfg.Exclude,
		Install:          hclCfg.Install,
		Env:              hclCfg.Env,
		EnvFile:          hclCfg.EnvFile,
	}

	for _, s := range hclCfg.Scripts {
		cfg.Scripts = append(cfg.Scripts, Script{
			Name: s.Name,
			Args: s.Args,
		})
	}

	return cfg, nil
}
