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
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/npmbuild/pkg/build"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse decodes the config from bytes
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

// 📜 Script is one `run` invocation
type Script struct {
	Name string   `json:"name" yaml:"name"`
	Args []string `json:"args,omitempty" yaml:"args,omitempty"`
}

// 📚 Config describes a build. Steps run in a fixed order: copy_all, copy,
// install, scripts.
type Config struct {
	ProjectDirectory string            `json:"project_directory,omitempty" yaml:"project_directory,omitempty"`
	TargetDirectory  string            `json:"target_directory" yaml:"target_directory"`
	Tool             string            `json:"tool,omitempty" yaml:"tool,omitempty"`
	NodeEnv          string            `json:"node_env,omitempty" yaml:"node_env,omitempty"`
	Release          bool              `json:"release,omitempty" yaml:"release,omitempty"`
	CopyAll          bool              `json:"copy_all,omitempty" yaml:"copy_all,omitempty"`
	Copy             []string          `json:"copy,omitempty" yaml:"copy,omitempty"`
	Exclude          []string          `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Install          bool              `json:"install,omitempty" yaml:"install,omitempty"`
	Scripts          []Script          `json:"scripts,omitempty" yaml:"scripts,omitempty"`
	Env              map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	EnvFile          string            `json:"env_file,omitempty" yaml:"env_file,omitempty"`
}

// 🎯 Load reads, decodes and validates the config at path
func Load(ctx context.Context, path string) (*Config, error) {
	cfg, err := Decode(ctx, path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 📖 Decode is Load without validation, for callers that complete the config
// from other sources first. Relative directories and the env file are
// resolved against the directory holding the config; an empty
// project_directory means that directory itself.
func Decode(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	cfg.resolvePaths(filepath.Dir(path))

	if err := cfg.loadEnvFile(ctx); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) resolvePaths(base string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	if cfg.ProjectDirectory == "" {
		cfg.ProjectDirectory = base
	} else {
		cfg.ProjectDirectory = resolve(cfg.ProjectDirectory)
	}
	cfg.TargetDirectory = resolve(cfg.TargetDirectory)
	cfg.EnvFile = resolve(cfg.EnvFile)
}

// 🔍 Validate checks that the config describes a runnable build
func (cfg *Config) Validate() error {
	if cfg.TargetDirectory == "" {
		return errors.Errorf("target_directory is required")
	}
	if !cfg.CopyAll && len(cfg.Copy) == 0 && !cfg.Install && len(cfg.Scripts) == 0 {
		return errors.Errorf("at least one of copy_all, copy, install or scripts is required")
	}
	for i, p := range cfg.Copy {
		if strings.TrimSpace(p) == "" {
			return errors.Errorf("copy[%d]: path is empty", i)
		}
	}
	for i, s := range cfg.Scripts {
		if strings.TrimSpace(s.Name) == "" {
			return errors.Errorf("scripts[%d]: name is required", i)
		}
	}
	for k := range cfg.Env {
		if k == "" || strings.Contains(k, "=") {
			return errors.Errorf("env: invalid variable name %q", k)
		}
	}

	if cfg.ProjectDirectory != "" {
		cfg.ProjectDirectory = filepath.Clean(cfg.ProjectDirectory)
	}
	cfg.TargetDirectory = filepath.Clean(cfg.TargetDirectory)

	return nil
}

// 🏗️ Builder converts the config into a build that has not run yet
func (cfg *Config) Builder() *build.Builder {
	b := build.New().Release(cfg.Release)

	if cfg.ProjectDirectory != "" {
		b.ProjectDirectory(cfg.ProjectDirectory)
	}
	if cfg.TargetDirectory != "" {
		b.TargetDirectory(cfg.TargetDirectory)
	}
	if cfg.Tool != "" {
		b.Tool(cfg.Tool)
	}
	if cfg.NodeEnv != "" {
		b.NodeEnv(cfg.NodeEnv)
	}
	b.Exclude(cfg.Exclude...)

	keys := make([]string, 0, len(cfg.Env))
	for k := range cfg.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.Env(k, cfg.Env[k])
	}

	if cfg.CopyAll {
		b.CopyAll()
	}
	b.CopyItems(cfg.Copy...)
	if cfg.Install {
		b.Install()
	}
	for _, s := range cfg.Scripts {
		b.RunScript(s.Name, s.Args...)
	}

	return b
}

// 📝 String returns a one-line summary
func (cfg *Config) String() string {
	project := cfg.ProjectDirectory
	if project == "" {
		project = "."
	}
	names := make([]string, 0, len(cfg.Scripts))
	for _, s := range cfg.Scripts {
		names = append(names, s.Name)
	}
	return fmt.Sprintf("%s -> %s [%s]", project, cfg.TargetDirectory, strings.Join(names, ", "))
}
