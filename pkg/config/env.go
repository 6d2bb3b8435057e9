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
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

// expandEnv replaces $VAR and ${VAR} in every string value using the host
// environment. Used by the YAML and JSON parsers; HCL has env.<NAME> instead.
func (cfg *Config) expandEnv() {
	cfg.ProjectDirectory = os.ExpandEnv(cfg.ProjectDirectory)
	cfg.TargetDirectory = os.ExpandEnv(cfg.TargetDirectory)
	cfg.Tool = os.ExpandEnv(cfg.Tool)
	cfg.NodeEnv = os.ExpandEnv(cfg.NodeEnv)
	cfg.EnvFile = os.ExpandEnv(cfg.EnvFile)
	expandAll(cfg.Copy)
	expandAll(cfg.Exclude)
	for i := range cfg.Scripts {
		cfg.Scripts[i].Name = os.ExpandEnv(cfg.Scripts[i].Name)
		expandAll(cfg.Scripts[i].Args)
	}
	for k, v := range cfg.Env {
		cfg.Env[k] = os.ExpandEnv(v)
	}
}

func expandAll(values []string) {
	for i, v := range values {
		values[i] = os.ExpandEnv(v)
	}
}

// 🌍 envObject exposes the host environment to HCL as env.<NAME>
func envObject() cty.Value {
	vars := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	return cty.ObjectVal(vars)
}

// 📄 loadEnvFile merges the dotenv file into Env. Variables set in the
// config itself win over the file.
func (cfg *Config) loadEnvFile(ctx context.Context) error {
	if cfg.EnvFile == "" {
		return nil
	}

	fromFile, err := godotenv.Read(cfg.EnvFile)
	if err != nil {
		return errors.Errorf("reading env file %s: %w", cfg.EnvFile, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("path", cfg.EnvFile).
		Int("variables", len(fromFile)).
		Msg("loaded env file")

	if cfg.Env == nil {
		cfg.Env = make(map[string]string, len(fromFile))
	}
	for k, v := range fromFile {
		if _, ok := cfg.Env[k]; !ok {
			cfg.Env[k] = v
		}
	}
	return nil
}
