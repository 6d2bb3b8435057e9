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

// Package npm invokes a node package manager (npm, yarn, pnpm) as an opaque
// executable: it passes arguments and looks at the exit code, nothing more.
package npm

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/npmbuild/pkg/fault"
	"gitlab.com/tozd/go/errors"
)

const (
	// DefaultTool is the package manager used when none is configured.
	DefaultTool = "npm"

	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// 🌱 ResolveNodeEnv picks the NODE_ENV for child processes: an explicit
// NODE_ENV in the host environment wins, otherwise release builds get
// production and everything else development.
func ResolveNodeEnv(release bool) string {
	if v := os.Getenv("NODE_ENV"); v != "" {
		return v
	}
	if release {
		return EnvProduction
	}
	return EnvDevelopment
}

// RunArgs returns the arguments for running a manifest script.
func RunArgs(script string, args ...string) []string {
	return append([]string{"run", script}, args...)
}

// InstallArgs returns the arguments for installing dependencies. Release
// builds use the lockfile-exact "ci".
func InstallArgs(release bool) []string {
	if release {
		return []string{"ci"}
	}
	return []string{"install"}
}

// 🔧 Tool is a resolved package manager executable
type Tool struct {
	Name string // name as configured, e.g. "npm"
	Path string // resolved executable path
}

// 🔍 Lookup resolves name through the host PATH.
func Lookup(name string) (*Tool, error) {
	if name == "" {
		name = DefaultTool
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fault.ToolNotFound(name, err)
	}
	return &Tool{Name: name, Path: path}, nil
}

// 📦 Invocation describes one run of the tool
type Invocation struct {
	Script string    // name reported in errors, e.g. "build" or "install"
	Args   []string  // full argument list
	Dir    string    // working directory
	Env    []string  // extra KEY=VALUE pairs on top of the host environment
	Stdout io.Writer // nil discards
	Stderr io.Writer // nil discards
}

// 🏃 Run starts the tool and waits for it. A process that cannot be spawned
// yields a ToolNotFoundError, a non-zero exit a ScriptExecutionError.
func (t *Tool) Run(ctx context.Context, inv Invocation) error {
	logger := zerolog.Ctx(ctx)

	if fi, err := os.Stat(inv.Dir); err != nil {
		return fault.Filesystem("entering", inv.Dir, err)
	} else if !fi.IsDir() {
		return fault.Filesystem("entering", inv.Dir, errors.New("not a directory"))
	}

	cmd := exec.CommandContext(ctx, t.Path, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Env = append(os.Environ(), inv.Env...)
	cmd.Stdout = inv.Stdout
	cmd.Stderr = inv.Stderr

	logger.Debug().
		Str("tool", t.Path).
		Str("args", strings.Join(inv.Args, " ")).
		Str("dir", inv.Dir).
		Msg("starting package manager")

	if err := cmd.Start(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Errorf("starting %s: %w", t.Name, ctxErr)
		}
		return fault.ToolNotFound(t.Name, err)
	}

	err := cmd.Wait()
	if err == nil {
		logger.Debug().Str("script", inv.Script).Msg("package manager finished")
		return nil
	}

	// a cancelled context kills the child, which then reports an exit status
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Errorf("%s %s interrupted: %w", t.Name, strings.Join(inv.Args, " "), ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fault.ScriptFailed(t.Name, inv.Script, inv.Args, exitErr.ExitCode())
	}
	return errors.Errorf("waiting for %s: %w", t.Name, err)
}
