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

package build

import (
	"context"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/npmbuild/pkg/fault"
	"github.com/walteh/npmbuild/pkg/log"
	"github.com/walteh/npmbuild/pkg/npm"
	"github.com/walteh/npmbuild/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

type (
	FilesystemError      = fault.FilesystemError
	ToolNotFoundError    = fault.ToolNotFoundError
	ScriptExecutionError = fault.ScriptExecutionError
)

// ErrAlreadyExecuted is returned by a second call to Execute.
var ErrAlreadyExecuted = errors.Base("builder already executed")

// DefaultExcludes are skipped by every copy unless ClearExcludes is called.
var DefaultExcludes = []string{"**/node_modules", "**/.git"}

// 🏗️ Builder accumulates a build and runs it once
type Builder struct {
	projectDir string
	targetDir  string
	steps      []operation.Step

	tool     string
	nodeEnv  string
	release  bool
	excludes []string
	env      []string

	stdout io.Writer
	stderr io.Writer
	logger *log.Logger

	executed bool
}

// 🏭 New creates a builder for the current directory
func New() *Builder {
	return &Builder{
		projectDir: ".",
		targetDir:  ".",
		tool:       npm.DefaultTool,
		excludes:   append([]string(nil), DefaultExcludes...),
	}
}

// ProjectDirectory sets the source tree. Relative paths are resolved against
// the working directory at Execute.
func (b *Builder) ProjectDirectory(path string) *Builder {
	b.projectDir = path
	return b
}

// TargetDirectory sets the output tree, created at Execute if absent.
func (b *Builder) TargetDirectory(path string) *Builder {
	b.targetDir = path
	return b
}

// 📁 CopyAll schedules a copy of the whole project minus exclusions. A target
// nested inside the project is never copied into itself.
func (b *Builder) CopyAll() *Builder {
	return b.add(operation.Step{Kind: operation.KindCopyAll})
}

// 📄 CopyFile schedules a copy of exactly one project-relative path. A
// directory is copied with its contents.
func (b *Builder) CopyFile(path string) *Builder {
	return b.add(operation.Step{Kind: operation.KindCopyFile, Path: path})
}

// CopyItems schedules one CopyFile per path.
func (b *Builder) CopyItems(paths ...string) *Builder {
	for _, p := range paths {
		b.CopyFile(p)
	}
	return b
}

// 📥 Install schedules `npm install`, or `npm ci` for release builds.
func (b *Builder) Install() *Builder {
	return b.add(operation.Step{Kind: operation.KindInstall})
}

// 📜 RunScript schedules `npm run <name> [args...]` in the target directory.
func (b *Builder) RunScript(name string, args ...string) *Builder {
	return b.add(operation.Step{
		Kind:   operation.KindRunScript,
		Script: name,
		Args:   append([]string(nil), args...),
	})
}

// Tool replaces the package manager executable, e.g. "pnpm".
func (b *Builder) Tool(name string) *Builder {
	b.tool = name
	return b
}

// NodeEnv fixes NODE_ENV for every package manager step.
func (b *Builder) NodeEnv(value string) *Builder {
	b.nodeEnv = value
	return b
}

// Release switches install to `ci` and the default NODE_ENV to production.
func (b *Builder) Release(release bool) *Builder {
	b.release = release
	return b
}

// Env adds a variable to the package manager environment.
func (b *Builder) Env(key, value string) *Builder {
	b.env = append(b.env, key+"="+value)
	return b
}

// Exclude adds doublestar patterns matched against slash-separated paths
// relative to the project directory.
func (b *Builder) Exclude(patterns ...string) *Builder {
	b.excludes = append(b.excludes, patterns...)
	return b
}

// ClearExcludes drops every exclusion, including the defaults.
func (b *Builder) ClearExcludes() *Builder {
	b.excludes = nil
	return b
}

// Stdout receives the standard output of package manager steps. By default
// each line becomes a log event.
func (b *Builder) Stdout(w io.Writer) *Builder {
	b.stdout = w
	return b
}

// Stderr receives the standard error of package manager steps.
func (b *Builder) Stderr(w io.Writer) *Builder {
	b.stderr = w
	return b
}

// Logger sets the progress logger; the default comes from the context.
func (b *Builder) Logger(l *log.Logger) *Builder {
	b.logger = l
	return b
}

func (b *Builder) add(step operation.Step) *Builder {
	b.steps = append(b.steps, step)
	return b
}

// 📋 Plan describes the scheduled steps in execution order
func (b *Builder) Plan() []string {
	plan := make([]string, 0, len(b.steps))
	for _, step := range b.steps {
		plan = append(plan, step.Describe(b.tool, b.release))
	}
	return plan
}

func (b *Builder) resolvedNodeEnv() string {
	if b.nodeEnv != "" {
		return b.nodeEnv
	}
	return npm.ResolveNodeEnv(b.release)
}

func (b *Builder) usesTool() bool {
	for _, step := range b.steps {
		if step.Kind.UsesTool() {
			return true
		}
	}
	return false
}

// 🚀 Execute runs every scheduled step in order and returns the first
// failure. Later steps are not started once one fails.
func (b *Builder) Execute(ctx context.Context) error {
	if b.executed {
		return errors.WithStack(ErrAlreadyExecuted)
	}
	b.executed = true

	if len(b.steps) == 0 {
		return errors.Errorf("no build steps scheduled")
	}

	projectDir, err := filepath.Abs(b.projectDir)
	if err != nil {
		return fault.Filesystem("resolving project directory", b.projectDir, err)
	}
	targetDir, err := filepath.Abs(b.targetDir)
	if err != nil {
		return fault.Filesystem("resolving target directory", b.targetDir, err)
	}

	logger := b.logger
	if logger == nil {
		logger = log.FromContext(ctx)
	}

	opts := operation.Options{
		ProjectDir: projectDir,
		TargetDir:  targetDir,
		Excludes:   b.excludes,
		Tool:       b.tool,
		Release:    b.release,
		Stdout:     b.stdout,
		Stderr:     b.stderr,
		Logger:     logger,
	}

	if b.usesTool() {
		tool, err := npm.Lookup(b.tool)
		if err != nil {
			return err
		}
		opts.Runner = tool
		opts.Env = append([]string{"NODE_ENV=" + b.resolvedNodeEnv()}, b.env...)
	}

	zerolog.Ctx(ctx).Debug().
		Str("project", projectDir).
		Str("target", targetDir).
		Int("steps", len(b.steps)).
		Bool("release", b.release).
		Msg("executing build")

	ops := make([]operation.Operation, 0, len(b.steps))
	for i, step := range b.steps {
		op, err := operation.New(step, opts)
		if err != nil {
			return errors.Errorf("step %d: %w", i+1, err)
		}
		ops = append(ops, op)
	}

	logger.StartBuild(ctx, log.BuildOperation{
		ProjectDir: projectDir,
		TargetDir:  targetDir,
		Steps:      len(ops),
	})

	return operation.NewRunner(logger).Run(ctx, ops...)
}
