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

package operation

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/walteh/npmbuild/pkg/log"
	"github.com/walteh/npmbuild/pkg/npm"
	"gitlab.com/tozd/go/errors"
)

// 🏷️ Kind tags the operation variants a build can schedule
type Kind int

const (
	KindCopyAll Kind = iota
	KindCopyFile
	KindInstall
	KindRunScript
)

// String returns the short name used in logs
func (k Kind) String() string {
	switch k {
	case KindCopyAll, KindCopyFile:
		return "copy"
	case KindInstall:
		return "install"
	case KindRunScript:
		return "script"
	default:
		return "unknown"
	}
}

// UsesTool reports whether operations of this kind invoke the package manager
func (k Kind) UsesTool() bool {
	return k == KindInstall || k == KindRunScript
}

// 📋 Step is a scheduled, not yet bound, operation
type Step struct {
	Kind   Kind
	Path   string   // KindCopyFile: path relative to the project directory
	Script string   // KindRunScript: manifest script name
	Args   []string // KindRunScript: extra arguments after the script name
}

// Describe renders the step for plans and logs. tool and release only affect
// package manager steps.
func (s Step) Describe(tool string, release bool) string {
	switch s.Kind {
	case KindCopyAll:
		return "copy all project files"
	case KindCopyFile:
		return fmt.Sprintf("copy %s", s.Path)
	case KindInstall:
		return fmt.Sprintf("%s %s", tool, strings.Join(npm.InstallArgs(release), " "))
	case KindRunScript:
		return fmt.Sprintf("%s %s", tool, strings.Join(npm.RunArgs(s.Script, s.Args...), " "))
	default:
		return "unknown step"
	}
}

// 🎯 Operation is one executable build step
type Operation interface {
	Kind() Kind
	Describe() string
	Execute(ctx context.Context) error
}

// 🏃 ScriptRunner runs the package manager. *npm.Tool implements it.
type ScriptRunner interface {
	Run(ctx context.Context, inv npm.Invocation) error
}

// 🔧 Options contains everything an operation needs to run
type Options struct {
	// ProjectDir is the absolute source directory
	ProjectDir string
	// TargetDir is the absolute destination directory
	TargetDir string
	// Excludes are doublestar patterns matched against slash-separated
	// paths relative to ProjectDir
	Excludes []string
	// Runner invokes the package manager; required for tool steps
	Runner ScriptRunner
	// Tool is the package manager name used in descriptions and errors
	Tool string
	// Release selects "ci" over "install"
	Release bool
	// Env holds extra KEY=VALUE pairs for the package manager
	Env []string
	// Stdout and Stderr receive the package manager output; nil routes it
	// into the structured log
	Stdout io.Writer
	Stderr io.Writer
	// Logger reports progress; nil falls back to the context logger
	Logger *log.Logger
}

// 📦 BaseOperation carries the shared options
type BaseOperation struct {
	Options
}

// 🏭 NewBaseOperation creates a new base operation
func NewBaseOperation(opts Options) BaseOperation {
	if opts.Tool == "" {
		opts.Tool = npm.DefaultTool
	}
	return BaseOperation{Options: opts}
}

func (op *BaseOperation) logger(ctx context.Context) *log.Logger {
	if op.Logger != nil {
		return op.Logger
	}
	return log.FromContext(ctx)
}

// 🏭 New binds a step to options
func New(step Step, opts Options) (Operation, error) {
	switch step.Kind {
	case KindCopyAll:
		return NewCopyAllOperation(opts), nil
	case KindCopyFile:
		return NewCopyFileOperation(opts, step.Path), nil
	case KindInstall:
		if opts.Runner == nil {
			return nil, errors.Errorf("install step requires a package manager runner")
		}
		return NewInstallOperation(opts), nil
	case KindRunScript:
		if opts.Runner == nil {
			return nil, errors.Errorf("script step requires a package manager runner")
		}
		if step.Script == "" {
			return nil, errors.Errorf("script name is required")
		}
		return NewScriptOperation(opts, step.Script, step.Args...), nil
	default:
		return nil, errors.Errorf("unknown step kind %d", step.Kind)
	}
}
