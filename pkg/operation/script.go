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
	"os"

	"github.com/walteh/npmbuild/pkg/fault"
	"github.com/walteh/npmbuild/pkg/log"
	"github.com/walteh/npmbuild/pkg/npm"
)

// 📜 NewScriptOperation creates an operation running a manifest script
func NewScriptOperation(opts Options, script string, args ...string) Operation {
	return &scriptOperation{
		BaseOperation: NewBaseOperation(opts),
		script:        script,
		args:          append([]string(nil), args...),
	}
}

// 📜 scriptOperation runs `<tool> run <script> [args...]` in the target
type scriptOperation struct {
	BaseOperation
	script string
	args   []string
}

func (op *scriptOperation) Kind() Kind { return KindRunScript }

func (op *scriptOperation) Describe() string {
	return Step{Kind: KindRunScript, Script: op.script, Args: op.args}.Describe(op.Tool, op.Release)
}

// 🏃 Execute runs the script
func (op *scriptOperation) Execute(ctx context.Context) error {
	return op.invoke(ctx, op.script, npm.RunArgs(op.script, op.args...))
}

// 📥 NewInstallOperation creates an operation installing dependencies
func NewInstallOperation(opts Options) Operation {
	return &installOperation{
		BaseOperation: NewBaseOperation(opts),
	}
}

// 📥 installOperation runs `<tool> install`, or `<tool> ci` for release builds
type installOperation struct {
	BaseOperation
}

func (op *installOperation) Kind() Kind { return KindInstall }

func (op *installOperation) Describe() string {
	return Step{Kind: KindInstall}.Describe(op.Tool, op.Release)
}

// 🏃 Execute runs the install
func (op *installOperation) Execute(ctx context.Context) error {
	args := npm.InstallArgs(op.Release)
	return op.invoke(ctx, args[0], args)
}

// invoke runs the package manager in the target directory, creating it first
// so a build without copy steps still has somewhere to run.
func (op *BaseOperation) invoke(ctx context.Context, script string, args []string) error {
	if err := os.MkdirAll(op.TargetDir, 0755); err != nil {
		return fault.Filesystem("creating target directory", op.TargetDir, err)
	}

	logger := op.logger(ctx)
	stdout, stderr := op.Stdout, op.Stderr
	var flush []*log.LineWriter
	if stdout == nil {
		w := logger.Stdout(script)
		flush = append(flush, w)
		stdout = w
	}
	if stderr == nil {
		w := logger.Stderr(script)
		flush = append(flush, w)
		stderr = w
	}
	defer func() {
		for _, w := range flush {
			w.Flush()
		}
	}()

	return op.Runner.Run(ctx, npm.Invocation{
		Script: script,
		Args:   args,
		Dir:    op.TargetDir,
		Env:    op.Env,
		Stdout: stdout,
		Stderr: stderr,
	})
}
