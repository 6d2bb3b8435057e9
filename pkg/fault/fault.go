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

// Package fault defines the errors a build can fail with.
//
// Every failure is fatal to the build that produced it. Callers tell the
// kinds apart with errors.As:
//
//	var scriptErr *fault.ScriptExecutionError
//	if errors.As(err, &scriptErr) {
//		os.Exit(scriptErr.ExitCode)
//	}
package fault

import (
	"fmt"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🚦 Exit statuses used by the npmbuild command.
const (
	ExitSuccess      = 0
	ExitScriptFailed = 1
	ExitConfigError  = 2
	ExitToolNotFound = 3
	ExitFilesystem   = 4
)

// 📁 FilesystemError reports a failed copy: missing source, permission
// problems, a full disk and the like.
type FilesystemError struct {
	Op   string // what was being done, e.g. "copying"
	Path string // path the operation failed on
	Err  error
}

func (e *FilesystemError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// 🔍 ToolNotFoundError reports a package manager that could not be located
// or started.
type ToolNotFoundError struct {
	Tool string
	Err  error
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("package manager %q not found: %v", e.Tool, e.Err)
}

func (e *ToolNotFoundError) Unwrap() error {
	return e.Err
}

// 💥 ScriptExecutionError reports a package manager invocation that started
// but exited non-zero. ExitCode is -1 when the process was killed by a signal.
type ScriptExecutionError struct {
	Tool     string
	Script   string
	Args     []string // full argument list passed to Tool
	ExitCode int
}

func (e *ScriptExecutionError) Error() string {
	return fmt.Sprintf("script %q failed: %s %s exited with code %d",
		e.Script, e.Tool, strings.Join(e.Args, " "), e.ExitCode)
}

// Filesystem wraps err as a FilesystemError with a stack trace.
func Filesystem(op, path string, err error) error {
	return errors.WithStack(&FilesystemError{Op: op, Path: path, Err: err})
}

// ToolNotFound wraps err as a ToolNotFoundError with a stack trace.
func ToolNotFound(tool string, err error) error {
	return errors.WithStack(&ToolNotFoundError{Tool: tool, Err: err})
}

// ScriptFailed builds a ScriptExecutionError with a stack trace.
func ScriptFailed(tool, script string, args []string, code int) error {
	return errors.WithStack(&ScriptExecutionError{
		Tool:     tool,
		Script:   script,
		Args:     append([]string(nil), args...),
		ExitCode: code,
	})
}

// 🚦 ExitCode maps a build error to the exit status of the npmbuild command.
// Errors outside the taxonomy are treated as configuration errors.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var scriptErr *ScriptExecutionError
	var toolErr *ToolNotFoundError
	var fsErr *FilesystemError
	switch {
	case errors.As(err, &scriptErr):
		return ExitScriptFailed
	case errors.As(err, &toolErr):
		return ExitToolNotFound
	case errors.As(err, &fsErr):
		return ExitFilesystem
	default:
		return ExitConfigError
	}
}
