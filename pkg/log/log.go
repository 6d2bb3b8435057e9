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

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // Base width for filename
	statusWidth = 12 // Width for status text
)

// 🎯 FileOperation represents a copied file for logging
type FileOperation struct {
	Path       string // Path relative to the target directory
	Status     string // Operation status
	Size       int64  // Bytes written
	IsNew      bool   // File did not exist in the target
	IsModified bool   // File existed with different content
	IsRemoved  bool   // File was removed from the target
	IsSymlink  bool   // Entry was recreated as a symlink
}

// 📦 StepOperation represents one scheduled build step for logging
type StepOperation struct {
	Index       int    // 1-based position in the build
	Total       int    // Number of steps in the build
	Kind        string // copy, install or script
	Description string // Human readable summary
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog      zerolog.Logger
	console   io.Writer
	mu        sync.Mutex
	current   *StepOperation
	fileCount int
}

// 🏭 New creates a new logger writing human output to console and
// structured events to zlog.
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context. Without one, it returns a
// logger that is silent on the console and forwards structured events to
// the zerolog logger carried by ctx, if any.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger
	}
	return New(io.Discard, *zerolog.Ctx(ctx))
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📡 Zerolog returns the structured logger behind l.
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zlog
}

// 📝 formatFileOperation formats a file operation for display
func (l *Logger) formatFileOperation(op FileOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch {
	case op.IsRemoved:
		symbol = '✗'
		symbolColor = color.FgRed
	case op.IsNew:
		symbol = '✓'
		symbolColor = color.FgGreen
	case op.IsModified:
		symbol = '⟳'
		symbolColor = color.FgBlue
	default:
		symbol = '•'
		symbolColor = color.FgCyan
	}

	path := op.Path
	if op.IsSymlink {
		path += "@"
	}

	return fmt.Sprintf("%s%s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, path),
		fmt.Sprintf("%-*s", statusWidth, op.Status))
}

// 📝 LogFileOperation logs a file operation
func (l *Logger) LogFileOperation(ctx context.Context, op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.fileCount++

	fmt.Fprintln(l.console, l.formatFileOperation(op))

	l.zlog.Debug().
		Str("file", op.Path).
		Str("status", op.Status).
		Int64("size", op.Size).
		Bool("is_new", op.IsNew).
		Bool("is_modified", op.IsModified).
		Bool("is_removed", op.IsRemoved).
		Bool("is_symlink", op.IsSymlink).
		Msg("file operation")
}

// 📝 StartStep starts a new build step
func (l *Logger) StartStep(ctx context.Context, op StepOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.current = &op
	l.fileCount = 0

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprintf("[%d/%d]", op.Index, op.Total),
		color.New(color.Bold).Sprint(op.Kind),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(op.Description))

	l.zlog.Info().
		Int("step", op.Index).
		Int("total", op.Total).
		Str("kind", op.Kind).
		Msg(op.Description)
}

// 📝 EndStep ends the current build step
func (l *Logger) EndStep(ctx context.Context, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return
	}

	ev := l.zlog.Info()
	if err != nil {
		ev = l.zlog.Error().Err(err)
	}
	ev.Int("step", l.current.Index).
		Str("kind", l.current.Kind).
		Int("files", l.fileCount).
		Msg("step complete")

	l.current = nil
	l.fileCount = 0
}

// 🏁 BuildOperation describes a whole build for logging
type BuildOperation struct {
	ProjectDir string
	TargetDir  string
	Steps      int
}

// 🏁 StartBuild prints the build header
func (l *Logger) StartBuild(ctx context.Context, op BuildOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	name := color.New(color.Bold, color.FgCyan).Sprint("npmbuild")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name,
		color.New(color.Faint).Sprintf("• %s → %s", op.ProjectDir, op.TargetDir))

	l.zlog.Info().
		Str("project", op.ProjectDir).
		Str("target", op.TargetDir).
		Int("steps", op.Steps).
		Msg("build started")
}

// 🏁 EndBuild prints the outcome; completed counts the steps that succeeded
func (l *Logger) EndBuild(ctx context.Context, completed, total int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err != nil {
		fmt.Fprintf(l.console, "\n❌ %s\n", color.New(color.FgRed).Sprintf("build failed after %d/%d steps", completed, total))
		l.zlog.Error().Err(err).Int("completed", completed).Int("total", total).Msg("build failed")
		return
	}

	fmt.Fprintf(l.console, "\n✅ %s\n", color.New(color.FgGreen).Sprintf("build complete, %d/%d steps", completed, total))
	l.zlog.Info().Int("steps", total).Msg("build complete")
}
