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

// Package testutils provides fixtures shared by the package tests.
package testutils

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// 🧪 FakeTool is a shell script standing in for a package manager. Every
// invocation appends its arguments as one line to the call log before the
// configured body runs.
type FakeTool struct {
	Name    string
	Dir     string
	Path    string
	LogPath string
}

// InstallFakeTool writes an executable named name whose shell body is body
// and puts its directory first on PATH for the rest of the test. The body
// sees the invocation arguments as "$@" and runs in the invocation's working
// directory.
func InstallFakeTool(t *testing.T, name, body string) *FakeTool {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake package manager scripts need a POSIX shell")
	}

	dir := t.TempDir()
	logPath := filepath.Join(dir, "calls.log")
	script := "#!/bin/sh\n" +
		"printf '%s\\n' \"$*\" >> '" + logPath + "'\n" +
		body + "\n"

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755), "writing fake %s", name)

	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	return &FakeTool{Name: name, Dir: dir, Path: path, LogPath: logPath}
}

// Calls returns the argument lines recorded so far, oldest first.
func (f *FakeTool) Calls(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(f.LogPath)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err, "reading call log")
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

// HidePath replaces PATH with an empty directory so no tool resolves.
func HidePath(t *testing.T) {
	t.Helper()
	t.Setenv("PATH", t.TempDir())
}

// WriteTree creates files below root; keys are slash-separated relative
// paths, values the contents.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "creating parent of %s", rel)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "writing %s", rel)
	}
}

// ReadTree returns every regular file below root keyed by slash-separated
// relative path.
func ReadTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err, "reading tree %s", root)
	return out
}
