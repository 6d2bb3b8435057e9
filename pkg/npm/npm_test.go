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

package npm_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/npmbuild/pkg/fault"
	"github.com/walteh/npmbuild/pkg/npm"
	"github.com/walteh/npmbuild/pkg/testutils"
	"gitlab.com/tozd/go/errors"
)

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

func TestResolveNodeEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		release bool
		want    string
	}{
		{name: "debug_default", want: "development"},
		{name: "release_default", release: true, want: "production"},
		{name: "explicit_wins", env: "staging", release: true, want: "staging"},
		{name: "explicit_development_in_release", env: "development", release: true, want: "development"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NODE_ENV", tt.env)
			assert.Equal(t, tt.want, npm.ResolveNodeEnv(tt.release))
		})
	}
}

func TestArgs(t *testing.T) {
	assert.Equal(t, []string{"run", "build"}, npm.RunArgs("build"))
	assert.Equal(t, []string{"run", "build", "--", "--mode", "prod"}, npm.RunArgs("build", "--", "--mode", "prod"))
	assert.Equal(t, []string{"install"}, npm.InstallArgs(false))
	assert.Equal(t, []string{"ci"}, npm.InstallArgs(true))
}

func TestLookup(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		fake := testutils.InstallFakeTool(t, "npm", "exit 0")
		tool, err := npm.Lookup("")
		require.NoError(t, err)
		assert.Equal(t, "npm", tool.Name)
		assert.Equal(t, fake.Path, tool.Path)
	})

	t.Run("missing", func(t *testing.T) {
		testutils.HidePath(t)
		_, err := npm.Lookup("npm")
		require.Error(t, err)

		var toolErr *fault.ToolNotFoundError
		require.True(t, errors.As(err, &toolErr), "expected ToolNotFoundError, got %v", err)
		assert.Equal(t, "npm", toolErr.Tool)
	})
}

func TestRun(t *testing.T) {
	fake := testutils.InstallFakeTool(t, "npm", `
echo "NODE_ENV=$NODE_ENV"
echo "EXTRA=$EXTRA"
echo "cwd=$(pwd -P)"
echo "oops" >&2
if [ "$2" = "broken" ]; then exit 3; fi
if [ "$2" = "slow" ]; then exec sleep 30; fi
exit 0
`)
	tool, err := npm.Lookup("npm")
	require.NoError(t, err)

	dir := t.TempDir()
	// pwd reports the resolved directory on systems with symlinked temp dirs
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		err := tool.Run(testContext(t), npm.Invocation{
			Script: "build",
			Args:   npm.RunArgs("build"),
			Dir:    dir,
			Env:    []string{"NODE_ENV=production", "EXTRA=1"},
			Stdout: &stdout,
			Stderr: &stderr,
		})
		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "NODE_ENV=production")
		assert.Contains(t, stdout.String(), "EXTRA=1")
		assert.Contains(t, stdout.String(), "cwd="+resolved)
		assert.Equal(t, "oops\n", stderr.String())
	})

	t.Run("non_zero_exit", func(t *testing.T) {
		err := tool.Run(testContext(t), npm.Invocation{
			Script: "broken",
			Args:   npm.RunArgs("broken"),
			Dir:    dir,
		})
		require.Error(t, err)

		var scriptErr *fault.ScriptExecutionError
		require.True(t, errors.As(err, &scriptErr), "expected ScriptExecutionError, got %v", err)
		assert.Equal(t, 3, scriptErr.ExitCode)
		assert.Equal(t, "broken", scriptErr.Script)
		assert.Equal(t, []string{"run", "broken"}, scriptErr.Args)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(testContext(t), 200*time.Millisecond)
		defer cancel()

		err := tool.Run(ctx, npm.Invocation{
			Script: "slow",
			Args:   npm.RunArgs("slow"),
			Dir:    dir,
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		var scriptErr *fault.ScriptExecutionError
		assert.False(t, errors.As(err, &scriptErr), "a cancelled run is not a script failure: %v", err)
	})

	t.Run("missing_directory", func(t *testing.T) {
		err := tool.Run(testContext(t), npm.Invocation{
			Script: "build",
			Args:   npm.RunArgs("build"),
			Dir:    filepath.Join(dir, "nope"),
		})
		var fsErr *fault.FilesystemError
		require.True(t, errors.As(err, &fsErr), "expected FilesystemError, got %v", err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("tool_removed_after_lookup", func(t *testing.T) {
		gone := &npm.Tool{Name: "npm", Path: filepath.Join(t.TempDir(), "npm")}
		err := gone.Run(testContext(t), npm.Invocation{Script: "build", Args: npm.RunArgs("build"), Dir: dir})
		var toolErr *fault.ToolNotFoundError
		require.True(t, errors.As(err, &toolErr), "expected ToolNotFoundError, got %v", err)
	})

	assert.Equal(t, []string{"run build", "run broken", "run slow"}, fake.Calls(t))
}
