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

package build_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/npmbuild/pkg/build"
	"github.com/walteh/npmbuild/pkg/log"
	"github.com/walteh/npmbuild/pkg/testutils"
	"gitlab.com/tozd/go/errors"
)

// fakeNpm fails "build" when the copied sources are missing, otherwise
// writes dist/out.js. "broken" exits 1. Everything else succeeds.
const fakeNpm = `
case "$1 $2" in
"run build")
	test -f src/index.js || { echo "src/index.js missing" >&2; exit 2; }
	mkdir -p dist
	printf 'bundled' > dist/out.js
	;;
"run broken")
	echo "boom" >&2
	exit 1
	;;
"run env")
	printf '%s' "$NODE_ENV" > node_env.txt
	printf '%s' "$API_URL" > api_url.txt
	;;
esac
`

type fixture struct {
	ctx     context.Context
	project string
	target  string
	console *bytes.Buffer
	logger  *log.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	root := t.TempDir()
	f := &fixture{
		ctx:     zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background()),
		project: filepath.Join(root, "project"),
		target:  filepath.Join(root, "out", "web"),
		console: &bytes.Buffer{},
	}
	f.logger = log.New(f.console, zerolog.New(zerolog.NewTestWriter(t)))

	testutils.WriteTree(t, f.project, map[string]string{
		"package.json": `{"scripts":{"build":"webpack"}}`,
		"src/index.js": "console.log('hi')",
	})
	return f
}

func (f *fixture) builder() *build.Builder {
	return build.New().
		Logger(f.logger).
		ProjectDirectory(f.project).
		TargetDirectory(f.target)
}

func TestEndToEnd(t *testing.T) {
	f := newFixture(t)
	npm := testutils.InstallFakeTool(t, "npm", fakeNpm)

	err := f.builder().
		CopyAll().
		RunScript("build").
		Execute(f.ctx)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"package.json": `{"scripts":{"build":"webpack"}}`,
		"src/index.js": "console.log('hi')",
		"dist/out.js":  "bundled",
	}, testutils.ReadTree(t, f.target))
	assert.Equal(t, []string{"run build"}, npm.Calls(t))

	out := f.console.String()
	assert.Contains(t, out, "[1/2] copy • copy all project files")
	assert.Contains(t, out, "[2/2] script • npm run build")
}

func TestStepsRunInOrder(t *testing.T) {
	f := newFixture(t)
	testutils.InstallFakeTool(t, "npm", fakeNpm)

	// the script needs src/index.js, which is only copied afterwards
	err := f.builder().
		CopyFile("package.json").
		RunScript("build").
		CopyFile("src/index.js").
		Execute(f.ctx)
	require.Error(t, err)

	var scriptErr *build.ScriptExecutionError
	require.True(t, errors.As(err, &scriptErr), "got %v", err)
	assert.Equal(t, 2, scriptErr.ExitCode)

	// the copy scheduled after the failing script never ran
	_, statErr := os.Stat(filepath.Join(f.target, "src", "index.js"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCopyFileCopiesExactlyOnePath(t *testing.T) {
	f := newFixture(t)
	testutils.WriteTree(t, f.project, map[string]string{"README.md": "docs"})

	require.NoError(t, f.builder().CopyFile("src/index.js").Execute(f.ctx))

	assert.Equal(t, map[string]string{"src/index.js": "console.log('hi')"}, testutils.ReadTree(t, f.target))
}

func TestCopyItems(t *testing.T) {
	f := newFixture(t)
	testutils.WriteTree(t, f.project, map[string]string{"README.md": "docs"})

	require.NoError(t, f.builder().CopyItems("package.json", "README.md").Execute(f.ctx))

	assert.Equal(t, map[string]string{
		"package.json": `{"scripts":{"build":"webpack"}}`,
		"README.md":    "docs",
	}, testutils.ReadTree(t, f.target))
}

func TestMissingSourceDirectory(t *testing.T) {
	f := newFixture(t)
	npm := testutils.InstallFakeTool(t, "npm", fakeNpm)

	err := f.builder().
		ProjectDirectory(filepath.Join(f.project, "nope")).
		CopyAll().
		RunScript("build").
		Execute(f.ctx)
	require.Error(t, err)

	var fsErr *build.FilesystemError
	require.True(t, errors.As(err, &fsErr), "got %v", err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "step 1 (copy all project files)")
	assert.Empty(t, npm.Calls(t), "no script may run after a failed copy")
}

func TestToolNotFound(t *testing.T) {
	f := newFixture(t)
	testutils.HidePath(t)

	err := f.builder().
		CopyAll().
		RunScript("build").
		Execute(f.ctx)
	require.Error(t, err)

	var toolErr *build.ToolNotFoundError
	require.True(t, errors.As(err, &toolErr), "got %v", err)
	assert.Equal(t, "npm", toolErr.Tool)

	_, statErr := os.Stat(f.target)
	assert.True(t, os.IsNotExist(statErr), "nothing is copied when the tool is missing")
}

func TestToolOnlyNeededForScripts(t *testing.T) {
	f := newFixture(t)
	testutils.HidePath(t)

	require.NoError(t, f.builder().CopyAll().Execute(f.ctx))
	assert.Len(t, testutils.ReadTree(t, f.target), 2)
}

func TestScriptFailureStopsTheBuild(t *testing.T) {
	f := newFixture(t)
	npm := testutils.InstallFakeTool(t, "npm", fakeNpm)

	var stderr bytes.Buffer
	err := f.builder().
		Stderr(&stderr).
		CopyAll().
		RunScript("broken").
		RunScript("build").
		Execute(f.ctx)
	require.Error(t, err)

	var scriptErr *build.ScriptExecutionError
	require.True(t, errors.As(err, &scriptErr), "got %v", err)
	assert.Equal(t, 1, scriptErr.ExitCode)
	assert.Equal(t, "broken", scriptErr.Script)
	assert.Contains(t, err.Error(), "step 2 (npm run broken)")
	assert.Equal(t, "boom\n", stderr.String())

	assert.Equal(t, []string{"run broken"}, npm.Calls(t))
	_, statErr := os.Stat(filepath.Join(f.target, "dist", "out.js"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestInstallUsesCiForRelease(t *testing.T) {
	tests := []struct {
		name    string
		release bool
		want    string
	}{
		{name: "debug", release: false, want: "install"},
		{name: "release", release: true, want: "ci"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			npm := testutils.InstallFakeTool(t, "npm", fakeNpm)

			err := f.builder().
				Release(tt.release).
				CopyAll().
				Install().
				RunScript("build").
				Execute(f.ctx)
			require.NoError(t, err)

			assert.Equal(t, []string{tt.want, "run build"}, npm.Calls(t))
		})
	}
}

func TestScriptEnvironment(t *testing.T) {
	tests := []struct {
		name    string
		hostEnv string
		release bool
		nodeEnv string
		want    string
	}{
		{name: "development_by_default", want: "development"},
		{name: "production_for_release", release: true, want: "production"},
		{name: "host_wins_over_release", hostEnv: "staging", release: true, want: "staging"},
		{name: "explicit_wins_over_host", hostEnv: "staging", nodeEnv: "test", want: "test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			testutils.InstallFakeTool(t, "npm", fakeNpm)
			t.Setenv("NODE_ENV", tt.hostEnv)

			err := f.builder().
				Release(tt.release).
				NodeEnv(tt.nodeEnv).
				Env("API_URL", "https://example.test").
				RunScript("env").
				Execute(f.ctx)
			require.NoError(t, err)

			tree := testutils.ReadTree(t, f.target)
			assert.Equal(t, tt.want, tree["node_env.txt"])
			assert.Equal(t, "https://example.test", tree["api_url.txt"])
		})
	}
}

func TestAlternativeTool(t *testing.T) {
	f := newFixture(t)
	pnpm := testutils.InstallFakeTool(t, "pnpm", fakeNpm)
	testutils.InstallFakeTool(t, "npm", "echo 'wrong tool' >&2; exit 9")

	require.NoError(t, f.builder().Tool("pnpm").RunScript("build", "--", "--minify").Execute(f.ctx))
	assert.Equal(t, []string{"run build -- --minify"}, pnpm.Calls(t))
}

func TestExcludes(t *testing.T) {
	f := newFixture(t)
	testutils.WriteTree(t, f.project, map[string]string{
		"node_modules/dep/index.js": "dep",
		"coverage/lcov.info":        "report",
	})

	require.NoError(t, f.builder().Exclude("coverage").CopyAll().Execute(f.ctx))
	tree := testutils.ReadTree(t, f.target)
	assert.NotContains(t, tree, "node_modules/dep/index.js")
	assert.NotContains(t, tree, "coverage/lcov.info")

	require.NoError(t, f.builder().ClearExcludes().CopyAll().Execute(f.ctx))
	tree = testutils.ReadTree(t, f.target)
	assert.Equal(t, "dep", tree["node_modules/dep/index.js"])
	assert.Equal(t, "report", tree["coverage/lcov.info"])
}

func TestTargetNestedInProject(t *testing.T) {
	f := newFixture(t)
	f.target = filepath.Join(f.project, "target", "web")

	require.NoError(t, f.builder().CopyAll().Execute(f.ctx))
	require.NoError(t, f.builder().CopyAll().Execute(f.ctx))

	for path := range testutils.ReadTree(t, f.target) {
		assert.False(t, strings.HasPrefix(path, "target/"), "target copied into itself: %s", path)
	}
}

func TestTargetContainingProject(t *testing.T) {
	f := newFixture(t)
	testutils.WriteTree(t, f.project, map[string]string{
		"project/inner.txt": "inner",
	})
	npm := testutils.InstallFakeTool(t, "npm", fakeNpm)
	before := testutils.ReadTree(t, f.project)

	for _, target := range []string{filepath.Dir(f.project), filepath.Dir(filepath.Dir(f.project))} {
		f.target = target

		err := f.builder().CopyAll().RunScript("build").Execute(f.ctx)
		require.Error(t, err, "target %s", target)

		var fsErr *build.FilesystemError
		require.True(t, errors.As(err, &fsErr), "got %v", err)
		assert.Contains(t, err.Error(), "contains the project directory")
	}

	err := f.builder().CopyFile("src").Execute(f.ctx)
	var fsErr *build.FilesystemError
	require.True(t, errors.As(err, &fsErr), "got %v", err)

	assert.Equal(t, before, testutils.ReadTree(t, f.project), "sources must be left untouched")
	assert.Empty(t, npm.Calls(t))
}

func TestCopyWriteFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, f *fixture)
		steps func(b *build.Builder) *build.Builder
	}{
		{
			name: "target_is_a_file",
			setup: func(t *testing.T, f *fixture) {
				require.NoError(t, os.MkdirAll(filepath.Dir(f.target), 0o755))
				require.NoError(t, os.WriteFile(f.target, []byte("not a directory"), 0o644))
			},
			steps: func(b *build.Builder) *build.Builder { return b.CopyAll() },
		},
		{
			name: "file_where_directory_belongs",
			setup: func(t *testing.T, f *fixture) {
				testutils.WriteTree(t, f.target, map[string]string{"src": "not a directory"})
			},
			steps: func(b *build.Builder) *build.Builder { return b.CopyFile("src/index.js") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			npm := testutils.InstallFakeTool(t, "npm", fakeNpm)
			tt.setup(t, f)

			err := tt.steps(f.builder()).RunScript("build").Execute(f.ctx)
			require.Error(t, err)

			var fsErr *build.FilesystemError
			require.True(t, errors.As(err, &fsErr), "got %v", err)
			assert.Contains(t, err.Error(), "step 1")
			assert.Empty(t, npm.Calls(t), "no script may run after a failed copy")
		})
	}
}

func TestRelativeDirectories(t *testing.T) {
	f := newFixture(t)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(filepath.Dir(f.project)))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, build.New().
		Logger(f.logger).
		ProjectDirectory("project").
		TargetDirectory(filepath.Join("out", "web")).
		CopyFile("package.json").
		Execute(f.ctx))

	assert.Contains(t, testutils.ReadTree(t, f.target), "package.json")
}

func TestExecuteOnce(t *testing.T) {
	f := newFixture(t)
	b := f.builder().CopyAll()

	require.NoError(t, b.Execute(f.ctx))
	err := b.Execute(f.ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, build.ErrAlreadyExecuted))
}

func TestExecuteWithoutSteps(t *testing.T) {
	f := newFixture(t)
	err := f.builder().Execute(f.ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no build steps")
}

func TestInvalidCopyPath(t *testing.T) {
	f := newFixture(t)

	err := f.builder().CopyFile("../outside.txt").Execute(f.ctx)
	require.Error(t, err)

	var fsErr *build.FilesystemError
	assert.True(t, errors.As(err, &fsErr), "got %v", err)
}

func TestPlan(t *testing.T) {
	plan := build.New().
		Release(true).
		CopyAll().
		CopyItems("package.json", "src").
		Install().
		RunScript("build", "--", "--prod").
		Plan()

	assert.Equal(t, []string{
		"copy all project files",
		"copy package.json",
		"copy src",
		"npm ci",
		"npm run build -- --prod",
	}, plan)

	assert.Empty(t, build.New().Plan())
	assert.Equal(t, []string{"yarn install"}, build.New().Tool("yarn").Install().Plan())
}
