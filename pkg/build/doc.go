/*
Package build drives a front-end asset pipeline from a Go build.

	+-----------+     +-------------------+     +-----------------+
	|  Builder  | --> | Execute(ctx)      | --> | target directory |
	|  (fluent) |     |  resolve dirs     |     |  copied files    |
	+-----------+     |  look up npm      |     |  script output   |
	                  |  run steps 1..n   |     +-----------------+
	                  +-------------------+

🎯 Purpose:
- Copy a project (or parts of it) into a build output directory
- Run package manager scripts there, in the order they were scheduled
- Stop at the first failure and say which step failed

📝 Usage:

	err := build.New().
		ProjectDirectory("web").
		TargetDirectory(filepath.Join(os.Getenv("OUT_DIR"), "web")).
		Release(true).
		CopyAll().
		Install().
		RunScript("build").
		Execute(ctx)

Nothing touches the filesystem or spawns a process until Execute. A Builder
runs once; calling Execute again returns an error.

⚡ Errors:
- FilesystemError: a copy could not read or write something
- ToolNotFoundError: the package manager is not on PATH or cannot start
- ScriptExecutionError: a script ran and exited non-zero; ExitCode holds the code

When any step needs the package manager it is looked up before the first
step runs, so a missing npm fails the build before anything is copied.
*/
package build
