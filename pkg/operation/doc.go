/*
Package operation implements the individual steps of a build.

	+-------------+      +-------------+      +-------------+
	|  copy all   | ---> |   install   | ---> |   script    |
	| copy <path> |      | (npm ci/i)  |      | (npm run x) |
	+-------------+      +-------------+      +-------------+
	         \                  |                   /
	          +--------  OperationRunner  --------+

🎯 Purpose:
- Mirrors project files into the target directory
- Invokes the package manager inside the target directory
- Runs steps strictly in order and stops at the first failure

🔄 Copy semantics:
1. Every entry is copied byte for byte; permissions are kept and symlinks
   are recreated as symlinks
2. Entries matching an exclusion pattern are skipped, as is the target
   directory when it sits inside the project
3. After an entry is copied, whatever the target still holds below it that
   the source no longer has is removed, except excluded entries (an
   installed node_modules survives)
4. When project and target are the same directory, copies do nothing

⚡ Failures:
- Copy problems are reported as fault.FilesystemError
- A package manager that cannot be started is a fault.ToolNotFoundError
- A non-zero exit is a fault.ScriptExecutionError carrying the exit code

🔍 Example:

	runner := operation.NewRunner(logger)
	err := runner.Run(ctx,
		operation.NewCopyAllOperation(opts),
		operation.NewScriptOperation(opts, "build"),
	)
*/
package operation
