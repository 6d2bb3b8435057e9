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

package main

import (
	"context"
	"io"
	"os"

	"github.com/walteh/npmbuild/cmd/npmbuild/opts"
	"github.com/walteh/npmbuild/pkg/fault"
	"github.com/walteh/npmbuild/pkg/log"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	ro := &opts.RootOpts{
		Stdout: stdout,
		Stderr: stderr,
	}

	rootCmd := newRootCmd(ro)
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.NewUserLogger(ctx, stderr).LogValidation(false, "npmbuild failed", err)
		return fault.ExitCode(err)
	}

	return fault.ExitSuccess
}
