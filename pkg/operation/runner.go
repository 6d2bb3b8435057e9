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

	"github.com/walteh/npmbuild/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// 🏃 OperationRunner executes operations one after another
type OperationRunner struct {
	logger *log.Logger
}

// 🏗️ NewRunner creates a new runner; a nil logger falls back to the one in
// the context passed to Run.
func NewRunner(logger *log.Logger) *OperationRunner {
	return &OperationRunner{
		logger: logger,
	}
}

// 🏃 Run executes ops in order and stops at the first failure. Later
// operations are not started.
func (r *OperationRunner) Run(ctx context.Context, ops ...Operation) error {
	logger := r.logger
	if logger == nil {
		logger = log.FromContext(ctx)
	}

	for i, op := range ops {
		logger.StartStep(ctx, log.StepOperation{
			Index:       i + 1,
			Total:       len(ops),
			Kind:        op.Kind().String(),
			Description: op.Describe(),
		})

		err := op.Execute(ctx)
		logger.EndStep(ctx, err)
		if err != nil {
			err = errors.Errorf("step %d (%s): %w", i+1, op.Describe(), err)
			logger.EndBuild(ctx, i, len(ops), err)
			return err
		}
	}

	logger.EndBuild(ctx, len(ops), len(ops), nil)
	return nil
}
