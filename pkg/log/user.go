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
	"io"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 📢 UserLogger provides the short, user-facing outcome lines of the CLI
type UserLogger struct {
	log zerolog.Logger
	out io.Writer
}

// 🎯 NewUserLogger creates a new user logger printing to out
func NewUserLogger(ctx context.Context, out io.Writer) *UserLogger {
	return &UserLogger{
		log: *zerolog.Ctx(ctx),
		out: out,
	}
}

// 📊 LogPlan prints one planned operation
func (u *UserLogger) LogPlan(index int, description string) {
	pterm.Info.WithPrefix(pterm.Prefix{Text: "📋"}).WithWriter(u.out).Printfln("%d. %s", index, description)
	u.log.Debug().Int("step", index).Msg(description)
}

// 🔍 LogValidation logs the final outcome of a command
func (u *UserLogger) LogValidation(valid bool, description string, err error) {
	if valid {
		pterm.Success.WithPrefix(pterm.Prefix{Text: "✅"}).WithWriter(u.out).Println(description)
		u.log.Info().Msg(description)
		return
	}

	if err != nil {
		pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"}).WithWriter(u.out).Println(description)
		pterm.Error.WithWriter(u.out).Println(err)
		u.log.Error().Err(err).Msg(description)
		return
	}

	pterm.Warning.WithPrefix(pterm.Prefix{Text: "⚠️"}).WithWriter(u.out).Println(description)
	u.log.Warn().Msg(description)
}
