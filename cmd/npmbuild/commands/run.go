package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/npmbuild/cmd/npmbuild/opts"
)

// NewRunCmd creates the run command
func NewRunCmd(ro *opts.RootOpts) *cobra.Command {
	b := &opts.BuildOpts{}

	cmd := &cobra.Command{
		Use:   "run [script...] [-- args...]",
		Short: "Copy the project and run package manager scripts",
		Long: `Run executes a build in order:
1. copy_all / --copy-all
2. copy / --copy
3. install / --install (npm ci with --release)
4. scripts from the config, then the scripts named on the command line

Arguments after -- are passed to the last script named on the command line.
The first failing step stops the build.`,
		Example: `  npmbuild run --target out/web --copy-all build
  npmbuild run -c npmbuild.hcl --release
  npmbuild run --target out/web --copy package.json --copy src build -- --minify`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "run").Logger().WithContext(ctx)

			cfg, err := resolveConfig(cmd, ro, b, args)
			if err != nil {
				return err
			}

			zerolog.Ctx(ctx).Debug().Stringer("config", cfg).Msg("starting build")

			if err := cfg.Builder().Execute(ctx); err != nil {
				return err
			}

			ro.UserLogger.LogValidation(true, "build finished", nil)
			return nil
		},
	}

	addBuildFlags(cmd, b)

	return cmd
}
