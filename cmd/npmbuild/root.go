package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/npmbuild/cmd/npmbuild/commands"
	"github.com/walteh/npmbuild/cmd/npmbuild/opts"
	"github.com/walteh/npmbuild/pkg/log"
)

// newRootCmd creates the command tree writing to stdout and stderr
func newRootCmd(ro *opts.RootOpts) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "npmbuild",
		Short: "Copy a front-end project into a build directory and run its npm scripts",
		Long: `npmbuild drives a package manager from a host build. It copies the project
into a target directory and runs npm scripts there, stopping at the first
failure. Exit codes: 0 success, 1 script failed, 2 usage or config error,
3 package manager not found, 4 filesystem error.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ctx := setupLogging(cmd.Context(), ro)
			ro.UserLogger = log.NewUserLogger(ctx, ro.Stdout)
			cmd.SetContext(ctx)
		},
	}

	rootCmd.SetOut(ro.Stdout)
	rootCmd.SetErr(ro.Stderr)

	addRootFlags(rootCmd, ro)

	rootCmd.AddCommand(
		commands.NewRunCmd(ro),
		commands.NewPlanCmd(ro),
		newVersionCmd(ro),
	)

	return rootCmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, ro *opts.RootOpts) {
	cmd.PersistentFlags().StringVarP(&ro.ConfigFile, "config", "c", "", "config file path (default: npmbuild.{yaml,yml,hcl,json} if present)")
	cmd.PersistentFlags().BoolVarP(&ro.Debug, "debug", "d", false, "enable debug logging")
}

// setupLogging puts a zerolog logger writing to stderr and a console logger
// writing to stdout into the context
func setupLogging(ctx context.Context, ro *opts.RootOpts) context.Context {
	level := zerolog.InfoLevel
	if ro.Debug {
		level = zerolog.DebugLevel
	}

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: ro.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()

	ctx = zlog.WithContext(ctx)
	return log.NewContext(ctx, log.New(ro.Stdout, zlog))
}
