package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/npmbuild/cmd/npmbuild/opts"
)

// NewPlanCmd creates the plan command
func NewPlanCmd(ro *opts.RootOpts) *cobra.Command {
	b := &opts.BuildOpts{}

	cmd := &cobra.Command{
		Use:   "plan [script...] [-- args...]",
		Short: "Show the steps run would execute",
		Long:  `Plan takes the same inputs as run and lists the steps without touching the filesystem or starting the package manager.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, ro, b, args)
			if err != nil {
				return err
			}

			for i, step := range cfg.Builder().Plan() {
				ro.UserLogger.LogPlan(i+1, step)
			}
			return nil
		},
	}

	addBuildFlags(cmd, b)

	return cmd
}
