package commands

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/walteh/npmbuild/cmd/npmbuild/opts"
	"github.com/walteh/npmbuild/pkg/config"
	"gitlab.com/tozd/go/errors"
)

// DefaultConfigFiles are tried in order when --config is not given.
var DefaultConfigFiles = []string{"npmbuild.yaml", "npmbuild.yml", "npmbuild.hcl", "npmbuild.json"}

func addBuildFlags(cmd *cobra.Command, b *opts.BuildOpts) {
	f := cmd.Flags()
	f.StringVar(&b.Project, "project", "", "project directory to copy from")
	f.StringVar(&b.Target, "target", "", "target directory to copy into and run scripts in")
	f.StringVar(&b.Tool, "tool", "", "package manager executable (default npm)")
	f.StringVar(&b.NodeEnv, "node-env", "", "NODE_ENV for package manager steps")
	f.BoolVar(&b.CopyAll, "copy-all", false, "copy the whole project")
	f.StringArrayVar(&b.Copy, "copy", nil, "copy one project-relative path (repeatable)")
	f.StringArrayVar(&b.Exclude, "exclude", nil, "exclude a doublestar pattern from copies (repeatable)")
	f.BoolVar(&b.Install, "install", false, "install dependencies before running scripts")
	f.BoolVar(&b.Release, "release", false, "release build: npm ci and NODE_ENV=production")
}

// resolveConfig merges the config file, the build flags and the positional
// scripts into one validated config. Arguments after "--" go to the last
// script.
func resolveConfig(cmd *cobra.Command, ro *opts.RootOpts, b *opts.BuildOpts, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd.Context(), ro.ConfigFile)
	if err != nil {
		return nil, err
	}

	if b.Project != "" {
		cfg.ProjectDirectory = b.Project
	}
	if b.Target != "" {
		cfg.TargetDirectory = b.Target
	}
	if b.Tool != "" {
		cfg.Tool = b.Tool
	}
	if b.NodeEnv != "" {
		cfg.NodeEnv = b.NodeEnv
	}
	if b.CopyAll {
		cfg.CopyAll = true
	}
	if b.Install {
		cfg.Install = true
	}
	if cmd.Flags().Changed("release") {
		cfg.Release = b.Release
	}
	cfg.Copy = append(cfg.Copy, b.Copy...)
	cfg.Exclude = append(cfg.Exclude, b.Exclude...)

	scripts, extra := args, []string(nil)
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		scripts, extra = args[:dash], args[dash:]
	}
	if len(extra) > 0 && len(scripts) == 0 {
		return nil, errors.Errorf("arguments after -- need a script to pass them to")
	}
	for i, name := range scripts {
		s := config.Script{Name: name}
		if i == len(scripts)-1 {
			s.Args = extra
		}
		cfg.Scripts = append(cfg.Scripts, s)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("invalid build: %w", err)
	}

	return cfg, nil
}

// loadConfig decodes the named config, or the first default config file in
// the working directory. Without either it returns an empty config.
func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	if path == "" {
		for _, name := range DefaultConfigFiles {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
	}
	if path == "" {
		return &config.Config{}, nil
	}

	cfg, err := config.Decode(ctx, path)
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
