package opts

import (
	"io"

	"github.com/walteh/npmbuild/pkg/log"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	ConfigFile string
	Debug      bool

	Stdout io.Writer
	Stderr io.Writer

	UserLogger *log.UserLogger
}

// BuildOpts holds the flags that describe a build on the command line. They
// are applied on top of the config file.
type BuildOpts struct {
	Project string
	Target  string
	Tool    string
	NodeEnv string
	CopyAll bool
	Copy    []string
	Exclude []string
	Install bool
	Release bool
}
