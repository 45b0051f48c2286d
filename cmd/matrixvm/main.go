// Command matrixvm boots a BasicCpu virtual machine from a flat binary
// BIOS image.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/jslick/matrixvm/buildinfo"
)

// set by the linker at release build time
var (
	version = "dev"
	commit  = ""
	date    = ""
)

// Exit codes distinguish the failure domain.
const (
	exitRuntimeErr = 1
	exitFileErr    = 3
)

func main() {
	root := &cobra.Command{
		Use:           "matrixvm",
		Short:         "Matrix VM, a virtual machine for the BasicCpu architecture",
		Version:       buildinfo.Version(version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCommand())
	root.AddCommand(newDemoCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "A runtime error occurred:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return exitFileErr
	}
	return exitRuntimeErr
}
