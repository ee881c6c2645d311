// Command rigup is the workstation environment bootstrapper: it probes,
// installs and verifies the external toolchain a test rig needs, then
// durably configures the environment to use it.
package main

import (
	"fmt"
	"os"

	"github.com/rigup-dev/rigup/internal/cli"
	"github.com/rigup-dev/rigup/pkg/version"
)

func main() {
	os.Exit(run())
}

// run executes the root command and maps its error to a process exit code.
// Separated from main so tests can exercise the mapping.
func run() int {
	root := cli.NewRootCmd(version.GetVersion())
	err := root.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return cli.ExitCode(err)
}
