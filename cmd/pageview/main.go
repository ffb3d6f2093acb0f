// Command pageview browses cursor-paginated datasets.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/pageview/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
