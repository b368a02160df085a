// Command crowdreplay replays recorded pedestrian trajectories through an
// ORCA crowd simulation.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/crowdreplay/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
