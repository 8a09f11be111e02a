// Command genq serves and runs generic record searches.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/genq/internal/cli"
)

func main() {
	err := cli.NewRootCommand().ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "genq:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
