// Command appinfo inspects and edits Steam appinfo.vdf files.
package main

import (
	"fmt"
	"os"

	"github.com/arloliu/appinfo/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
