// Command mindmap is the CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/danimelchor/mindmap-go/cmd/mindmap/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
