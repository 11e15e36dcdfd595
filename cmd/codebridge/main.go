// Package main provides the entry point for the codebridge CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/Sumatoshi-tech/codebridge/cmd/codebridge/commands"
)

func main() {
	err := commands.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(commands.ExitCode(err))
	}
}
