// Command sandbox-cli is an operator tool for submitting one-off jobs
// against a running sandboxd (§6) and printing the result, for smoke
// testing and debugging a deployment without a full client SDK.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/coderunner/sandbox/pkg/cli"
)

func main() {
	rootCmd := cli.NewRootCommand()

	flag.Parse()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
