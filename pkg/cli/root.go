// Package cli implements the sandbox-cli operator tool: a thin HTTP client
// against a running sandboxd (§6) for one-off smoke tests and debugging,
// built on the same flag-based Command/subcommand shape the rest of this
// codebase's tooling uses rather than a third-party CLI framework.
package cli

import (
	"flag"
	"fmt"
	"os"
)

// Command represents a CLI command.
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// NewRootCommand creates the root command.
func NewRootCommand() *Command {
	root := &Command{
		Name:        "sandbox-cli",
		Description: "sandbox-cli - operator tool for the sandbox execution service",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("sandbox-cli", flag.ExitOnError),
	}

	root.Subcommands["run"] = newRunCommand()
	root.Subcommands["result"] = newResultCommand()
	root.Subcommands["ping"] = newPingCommand()

	return root
}

// Execute runs the command.
func (c *Command) Execute() error {
	args := os.Args[1:]
	if len(args) == 0 {
		return c.usage()
	}

	if args[0] == "-h" || args[0] == "--help" {
		return c.usage()
	}

	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

// usage prints the command usage.
func (c *Command) usage() error {
	fmt.Printf("Usage: %s <command> [args]\n\n", c.Name)
	fmt.Printf("Commands:\n")
	for name, cmd := range c.Subcommands {
		fmt.Printf("  %-10s %s\n", name, cmd.Description)
	}
	return nil
}
