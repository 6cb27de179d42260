package cli

import (
	"flag"
	"fmt"
)

func newResultCommand() *Command {
	return &Command{
		Name:        "result",
		Description: "fetch the current result for a previously submitted task",
		Flags:       flag.NewFlagSet("result", flag.ExitOnError),
		Run:         runResultCommand,
	}
}

func runResultCommand(args []string) error {
	cmd := newResultCommand()
	cmd.Flags.String("server", "http://localhost:8080", "sandboxd base URL")
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}
	if cmd.Flags.NArg() != 1 {
		return fmt.Errorf("usage: sandbox-cli result [-server URL] <task_id>")
	}
	taskID := cmd.Flags.Arg(0)
	server := cmd.Flags.Lookup("server").Value.String()

	result, done, err := fetchResult(server, taskID)
	if err != nil {
		return err
	}
	if !done {
		fmt.Println("state: pending")
		return nil
	}

	printResult(result)
	return nil
}
