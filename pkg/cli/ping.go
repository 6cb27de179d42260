package cli

import (
	"flag"
	"fmt"
	"io"
	"net/http"
)

func newPingCommand() *Command {
	return &Command{
		Name:        "ping",
		Description: "check that a sandboxd instance is reachable",
		Flags:       flag.NewFlagSet("ping", flag.ExitOnError),
		Run:         runPingCommand,
	}
}

func runPingCommand(args []string) error {
	cmd := newPingCommand()
	cmd.Flags.String("server", "http://localhost:8080", "sandboxd base URL")
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}
	server := cmd.Flags.Lookup("server").Value.String()

	resp, err := http.Get(server + "/core/ping")
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping returned %s: %s", resp.Status, string(body))
	}

	fmt.Printf("%s: %s\n", server, string(body))
	return nil
}
