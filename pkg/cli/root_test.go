package cli

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()

	assert.Equal(t, "sandbox-cli", root.Name)
	assert.NotNil(t, root.Subcommands)
	assert.NotNil(t, root.Flags)

	expectedCommands := []string{"run", "result", "ping"}
	for _, cmdName := range expectedCommands {
		assert.Contains(t, root.Subcommands, cmdName, "expected subcommand %s to be registered", cmdName)
		assert.NotNil(t, root.Subcommands[cmdName])
	}
	assert.Equal(t, len(expectedCommands), len(root.Subcommands))
}

func TestCommandExecute_NoArgs(t *testing.T) {
	root := NewRootCommand()

	oldArgs := os.Args
	os.Args = []string{"sandbox-cli"}
	defer func() { os.Args = oldArgs }()

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := root.Execute()

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	io.Copy(&buf, r)

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Usage: sandbox-cli <command> [args]")
}

func TestCommandExecute_ValidSubcommand(t *testing.T) {
	root := NewRootCommand()

	mockCalled := false
	root.Subcommands["test"] = &Command{
		Name: "test",
		Run: func(args []string) error {
			mockCalled = true
			return nil
		},
	}

	oldArgs := os.Args
	os.Args = []string{"sandbox-cli", "test"}
	defer func() { os.Args = oldArgs }()

	err := root.Execute()

	assert.NoError(t, err)
	assert.True(t, mockCalled)
}

func TestCommandExecute_UnknownCommand(t *testing.T) {
	root := NewRootCommand()

	oldArgs := os.Args
	os.Args = []string{"sandbox-cli", "nonexistent"}
	defer func() { os.Args = oldArgs }()

	err := root.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command: nonexistent")
}

func TestCommandExecute_SubcommandWithArgs(t *testing.T) {
	root := NewRootCommand()

	var receivedArgs []string
	root.Subcommands["test"] = &Command{
		Name: "test",
		Run: func(args []string) error {
			receivedArgs = args
			return nil
		},
	}

	oldArgs := os.Args
	os.Args = []string{"sandbox-cli", "test", "-lang", "python"}
	defer func() { os.Args = oldArgs }()

	err := root.Execute()

	require.NoError(t, err)
	assert.Equal(t, []string{"-lang", "python"}, receivedArgs)
}
