package cli

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

type createTaskRequest struct {
	ProgrammingLanguage string `json:"programming_language"`
	SourceCode          string `json:"source_code"`
}

type acceptedResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

type runResult struct {
	Stdout     string  `json:"stdout"`
	Stderr     string  `json:"stderr"`
	ReturnCode *int    `json:"returncode"`
	Error      string  `json:"error,omitempty"`
}

func newRunCommand() *Command {
	return &Command{
		Name:        "run",
		Description: "submit a code-only job and wait for its result",
		Flags:       flag.NewFlagSet("run", flag.ExitOnError),
		Run:         runRunCommand,
	}
}

func runRunCommand(args []string) error {
	cmd := newRunCommand()
	cmd.Flags.String("lang", "", "programming language label (e.g. python, javascript, c, cpp, php)")
	cmd.Flags.String("file", "", "path to a source file to submit (reads stdin if empty)")
	cmd.Flags.String("server", "http://localhost:8080", "sandboxd base URL")
	cmd.Flags.Duration("timeout", 60*time.Second, "how long to poll for the result before giving up")
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	lang := cmd.Flags.Lookup("lang").Value.String()
	file := cmd.Flags.Lookup("file").Value.String()
	server := cmd.Flags.Lookup("server").Value.String()
	pollTimeout, _ := time.ParseDuration(cmd.Flags.Lookup("timeout").Value.String())

	if lang == "" {
		return fmt.Errorf("-lang is required")
	}

	var source []byte
	var err error
	if file != "" {
		source, err = os.ReadFile(file)
	} else {
		source, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}

	taskID, err := submitTask(server, lang, string(source))
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "submitted task %s\n", taskID)

	result, err := pollResult(server, taskID, pollTimeout)
	if err != nil {
		return err
	}

	printResult(result)
	return nil
}

func submitTask(server, lang, source string) (string, error) {
	reqBody, err := json.Marshal(createTaskRequest{ProgrammingLanguage: lang, SourceCode: source})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := http.Post(server+"/task/create", "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to submit task: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("server rejected task: %s: %s", resp.Status, string(body))
	}

	var accepted acceptedResponse
	if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return accepted.TaskID, nil
}

func pollResult(server, taskID string, timeout time.Duration) (*runResult, error) {
	deadline := time.Now().Add(timeout)
	for {
		result, done, err := fetchResult(server, taskID)
		if err != nil {
			return nil, err
		}
		if done {
			return result, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out after %s waiting for task %s", timeout, taskID)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func fetchResult(server, taskID string) (*runResult, bool, error) {
	resp, err := http.Get(server + "/task/" + taskID + "/task_result")
	if err != nil {
		return nil, false, fmt.Errorf("failed to poll task result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusAccepted {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, false, fmt.Errorf("server returned %s: %s", resp.Status, string(body))
	}

	var result runResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, false, fmt.Errorf("failed to decode task result: %w", err)
	}
	return &result, true, nil
}

func printResult(result *runResult) {
	if result.Error != "" {
		fmt.Printf("error: %s\n", result.Error)
	}
	if result.ReturnCode != nil {
		fmt.Printf("exit code: %d\n", *result.ReturnCode)
	}
	fmt.Printf("--- stdout ---\n%s\n", result.Stdout)
	fmt.Printf("--- stderr ---\n%s\n", result.Stderr)
}
