package exec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCommand re-runs the test binary as a fake external command.
func mockCommand(name string, args ...string) *exec.Cmd {
	cs := []string{"-test.run=TestHelperProcess", "--", name}
	cs = append(cs, args...)
	cmd := exec.Command(os.Args[0], cs...)
	cmd.Env = []string{"GO_WANT_HELPER_PROCESS=1"}
	return cmd
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "no command specified\n")
		os.Exit(1)
	}

	switch args[0] {
	case "npm":
		fmt.Println("added " + strings.Join(args[1:], " "))
		os.Exit(0)
	case "sleep":
		time.Sleep(10 * time.Second)
		os.Exit(0)
	case "error":
		fmt.Fprintf(os.Stderr, "error occurred\n")
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		os.Exit(1)
	}
}

func newMockExecutor(stdout, stderr io.Writer) *Executor {
	e := NewExecutor(&Options{Stdout: stdout, Stderr: stderr})
	e.commandFunc = mockCommand
	return e
}

func TestRun(t *testing.T) {
	var stdout bytes.Buffer
	e := newMockExecutor(&stdout, io.Discard)

	require.NoError(t, e.Run(context.Background(), "npm", "install"))
	assert.Equal(t, "added install\n", stdout.String())
}

func TestRun_Failure(t *testing.T) {
	var stderr bytes.Buffer
	e := newMockExecutor(io.Discard, &stderr)

	err := e.Run(context.Background(), "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error failed")
	assert.Contains(t, stderr.String(), "error occurred")
}

func TestRun_Cancelled(t *testing.T) {
	e := newMockExecutor(io.Discard, io.Discard)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := e.Run(ctx, "sleep")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRun_CommandNotFound(t *testing.T) {
	e := NewExecutor(&Options{Stdout: io.Discard, Stderr: io.Discard})

	err := e.Run(context.Background(), "hatch-command-that-does-not-exist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRunWithSpinner_ReportsCapturedOutput(t *testing.T) {
	e := newMockExecutor(io.Discard, io.Discard)

	err := e.RunWithSpinner(context.Background(), "Installing", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error occurred")
}

func TestInstall(t *testing.T) {
	var stdout bytes.Buffer
	e := newMockExecutor(&stdout, io.Discard)

	require.NoError(t, e.Install(context.Background(), nil, false))
	assert.Empty(t, stdout.String())

	require.NoError(t, e.Install(context.Background(), []string{"npm", "install"}, false))
	assert.Contains(t, stdout.String(), "added install")

	require.NoError(t, e.Install(context.Background(), []string{"npm", "ci"}, true))
}
