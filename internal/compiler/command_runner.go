package compiler

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"
)

type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string
}

// Result is what a finished process left behind. A non-zero ExitCode is not
// an error at this layer; classification belongs to the caller.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

type CommandRunner interface {
	// Run returns an error only when the process could not be started or
	// waited on. Cancellation of ctx kills the process.
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecCommandRunner runs commands with os/exec.
type ExecCommandRunner struct {
	// WaitDelay bounds how long Run waits for output pipes after the process
	// is killed. Zero means two seconds.
	WaitDelay time.Duration
}

func (r ExecCommandRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	command := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	if cmd.Dir != "" {
		command.Dir = cmd.Dir
	}
	if len(cmd.Env) > 0 {
		command.Env = append(os.Environ(), cmd.Env...)
	}
	command.WaitDelay = r.WaitDelay
	if command.WaitDelay == 0 {
		command.WaitDelay = 2 * time.Second
	}

	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	err := command.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if err != nil {
		res.ExitCode = -1
		return res, err
	}
	return res, nil
}
