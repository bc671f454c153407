package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// FailureKind classifies a compilation that did not yield a mesh.
type FailureKind string

const (
	FailureCompile     FailureKind = "compile_error"
	FailureEmptyOutput FailureKind = "empty_output"
	FailureTimeout     FailureKind = "timeout"
)

var (
	ErrCompile     = errors.New("openscad compile error")
	ErrEmptyOutput = errors.New("openscad produced no output")
	ErrTimeout     = errors.New("openscad timed out")
)

const emptyOutputMessage = "OpenSCAD did not produce output"

// Error is a retryable compilation failure. Diagnostic is never empty; it is
// what the next error-correction prompt shows the model.
type Error struct {
	Kind       FailureKind
	Diagnostic string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Diagnostic)
}

// Is matches the sentinel for e.Kind, so errors.Is(err, ErrTimeout) works on wrapped errors.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case FailureCompile:
		return target == ErrCompile
	case FailureEmptyOutput:
		return target == ErrEmptyOutput
	case FailureTimeout:
		return target == ErrTimeout
	}
	return false
}

func newCompileError(res Result) *Error {
	diag := string(bytes.TrimSpace(res.Stderr))
	if diag == "" {
		diag = string(bytes.TrimSpace(res.Stdout))
	}
	if diag == "" {
		diag = fmt.Sprintf("openscad exited with status %d", res.ExitCode)
	}
	return &Error{Kind: FailureCompile, Diagnostic: diag}
}

func newEmptyOutputError() *Error {
	return &Error{Kind: FailureEmptyOutput, Diagnostic: emptyOutputMessage}
}

func newTimeoutError(limit time.Duration) *Error {
	return &Error{
		Kind:       FailureTimeout,
		Diagnostic: TimeoutMessage(limit),
	}
}

// TimeoutMessage is the diagnostic reported when a compile exceeds limit.
func TimeoutMessage(limit time.Duration) string {
	secs := strconv.FormatFloat(limit.Seconds(), 'f', -1, 64)
	return fmt.Sprintf("OpenSCAD compilation timed out (>%ss). The model may be too complex. Try simplifying your request.", secs)
}
