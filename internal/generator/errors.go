package generator

import (
	"errors"
	"fmt"
)

var (
	ErrUpstream         = errors.New("upstream generation failed")
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// UpstreamError wraps an LLM or sanitizer failure. It aborts the request
// without consuming a compile attempt.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("llm generation failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// RetriesExhaustedError is the terminal failure after every attempt failed to
// compile. LastSource is the repaired source of the final attempt.
type RetriesExhaustedError struct {
	Diagnostic string
	LastSource string
	Attempts   int
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("no valid model after %d attempts: %s", e.Attempts, e.Diagnostic)
}

func (e *RetriesExhaustedError) Is(target error) bool {
	return target == ErrRetriesExhausted
}
