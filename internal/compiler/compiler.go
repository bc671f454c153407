package compiler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"basegraph.app/forge/common/logger"
	"basegraph.app/forge/common/metrics"
)

const (
	inputFile  = "input.scad"
	outputFile = "output.stl"
)

// Compiler turns OpenSCAD source into an STL mesh.
type Compiler interface {
	Compile(ctx context.Context, source string) ([]byte, error)
}

type Config struct {
	Bin     string
	Timeout time.Duration
	WorkDir string // parent of per-call temp dirs; os.TempDir() when empty
}

// OpenSCAD shells out to the openscad binary, one private temp dir per call.
type OpenSCAD struct {
	cfg     Config
	runner  CommandRunner
	metrics *metrics.Metrics
}

func New(cfg Config, runner CommandRunner, m *metrics.Metrics) *OpenSCAD {
	if cfg.Bin == "" {
		cfg.Bin = "openscad"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if runner == nil {
		runner = ExecCommandRunner{}
	}
	return &OpenSCAD{cfg: cfg, runner: runner, metrics: m}
}

// Compile returns the mesh bytes, a *Error for retryable failures, or a plain
// error when the toolchain itself is unusable. Caller cancellation is ignored;
// only the configured timeout stops the process.
func (c *OpenSCAD) Compile(ctx context.Context, source string) ([]byte, error) {
	ctx = context.WithoutCancel(ctx)
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "forge.compiler"})

	sc := logger.StartSpan(ctx, "compiler.compile")
	defer sc.End()
	ctx = sc.Context()

	dir, err := os.MkdirTemp(c.cfg.WorkDir, "forge-compile-*")
	if err != nil {
		sc.RecordError(err)
		return nil, fmt.Errorf("creating compile dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			slog.WarnContext(ctx, "failed to remove compile dir", "dir", dir, "error", rmErr)
		}
	}()

	mesh, err := c.compileIn(ctx, dir, source)
	if err != nil {
		sc.RecordError(err)
	}
	return mesh, err
}

func (c *OpenSCAD) compileIn(ctx context.Context, dir, source string) ([]byte, error) {
	in := filepath.Join(dir, inputFile)
	out := filepath.Join(dir, outputFile)

	if err := os.WriteFile(in, []byte(source), 0o600); err != nil {
		return nil, fmt.Errorf("writing %s: %w", inputFile, err)
	}

	runCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	res, runErr := c.runner.Run(runCtx, Command{
		Name: c.cfg.Bin,
		Args: []string{in, "-o", out},
		Dir:  dir,
	})
	elapsed := time.Since(start)

	mesh, err := c.classify(runCtx, res, runErr, out)

	outcome := "success"
	var compileErr *Error
	switch {
	case errors.As(err, &compileErr):
		outcome = string(compileErr.Kind)
	case err != nil:
		outcome = "infrastructure_error"
	}
	c.metrics.ObserveCompile(outcome, elapsed)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("compile.outcome", outcome),
		attribute.Int("compile.exit_code", res.ExitCode),
		attribute.Int("compile.mesh_bytes", len(mesh)),
	)

	slog.DebugContext(ctx, "openscad finished",
		"outcome", outcome,
		"exit_code", res.ExitCode,
		"duration_ms", elapsed.Milliseconds(),
		"mesh_bytes", len(mesh),
		"stderr", logger.Truncate(string(res.Stderr), 500))

	return mesh, err
}

func (c *OpenSCAD) classify(runCtx context.Context, res Result, runErr error, out string) ([]byte, error) {
	// A killed process also reports a non-zero exit, so the deadline is checked first.
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, newTimeoutError(c.cfg.Timeout)
	}
	if runErr != nil {
		return nil, fmt.Errorf("running %s: %w", c.cfg.Bin, runErr)
	}
	if res.ExitCode != 0 {
		return nil, newCompileError(res)
	}

	mesh, err := os.ReadFile(out)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(mesh) == 0) {
		return nil, newEmptyOutputError()
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", outputFile, err)
	}
	return mesh, nil
}
