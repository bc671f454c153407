package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"basegraph.app/forge/common/logger"
	"basegraph.app/forge/common/otel"
	"basegraph.app/forge/core/config"
	"basegraph.app/forge/internal/generator"
	"basegraph.app/forge/internal/model"
)

type modelGenerator interface {
	Generate(ctx context.Context, req model.GenerationRequest) (*generator.Result, error)
}

// newGenerator is replaced in tests.
var newGenerator = func(cfg config.Config) (modelGenerator, error) {
	return generator.NewFromConfig(cfg, nil)
}

// loadConfig is replaced in tests.
var loadConfig = func() (config.Config, error) {
	return config.Load(config.ServiceTypeCLI)
}

type generateOptions struct {
	sourcePath string
	outPath    string
	codeOut    string
	maxRetries int
}

func newGenerateCmd() *cobra.Command {
	opts := generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate an STL model from a prompt",
		Example: `  forge generate "a box 20 by 20 by 20"
  forge generate "add a sphere on top" --source model.scad --code-out model.scad`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVar(&opts.sourcePath, "source", "", "existing OpenSCAD file to refine")
	cmd.Flags().StringVarP(&opts.outPath, "out", "o", "model.stl", "where to write the STL mesh")
	cmd.Flags().StringVar(&opts.codeOut, "code-out", "", "where to write the compiled (or last attempted) OpenSCAD source")
	cmd.Flags().IntVar(&opts.maxRetries, "max-retries", -1, "override GENERATION_MAX_RETRIES")
	return cmd
}

func runGenerate(cmd *cobra.Command, prompt string, opts generateOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.maxRetries >= 0 {
		cfg.Generation.MaxRetries = opts.maxRetries
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		return fmt.Errorf("initializing otel: %w", err)
	}
	defer func() {
		_ = telemetry.Shutdown(context.WithoutCancel(ctx))
	}()
	logger.SetupWriter(cfg, cmd.ErrOrStderr())

	req := model.GenerationRequest{Prompt: prompt}
	if opts.sourcePath != "" {
		src, err := os.ReadFile(opts.sourcePath)
		if err != nil {
			return fmt.Errorf("reading --source: %w", err)
		}
		s := string(src)
		req.CurrentSource = &s
	}

	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	result, err := gen.Generate(ctx, req)

	var exhausted *generator.RetriesExhaustedError
	if errors.As(err, &exhausted) {
		stderr := cmd.ErrOrStderr()
		fmt.Fprintf(stderr, "failed after %d attempts\n\n%s\n\nlast source:\n%s\n",
			exhausted.Attempts, exhausted.Diagnostic, exhausted.LastSource)
		if opts.codeOut != "" {
			if werr := os.WriteFile(opts.codeOut, []byte(exhausted.LastSource), 0o644); werr != nil {
				slog.ErrorContext(ctx, "failed to write last source", "path", opts.codeOut, "error", werr)
			}
		}
		return err
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(opts.outPath, result.Mesh, 0o644); err != nil {
		return fmt.Errorf("writing mesh: %w", err)
	}
	if opts.codeOut != "" {
		if err := os.WriteFile(opts.codeOut, []byte(result.Source), 0o644); err != nil {
			return fmt.Errorf("writing source: %w", err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes) after %d attempt(s)\n",
		opts.outPath, len(result.Mesh), len(result.Attempts))
	return nil
}
