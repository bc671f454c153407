package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"basegraph.app/forge/common/llm"
	"basegraph.app/forge/common/logger"
	"basegraph.app/forge/common/metrics"
	"basegraph.app/forge/internal/compiler"
	"basegraph.app/forge/internal/model"
	"basegraph.app/forge/internal/prompt"
	"basegraph.app/forge/internal/scad"
)

const DefaultMaxRetries = 2

type Options struct {
	MaxRetries int           // attempts = MaxRetries + 1; negative means 0
	LLMTimeout time.Duration // per LLM call; zero means no extra bound
	Repairer   scad.Repairer // defaults to scad.TextRepairer
	Metrics    *metrics.Metrics
}

// Result is a successful generation. Source is exactly what was compiled into Mesh.
type Result struct {
	Mesh     []byte
	Source   string
	Attempts []model.Attempt
}

// Generator runs the generate, repair, compile loop for one request at a time.
// It holds no per-request state and is safe for concurrent use.
type Generator struct {
	llm        llm.Client
	compiler   compiler.Compiler
	repairer   scad.Repairer
	metrics    *metrics.Metrics
	maxRetries int
	llmTimeout time.Duration
}

func New(llmClient llm.Client, c compiler.Compiler, opts Options) *Generator {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Repairer == nil {
		opts.Repairer = scad.TextRepairer{}
	}
	return &Generator{
		llm:        llmClient,
		compiler:   c,
		repairer:   opts.Repairer,
		metrics:    opts.Metrics,
		maxRetries: opts.MaxRetries,
		llmTimeout: opts.LLMTimeout,
	}
}

// Generate returns a compiled mesh, a *RetriesExhaustedError once every attempt
// failed to compile, an *UpstreamError when the model call fails, or a plain
// error when the compiler toolchain is unusable.
func (g *Generator) Generate(ctx context.Context, req model.GenerationRequest) (*Result, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "forge.generator"})

	sc := logger.StartSpan(ctx, "generator.generate",
		trace.WithAttributes(
			attribute.Bool("generation.refinement", req.IsRefinement()),
			attribute.Int("generation.max_attempts", g.maxRetries+1),
		))
	defer sc.End()
	ctx = sc.Context()

	start := time.Now()
	res, err := g.run(ctx, req)
	g.metrics.RecordGeneration(resultLabel(err), time.Since(start))

	if err != nil {
		sc.RecordError(err)
		return nil, err
	}
	sc.Span().SetAttributes(attribute.Int("generation.attempts", len(res.Attempts)))
	return res, nil
}

func (g *Generator) run(ctx context.Context, req model.GenerationRequest) (*Result, error) {
	attempts := make([]model.Attempt, 0, g.maxRetries+1)
	var prev *model.Attempt

	for i := 0; i <= g.maxRetries; i++ {
		attempt, mesh, err := g.attempt(ctx, i, req, prev)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)

		if !attempt.Failed() {
			slog.InfoContext(ctx, "generation succeeded",
				"attempts", len(attempts),
				"mesh_bytes", len(mesh))
			return &Result{Mesh: mesh, Source: attempt.Source, Attempts: attempts}, nil
		}
		prev = &attempt
	}

	last := attempts[len(attempts)-1]
	slog.WarnContext(ctx, "generation retries exhausted",
		"attempts", len(attempts),
		"diagnostic", logger.Truncate(last.Diagnostic, 300))

	return nil, &RetriesExhaustedError{
		Diagnostic: last.Diagnostic,
		LastSource: last.Source,
		Attempts:   len(attempts),
	}
}

// attempt runs one prompt, sanitize, repair, compile step. A returned error is
// fatal for the request; a compile failure is reported via Attempt.Failure,
// with a non-empty Attempt.Diagnostic.
func (g *Generator) attempt(ctx context.Context, index int, req model.GenerationRequest, prev *model.Attempt) (model.Attempt, []byte, error) {
	variant, text := prompt.Build(req, prev)

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Attempt: logger.Ptr(index),
		Variant: logger.Ptr(string(variant)),
	})
	sc := logger.StartSpan(ctx, "generator.attempt",
		trace.WithAttributes(
			attribute.Int("attempt.index", index),
			attribute.String("attempt.variant", string(variant)),
		))
	defer sc.End()
	ctx = sc.Context()

	slog.DebugContext(ctx, "attempt started", "prompt_chars", len(text))

	raw, err := g.complete(ctx, text)
	if err != nil {
		g.metrics.RecordAttempt(string(variant), "upstream_error")
		sc.RecordError(err)
		slog.ErrorContext(ctx, "llm call failed", "error", err)
		return model.Attempt{}, nil, &UpstreamError{Err: err}
	}

	source, err := scad.ExtractSource(raw)
	if err != nil {
		g.metrics.RecordAttempt(string(variant), "upstream_error")
		sc.RecordError(err)
		slog.ErrorContext(ctx, "llm returned no usable source", "raw", logger.Truncate(raw, 200))
		return model.Attempt{}, nil, &UpstreamError{Err: err}
	}

	repaired := g.repairer.Repair(source)
	if repaired != source {
		slog.InfoContext(ctx, "auto-repair rewrote source")
	}

	mesh, err := g.compiler.Compile(ctx, repaired)
	result := model.Attempt{Index: index, Variant: variant, Source: repaired}

	var cerr *compiler.Error
	switch {
	case err == nil:
		g.metrics.RecordAttempt(string(variant), "success")
	case errors.As(err, &cerr):
		kind := cerr.Kind
		if kind == "" {
			kind = compiler.FailureCompile
		}
		result.Failure = string(kind)
		result.Diagnostic = cerr.Diagnostic
		if result.Diagnostic == "" {
			result.Diagnostic = fmt.Sprintf("openscad failed (%s)", kind)
		}
		g.metrics.RecordAttempt(string(variant), string(kind))
		slog.WarnContext(ctx, "attempt failed to compile",
			"kind", kind,
			"diagnostic", logger.Truncate(result.Diagnostic, 300))
	default:
		g.metrics.RecordAttempt(string(variant), "infrastructure_error")
		sc.RecordError(err)
		return model.Attempt{}, nil, fmt.Errorf("compiling attempt %d: %w", index, err)
	}

	return result, mesh, nil
}

func (g *Generator) complete(ctx context.Context, text string) (string, error) {
	if g.llmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.llmTimeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.llm.Generate(ctx, llm.Request{Prompt: text})
	if err != nil {
		g.metrics.ObserveLLM(g.llm.Model(), "error", time.Since(start), 0, 0)
		return "", err
	}
	g.metrics.ObserveLLM(g.llm.Model(), "ok", time.Since(start), resp.PromptTokens, resp.CompletionTokens)
	return resp.Text, nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, ErrRetriesExhausted):
		return metrics.ResultExhausted
	case errors.Is(err, ErrUpstream):
		return metrics.ResultUpstream
	default:
		return metrics.ResultInternal
	}
}
