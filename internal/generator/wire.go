package generator

import (
	"fmt"

	"basegraph.app/forge/common/llm"
	"basegraph.app/forge/common/metrics"
	"basegraph.app/forge/core/config"
	"basegraph.app/forge/internal/compiler"
	"basegraph.app/forge/internal/scad"
)

// NewFromConfig wires the configured LLM provider and the openscad compiler.
func NewFromConfig(cfg config.Config, m *metrics.Metrics) (*Generator, error) {
	client, err := llm.New(llm.Config{
		Provider:  llm.Provider(cfg.LLM.Provider),
		APIKey:    cfg.LLM.APIKey,
		BaseURL:   cfg.LLM.BaseURL,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("creating llm client: %w", err)
	}

	comp := compiler.New(compiler.Config{
		Bin:     cfg.Compiler.Bin,
		Timeout: cfg.Compiler.Timeout,
		WorkDir: cfg.Compiler.WorkDir,
	}, compiler.ExecCommandRunner{}, m)

	return New(client, comp, Options{
		MaxRetries: cfg.Generation.MaxRetries,
		LLMTimeout: cfg.LLM.Timeout,
		Repairer:   scad.TextRepairer{},
		Metrics:    m,
	}), nil
}

// Model reports the LLM model in use.
func (g *Generator) Model() string {
	return g.llm.Model()
}

// MaxAttempts is the number of compile attempts a request may take.
func (g *Generator) MaxAttempts() int {
	return g.maxRetries + 1
}
