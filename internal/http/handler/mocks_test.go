package handler_test

import (
	"context"

	"basegraph.app/forge/internal/generator"
	"basegraph.app/forge/internal/model"
)

type mockGenerator struct {
	generateFn func(ctx context.Context, req model.GenerationRequest) (*generator.Result, error)
	requests   []model.GenerationRequest
}

func (m *mockGenerator) Generate(ctx context.Context, req model.GenerationRequest) (*generator.Result, error) {
	m.requests = append(m.requests, req)
	if m.generateFn != nil {
		return m.generateFn(ctx, req)
	}
	return &generator.Result{Mesh: []byte("solid"), Source: "cube(1);", Attempts: []model.Attempt{{}}}, nil
}
