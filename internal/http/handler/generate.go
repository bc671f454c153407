package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"basegraph.app/forge/common/llm"
	"basegraph.app/forge/internal/generator"
	"basegraph.app/forge/internal/http/dto"
	"basegraph.app/forge/internal/model"
	"basegraph.app/forge/internal/scad"
)

type Generator interface {
	Generate(ctx context.Context, req model.GenerationRequest) (*generator.Result, error)
}

type GenerateHandler struct {
	generator Generator
}

func NewGenerateHandler(g Generator) *GenerateHandler {
	return &GenerateHandler{generator: g}
}

func (h *GenerateHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt must not be blank"})
		return
	}

	genReq := req.ToModel()
	slog.InfoContext(ctx, "generation requested",
		"refinement", genReq.IsRefinement(),
		"components", len(genReq.ComponentTransforms))

	result, err := h.generator.Generate(ctx, genReq)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGenerateResponse(result))
}

func (h *GenerateHandler) writeError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var exhausted *generator.RetriesExhaustedError
	if errors.As(err, &exhausted) {
		c.JSON(http.StatusUnprocessableEntity, dto.GenerateFailureResponse{
			Error:        fmt.Sprintf("Failed to generate valid model after %d attempts", exhausted.Attempts),
			Diagnostic:   exhausted.Diagnostic,
			OpenSCADCode: exhausted.LastSource,
			Attempts:     exhausted.Attempts,
		})
		return
	}

	if errors.Is(err, generator.ErrUpstream) {
		status := http.StatusBadGateway
		if !errors.Is(err, scad.ErrEmptySource) && llm.IsTransient(ctx, err) {
			status = http.StatusServiceUnavailable
		}
		slog.ErrorContext(ctx, "upstream generation failed", "error", err, "status", status)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	slog.ErrorContext(ctx, "generation failed", "error", err)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
