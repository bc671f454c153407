package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invopop/jsonschema"

	"basegraph.app/forge/internal/http/dto"
)

// SchemaHandler serves JSON schemas of request bodies so front ends can validate
// before submitting.
type SchemaHandler struct {
	generate *jsonschema.Schema
}

func NewSchemaHandler() *SchemaHandler {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return &SchemaHandler{generate: reflector.Reflect(&dto.GenerateRequest{})}
}

func (h *SchemaHandler) Generate(c *gin.Context) {
	c.JSON(http.StatusOK, h.generate)
}
