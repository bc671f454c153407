package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/forge/internal/http/handler"
)

func SchemaRouter(rg *gin.RouterGroup, h *handler.SchemaHandler) {
	rg.GET("/generate", h.Generate)
}
