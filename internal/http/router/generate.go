package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/forge/internal/http/handler"
)

func GenerateRouter(rg *gin.RouterGroup, h *handler.GenerateHandler) {
	rg.POST("", h.Generate)
}
