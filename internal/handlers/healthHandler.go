package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/llmgate/prompt-optimizer/internal/config"
	"github.com/llmgate/prompt-optimizer/models"
)

type HealthHandler struct {
	llmConfig config.LLMConfigs
}

func NewHealthHandler(llmConfig config.LLMConfigs) *HealthHandler {
	return &HealthHandler{
		llmConfig: llmConfig,
	}
}

func (h *HealthHandler) IsHealthy(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:   "ok",
		Provider: h.llmConfig.Provider,
		Model:    h.llmConfig.Model,
	})
}
