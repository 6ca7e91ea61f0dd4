package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	openaigo "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/llmgate/prompt-optimizer/internal/config"
	"github.com/llmgate/prompt-optimizer/internal/logging"
	internalutils "github.com/llmgate/prompt-optimizer/internal/utils"
	"github.com/llmgate/prompt-optimizer/models"
	"github.com/llmgate/prompt-optimizer/utils"
)

const (
	completionsMetric        = "prompt_optimizer_completions_total"
	completionDurationMetric = "prompt_optimizer_completion_duration_seconds"
	completionCostMetric     = "prompt_optimizer_completion_cost_usd_total"

	outcomeSuccess = "success"
	outcomeError   = "error"
)

// CompletionsClient is implemented by every provider adapter.
type CompletionsClient interface {
	GenerateCompletions(ctx context.Context, payload openaigo.ChatCompletionRequest) (*models.ChatCompletionExtendedResponse, error)
}

type MetricsRecorder interface {
	RecordCounter(metricName string, labels map[string]string, value float64)
	RecordTimer(metricName string, labels map[string]string, duration time.Duration)
}

type OptimizeHandler struct {
	completionsClient CompletionsClient
	metricsRecorder   MetricsRecorder
	llmConfig         config.LLMConfigs
	handlerConfig     config.OptimizeHandlerConfig
}

func NewOptimizeHandler(
	completionsClient CompletionsClient,
	metricsRecorder MetricsRecorder,
	llmConfig config.LLMConfigs,
	handlerConfig config.OptimizeHandlerConfig) *OptimizeHandler {
	return &OptimizeHandler{
		completionsClient: completionsClient,
		metricsRecorder:   metricsRecorder,
		llmConfig:         llmConfig,
		handlerConfig:     handlerConfig,
	}
}

// OptimizePrompt rewrites the submitted text into a structured prompt with one
// completion call.
func (h *OptimizeHandler) OptimizePrompt(c *gin.Context) {
	var request models.OptimizePromptRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		internalutils.ProcessValidationError(c, err)
		return
	}

	text := *request.Text
	if limit := h.handlerConfig.MaxTextLength; limit > 0 {
		if n := utf8.RuneCountInString(text); n > limit {
			internalutils.ProcessValidationDetail(c, fmt.Sprintf("text: at most %d characters allowed, got %d", limit, n))
			return
		}
	}

	log := logging.FromContext(c).WithFields(logrus.Fields{
		"provider": h.llmConfig.Provider,
		"model":    h.llmConfig.Model,
	})

	payload := utils.ToOptimizeCompletionRequest(text, h.llmConfig.Model, h.llmConfig.MaxTokens)

	start := time.Now()
	response, err := h.completionsClient.GenerateCompletions(c.Request.Context(), payload)
	elapsed := time.Since(start)
	if err != nil {
		h.recordCompletion(outcomeError, elapsed, 0)
		log.WithError(err).Error("completion failed")
		internalutils.ProcessInternalError(c, providerCause(err))
		return
	}

	optimizedPrompt, err := utils.ToResponseStringFromChatCompletionResponse(response.ChatCompletionResponse)
	if err != nil {
		h.recordCompletion(outcomeError, elapsed, response.Cost)
		log.WithError(err).Error("completion returned no usable choice")
		internalutils.ProcessInternalError(c, err)
		return
	}

	h.recordCompletion(outcomeSuccess, elapsed, response.Cost)
	log.WithFields(logrus.Fields{
		"latency_ms":        elapsed.Milliseconds(),
		"prompt_tokens":     response.ChatCompletionResponse.Usage.PromptTokens,
		"completion_tokens": response.ChatCompletionResponse.Usage.CompletionTokens,
		"cost_usd":          response.Cost,
	}).Info("prompt optimized")

	c.JSON(http.StatusOK, models.OptimizePromptResponse{OptimizedPrompt: optimizedPrompt})
}

// providerCause drops the adapter's own wrapping so the detail carries the
// provider's message.
func providerCause(err error) error {
	if inner := errors.Unwrap(err); inner != nil {
		return inner
	}
	return err
}

func (h *OptimizeHandler) recordCompletion(outcome string, elapsed time.Duration, cost float64) {
	if h.metricsRecorder == nil {
		return
	}
	labels := map[string]string{
		"provider": h.llmConfig.Provider,
		"model":    h.llmConfig.Model,
	}
	h.metricsRecorder.RecordTimer(completionDurationMetric, labels, elapsed)
	h.metricsRecorder.RecordCounter(completionCostMetric, labels, cost)
	h.metricsRecorder.RecordCounter(completionsMetric, map[string]string{
		"provider": h.llmConfig.Provider,
		"model":    h.llmConfig.Model,
		"outcome":  outcome,
	}, 1)
}
