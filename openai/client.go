package openai

import (
	"context"
	"fmt"
	"strings"

	openaigo "github.com/sashabaranov/go-openai"

	"github.com/llmgate/prompt-optimizer/internal/config"
	"github.com/llmgate/prompt-optimizer/models"
)

const (
	gpt4oInputTokenCost      = 0.0000025
	gpt4oOutputTokenCost     = 0.00001
	gpt4oMiniInputTokenCost  = 0.00000015
	gpt4oMiniOutputTokenCost = 0.0000006
	gpt4TurboInputTokenCost  = 0.00001
	gpt4TurboOutputTokenCost = 0.00003
	gpt35InputTokenCost      = 0.0000005
	gpt35OutputTokenCost     = 0.0000015
)

type OpenAIClient struct {
	client *openaigo.Client
}

func NewOpenAIClient(openaiConfig config.OpenAIConfig) *OpenAIClient {
	clientConfig := openaigo.DefaultConfig(openaiConfig.Key)
	if openaiConfig.BaseUrl != "" {
		clientConfig.BaseURL = openaiConfig.BaseUrl
	}

	return &OpenAIClient{
		client: openaigo.NewClientWithConfig(clientConfig),
	}
}

// GenerateCompletions calls the OpenAI chat completions API
func (c *OpenAIClient) GenerateCompletions(ctx context.Context, payload openaigo.ChatCompletionRequest) (*models.ChatCompletionExtendedResponse, error) {
	response, err := c.client.CreateChatCompletion(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion failed: %w", err)
	}

	return &models.ChatCompletionExtendedResponse{
		ChatCompletionResponse: response,
		Cost:                   calculateCost(payload.Model, response.Usage.PromptTokens, response.Usage.CompletionTokens),
	}, nil
}

func calculateCost(model string, promptTokens, completionTokens int) float64 {
	var inputCost, outputCost float64

	// gpt-4o-mini must be matched before gpt-4o
	switch {
	case strings.HasPrefix(model, "gpt-4o-mini"):
		inputCost, outputCost = gpt4oMiniInputTokenCost, gpt4oMiniOutputTokenCost
	case strings.HasPrefix(model, "gpt-4o"):
		inputCost, outputCost = gpt4oInputTokenCost, gpt4oOutputTokenCost
	case strings.HasPrefix(model, "gpt-4-turbo"):
		inputCost, outputCost = gpt4TurboInputTokenCost, gpt4TurboOutputTokenCost
	case strings.HasPrefix(model, "gpt-3.5-turbo"):
		inputCost, outputCost = gpt35InputTokenCost, gpt35OutputTokenCost
	}

	return (inputCost * float64(promptTokens)) + (outputCost * float64(completionTokens))
}
