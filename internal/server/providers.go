package server

import (
	"fmt"

	"github.com/llmgate/prompt-optimizer/claude"
	"github.com/llmgate/prompt-optimizer/gemini"
	"github.com/llmgate/prompt-optimizer/internal/config"
	"github.com/llmgate/prompt-optimizer/internal/handlers"
	"github.com/llmgate/prompt-optimizer/mockllm"
	"github.com/llmgate/prompt-optimizer/openai"
)

// NewCompletionsClient builds the adapter for the configured provider.
func NewCompletionsClient(llmConfig config.LLMConfigs) (handlers.CompletionsClient, error) {
	switch llmConfig.Provider {
	case config.ProviderOpenAI:
		return openai.NewOpenAIClient(llmConfig.OpenAI), nil
	case config.ProviderClaude:
		return claude.NewClaudeClient(llmConfig.Claude), nil
	case config.ProviderGemini:
		return gemini.NewGeminiClient(llmConfig.Gemini), nil
	case config.ProviderMock:
		return mockllm.NewMockLLMClient(), nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, llmConfig.Provider)
}
