package mockllm

import (
	"context"
	"fmt"
	"strings"
	"time"

	openaigo "github.com/sashabaranov/go-openai"

	"github.com/llmgate/prompt-optimizer/models"
)

const mockTemplate = `
# Role
당신은 요청 분야의 전문가입니다.

# Context
%s

# Task
- 요청의 핵심 의도를 정리합니다.
- 결과물을 단계별로 작성합니다.
`

// MockLLMClient answers without any network call, for local development.
type MockLLMClient struct {
}

func NewMockLLMClient() *MockLLMClient {
	return &MockLLMClient{}
}

// GenerateCompletions echoes the last user message inside a fixed template.
func (c *MockLLMClient) GenerateCompletions(ctx context.Context, payload openaigo.ChatCompletionRequest) (*models.ChatCompletionExtendedResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var userContent string
	for _, message := range payload.Messages {
		if message.Role == openaigo.ChatMessageRoleUser {
			userContent = message.Content
		}
	}

	content := fmt.Sprintf(mockTemplate, userContent)
	promptTokens := countApproximateTokens(payload.Messages)
	completionTokens := len(strings.Fields(content))

	return &models.ChatCompletionExtendedResponse{
		ChatCompletionResponse: openaigo.ChatCompletionResponse{
			ID:      "mock-id",
			Object:  "chat.completion",
			Created: time.Now().Unix(),
			Model:   payload.Model,
			Choices: []openaigo.ChatCompletionChoice{
				{
					Index: 0,
					Message: openaigo.ChatCompletionMessage{
						Role:    openaigo.ChatMessageRoleAssistant,
						Content: content,
					},
					FinishReason: openaigo.FinishReasonStop,
				},
			},
			Usage: openaigo.Usage{
				PromptTokens:     promptTokens,
				CompletionTokens: completionTokens,
				TotalTokens:      promptTokens + completionTokens,
			},
		},
	}, nil
}

func countApproximateTokens(messages []openaigo.ChatCompletionMessage) int {
	tokenCount := 0
	for _, msg := range messages {
		tokenCount += len(strings.Fields(msg.Content))
	}
	return tokenCount
}
