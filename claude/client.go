package claude

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic"
	openaigo "github.com/sashabaranov/go-openai"

	"github.com/llmgate/prompt-optimizer/internal/config"
	"github.com/llmgate/prompt-optimizer/models"
)

const (
	claude3HaikuInputTokenCost   = 0.00000025
	claude3HaikuOutputTokenCost  = 0.00000125
	claude3SonnetInputTokenCost  = 0.000003
	claude3SonnetOutputTokenCost = 0.000015
	claude3OpusInputTokenCost    = 0.000015
	claude3OpusOutputTokenCost   = 0.000075

	// the messages API rejects requests without max_tokens
	defaultMaxTokens = 4096

	textContentType = "text"
)

type ClaudeClient struct {
	client *anthropic.Client
}

func NewClaudeClient(claudeConfig config.ClaudeConfig, opts ...anthropic.ClientOption) *ClaudeClient {
	return &ClaudeClient{
		client: anthropic.NewClient(claudeConfig.Key, opts...),
	}
}

func (c *ClaudeClient) GenerateCompletions(ctx context.Context, payload openaigo.ChatCompletionRequest) (*models.ChatCompletionExtendedResponse, error) {
	request := anthropic.MessagesRequest{
		Model:       payload.Model,
		System:      getSystemPrompt(payload),
		Messages:    convertOpenAIToClaudeMessages(payload.Messages),
		MaxTokens:   defaultMaxTokens,
		Temperature: &payload.Temperature,
	}

	if payload.MaxTokens > 0 {
		request.MaxTokens = payload.MaxTokens
	}

	resp, err := c.client.CreateMessages(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("claude create message failed: %w", err)
	}

	openAIResp := convertClaudeToOpenAI(payload.Model, resp)
	return &models.ChatCompletionExtendedResponse{
		ChatCompletionResponse: openAIResp,
		Cost:                   calculateCost(payload.Model, openAIResp.Usage.PromptTokens, openAIResp.Usage.CompletionTokens),
	}, nil
}

// convertClaudeToOpenAI folds all text blocks of the reply into one choice.
func convertClaudeToOpenAI(model string, claudeResp anthropic.MessagesResponse) openaigo.ChatCompletionResponse {
	var text strings.Builder
	for _, content := range claudeResp.Content {
		if content.Type != textContentType {
			continue
		}
		text.WriteString(content.Text)
	}

	var choices []openaigo.ChatCompletionChoice
	if len(claudeResp.Content) > 0 {
		choices = append(choices, openaigo.ChatCompletionChoice{
			Index: 0,
			Message: openaigo.ChatCompletionMessage{
				Role:    openaigo.ChatMessageRoleAssistant,
				Content: text.String(),
			},
			FinishReason: openaigo.FinishReasonStop,
		})
	}

	return openaigo.ChatCompletionResponse{
		ID:      claudeResp.ID,
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: choices,
		Usage: openaigo.Usage{
			PromptTokens:     claudeResp.Usage.InputTokens,
			CompletionTokens: claudeResp.Usage.OutputTokens,
			TotalTokens:      claudeResp.Usage.InputTokens + claudeResp.Usage.OutputTokens,
		},
	}
}

// claude takes the system prompt as a separate field, not as a message
func convertOpenAIToClaudeMessages(messages []openaigo.ChatCompletionMessage) []anthropic.Message {
	claudeMessages := make([]anthropic.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == openaigo.ChatMessageRoleSystem || msg.Content == "" {
			continue
		}
		content := msg.Content
		claudeMessages = append(claudeMessages, anthropic.Message{
			Role: convertRole(msg.Role),
			Content: []anthropic.MessageContent{
				{
					Type: textContentType,
					Text: &content,
				},
			},
		})
	}
	return claudeMessages
}

func convertRole(role string) string {
	if role == openaigo.ChatMessageRoleAssistant {
		return "assistant"
	}
	return "user"
}

func getSystemPrompt(payload openaigo.ChatCompletionRequest) string {
	var parts []string
	for _, msg := range payload.Messages {
		if msg.Role == openaigo.ChatMessageRoleSystem {
			parts = append(parts, msg.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

func calculateCost(model string, promptTokens, completionTokens int) float64 {
	var inputCost, outputCost float64

	switch {
	case strings.HasPrefix(model, "claude-3-5-sonnet"), strings.HasPrefix(model, "claude-3-sonnet"):
		inputCost, outputCost = claude3SonnetInputTokenCost, claude3SonnetOutputTokenCost
	case strings.HasPrefix(model, "claude-3-opus"):
		inputCost, outputCost = claude3OpusInputTokenCost, claude3OpusOutputTokenCost
	case strings.HasPrefix(model, "claude-3-haiku"):
		inputCost, outputCost = claude3HaikuInputTokenCost, claude3HaikuOutputTokenCost
	}

	return (inputCost * float64(promptTokens)) + (outputCost * float64(completionTokens))
}
