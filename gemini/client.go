package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	openaigo "github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"

	"github.com/llmgate/prompt-optimizer/internal/config"
	"github.com/llmgate/prompt-optimizer/models"
)

const (
	gemini15ProInputTokenCost    = 0.0000035
	gemini15ProOutputTokenCost   = 0.0000105
	gemini15FlashInputTokenCost  = 0.00000035
	gemini15FlashOutputTokenCost = 0.00000105
)

type GeminiClient struct {
	geminiConfig config.GeminiConfig
}

func NewGeminiClient(geminiConfig config.GeminiConfig) *GeminiClient {
	return &GeminiClient{
		geminiConfig: geminiConfig,
	}
}

// GenerateCompletions calls the Gemini GenerateContent API with an
// OpenAI-shaped payload
func (c *GeminiClient) GenerateCompletions(ctx context.Context, payload openaigo.ChatCompletionRequest) (*models.ChatCompletionExtendedResponse, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(c.geminiConfig.Key))
	if err != nil {
		return nil, fmt.Errorf("gemini client init failed: %w", err)
	}
	defer client.Close()

	genModel := client.GenerativeModel(payload.Model)
	genModel.SetTemperature(payload.Temperature)
	if payload.MaxTokens > 0 {
		genModel.SetMaxOutputTokens(int32(payload.MaxTokens))
	}
	if system := systemInstruction(payload.Messages); system != nil {
		genModel.SystemInstruction = system
	}

	geminiResponse, err := genModel.GenerateContent(ctx, promptParts(payload.Messages)...)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content failed: %w", err)
	}

	openAIResp := convertGeminiToOpenAI(payload.Model, geminiResponse)
	return &models.ChatCompletionExtendedResponse{
		ChatCompletionResponse: openAIResp,
		Cost:                   calculateCost(payload.Model, openAIResp.Usage.PromptTokens, openAIResp.Usage.CompletionTokens),
	}, nil
}

func systemInstruction(messages []openaigo.ChatCompletionMessage) *genai.Content {
	var parts []genai.Part
	for _, message := range messages {
		if message.Role == openaigo.ChatMessageRoleSystem {
			parts = append(parts, genai.Text(message.Content))
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return &genai.Content{Parts: parts}
}

func promptParts(messages []openaigo.ChatCompletionMessage) []genai.Part {
	parts := make([]genai.Part, 0, len(messages))
	for _, message := range messages {
		if message.Role != openaigo.ChatMessageRoleSystem {
			parts = append(parts, genai.Text(message.Content))
		}
	}
	return parts
}

func convertGeminiToOpenAI(model string, geminiResp *genai.GenerateContentResponse) openaigo.ChatCompletionResponse {
	openAIResp := openaigo.ChatCompletionResponse{
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
	}
	if geminiResp == nil {
		return openAIResp
	}

	if usage := geminiResp.UsageMetadata; usage != nil {
		openAIResp.Usage = openaigo.Usage{
			PromptTokens:     int(usage.PromptTokenCount),
			CompletionTokens: int(usage.CandidatesTokenCount),
			TotalTokens:      int(usage.TotalTokenCount),
		}
	}

	for _, candidate := range geminiResp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		var text strings.Builder
		for _, part := range candidate.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
		openAIResp.Choices = append(openAIResp.Choices, openaigo.ChatCompletionChoice{
			Index: int(candidate.Index),
			Message: openaigo.ChatCompletionMessage{
				Role:    openaigo.ChatMessageRoleAssistant,
				Content: text.String(),
			},
			FinishReason: mapFinishReason(candidate.FinishReason),
		})
	}

	return openAIResp
}

func mapFinishReason(reason genai.FinishReason) openaigo.FinishReason {
	switch reason {
	case genai.FinishReasonStop:
		return openaigo.FinishReasonStop
	case genai.FinishReasonMaxTokens:
		return openaigo.FinishReasonLength
	case genai.FinishReasonSafety, genai.FinishReasonRecitation:
		return openaigo.FinishReasonContentFilter
	default:
		return openaigo.FinishReasonNull
	}
}

func calculateCost(model string, promptTokens, completionTokens int) float64 {
	var inputCost, outputCost float64

	switch {
	case strings.HasPrefix(model, "gemini-1.5-pro"):
		inputCost, outputCost = gemini15ProInputTokenCost, gemini15ProOutputTokenCost
	case strings.HasPrefix(model, "gemini-1.5-flash"):
		inputCost, outputCost = gemini15FlashInputTokenCost, gemini15FlashOutputTokenCost
	}

	return (inputCost * float64(promptTokens)) + (outputCost * float64(completionTokens))
}
