package utils

import (
	"os"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizerSystemPromptMatchesGolden(t *testing.T) {
	golden, err := os.ReadFile("testdata/system_prompt.txt")
	require.NoError(t, err)

	assert.Equal(t, string(golden), OptimizerSystemPrompt)
	assert.Contains(t, OptimizerSystemPrompt, "마크다운 코드블록 기호(```)")
	assert.Contains(t, OptimizerSystemPrompt, "# Role")
	assert.Contains(t, OptimizerSystemPrompt, "# Context")
	assert.Contains(t, OptimizerSystemPrompt, "# Task")
}

func TestToOptimizeCompletionRequest(t *testing.T) {
	for _, text := range []string{"블로그 글 써줘", "", "  padded  ", "multi\nline"} {
		request := ToOptimizeCompletionRequest(text, "gpt-4o", 0)

		assert.Equal(t, "gpt-4o", request.Model)
		assert.Equal(t, float32(0.1), request.Temperature)
		assert.Zero(t, request.MaxTokens)
		require.Len(t, request.Messages, 2)
		assert.Equal(t, openai.ChatMessageRoleSystem, request.Messages[0].Role)
		assert.Equal(t, OptimizerSystemPrompt, request.Messages[0].Content)
		assert.Equal(t, openai.ChatMessageRoleUser, request.Messages[1].Role)
		assert.Equal(t, "원시 입력: "+text, request.Messages[1].Content)
	}
}

func TestToOptimizeCompletionRequestMaxTokens(t *testing.T) {
	request := ToOptimizeCompletionRequest("x", "claude-3-haiku-20240307", 1024)

	assert.Equal(t, 1024, request.MaxTokens)
}

func TestToResponseStringFromChatCompletionResponse(t *testing.T) {
	response := openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: "\n  # Role\n당신은 작가입니다.  \n"}},
			{Message: openai.ChatCompletionMessage{Content: "second"}},
		},
	}

	content, err := ToResponseStringFromChatCompletionResponse(response)

	require.NoError(t, err)
	assert.Equal(t, "# Role\n당신은 작가입니다.", content)
}

func TestToResponseStringFromChatCompletionResponseNoChoices(t *testing.T) {
	_, err := ToResponseStringFromChatCompletionResponse(openai.ChatCompletionResponse{})

	assert.ErrorIs(t, err, ErrNoChoices)
}
