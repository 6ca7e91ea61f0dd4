package mockllm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmgate/prompt-optimizer/utils"
)

func TestGenerateCompletions(t *testing.T) {
	client := NewMockLLMClient()

	response, err := client.GenerateCompletions(context.Background(), utils.ToOptimizeCompletionRequest("이력서 검토", "mock-model", 0))

	require.NoError(t, err)
	require.Len(t, response.ChatCompletionResponse.Choices, 1)
	content := response.ChatCompletionResponse.Choices[0].Message.Content
	assert.True(t, strings.HasPrefix(content, "\n# Role"))
	assert.Contains(t, content, "원시 입력: 이력서 검토")
	assert.Equal(t, "mock-model", response.ChatCompletionResponse.Model)
	assert.Positive(t, response.ChatCompletionResponse.Usage.TotalTokens)
	assert.Zero(t, response.Cost)
}

func TestGenerateCompletionsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMockLLMClient().GenerateCompletions(ctx, utils.ToOptimizeCompletionRequest("x", "mock-model", 0))

	assert.ErrorIs(t, err, context.Canceled)
}
