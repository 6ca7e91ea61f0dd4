package models

import (
	openaigo "github.com/sashabaranov/go-openai"
)

// ChatCompletionExtendedResponse is a provider reply in OpenAI shape with the
// estimated USD cost of the call.
type ChatCompletionExtendedResponse struct {
	ChatCompletionResponse openaigo.ChatCompletionResponse
	Cost                   float64
}
