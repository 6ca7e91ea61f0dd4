package utils

import (
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	// OptimizerTemperature is sent on every optimize call.
	OptimizerTemperature float32 = 0.1

	// RawInputPrefix precedes the caller's text in the user message.
	RawInputPrefix = "원시 입력: "
)

var ErrNoChoices = errors.New("completion response contained no choices")

// OptimizerSystemPrompt is the fixed system instruction. The indentation of
// the continuation lines is part of the prompt.
const OptimizerSystemPrompt = `당신은 최상급 메타 프롬프트 엔지니어입니다.
        사용자의 원시 입력을 분석하여 전문가 수준의 실행 지시문으로 변환하십시오.

        [제약 사항]
        1. 분석(COT): 사용자의 핵심 의도, 필요한 도메인 전문가 페르소나, 누락된 배경 정보, 최종 목표를 묵시적으로 추론하십시오.
        2. 출력 통제: 어떠한 인사말, 부가 설명, 마크다운 코드블록 기호(` + "```" + `) 없이 지정된 [출력 템플릿] 구조만 정확히 반환하십시오.
        3. 명확성: 추상적인 어휘를 배제하고, 구체적이고 실행 가능한 행동 지침(Actionable Steps)으로 Task를 구성하십시오.

        [출력 템플릿]
        # Role
        당신은 [분석된 최적의 전문가 페르소나]입니다.

        # Context
        [사용자 입력을 바탕으로 전문적으로 재구성한 배경 상황 및 제약 조건]

        # Task
        - [단계별 수행해야 할 구체적 작업 1]
        - [단계별 수행해야 할 구체적 작업 2]

        #Constraints:
        # 1. 분석 (COT): 사용자의 핵심 의도, 요구되는 도메인 전문가 페르소나, 누락된 배경 정보, 최종 목표를 시스템 내부적으로 사전 추론할 것.
        # 2. 출력 통제: 인사말, 부가 설명, 마크다운 코드 블록 기호(` + "```" + `)의 생성을 절대 금지함. 오직 지정된 [Output Template] 구조만 반환할 것.
        # 3. 명확성: 추상적인 어휘를 배제하고, 'Task' 영역을 구체적이고 실행 가능한 단계별 지침(Actionable steps)으로 구조화할 것.`

func ToChatCompletionRequestFromPrompt(systemPrompt, userPrompt, model string, temperature float32) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt,
			},
		},
		Temperature: temperature,
	}
}

// ToOptimizeCompletionRequest builds the two-message request for one raw input.
func ToOptimizeCompletionRequest(text, model string, maxTokens int) openai.ChatCompletionRequest {
	request := ToChatCompletionRequestFromPrompt(OptimizerSystemPrompt, RawInputPrefix+text, model, OptimizerTemperature)
	request.MaxTokens = maxTokens
	return request
}

// ToResponseStringFromChatCompletionResponse returns the first choice's
// content without surrounding whitespace.
func ToResponseStringFromChatCompletionResponse(openaiResponse openai.ChatCompletionResponse) (string, error) {
	if len(openaiResponse.Choices) == 0 {
		return "", ErrNoChoices
	}
	return strings.TrimSpace(openaiResponse.Choices[0].Message.Content), nil
}
