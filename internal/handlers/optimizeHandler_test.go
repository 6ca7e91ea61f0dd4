package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	openaigo "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmgate/prompt-optimizer/internal/config"
	"github.com/llmgate/prompt-optimizer/models"
	"github.com/llmgate/prompt-optimizer/utils"
)

type fakeCompletionsClient struct {
	mu       sync.Mutex
	payloads []openaigo.ChatCompletionRequest
	content  string
	choices  *[]openaigo.ChatCompletionChoice
	err      error
}

func (f *fakeCompletionsClient) GenerateCompletions(ctx context.Context, payload openaigo.ChatCompletionRequest) (*models.ChatCompletionExtendedResponse, error) {
	f.mu.Lock()
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	choices := []openaigo.ChatCompletionChoice{
		{Message: openaigo.ChatCompletionMessage{Role: openaigo.ChatMessageRoleAssistant, Content: f.content}},
	}
	if f.choices != nil {
		choices = *f.choices
	}
	return &models.ChatCompletionExtendedResponse{
		ChatCompletionResponse: openaigo.ChatCompletionResponse{
			Choices: choices,
			Usage:   openaigo.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		},
		Cost: 0.001,
	}, nil
}

type recordedMetric struct {
	name   string
	labels map[string]string
	value  float64
}

type fakeRecorder struct {
	counters []recordedMetric
	timers   []recordedMetric
}

func (r *fakeRecorder) RecordCounter(metricName string, labels map[string]string, value float64) {
	r.counters = append(r.counters, recordedMetric{metricName, labels, value})
}

func (r *fakeRecorder) RecordTimer(metricName string, labels map[string]string, duration time.Duration) {
	r.timers = append(r.timers, recordedMetric{metricName, labels, duration.Seconds()})
}

var testLLMConfig = config.LLMConfigs{Provider: config.ProviderOpenAI, Model: "gpt-4o"}

func newOptimizeRouter(client CompletionsClient, recorder MetricsRecorder, handlerConfig config.OptimizeHandlerConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/optimize", NewOptimizeHandler(client, recorder, testLLMConfig, handlerConfig).OptimizePrompt)
	return router
}

func postOptimize(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/optimize", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestOptimizePromptSuccess(t *testing.T) {
	client := &fakeCompletionsClient{content: "\n\n# Role\n당신은 마케터입니다.\n\n# Task\n- 카피 작성  \n"}
	recorder := &fakeRecorder{}
	router := newOptimizeRouter(client, recorder, config.OptimizeHandlerConfig{})

	w := postOptimize(router, `{"text": "신제품 홍보 문구"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.OptimizePromptResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "# Role\n당신은 마케터입니다.\n\n# Task\n- 카피 작성", resp.OptimizedPrompt)

	require.Len(t, client.payloads, 1)
	payload := client.payloads[0]
	assert.Equal(t, "gpt-4o", payload.Model)
	assert.Equal(t, float32(0.1), payload.Temperature)
	require.Len(t, payload.Messages, 2)
	assert.Equal(t, openaigo.ChatMessageRoleSystem, payload.Messages[0].Role)
	assert.Equal(t, utils.OptimizerSystemPrompt, payload.Messages[0].Content)
	assert.Equal(t, openaigo.ChatMessageRoleUser, payload.Messages[1].Role)
	assert.Equal(t, "원시 입력: 신제품 홍보 문구", payload.Messages[1].Content)

	require.Len(t, recorder.timers, 1)
	assert.Equal(t, completionDurationMetric, recorder.timers[0].name)
	require.Len(t, recorder.counters, 2)
	assert.Equal(t, completionCostMetric, recorder.counters[0].name)
	assert.Equal(t, 0.001, recorder.counters[0].value)
	assert.Equal(t, completionsMetric, recorder.counters[1].name)
	assert.Equal(t, outcomeSuccess, recorder.counters[1].labels["outcome"])
}

func TestOptimizePromptTemperatureIndependentOfInput(t *testing.T) {
	client := &fakeCompletionsClient{content: "ok"}
	router := newOptimizeRouter(client, nil, config.OptimizeHandlerConfig{})

	inputs := []string{
		`{"text": "a"}`,
		`{"text": "temperature 1.0 please"}`,
		`{"text": "x", "temperature": 2}`,
		`{"text": ""}`,
	}
	for _, body := range inputs {
		require.Equal(t, http.StatusOK, postOptimize(router, body).Code, body)
	}

	require.Len(t, client.payloads, len(inputs))
	for _, payload := range client.payloads {
		assert.Equal(t, float32(0.1), payload.Temperature)
	}
	assert.Equal(t, "원시 입력: ", client.payloads[3].Messages[1].Content)
}

func TestOptimizePromptUpstreamError(t *testing.T) {
	client := &fakeCompletionsClient{err: fmt.Errorf("openai chat completion failed: %w", errors.New("connection refused"))}
	recorder := &fakeRecorder{}
	router := newOptimizeRouter(client, recorder, config.OptimizeHandlerConfig{})

	w := postOptimize(router, `{"text": "hello"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "connection refused", resp.Detail)
	assert.Len(t, client.payloads, 1)
	require.Len(t, recorder.counters, 2)
	assert.Equal(t, outcomeError, recorder.counters[1].labels["outcome"])
}

func TestOptimizePromptUnwrappedUpstreamError(t *testing.T) {
	client := &fakeCompletionsClient{err: errors.New("rate limit exceeded")}
	router := newOptimizeRouter(client, nil, config.OptimizeHandlerConfig{})

	w := postOptimize(router, `{"text": "hello"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail": "rate limit exceeded"}`, w.Body.String())
}

func TestOptimizePromptNoChoices(t *testing.T) {
	client := &fakeCompletionsClient{choices: &[]openaigo.ChatCompletionChoice{}}
	router := newOptimizeRouter(client, nil, config.OptimizeHandlerConfig{})

	w := postOptimize(router, `{"text": "hello"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail": "completion response contained no choices"}`, w.Body.String())
}

func TestOptimizePromptValidation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantDetail string
	}{
		{"missing text", `{}`, "text: field required"},
		{"null text", `{"text": null}`, "text: field required"},
		{"wrong type", `{"text": 42}`, "text: input should be a valid string"},
		{"array", `{"text": ["a"]}`, "text: input should be a valid string"},
		{"malformed", `{"text": `, "body: invalid JSON"},
		{"not an object", `"just text"`, "body: input should be a valid object"},
		{"empty body", ``, "body: invalid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeCompletionsClient{content: "unused"}
			router := newOptimizeRouter(client, nil, config.OptimizeHandlerConfig{})

			w := postOptimize(router, tt.body)

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Detail)
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, resp.Detail)
			}
			assert.Empty(t, client.payloads, "upstream must not be called")
		})
	}
}

func TestOptimizePromptMaxTextLength(t *testing.T) {
	client := &fakeCompletionsClient{content: "ok"}
	router := newOptimizeRouter(client, nil, config.OptimizeHandlerConfig{MaxTextLength: 5})

	assert.Equal(t, http.StatusOK, postOptimize(router, `{"text": "다섯글자다"}`).Code)

	w := postOptimize(router, `{"text": "여섯글자이다"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{"detail": "text: at most 5 characters allowed, got 6"}`, w.Body.String())
	assert.Len(t, client.payloads, 1)
}

func TestOptimizePromptMethodNotRouted(t *testing.T) {
	client := &fakeCompletionsClient{content: "ok"}
	router := newOptimizeRouter(client, nil, config.OptimizeHandlerConfig{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/optimize", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, client.payloads)
}
