package models

// Text is a pointer so that an empty string passes the required check while
// a missing or null field does not.
type OptimizePromptRequest struct {
	Text *string `json:"text" binding:"required"`
}

type OptimizePromptResponse struct {
	OptimizedPrompt string `json:"optimized_prompt"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}
