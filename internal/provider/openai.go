package provider

import (
	"context"
	"encoding/json"
	"strings"
)

// openAIAdapter talks to the OpenAI chat completions API and to any
// endpoint speaking the same schema.
type openAIAdapter struct {
	base
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (a *openAIAdapter) Invoke(ctx context.Context, prompt string, params Params) (string, error) {
	prompt, err := validatePrompt(prompt)
	if err != nil {
		return "", err
	}

	payload := openAIChatRequest{
		Model:       a.model(params),
		Messages:    []openAIMessage{{Role: "user", Content: prompt}},
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	}
	headers := map[string]string{
		"Authorization": "Bearer " + a.settings.APIKey,
	}

	body, err := a.postJSON(ctx, a.settings.BaseURL, payload, headers)
	if err != nil {
		return "", err
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", NewFailure(FailureUnknown, "decode openai response: %s", err)
	}
	if parsed.Error != nil {
		return "", NewFailure(FailureUnknown, "openai api error: %s", strings.TrimSpace(parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 {
		return "", NewFailure(FailureUnknown, "openai response contained no choices")
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", NewFailure(FailureUnknown, "openai response contained empty content")
	}
	return content, nil
}
