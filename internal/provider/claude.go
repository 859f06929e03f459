package provider

import (
	"context"
	"encoding/json"
	"strings"
)

const (
	anthropicVersion       = "2023-06-01"
	claudeDefaultMaxTokens = 4096
)

// claudeAdapter talks to the Anthropic messages API.
type claudeAdapter struct {
	base
}

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Messages    []claudeMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (a *claudeAdapter) Invoke(ctx context.Context, prompt string, params Params) (string, error) {
	prompt, err := validatePrompt(prompt)
	if err != nil {
		return "", err
	}

	maxTokens := params.MaxTokens
	if maxTokens <= 0 {
		// The messages API rejects requests without max_tokens.
		maxTokens = claudeDefaultMaxTokens
	}
	payload := claudeRequest{
		Model:       a.model(params),
		MaxTokens:   maxTokens,
		Messages:    []claudeMessage{{Role: "user", Content: prompt}},
		Temperature: params.Temperature,
	}
	headers := map[string]string{
		"x-api-key":         a.settings.APIKey,
		"anthropic-version": anthropicVersion,
	}

	body, err := a.postJSON(ctx, a.settings.BaseURL, payload, headers)
	if err != nil {
		return "", err
	}

	var parsed claudeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", NewFailure(FailureUnknown, "decode claude response: %s", err)
	}
	if parsed.Error != nil {
		return "", NewFailure(FailureUnknown, "claude api error: %s", strings.TrimSpace(parsed.Error.Message))
	}
	for _, block := range parsed.Content {
		if text := strings.TrimSpace(block.Text); text != "" {
			return text, nil
		}
	}
	return "", NewFailure(FailureUnknown, "claude response contained no text content")
}
