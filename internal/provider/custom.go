package provider

import (
	"context"
	"encoding/json"
	"strings"
)

// customAdapter posts to a user-defined endpoint. The contract is minimal:
// the endpoint receives {"prompt": ...} and answers with a JSON object
// carrying the generated text under "response" or "text".
type customAdapter struct {
	base
}

type customRequest struct {
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type customResponse struct {
	Response string `json:"response"`
	Text     string `json:"text"`
}

func (a *customAdapter) Invoke(ctx context.Context, prompt string, params Params) (string, error) {
	prompt, err := validatePrompt(prompt)
	if err != nil {
		return "", err
	}

	payload := customRequest{
		Prompt:      prompt,
		Model:       a.model(params),
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	}
	var headers map[string]string
	if a.settings.APIKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + a.settings.APIKey}
	}

	body, err := a.postJSON(ctx, a.settings.BaseURL, payload, headers)
	if err != nil {
		return "", err
	}

	var parsed customResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", NewFailure(FailureUnknown, "decode custom endpoint response: %s", err)
	}
	if text := strings.TrimSpace(parsed.Response); text != "" {
		return text, nil
	}
	if text := strings.TrimSpace(parsed.Text); text != "" {
		return text, nil
	}
	return "", NewFailure(FailureUnknown, "custom endpoint response carried neither response nor text")
}
