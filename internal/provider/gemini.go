package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// geminiAdapter talks to the Google Generative Language API. The API key
// rides in a query parameter, so request URLs must never be logged.
type geminiAdapter struct {
	base
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (a *geminiAdapter) Invoke(ctx context.Context, prompt string, params Params) (string, error) {
	prompt, err := validatePrompt(prompt)
	if err != nil {
		return "", err
	}

	endpoint, err := url.JoinPath(a.settings.BaseURL, "models", fmt.Sprintf("%s:generateContent", a.model(params)))
	if err != nil {
		return "", NewFailure(FailureMisconfigured, "build gemini url: %s", err)
	}
	endpoint += "?key=" + url.QueryEscape(a.settings.APIKey)

	payload := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}
	if params.MaxTokens > 0 || params.Temperature > 0 {
		payload.GenerationConfig = &geminiGenerationConfig{
			MaxOutputTokens: params.MaxTokens,
			Temperature:     params.Temperature,
		}
	}

	body, err := a.postJSON(ctx, endpoint, payload, nil)
	if err != nil {
		return "", err
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", NewFailure(FailureUnknown, "decode gemini response: %s", err)
	}
	if parsed.Error != nil {
		return "", NewFailure(FailureUnknown, "gemini api error: %s", strings.TrimSpace(parsed.Error.Message))
	}
	for _, candidate := range parsed.Candidates {
		for _, part := range candidate.Content.Parts {
			if text := strings.TrimSpace(part.Text); text != "" {
				return text, nil
			}
		}
	}
	return "", NewFailure(FailureUnknown, "gemini response contained no candidates")
}
