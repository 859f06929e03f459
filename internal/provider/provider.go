package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"smarttask/internal/config"
)

const defaultHTTPTimeout = 30 * time.Second

// Kind identifies one of the supported provider variants.
type Kind string

const (
	KindOpenAI Kind = "openai"
	KindClaude Kind = "claude"
	KindGemini Kind = "gemini"
	KindCustom Kind = "custom"
)

// ParseKind validates a provider name from config or user input.
func ParseKind(value string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindOpenAI:
		return KindOpenAI, nil
	case KindClaude:
		return KindClaude, nil
	case KindGemini:
		return KindGemini, nil
	case KindCustom:
		return KindCustom, nil
	default:
		return "", fmt.Errorf("unknown provider %q", value)
	}
}

// Params carries optional per-request model parameters. Zero values fall
// back to vendor defaults.
type Params struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Adapter is the uniform contract every provider variant implements: one
// bounded outbound call, returning generated content or a classified error.
type Adapter interface {
	Kind() Kind
	Invoke(ctx context.Context, prompt string, params Params) (string, error)
}

// Settings captures the resolved runtime configuration for one adapter.
type Settings struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Option customizes adapter construction.
type Option func(*base)

// WithHTTPClient overrides the default HTTP client (useful for tests).
func WithHTTPClient(client *http.Client) Option {
	return func(b *base) {
		if client != nil {
			b.httpClient = client
		}
	}
}

// New constructs the adapter for kind. Missing credentials or, for the
// custom variant, a missing endpoint yield a Misconfigured failure before
// any network use.
func New(kind Kind, settings Settings, opts ...Option) (Adapter, error) {
	settings.APIKey = strings.TrimSpace(settings.APIKey)
	settings.BaseURL = strings.TrimSpace(settings.BaseURL)
	settings.Model = strings.TrimSpace(settings.Model)

	timeout := defaultHTTPTimeout
	if settings.TimeoutSeconds > 0 {
		timeout = time.Duration(settings.TimeoutSeconds) * time.Second
	}
	b := base{
		kind:       kind,
		settings:   settings,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(&b)
	}

	switch kind {
	case KindCustom:
		if settings.BaseURL == "" {
			return nil, NewFailure(FailureMisconfigured, "custom provider requires an endpoint URL")
		}
		return &customAdapter{base: b}, nil
	case KindOpenAI, KindClaude, KindGemini:
		if settings.APIKey == "" {
			return nil, NewFailure(FailureMisconfigured, "%s provider requires an api key", kind)
		}
	default:
		return nil, NewFailure(FailureMisconfigured, "unknown provider kind %q", kind)
	}

	switch kind {
	case KindOpenAI:
		return &openAIAdapter{base: b}, nil
	case KindClaude:
		return &claudeAdapter{base: b}, nil
	default:
		return &geminiAdapter{base: b}, nil
	}
}

// FromConfig resolves the adapter settings for kind out of the loaded
// configuration.
func FromConfig(kind Kind, cfg *config.Config, opts ...Option) (Adapter, error) {
	if cfg == nil {
		return nil, NewFailure(FailureMisconfigured, "configuration unavailable")
	}
	settings := Settings{TimeoutSeconds: cfg.Providers.TimeoutSeconds}
	switch kind {
	case KindOpenAI:
		settings.APIKey = cfg.Providers.OpenAI.APIKey
		settings.BaseURL = cfg.Providers.OpenAI.BaseURL
		settings.Model = cfg.Providers.OpenAI.Model
	case KindClaude:
		settings.APIKey = cfg.Providers.Claude.APIKey
		settings.BaseURL = cfg.Providers.Claude.BaseURL
		settings.Model = cfg.Providers.Claude.Model
	case KindGemini:
		settings.APIKey = cfg.Providers.Gemini.APIKey
		settings.BaseURL = cfg.Providers.Gemini.BaseURL
		settings.Model = cfg.Providers.Gemini.Model
	case KindCustom:
		settings.APIKey = cfg.Providers.Custom.APIKey
		settings.BaseURL = cfg.Providers.Custom.Endpoint
	default:
		return nil, NewFailure(FailureMisconfigured, "unknown provider kind %q", kind)
	}
	return New(kind, settings, opts...)
}

type base struct {
	kind       Kind
	settings   Settings
	httpClient *http.Client
}

func (b *base) Kind() Kind { return b.kind }

func (b *base) model(params Params) string {
	if strings.TrimSpace(params.Model) != "" {
		return strings.TrimSpace(params.Model)
	}
	return b.settings.Model
}

// postJSON issues one JSON POST and returns the response body, converting
// every non-2xx status and transport error into a classified failure.
func (b *base) postJSON(ctx context.Context, endpoint string, payload any, headers map[string]string) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, NewFailure(FailureUnknown, "encode %s request: %s", b.kind, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, NewFailure(FailureMisconfigured, "build %s request: %s", b.kind, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(b.kind, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(b.kind, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, classifyStatus(b.kind, resp.StatusCode, string(body), retryAfter)
	}
	return body, nil
}

func validatePrompt(prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", NewFailure(FailureInvalidInput, "prompt required")
	}
	return prompt, nil
}
