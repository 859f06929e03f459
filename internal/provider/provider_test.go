package provider_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"smarttask/internal/provider"
)

func newAdapter(t *testing.T, kind provider.Kind, baseURL string) provider.Adapter {
	t.Helper()
	adapter, err := provider.New(kind, provider.Settings{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "test-model",
	})
	if err != nil {
		t.Fatalf("provider.New(%s): %v", kind, err)
	}
	return adapter
}

func TestOpenAIInvoke(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %q", got)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("unexpected model: %q", req.Model)
		}
		if len(req.Messages) != 1 || req.Messages[0].Content != "hello" {
			t.Errorf("unexpected messages: %#v", req.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hi there"}}]}`))
	}))
	defer server.Close()

	adapter := newAdapter(t, provider.KindOpenAI, server.URL)
	content, err := adapter.Invoke(context.Background(), "hello", provider.Params{})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if content != "hi there" {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestClaudeInvokeSendsVersionAndMaxTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("unexpected api key header: %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != "2023-06-01" {
			t.Errorf("unexpected anthropic version: %q", got)
		}
		var req struct {
			MaxTokens int `json:"max_tokens"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.MaxTokens != 4096 {
			t.Errorf("expected default max_tokens 4096, got %d", req.MaxTokens)
		}
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"claude says hi"}]}`))
	}))
	defer server.Close()

	adapter := newAdapter(t, provider.KindClaude, server.URL)
	content, err := adapter.Invoke(context.Background(), "hello", provider.Params{})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if content != "claude says hi" {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestGeminiInvokeBuildsModelPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/test-model:generateContent" {
			t.Errorf("unexpected path: %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("expected api key in query, got %q", got)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"gemini says hi"}]}}]}`))
	}))
	defer server.Close()

	adapter := newAdapter(t, provider.KindGemini, server.URL)
	content, err := adapter.Invoke(context.Background(), "hello", provider.Params{})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if content != "gemini says hi" {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestCustomInvokeAcceptsTextFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Prompt != "hello" {
			t.Errorf("unexpected prompt: %q", req.Prompt)
		}
		_, _ = w.Write([]byte(`{"text":"custom says hi"}`))
	}))
	defer server.Close()

	adapter := newAdapter(t, provider.KindCustom, server.URL)
	content, err := adapter.Invoke(context.Background(), "hello", provider.Params{})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if content != "custom says hi" {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestInvokeClassifiesStatusCodes(t *testing.T) {
	cases := []struct {
		name       string
		status     int
		retryAfter string
		want       provider.FailureKind
	}{
		{"unauthorized", http.StatusUnauthorized, "", provider.FailureAuth},
		{"forbidden", http.StatusForbidden, "", provider.FailureAuth},
		{"rate limited", http.StatusTooManyRequests, "3", provider.FailureRateLimited},
		{"server error", http.StatusInternalServerError, "", provider.FailureUnavailable},
		{"bad request", http.StatusBadRequest, "", provider.FailureInvalidInput},
		{"teapot", http.StatusTeapot, "", provider.FailureUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tc.retryAfter != "" {
					w.Header().Set("Retry-After", tc.retryAfter)
				}
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope"}}`))
			}))
			defer server.Close()

			adapter := newAdapter(t, provider.KindOpenAI, server.URL)
			_, err := adapter.Invoke(context.Background(), "hello", provider.Params{})
			failure, ok := provider.AsFailure(err)
			if !ok {
				t.Fatalf("expected classified failure, got %v", err)
			}
			if failure.Kind != tc.want {
				t.Fatalf("expected kind %s, got %s", tc.want, failure.Kind)
			}
			if tc.retryAfter != "" && failure.RetryAfter != 3*time.Second {
				t.Fatalf("expected retry-after 3s, got %s", failure.RetryAfter)
			}
		})
	}
}

func TestInvokeClassifiesTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	adapter, err := provider.New(provider.KindOpenAI, provider.Settings{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
	}, provider.WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))
	if err != nil {
		t.Fatalf("provider.New: %v", err)
	}

	_, err = adapter.Invoke(context.Background(), "hello", provider.Params{})
	failure, ok := provider.AsFailure(err)
	if !ok {
		t.Fatalf("expected classified failure, got %v", err)
	}
	if failure.Kind != provider.FailureTimeout {
		t.Fatalf("expected timeout kind, got %s", failure.Kind)
	}
	if !failure.Transient() {
		t.Fatal("timeout should be transient")
	}
}

func TestInvokePropagatesCancellation(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server's background read can observe the
		// client disconnect; otherwise r.Context() is never canceled and
		// server.Close deadlocks waiting on this connection.
		_, _ = io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	adapter := newAdapter(t, provider.KindOpenAI, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := adapter.Invoke(ctx, "hello", provider.Params{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestInvokeRejectsEmptyPrompt(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	adapter := newAdapter(t, provider.KindOpenAI, server.URL)
	_, err := adapter.Invoke(context.Background(), "   ", provider.Params{})
	if provider.KindOf(err) != provider.FailureInvalidInput {
		t.Fatalf("expected invalid input failure, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected zero network calls, got %d", calls)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := provider.New(provider.KindOpenAI, provider.Settings{})
	if provider.KindOf(err) != provider.FailureMisconfigured {
		t.Fatalf("expected misconfigured failure, got %v", err)
	}

	_, err = provider.New(provider.KindCustom, provider.Settings{})
	if provider.KindOf(err) != provider.FailureMisconfigured {
		t.Fatalf("expected misconfigured failure for custom without endpoint, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	for _, valid := range []string{"openai", "Claude", " GEMINI ", "custom"} {
		if _, err := provider.ParseKind(valid); err != nil {
			t.Fatalf("ParseKind(%q) failed: %v", valid, err)
		}
	}
	if _, err := provider.ParseKind("watson"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
