package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["model"] != "test-model" {
			t.Errorf("unexpected model %v", body["model"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"content": "hello"},
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider("test-model", srv.URL)
	got, err := p.Generate(context.Background(), "prompt", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello" {
		t.Errorf("Generate = %q, want %q", got, "hello")
	}
}

func TestOllamaGenerateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllamaProvider("test-model", srv.URL)
	if _, err := p.Generate(context.Background(), "prompt", 100); err == nil {
		t.Error("expected error for non-200 response")
	}
}

func TestOpenRouterNotConfigured(t *testing.T) {
	p := NewOpenRouterProvider("some/model", "XUEXINWEN_TEST_MISSING_KEY", "")
	if p.IsConfigured() {
		t.Error("expected unconfigured without API key")
	}
	if _, err := p.Generate(context.Background(), "prompt", 100); err == nil {
		t.Error("expected error without API key")
	}
}

func TestOpenRouterConfiguredFromEnv(t *testing.T) {
	t.Setenv("XUEXINWEN_TEST_KEY", "secret")
	p := NewOpenRouterProvider("some/model", "XUEXINWEN_TEST_KEY", "")
	if !p.IsConfigured() {
		t.Error("expected configured with API key set")
	}
}
