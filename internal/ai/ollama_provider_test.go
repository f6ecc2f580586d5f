package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/amishk599/postscout/internal/model"
)

func TestOllamaChat_SendsSchemaAsFormat(t *testing.T) {
	var gotReq map[string]any
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(api.ChatResponse{
			Model:   "deepseek-r1:1.5b",
			Message: api.Message{Role: "assistant", Content: `{"classification":0}`},
			Done:    true,
		})
	}))
	defer srv.Close()

	provider := NewOllamaProvider(srv.URL, "deepseek-r1:1.5b", srv.Client())
	got, err := provider.Chat(context.Background(), testMessages, HiringPostSchema)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != `{"classification":0}` {
		t.Errorf("got %q", got)
	}
	if gotPath != "/api/chat" {
		t.Errorf("path = %q, want /api/chat", gotPath)
	}
	if gotReq["stream"] != false {
		t.Errorf("stream = %v, want false", gotReq["stream"])
	}
	if gotReq["model"] != "deepseek-r1:1.5b" {
		t.Errorf("model = %v", gotReq["model"])
	}
	format, ok := gotReq["format"].(map[string]any)
	if !ok {
		t.Fatalf("format = %T, want object", gotReq["format"])
	}
	if opts, _ := gotReq["options"].(map[string]any); opts["temperature"] != float64(0) {
		t.Errorf("options.temperature = %v, want 0", opts["temperature"])
	}
	if format["type"] != "object" {
		t.Errorf("format.type = %v, want object", format["type"])
	}
	if _, ok := format["properties"].(map[string]any)["classification"]; !ok {
		t.Error("format should declare the classification property")
	}
}

func TestOllamaChat_NotFoundIsHTTPError(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusNotFound, map[string]string{"error": "model 'x' not found"})

	provider := NewOllamaProvider(srv.URL, "x", client)
	_, err := provider.Chat(context.Background(), testMessages, HiringPostSchema)

	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *model.HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusNotFound || httpErr.Temporary() {
		t.Errorf("got status %d temporary=%v, want 404 permanent", httpErr.StatusCode, httpErr.Temporary())
	}
}

func TestOllamaChat_OverloadedIsTemporary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"error": "server busy, please try again"})
	}))
	defer srv.Close()

	provider := NewOllamaProvider(srv.URL, "m", srv.Client())
	_, err := provider.Chat(context.Background(), testMessages, HiringPostSchema)

	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *model.HTTPError, got %v", err)
	}
	if !httpErr.Temporary() {
		t.Errorf("status %d should be temporary", httpErr.StatusCode)
	}
	if httpErr.RetryAfter != 7*time.Second {
		t.Errorf("RetryAfter = %v, want 7s", httpErr.RetryAfter)
	}
}

func TestOllamaChat_ErrorField(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, map[string]string{"error": "out of memory"})

	provider := NewOllamaProvider(srv.URL, "m", client)
	if _, err := provider.Chat(context.Background(), testMessages, HiringPostSchema); err == nil {
		t.Fatal("expected error when response carries an error field")
	}
}

func TestOllamaChat_EmptyMessage(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, api.ChatResponse{Done: true})

	provider := NewOllamaProvider(srv.URL, "m", client)
	if _, err := provider.Chat(context.Background(), testMessages, HiringPostSchema); err == nil {
		t.Fatal("expected error on empty message content")
	}
}

func TestOllamaChat_DefaultsBaseURL(t *testing.T) {
	p := NewOllamaProvider("", "m", http.DefaultClient)
	if p.baseURL != DefaultOllamaURL {
		t.Errorf("baseURL = %q, want %q", p.baseURL, DefaultOllamaURL)
	}
}

func TestOllamaChat_InvalidBaseURL(t *testing.T) {
	p := NewOllamaProvider("localhost:11434", "m", http.DefaultClient)
	if _, err := p.Chat(context.Background(), testMessages, HiringPostSchema); err == nil {
		t.Fatal("expected error for a base url without scheme")
	}
}
