package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ollama/ollama/api"
)

// OllamaProvider calls Ollama's native chat endpoint with the schema passed
// as the structured output format.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *api.Client
	err     error // invalid base URL, reported on every call
}

// NewOllamaProvider creates a provider targeting an Ollama server.
func NewOllamaProvider(baseURL, model string, httpClient *http.Client) *OllamaProvider {
	client, base, err := newOllamaClient(baseURL, httpClient)
	return &OllamaProvider{
		baseURL: base,
		model:   model,
		client:  client,
		err:     err,
	}
}

// Chat sends messages with streaming disabled and returns the reply content.
func (p *OllamaProvider) Chat(ctx context.Context, messages []Message, schema Schema) (string, error) {
	if p.err != nil {
		return "", p.err
	}

	var format json.RawMessage
	if !schema.IsZero() {
		b, err := json.Marshal(schema.Definition)
		if err != nil {
			return "", fmt.Errorf("marshal ollama format: %w", err)
		}
		format = b
	}

	msgs := make([]api.Message, len(messages))
	for i, m := range messages {
		msgs[i] = api.Message{Role: m.Role, Content: m.Content}
	}
	stream := false
	req := &api.ChatRequest{
		Model:    p.model,
		Messages: msgs,
		Stream:   &stream,
		Format:   format,
		Options:  map[string]any{"temperature": 0},
	}

	ctx, meta := withResponseMeta(ctx)
	var content strings.Builder
	err := p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", ollamaError(err, meta))
	}
	if content.Len() == 0 {
		return "", errors.New("ollama returned an empty message")
	}
	return content.String(), nil
}
