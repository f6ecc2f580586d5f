package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/amishk599/postscout/internal/model"
)

// DefaultOllamaURL is where a local Ollama server listens.
const DefaultOllamaURL = "http://localhost:11434"

// newOllamaClient builds an api.Client for baseURL on top of httpClient. The
// transport is wrapped so error replies keep their status and Retry-After.
func newOllamaClient(baseURL string, httpClient *http.Client) (*api.Client, string, error) {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, baseURL, fmt.Errorf("invalid ollama base url %q", baseURL)
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	wrapped := *httpClient
	next := wrapped.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	wrapped.Transport = statusRecorder{next: next}
	return api.NewClient(base, &wrapped), baseURL, nil
}

// responseMeta holds what the transport saw of the last reply for a call.
type responseMeta struct {
	status     int
	retryAfter time.Duration
}

type responseMetaKey struct{}

func withResponseMeta(ctx context.Context) (context.Context, *responseMeta) {
	meta := &responseMeta{}
	return context.WithValue(ctx, responseMetaKey{}, meta), meta
}

type statusRecorder struct {
	next http.RoundTripper
}

func (s statusRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := s.next.RoundTrip(req)
	if err != nil {
		return resp, err
	}
	if meta, ok := req.Context().Value(responseMetaKey{}).(*responseMeta); ok {
		meta.status = resp.StatusCode
		meta.retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
	}
	return resp, nil
}

// ollamaError turns an api client failure that came with an error status
// into a model.HTTPError so retry logic can classify it.
func ollamaError(err error, meta *responseMeta) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return &model.HTTPError{
			StatusCode: statusErr.StatusCode,
			RetryAfter: meta.retryAfter,
			Body:       truncateBody(statusErr.ErrorMessage),
		}
	}
	if meta.status >= http.StatusBadRequest {
		return &model.HTTPError{
			StatusCode: meta.status,
			RetryAfter: meta.retryAfter,
			Body:       truncateBody(err.Error()),
		}
	}
	return err
}
