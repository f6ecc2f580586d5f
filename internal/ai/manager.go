package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ollama/ollama/api"
)

// DefaultModel is the model pulled and queried when none is configured.
const DefaultModel = "deepseek-r1:1.5b"

// ErrModelUnavailable is returned when the Ollama server or model cannot be
// made ready.
var ErrModelUnavailable = errors.New("model unavailable")

// ModelManager prepares a local Ollama model before classification starts.
// It never installs Ollama itself.
type ModelManager struct {
	baseURL string
	model   string
	client  *api.Client
	err     error
	logger  *slog.Logger

	lookPath func(string) (string, error)
	getenv   func(string) string
}

// NewModelManager creates a manager for model on the server at baseURL.
func NewModelManager(baseURL, model string, httpClient *http.Client, logger *slog.Logger) *ModelManager {
	if model == "" {
		model = DefaultModel
	}
	client, base, err := newOllamaClient(baseURL, httpClient)
	return &ModelManager{
		baseURL:  base,
		model:    model,
		client:   client,
		err:      err,
		logger:   logger,
		lookPath: exec.LookPath,
		getenv:   os.Getenv,
	}
}

// EnsureReady checks the server, pulls the model and reports the inference
// device.
func (m *ModelManager) EnsureReady(ctx context.Context) (string, error) {
	if _, err := m.lookPath("ollama"); err != nil {
		m.logger.Warn("ollama binary not found on PATH, expecting a reachable server", "base_url", m.baseURL)
	}

	version, err := m.Version(ctx)
	if err != nil {
		return "", err
	}
	m.logger.Info("ollama server reachable", "version", version, "base_url", m.baseURL)

	if err := m.Pull(ctx); err != nil {
		return "", err
	}
	m.logger.Info("model available", "model", m.model)

	device := m.Device(ctx)
	m.logger.Info("ollama device usage", "device", device)
	return device, nil
}

// Version returns the server version.
func (m *ModelManager) Version(ctx context.Context) (string, error) {
	if m.err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, m.err)
	}
	version, err := m.client.Version(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: ollama server at %s: %v", ErrModelUnavailable, m.baseURL, err)
	}
	return version, nil
}

// Pull downloads the model if it is not already present. The call blocks
// until the server reports completion.
func (m *ModelManager) Pull(ctx context.Context) error {
	if m.err != nil {
		return fmt.Errorf("%w: %v", ErrModelUnavailable, m.err)
	}
	m.logger.Info("ensuring ollama model is available", "model", m.model)

	stream := false
	var status string
	req := &api.PullRequest{Model: m.model, Stream: &stream}
	err := m.client.Pull(ctx, req, func(p api.ProgressResponse) error {
		status = p.Status
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: pull %s: %v", ErrModelUnavailable, m.model, err)
	}
	if status != "success" {
		return fmt.Errorf("%w: pull %s: status %s", ErrModelUnavailable, m.model, strconv.Quote(status))
	}
	return nil
}

// Device describes where the model runs. Lookup order: the running-model
// list, known GPU tools on PATH, then OLLAMA_NUM_GPU.
func (m *ModelManager) Device(ctx context.Context) string {
	if m.err == nil {
		running, err := m.client.ListRunning(ctx)
		if err != nil {
			m.logger.Debug("could not query running models", "error", err)
		} else {
			for _, loaded := range running.Models {
				if loaded.Name != m.model && loaded.Model != m.model {
					continue
				}
				if loaded.SizeVRAM > 0 {
					return "GPU"
				}
				return "CPU"
			}
		}
	}

	if _, err := m.lookPath("nvidia-smi"); err == nil {
		return "GPU (CUDA) - available"
	}
	if _, err := m.lookPath("rocm-smi"); err == nil {
		return "GPU (ROCm) - available"
	}

	if v, ok := m.lookupEnv("OLLAMA_NUM_GPU"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return fmt.Sprintf("GPU - %d GPU(s) configured", n)
		}
		return "CPU - no GPU configured"
	}
	return "Unknown"
}

func (m *ModelManager) lookupEnv(key string) (string, bool) {
	v := strings.TrimSpace(m.getenv(key))
	return v, v != ""
}
