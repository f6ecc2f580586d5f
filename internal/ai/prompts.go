package ai

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed prompts/hiring_post.md
var hiringPostPrompt string

//go:embed prompts/names_classification.md
var namesClassificationPrompt string

// HiringPostPrompt returns the built-in system prompt for the hiring pass.
func HiringPostPrompt() string { return strings.TrimSpace(hiringPostPrompt) }

// NamesClassificationPrompt returns the built-in system prompt for the names pass.
func NamesClassificationPrompt() string { return strings.TrimSpace(namesClassificationPrompt) }

// LoadPrompt reads a prompt override from path, falling back to def when path
// is empty.
func LoadPrompt(path, def string) (string, error) {
	if path == "" {
		return def, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt %s: %w", path, err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("prompt %s is empty", path)
	}
	return prompt, nil
}
