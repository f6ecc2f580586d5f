package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/amishk599/postscout/internal/model"
)

var (
	// ErrInvalidArgument is returned when input, prompt or schema is missing.
	ErrInvalidArgument = errors.New("invalid inference argument")
	// ErrMalformedOutput is returned when the model reply does not match the schema.
	ErrMalformedOutput = errors.New("malformed model output")
)

// Classifier turns a provider chat into a validated binary label.
type Classifier struct {
	provider Provider
	logger   *slog.Logger
}

// NewClassifier creates a classifier on top of provider.
func NewClassifier(provider Provider, logger *slog.Logger) *Classifier {
	return &Classifier{provider: provider, logger: logger}
}

// Inference asks the model to classify input under prompt, constraining the
// reply to schema. It makes exactly one provider call.
func (c *Classifier) Inference(ctx context.Context, input, prompt string, schema Schema) (model.Classification, error) {
	switch {
	case input == "":
		return 0, fmt.Errorf("%w: input is empty", ErrInvalidArgument)
	case prompt == "":
		return 0, fmt.Errorf("%w: prompt is empty", ErrInvalidArgument)
	case schema.IsZero():
		return 0, fmt.Errorf("%w: schema is empty", ErrInvalidArgument)
	}

	raw, err := c.provider.Chat(ctx, []Message{
		{Role: "system", Content: prompt},
		{Role: "user", Content: input},
	}, schema)
	if err != nil {
		return 0, fmt.Errorf("%s inference: %w", schema.Name, err)
	}

	label, err := parseClassification(raw)
	if err != nil {
		c.logger.Debug("rejected model reply", "schema", schema.Name, "reply", raw)
		return 0, fmt.Errorf("%s inference: %w", schema.Name, err)
	}
	return label, nil
}

type classificationReply struct {
	Classification *int `json:"classification"`
}

// parseClassification decodes exactly one {"classification": 0|1} object.
// Unknown fields and trailing data are rejected.
func parseClassification(raw string) (model.Classification, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var reply classificationReply
	if err := dec.Decode(&reply); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("%w: trailing data after object", ErrMalformedOutput)
	}
	if reply.Classification == nil {
		return 0, fmt.Errorf("%w: missing classification", ErrMalformedOutput)
	}
	label := model.Classification(*reply.Classification)
	if !label.Valid() {
		return 0, fmt.Errorf("%w: classification %d not in {0, 1}", ErrMalformedOutput, *reply.Classification)
	}
	return label, nil
}
