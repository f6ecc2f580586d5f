package ai

import "context"

// Message is one chat turn sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Schema names a JSON Schema that constrains the model's reply.
type Schema struct {
	Name       string
	Definition map[string]any
}

// IsZero reports whether the schema carries no constraint.
func (s Schema) IsZero() bool {
	return s.Name == "" || len(s.Definition) == 0
}

// Provider sends a chat to a model backend and returns the raw reply text,
// which the backend has been asked to shape according to schema.
type Provider interface {
	Chat(ctx context.Context, messages []Message, schema Schema) (string, error)
}

func classificationSchema(name string) Schema {
	return Schema{
		Name: name,
		Definition: map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"classification": map[string]any{
					"type": "integer",
					"enum": []int{0, 1},
				},
			},
			"required": []string{"classification"},
		},
	}
}

var (
	// HiringPostSchema constrains the hiring pass reply to {"classification": 0|1}.
	HiringPostSchema = classificationSchema("hiring_post")
	// NamesClassificationSchema constrains the names pass reply the same way.
	NamesClassificationSchema = classificationSchema("names_classification")
)
