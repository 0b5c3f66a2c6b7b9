// Package genai produces draft exam items from an LLM behind an
// OpenAI-compatible chat-completions API.
package genai

import (
	"context"
	"fmt"
	"strings"
)

// Draft is the structured item a generation run produces, before storage.
type Draft struct {
	Stimulus string         `json:"stimulus"`
	Stem     string         `json:"stem"`
	Choices  []string       `json:"choices"`
	Answer   string         `json:"answer"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Validate enforces the authoring rules on a draft.
func (d Draft) Validate() error {
	for i, c := range d.Choices {
		if len(strings.Fields(c)) > 12 {
			return fmt.Errorf("choice %d exceeds 12 words", i+1)
		}
	}
	return nil
}

// Generator turns a prompt into a draft item.
type Generator interface {
	GenerateItem(ctx context.Context, prompt string) (Draft, error)
}
