package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultOpenAIURL = "https://api.openai.com/v1/chat/completions"

const systemPrompt = "You are an AI that generates exam items in JSON format. " +
	"Respond with a single JSON object with keys: stimulus (the reading passages), " +
	"stem (the question), choices (array of answer options), answer (the correct choice)."

// OpenAI generates items via an OpenAI-compatible chat-completions endpoint.
type OpenAI struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAI creates a generator. Requires EXAMFLUX_OPENAI_API_KEY (or
// OPENAI_API_KEY); EXAMFLUX_OPENAI_BASE_URL points it at a compatible
// local server.
func NewOpenAI(model string) (*OpenAI, error) {
	key := os.Getenv("EXAMFLUX_OPENAI_API_KEY")
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("EXAMFLUX_OPENAI_API_KEY environment variable is not set")
	}
	baseURL := os.Getenv("EXAMFLUX_OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = defaultOpenAIURL
	}
	return &OpenAI{
		apiKey:  key,
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}, nil
}

// GenerateItem asks the model for one item and parses its JSON answer.
func (o *OpenAI) GenerateItem(ctx context.Context, prompt string) (Draft, error) {
	body := openaiRequest{
		Model: o.model,
		Messages: []openaiMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature:    0.8,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Draft{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL, bytes.NewReader(payload))
	if err != nil {
		return Draft{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return Draft{}, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Draft{}, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != 200 {
		return Draft{}, fmt.Errorf("LLM API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result openaiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return Draft{}, fmt.Errorf("parsing response: %w", err)
	}
	if len(result.Choices) == 0 {
		return Draft{}, fmt.Errorf("no choices in response")
	}

	return parseDraft(result.Choices[0].Message.Content)
}

// parseDraft decodes the model's JSON answer, tolerating markdown code
// fences some models wrap around it.
func parseDraft(content string) (Draft, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}
	var d Draft
	if err := json.Unmarshal([]byte(content), &d); err != nil {
		return Draft{}, fmt.Errorf("model did not return valid item JSON: %w", err)
	}
	return d, nil
}

type openaiRequest struct {
	Model          string          `json:"model"`
	Messages       []openaiMessage `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
}

type openaiChoice struct {
	Message openaiMessage `json:"message"`
}
