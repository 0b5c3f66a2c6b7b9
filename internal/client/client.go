// Package client wraps the item-review HTTP API in typed, stateless calls.
// Every operation either returns the backend's payload or a typed failure;
// nothing here mutates local state or retries.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/examflux/examflux/internal/item"
)

// Client calls the review backend. It is safe for concurrent use.
type Client struct {
	baseURL string
	httpCli *http.Client
}

// New creates a client for the given base URL. A zero timeout means no
// client-side timeout; cancellation is driven by the caller's context.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCli: &http.Client{Timeout: timeout},
	}
}

// Ack is the acknowledgment body of an approve or reject call. Backends
// may return an empty or non-JSON body on success; that decodes to an
// empty Ack, never an error.
type Ack map[string]any

// ListItems fetches the full current item set.
func (c *Client) ListItems(ctx context.Context) ([]item.Item, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/items/", nil)
	if err != nil {
		return nil, err
	}
	return decodeItems(body)
}

// Approve requests the server-side transition to approved.
func (c *Client) Approve(ctx context.Context, id item.ID) (Ack, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/items/"+url.PathEscape(id.String())+"/approve", nil)
	if err != nil {
		return nil, err
	}
	return decodeAck(body), nil
}

// Reject requests the server-side transition to rejected.
func (c *Client) Reject(ctx context.Context, id item.ID) (Ack, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/items/"+url.PathEscape(id.String())+"/reject", nil)
	if err != nil {
		return nil, err
	}
	return decodeAck(body), nil
}

// FindSimilar asks the backend for the topK items semantically closest to
// id. The server is the sole ranking authority; results come back in its
// order.
func (c *Client) FindSimilar(ctx context.Context, id item.ID, topK int) (item.SimilarityResult, error) {
	path := fmt.Sprintf("/api/items/%s/similar?top_k=%d", url.PathEscape(id.String()), topK)
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return item.SimilarityResult{}, err
	}
	var res item.SimilarityResult
	if err := json.Unmarshal(body, &res); err != nil {
		return item.SimilarityResult{}, fmt.Errorf("parsing similarity response: %w", err)
	}
	return res, nil
}

// CartList lists items that are approved but not yet committed.
func (c *Client) CartList(ctx context.Context) ([]item.Item, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/items/cart", nil)
	if err != nil {
		return nil, err
	}
	return decodeItems(body)
}

// CartCommit persists all approved, uncommitted items. The result shape is
// backend-defined and passed through verbatim.
func (c *Client) CartCommit(ctx context.Context) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/items/cart/commit", nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// GenerateRequest is a generation submission. Absent fields are sent as
// explicit JSON nulls so the backend can tell "not provided" from "empty".
type GenerateRequest struct {
	PromptText *string `json:"prompt_text"`
	DocxPath   *string `json:"docx_path"`
}

// Generate submits a generation request and returns the backend-defined
// response verbatim.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (json.RawMessage, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling generate request: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, "/api/items/generate", payload)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// do performs one HTTP call. Non-2xx becomes a TransportError carrying the
// body text; failures to send or read become NetworkError.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return nil, &NetworkError{Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return body, nil
}

// decodeItems tolerates a single object where a list is expected, matching
// the loosest shape the contract allows.
func decodeItems(body []byte) ([]item.Item, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var items []item.Item
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("parsing item list: %w", err)
		}
		return items, nil
	}
	var it item.Item
	if err := json.Unmarshal(trimmed, &it); err != nil {
		return nil, fmt.Errorf("parsing item list: %w", err)
	}
	return []item.Item{it}, nil
}

func decodeAck(body []byte) Ack {
	var ack Ack
	if err := json.Unmarshal(body, &ack); err != nil {
		// Empty or non-JSON success body is still an acknowledgment.
		return Ack{}
	}
	if ack == nil {
		return Ack{}
	}
	return ack
}
